package core

import "time"

// SourceType identifies an external dataset catalog.
type SourceType string

const (
	SourceKaggle  SourceType = "kaggle"
	SourceDataHub SourceType = "datahub"
)

// ColumnType is the semantic datatype of a dataset column.
type ColumnType string

const (
	ColumnString     ColumnType = "string"
	ColumnInteger    ColumnType = "integer"
	ColumnFloat      ColumnType = "float"
	ColumnBoolean    ColumnType = "boolean"
	ColumnDate       ColumnType = "date"
	ColumnEmail      ColumnType = "email"
	ColumnPhone      ColumnType = "phone"
	ColumnURL        ColumnType = "url"
	ColumnAddress    ColumnType = "address"
	ColumnName       ColumnType = "name"
	ColumnPercentage ColumnType = "percentage"
	ColumnCurrency   ColumnType = "currency"
)

// ColumnTypes returns the full datatype enumeration in canonical order.
func ColumnTypes() []ColumnType {
	return []ColumnType{
		ColumnString, ColumnInteger, ColumnFloat, ColumnBoolean,
		ColumnDate, ColumnEmail, ColumnPhone, ColumnURL,
		ColumnAddress, ColumnName, ColumnPercentage, ColumnCurrency,
	}
}

// ValidColumnType reports whether value is a member of the datatype enum.
func ValidColumnType(value ColumnType) bool {
	for _, t := range ColumnTypes() {
		if t == value {
			return true
		}
	}
	return false
}

// CandidateSource is one search hit from an external catalog. It lives for
// the duration of a single generation request (or the cache TTL) and is
// never persisted.
type CandidateSource struct {
	SourceType      SourceType `json:"source_type"`
	Name            string     `json:"name"`
	URL             string     `json:"url,omitempty"`
	Reference       string     `json:"reference"`
	Description     string     `json:"description,omitempty"`
	DownloadCount   int64      `json:"download_count,omitempty"`
	VoteCount       int64      `json:"vote_count,omitempty"`
	UsabilityRating float64    `json:"usability_rating,omitempty"`
}

// RankedCandidate pairs a candidate with its relevance score. Scores are
// comparable only within one ranking call; they are not globally normalized.
type RankedCandidate struct {
	CandidateSource
	RelevanceScore float64 `json:"relevance_score"`
}

// ColumnProfile is the inferred shape of one sampled column.
type ColumnProfile struct {
	Name         string     `json:"name"`
	Datatype     ColumnType `json:"datatype"`
	SampleValues []string   `json:"sample_values,omitempty"`
}

// SampleResult is a compact preview of one candidate dataset.
type SampleResult struct {
	FileName   string              `json:"file_name,omitempty"`
	TotalRows  int                 `json:"total_rows"`
	Columns    []ColumnProfile     `json:"columns"`
	SampleRows []map[string]string `json:"sample_rows,omitempty"`
}

// SourceSummary is the persisted trace of one reference source that
// contributed to a generation.
type SourceSummary struct {
	SourceType     SourceType `json:"source_type"`
	Name           string     `json:"name"`
	URL            string     `json:"url,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
	RetrievedAt    time.Time  `json:"retrieved_at"`
}

// ColumnPattern describes the observed shape of a reference column.
type ColumnPattern struct {
	Datatype     ColumnType `json:"datatype"`
	SampleValues []string   `json:"sample_values,omitempty"`
	ValueRange   string     `json:"value_range,omitempty"`
}

// ValueExample carries literal example values for a reference column.
type ValueExample struct {
	Datatype ColumnType `json:"datatype"`
	Examples []string   `json:"examples,omitempty"`
}

// ReferenceContext is the unit handed to the prompt formatter. It is built
// fresh per request and never mutated after construction. The zero value is
// a valid "no reference found" context, so downstream formatting is
// unconditionally safe.
type ReferenceContext struct {
	ReferenceSources []SourceSummary          `json:"reference_sources,omitempty"`
	ColumnPatterns   map[string]ColumnPattern `json:"column_patterns,omitempty"`
	ValueExamples    map[string]ValueExample  `json:"value_examples,omitempty"`
	SemanticHints    []string                 `json:"semantic_hints,omitempty"`
}

// Empty reports whether the context carries no reference material at all.
func (c ReferenceContext) Empty() bool {
	return len(c.ReferenceSources) == 0
}

// ColumnDef is one column of a user-supplied schema.
type ColumnDef struct {
	Name     string     `json:"name"`
	Datatype ColumnType `json:"datatype"`
}

// Dataset is the persisted record of one generation.
type Dataset struct {
	ID          string           `json:"id"`
	Topic       string           `json:"topic"`
	Description string           `json:"description,omitempty"`
	Columns     []ColumnDef      `json:"columns"`
	RowCount    int              `json:"row_count"`
	Rows        []map[string]any `json:"rows"`
	Sources     []SourceSummary  `json:"sources,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
