package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/infer"
)

const (
	defaultKaggleBaseURL = "https://www.kaggle.com"

	// previewRowLimit bounds how many CSV rows a sample carries back.
	previewRowLimit = 20
)

// KaggleFetcher adapts the Kaggle dataset catalog: a JSON search API plus a
// CSV preview endpoint for sample rows.
type KaggleFetcher struct {
	Client  *http.Client
	BaseURL string
	Logger  *zap.Logger
}

type kaggleDataset struct {
	Ref             string  `json:"ref"`
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle"`
	URL             string  `json:"url"`
	DownloadCount   int64   `json:"downloadCount"`
	VoteCount       int64   `json:"voteCount"`
	UsabilityRating float64 `json:"usabilityRating"`
}

// Source identifies the catalog.
func (f *KaggleFetcher) Source() core.SourceType {
	return core.SourceKaggle
}

// Search queries the dataset list endpoint. Failures degrade to an empty
// result; only adapter misuse is reported as an error.
func (f *KaggleFetcher) Search(ctx context.Context, topic string) ([]core.CandidateSource, error) {
	if f == nil {
		return nil, errors.New("kaggle fetcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := SanitizeQuery(topic)
	if query == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	endpoint := f.baseURL().ResolveReference(&url.URL{
		Path:     "/api/v1/datasets/list",
		RawQuery: url.Values{"search": {query}}.Encode(),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build kaggle search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client().Do(req)
	if err != nil {
		f.warn("kaggle search failed", query, err)
		return nil, nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		f.warn("kaggle search returned unexpected status", query, fmt.Errorf("status %d", resp.StatusCode))
		return nil, nil
	}

	var datasets []kaggleDataset
	if err := json.NewDecoder(resp.Body).Decode(&datasets); err != nil {
		f.warn("kaggle search payload malformed", query, err)
		return nil, nil
	}

	candidates := make([]core.CandidateSource, 0, len(datasets))
	for _, ds := range datasets {
		if strings.TrimSpace(ds.Ref) == "" {
			continue
		}
		title := ds.Title
		if title == "" {
			title = ds.Ref
		}
		candidates = append(candidates, core.CandidateSource{
			SourceType:      core.SourceKaggle,
			Name:            title,
			URL:             ds.URL,
			Reference:       ds.Ref,
			Description:     ds.Subtitle,
			DownloadCount:   ds.DownloadCount,
			VoteCount:       ds.VoteCount,
			UsabilityRating: ds.UsabilityRating,
		})
	}
	return candidates, nil
}

// Sample fetches the CSV preview for a dataset reference and profiles its
// columns. A missing or malformed preview yields (nil, nil).
func (f *KaggleFetcher) Sample(ctx context.Context, reference string) (*core.SampleResult, error) {
	if f == nil {
		return nil, errors.New("kaggle fetcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SampleTimeout)
	defer cancel()

	endpoint := f.baseURL().ResolveReference(&url.URL{Path: "/api/v1/datasets/preview/" + ref})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build kaggle sample request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client().Do(req)
	if err != nil {
		f.warn("kaggle sample fetch failed", ref, err)
		return nil, nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		f.warn("kaggle sample returned unexpected status", ref, fmt.Errorf("status %d", resp.StatusCode))
		return nil, nil
	}

	result, err := parseCSVPreview(resp.Body, ref)
	if err != nil {
		f.warn("kaggle sample payload malformed", ref, err)
		return nil, nil
	}
	return result, nil
}

// parseCSVPreview reads a CSV preview into a SampleResult: header row as
// column names, up to previewRowLimit data rows, per-column profiles.
func parseCSVPreview(r io.Reader, fileName string) (*core.SampleResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	names := make([]string, 0, len(header))
	for _, name := range header {
		names = append(names, strings.TrimSpace(name))
	}

	rows := make([]map[string]string, 0, previewRowLimit)
	total := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		total++
		if len(rows) >= previewRowLimit {
			continue
		}
		row := make(map[string]string, len(names))
		for i, name := range names {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("csv preview has no data rows")
	}

	return &core.SampleResult{
		FileName:   fileName,
		TotalRows:  total,
		Columns:    infer.ProfileColumns(names, rows),
		SampleRows: infer.ExtractSample(rows, infer.MaxSampleValues),
	}, nil
}

func (f *KaggleFetcher) baseURL() *url.URL {
	if f != nil && f.BaseURL != "" {
		if parsed, err := url.Parse(f.BaseURL); err == nil {
			return parsed
		}
	}
	parsed, _ := url.Parse(defaultKaggleBaseURL)
	return parsed
}

func (f *KaggleFetcher) client() *http.Client {
	if f != nil && f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *KaggleFetcher) warn(msg, subject string, err error) {
	if f == nil || f.Logger == nil {
		return
	}
	f.Logger.Warn(msg, zap.String("subject", subject), zap.Error(err))
}
