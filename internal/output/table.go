package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataforge/dataforge/internal/core"
)

// TableFormatter renders a dataset as an ASCII table.
type TableFormatter struct{}

// FormatDataset renders the dataset rows with one column per schema entry.
func (f *TableFormatter) FormatDataset(dataset *core.Dataset) (string, error) {
	if dataset == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(dataset.Columns))
	for _, col := range dataset.Columns {
		header = append(header, col.Name)
	}
	t.AppendHeader(header)

	for _, row := range dataset.Rows {
		rendered := make(table.Row, 0, len(dataset.Columns))
		for _, col := range dataset.Columns {
			rendered = append(rendered, cell(row[col.Name]))
		}
		t.AppendRow(rendered)
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(dataset.Rows))})
	return t.Render(), nil
}

// FormatSources renders reference sources as a compact table.
func FormatSources(sources []core.SourceSummary) string {
	if len(sources) == 0 {
		return "no reference sources"
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Source", "Name", "Relevance", "URL"})
	for _, s := range sources {
		t.AppendRow(table.Row{string(s.SourceType), s.Name, fmt.Sprintf("%.1f", s.RelevanceScore), s.URL})
	}
	return t.Render()
}
