package output

import (
	"encoding/csv"
	"strings"

	"github.com/dataforge/dataforge/internal/core"
)

// CSVFormatter renders a dataset as RFC 4180 CSV with a header row.
type CSVFormatter struct{}

// FormatDataset renders rows in schema column order.
func (f *CSVFormatter) FormatDataset(dataset *core.Dataset) (string, error) {
	if dataset == nil {
		return "", nil
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	header := make([]string, 0, len(dataset.Columns))
	for _, col := range dataset.Columns {
		header = append(header, col.Name)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, row := range dataset.Rows {
		record := make([]string, 0, len(dataset.Columns))
		for _, col := range dataset.Columns {
			record = append(record, cell(row[col.Name]))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}
