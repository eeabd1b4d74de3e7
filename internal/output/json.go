package output

import (
	"encoding/json"

	"github.com/dataforge/dataforge/internal/core"
)

// JSONFormatter renders a dataset as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatDataset renders the full dataset record.
func (f *JSONFormatter) FormatDataset(dataset *core.Dataset) (string, error) {
	if dataset == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(dataset, "", "  ")
	} else {
		data, err = json.Marshal(dataset)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
