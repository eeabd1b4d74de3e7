package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// stripCodeFences removes markdown fence lines the model may wrap its JSON
// in, despite instructions not to.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "```") {
		return trimmed
	}

	var kept []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// parseRows turns raw model output into row objects. The text is de-fenced,
// parsed as JSON and, when that fails, run through jsonrepair once before a
// final attempt. A non-array or empty result is an error; there is no retry
// against the model here.
func parseRows(text string) ([]map[string]any, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("model returned empty output")
	}

	// The model sometimes prefixes prose despite instructions; cut to the
	// outermost array when one exists.
	if start := strings.Index(cleaned, "["); start > 0 {
		if end := strings.LastIndex(cleaned, "]"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	rows, err := decodeRows(cleaned)
	if err == nil {
		return rows, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return nil, err
	}
	return decodeRows(repaired)
}

func decodeRows(text string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("model output is not a JSON array of objects: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("model returned an empty array")
	}
	return rows, nil
}
