package generate

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the final model prompt: schema, row count, the
// optional reference block and strict output-format instructions.
func BuildPrompt(req Request, referenceBlock string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Generate exactly %d rows of synthetic tabular data about: %s\n", req.RowCount, req.Topic))
	if strings.TrimSpace(req.Description) != "" {
		b.WriteString("Additional context: " + req.Description + "\n")
	}

	b.WriteString("\nSchema (every row must contain exactly these keys):\n")
	for _, column := range req.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s\n", column.Name, column.Datatype))
	}

	if referenceBlock != "" {
		b.WriteString("\n")
		b.WriteString(referenceBlock)
	}

	b.WriteString("\nOutput format requirements:\n")
	b.WriteString("- Return ONLY a JSON array of row objects.\n")
	b.WriteString("- No prose, no explanations, no markdown code fences.\n")
	b.WriteString("- Every object must use the schema keys exactly as given.\n")
	b.WriteString(fmt.Sprintf("- The array must contain %d objects.\n", req.RowCount))

	return b.String()
}
