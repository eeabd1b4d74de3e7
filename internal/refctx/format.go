package refctx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dataforge/dataforge/internal/core"
)

// Format renders a reference context into the prompt block consumed by the
// generation orchestrator. A context with zero sources renders to the empty
// string so the final prompt never carries an empty section.
func Format(refContext core.ReferenceContext) string {
	if refContext.Empty() {
		return ""
	}

	var b strings.Builder

	b.WriteString("REFERENCE CONTEXT (for structural guidance only):\n\n")

	b.WriteString("Reference datasets consulted:\n")
	for i, source := range refContext.ReferenceSources {
		b.WriteString(fmt.Sprintf("%d. [%s] %s (relevance %.1f)", i+1, source.SourceType, source.Name, source.RelevanceScore))
		if source.URL != "" {
			b.WriteString(" " + source.URL)
		}
		b.WriteString("\n")
	}

	if len(refContext.ColumnPatterns) > 0 {
		b.WriteString("\nObserved column patterns:\n")
		for _, name := range sortedKeys(refContext.ColumnPatterns) {
			pattern := refContext.ColumnPatterns[name]
			b.WriteString(fmt.Sprintf("- %s: %s", name, pattern.Datatype))
			if len(pattern.SampleValues) > 0 {
				b.WriteString(fmt.Sprintf(" (examples: %s)", strings.Join(pattern.SampleValues, ", ")))
			}
			if pattern.ValueRange != "" {
				b.WriteString(fmt.Sprintf(" range %s", pattern.ValueRange))
			}
			b.WriteString("\n")
		}
	}

	if len(refContext.SemanticHints) > 0 {
		b.WriteString("\nDomain hints:\n")
		for _, hint := range refContext.SemanticHints {
			b.WriteString("- " + hint + "\n")
		}
	}

	b.WriteString("\nIMPORTANT: Use the reference context above only to understand realistic ")
	b.WriteString("structure, value formats and ranges. Do NOT copy any literal values from ")
	b.WriteString("the reference datasets. Every generated value must be synthetic.\n")

	return b.String()
}

func sortedKeys(patterns map[string]core.ColumnPattern) []string {
	keys := make([]string, 0, len(patterns))
	for key := range patterns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
