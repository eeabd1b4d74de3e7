package catalog

import "strings"

// MaxQueryLength caps sanitized search queries.
const MaxQueryLength = 200

// SanitizeQuery reduces a raw topic to a string safe to embed in upstream
// URLs or hand to shell-backed tooling: only alphanumerics, space, hyphen,
// underscore and comma survive, trimmed and capped at MaxQueryLength.
// The function is idempotent. Sanitization happens at the adapter boundary
// regardless of the backing mechanism; it is an injection guard, not
// cosmetics.
func SanitizeQuery(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == ',':
			b.WriteRune(r)
		}
	}

	result := strings.TrimSpace(b.String())
	if len(result) > MaxQueryLength {
		result = strings.TrimSpace(result[:MaxQueryLength])
	}
	return result
}
