package refctx

import "strings"

// MaxHints caps the semantic hint list; truncation is deterministic by
// insertion order.
const MaxHints = 10

// hintRule maps topic keywords to canned generation advice for one domain.
type hintRule struct {
	keywords []string
	hints    []string
}

// hintRules is evaluated in order; a rule fires when any keyword appears in
// the lowercased topic or description.
var hintRules = []hintRule{
	{
		keywords: []string{"ecommerce", "e-commerce", "product", "shop", "retail", "store"},
		hints: []string{
			"Product names should combine a brand-like token with a category noun",
			"Prices cluster around psychological points such as 9.99 or 24.50",
			"Stock quantities are small non-negative integers, occasionally zero",
		},
	},
	{
		keywords: []string{"finance", "bank", "transaction", "payment", "invoice", "loan"},
		hints: []string{
			"Monetary amounts carry two decimal places and vary over orders of magnitude",
			"Transaction references are short uppercase alphanumeric codes",
		},
	},
	{
		keywords: []string{"user", "customer", "employee", "person", "member"},
		hints: []string{
			"Person names should be plausible and culturally varied",
			"Email addresses should derive from the person's name",
			"Ages concentrate between 18 and 75",
		},
	},
	{
		keywords: []string{"health", "medical", "patient", "hospital", "clinic"},
		hints: []string{
			"Vital measurements stay inside physiologically plausible ranges",
			"Diagnosis fields use short clinical phrases, not free prose",
		},
	},
	{
		keywords: []string{"weather", "climate", "temperature", "sensor"},
		hints: []string{
			"Readings drift smoothly between adjacent rows rather than jumping",
			"Units must stay consistent across every row",
		},
	},
	{
		keywords: []string{"travel", "flight", "hotel", "booking", "transport"},
		hints: []string{
			"Route pairs should be real-looking city or airport codes",
			"Departure times spread across the whole day, densest at peaks",
		},
	},
	{
		keywords: []string{"education", "student", "school", "course", "university"},
		hints: []string{
			"Grades follow a rough bell curve around the middle of the scale",
			"Course codes pair a department prefix with a three-digit number",
		},
	},
}

// semanticHints returns canned advice triggered by topic keywords, at most
// MaxHints entries in rule order.
func semanticHints(topic, description string) []string {
	haystack := strings.ToLower(topic + " " + description)

	var hints []string
	for _, rule := range hintRules {
		if !anyKeyword(haystack, rule.keywords) {
			continue
		}
		for _, hint := range rule.hints {
			if len(hints) >= MaxHints {
				return hints
			}
			hints = append(hints, hint)
		}
	}
	return hints
}

func anyKeyword(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
