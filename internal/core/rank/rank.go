// Package rank scores catalog candidates against a topic and returns the
// best matches for reference-context assembly.
package rank

import (
	"sort"
	"strings"

	"github.com/dataforge/dataforge/internal/core"
)

// TopK is the number of candidates kept per ranking call.
const TopK = 3

// Weights is the per-source scoring table. Active weights must sum to 100 so
// scores stay roughly commensurate across sources.
type Weights struct {
	ExactPhrase       float64
	TitleWords        float64
	DescriptionWords  float64
	Popularity        float64
	Usability         float64
	DownloadThreshold float64
	VoteThreshold     float64
}

// KaggleWeights is the scoring policy for the Kaggle catalog, which reports
// downloads, votes and a usability rating.
var KaggleWeights = Weights{
	ExactPhrase:       40,
	TitleWords:        25,
	DescriptionWords:  15,
	Popularity:        10,
	Usability:         10,
	DownloadThreshold: 1000,
	VoteThreshold:     100,
}

// DataHubWeights is the scoring policy for CKAN-style portals, which carry
// no usability rating; its weight is redistributed to the match signals.
var DataHubWeights = Weights{
	ExactPhrase:       50,
	TitleWords:        30,
	DescriptionWords:  15,
	Popularity:        5,
	DownloadThreshold: 1000,
	VoteThreshold:     100,
}

// ForSource returns the weight table for a catalog source.
func ForSource(source core.SourceType) Weights {
	switch source {
	case core.SourceDataHub:
		return DataHubWeights
	default:
		return KaggleWeights
	}
}

// Rank scores candidates against topic and returns at most TopK results in
// descending score order. The sort is stable: equal scores keep their fetch
// order. An empty candidate list yields an empty result.
func Rank(candidates []core.CandidateSource, topic string, weights Weights) []core.RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	topicLower := strings.ToLower(strings.TrimSpace(topic))
	words := significantWords(topicLower)

	ranked := make([]core.RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, core.RankedCandidate{
			CandidateSource: candidate,
			RelevanceScore:  score(candidate, topicLower, words, weights),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	return ranked
}

func score(candidate core.CandidateSource, topicLower string, words []string, w Weights) float64 {
	title := strings.ToLower(candidate.Name)
	description := strings.ToLower(candidate.Description)

	var total float64

	if topicLower != "" && strings.Contains(title, topicLower) {
		total += w.ExactPhrase
	}

	total += w.TitleWords * wordFraction(title, words)
	if description != "" {
		total += w.DescriptionWords * wordFraction(description, words)
	}

	total += w.Popularity * popularitySignal(candidate, w)
	total += w.Usability * clamp01(candidate.UsabilityRating)

	return total
}

// popularitySignal normalizes download and vote counts by min(raw/threshold, 10)
// and averages them onto a 0..1 scale.
func popularitySignal(candidate core.CandidateSource, w Weights) float64 {
	downloads := normalizeCount(float64(candidate.DownloadCount), w.DownloadThreshold)
	votes := normalizeCount(float64(candidate.VoteCount), w.VoteThreshold)
	return (downloads + votes) / 2 / 10
}

func normalizeCount(raw, threshold float64) float64 {
	if threshold <= 0 || raw <= 0 {
		return 0
	}
	value := raw / threshold
	if value > 10 {
		return 10
	}
	return value
}

func wordFraction(haystack string, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, word := range words {
		if strings.Contains(haystack, word) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

// significantWords splits a lowercased topic and keeps words longer than two
// characters.
func significantWords(topicLower string) []string {
	fields := strings.Fields(topicLower)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 2 {
			words = append(words, field)
		}
	}
	return words
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
