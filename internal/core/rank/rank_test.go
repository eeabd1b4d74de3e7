package rank

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dataforge/dataforge/internal/core"
)

func candidate(name, description string) core.CandidateSource {
	return core.CandidateSource{
		SourceType:  core.SourceKaggle,
		Name:        name,
		Reference:   name,
		Description: description,
	}
}

func TestRankEmptyInput(t *testing.T) {
	require.Empty(t, Rank(nil, "retail sales", KaggleWeights))
	require.Empty(t, Rank([]core.CandidateSource{}, "retail sales", KaggleWeights))
}

func TestRankReturnsAtMostThree(t *testing.T) {
	candidates := []core.CandidateSource{
		candidate("retail sales 2023", ""),
		candidate("retail sales europe", ""),
		candidate("retail sales usa", ""),
		candidate("retail sales asia", ""),
		candidate("retail sales africa", ""),
	}

	ranked := Rank(candidates, "retail sales", KaggleWeights)
	require.Len(t, ranked, TopK)
}

func TestRankDescendingOrder(t *testing.T) {
	candidates := []core.CandidateSource{
		candidate("weather stations", ""),
		candidate("retail sales transactions", "daily retail sales"),
		candidate("retail inventory", ""),
	}

	ranked := Rank(candidates, "retail sales", KaggleWeights)
	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		require.GreaterOrEqual(t, ranked[i-1].RelevanceScore, ranked[i].RelevanceScore)
	}
	require.Equal(t, "retail sales transactions", ranked[0].Name)
}

func TestRankStableTieBreakPreservesFetchOrder(t *testing.T) {
	// Identical candidates score identically; fetch order must survive.
	candidates := []core.CandidateSource{
		candidate("first dataset", ""),
		candidate("second dataset", ""),
		candidate("third dataset", ""),
	}

	ranked := Rank(candidates, "unrelated topic", KaggleWeights)
	require.Len(t, ranked, 3)
	require.Equal(t, "first dataset", ranked[0].Name)
	require.Equal(t, "second dataset", ranked[1].Name)
	require.Equal(t, "third dataset", ranked[2].Name)
}

func TestRankExactPhraseBonus(t *testing.T) {
	exact := candidate("global retail sales dataset", "")
	partial := candidate("sales figures for retail stores", "")

	ranked := Rank([]core.CandidateSource{partial, exact}, "retail sales", KaggleWeights)
	require.Equal(t, exact.Name, ranked[0].Name)
	require.Greater(t, ranked[0].RelevanceScore-ranked[1].RelevanceScore, 30.0)
}

func TestRankPopularityAndUsability(t *testing.T) {
	popular := core.CandidateSource{
		Name:            "retail sales",
		Reference:       "popular",
		DownloadCount:   10000,
		VoteCount:       1000,
		UsabilityRating: 1.0,
	}
	obscure := core.CandidateSource{
		Name:      "retail sales",
		Reference: "obscure",
	}

	ranked := Rank([]core.CandidateSource{obscure, popular}, "retail sales", KaggleWeights)
	require.Equal(t, "popular", ranked[0].Reference)

	// Fully saturated popularity (10/10) plus full usability adds exactly
	// the remaining 20 points of the weight table.
	require.InDelta(t, 20.0, ranked[0].RelevanceScore-ranked[1].RelevanceScore, 1e-9)
}

func TestRankWordFractionScaling(t *testing.T) {
	half := candidate("customer transactions", "")
	full := candidate("customer transactions history log", "")

	ranked := Rank([]core.CandidateSource{half, full}, "customer transactions history log", KaggleWeights)
	require.Equal(t, full.Name, ranked[0].Name)
}

func TestRankShortWordsIgnored(t *testing.T) {
	// "of" and "in" are not significant; only "cars" and "japan" count.
	c := candidate("cars japan", "")
	ranked := Rank([]core.CandidateSource{c}, "cars of in japan", KaggleWeights)
	require.Len(t, ranked, 1)
	// Both significant words match the title: full title-word weight applies.
	require.GreaterOrEqual(t, ranked[0].RelevanceScore, KaggleWeights.TitleWords)
}

func TestWeightTablesSumToHundred(t *testing.T) {
	for name, w := range map[string]Weights{"kaggle": KaggleWeights, "datahub": DataHubWeights} {
		sum := w.ExactPhrase + w.TitleWords + w.DescriptionWords + w.Popularity + w.Usability
		require.InDelta(t, 100.0, sum, 1e-9, "weight table %s", name)
	}
}

func TestForSource(t *testing.T) {
	require.Equal(t, DataHubWeights, ForSource(core.SourceDataHub))
	require.Equal(t, KaggleWeights, ForSource(core.SourceKaggle))
}
