// Package refctx assembles the reference context that grounds dataset
// generation: catalog search, relevance ranking, sample profiling and the
// prompt-facing formatter, backed by a two-tier cache.
package refctx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/catalog"
	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/cache"
	"github.com/dataforge/dataforge/internal/core/rank"
	"github.com/dataforge/dataforge/internal/metrics"
)

// Cache TTLs for the two tiers: ranked search results turn over quickly,
// raw samples are stable enough to keep for a day.
const (
	SearchCacheTTL = time.Hour
	SampleCacheTTL = 24 * time.Hour
)

// noiseColumnMarkers excludes structural artifact columns from the patterns
// shown to the prompt formatter (case-insensitive substring match on the
// column name).
var noiseColumnMarkers = []string{"id", "timestamp", "created", "updated"}

// Builder orchestrates fetchers, ranker and caches into a ReferenceContext.
type Builder struct {
	fetchers    []catalog.Fetcher
	searchCache *cache.Cache
	sampleCache *cache.Cache
	logger      *zap.Logger
	clock       func() time.Time
	metrics     *metrics.Registry
}

// NewBuilder wires a builder. Fetchers are queried concurrently but merged
// in the order given here, so slice order sets source priority. Caches are
// process-scoped and injected, keeping every builder (and test) isolated.
func NewBuilder(fetchers []catalog.Fetcher, searchCache, sampleCache *cache.Cache, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		fetchers:    fetchers,
		searchCache: searchCache,
		sampleCache: sampleCache,
		logger:      logger,
		clock:       time.Now,
	}
}

// WithClock overrides the builder's time source, for tests.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	if clock != nil {
		b.clock = clock
	}
	return b
}

// WithMetrics attaches a counter registry. A nil registry is safe; all
// counter calls become no-ops.
func (b *Builder) WithMetrics(registry *metrics.Registry) *Builder {
	b.metrics = registry
	return b
}

// Build assembles the reference context for a topic. It never fails: any
// internal problem degrades to the zero-value context, and the only
// externally visible effect of degradation is slightly weaker generation.
func (b *Builder) Build(ctx context.Context, topic, description string) (result core.ReferenceContext) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("reference context build panicked", zap.Any("panic", r))
			result = core.ReferenceContext{}
		}
	}()

	if b == nil {
		return core.ReferenceContext{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key := normalizeTopic(topic)
	if key == "" {
		return core.ReferenceContext{}
	}

	if cached, ok := b.cachedContext(key); ok {
		b.metrics.Inc(metrics.CacheHitsTotal)
		b.logger.Debug("reference context served from cache", zap.String("topic", key))
		return cached
	}
	b.metrics.Inc(metrics.CacheMissesTotal)

	perSource := b.searchAll(ctx, topic)

	ranked := make([][]core.RankedCandidate, len(b.fetchers))
	for i, fetcher := range b.fetchers {
		ranked[i] = rank.Rank(perSource[i], topic, rank.ForSource(fetcher.Source()))
	}

	result = b.assemble(ctx, topic, description, ranked)
	if b.searchCache != nil {
		b.searchCache.Set(key, result)
	}
	return result
}

// searchAll fans the search out across fetchers. Results land in indexed
// slots so the merge order is fixed by configuration, not network timing.
func (b *Builder) searchAll(ctx context.Context, topic string) [][]core.CandidateSource {
	results := make([][]core.CandidateSource, len(b.fetchers))

	var wg sync.WaitGroup
	for i, fetcher := range b.fetchers {
		wg.Add(1)
		go func(slot int, f catalog.Fetcher) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("catalog search panicked",
						zap.String("source", string(f.Source())),
						zap.Any("panic", r))
				}
			}()
			candidates, err := f.Search(ctx, topic)
			if err != nil {
				b.metrics.Inc(metrics.FetcherFailuresTotal)
				b.logger.Warn("catalog search failed",
					zap.String("source", string(f.Source())),
					zap.Error(err))
				return
			}
			results[slot] = candidates
		}(i, fetcher)
	}
	wg.Wait()

	return results
}

// assemble turns ranked candidates into the final context: source summaries
// in priority order, one sample's column patterns, and topic hints.
func (b *Builder) assemble(ctx context.Context, topic, description string, ranked [][]core.RankedCandidate) core.ReferenceContext {
	now := b.clock().UTC()

	var summaries []core.SourceSummary
	for _, group := range ranked {
		for _, candidate := range group {
			if len(summaries) >= rank.TopK {
				break
			}
			summaries = append(summaries, core.SourceSummary{
				SourceType:     candidate.SourceType,
				Name:           candidate.Name,
				URL:            candidate.URL,
				RelevanceScore: candidate.RelevanceScore,
				RetrievedAt:    now,
			})
		}
	}

	if len(summaries) == 0 {
		return core.ReferenceContext{}
	}

	built := core.ReferenceContext{
		ReferenceSources: summaries,
		SemanticHints:    semanticHints(topic, description),
	}

	if sample := b.firstSample(ctx, ranked); sample != nil {
		built.ColumnPatterns, built.ValueExamples = columnPatterns(sample)
	}

	return built
}

// firstSample walks ranked candidates in priority order and returns the
// first non-empty sample. The raw sample is cached by candidate reference
// before any processing, so a repeat request for the same candidate skips
// the network entirely. One successful sample is enough per request.
func (b *Builder) firstSample(ctx context.Context, ranked [][]core.RankedCandidate) *core.SampleResult {
	for i, group := range ranked {
		fetcher := b.fetchers[i]
		for _, candidate := range group {
			if cached, ok := b.cachedSample(candidate.Reference); ok {
				b.metrics.Inc(metrics.CacheHitsTotal)
				return cached
			}

			sample, err := fetcher.Sample(ctx, candidate.Reference)
			if err != nil {
				b.metrics.Inc(metrics.FetcherFailuresTotal)
				b.logger.Warn("sample fetch failed",
					zap.String("source", string(fetcher.Source())),
					zap.String("reference", candidate.Reference),
					zap.Error(err))
				continue
			}
			if sample == nil || len(sample.Columns) == 0 {
				continue
			}

			if b.sampleCache != nil {
				b.sampleCache.Set(candidate.Reference, *sample)
			}
			return sample
		}
	}
	return nil
}

func (b *Builder) cachedContext(key string) (core.ReferenceContext, bool) {
	if b.searchCache == nil {
		return core.ReferenceContext{}, false
	}
	value, ok := b.searchCache.Get(key)
	if !ok {
		return core.ReferenceContext{}, false
	}
	cached, ok := value.(core.ReferenceContext)
	return cached, ok
}

func (b *Builder) cachedSample(reference string) (*core.SampleResult, bool) {
	if b.sampleCache == nil {
		return nil, false
	}
	value, ok := b.sampleCache.Get(reference)
	if !ok {
		return nil, false
	}
	if sample, ok := value.(core.SampleResult); ok {
		return &sample, true
	}
	return nil, false
}

// columnPatterns derives prompt-facing patterns and value examples from a
// sample, dropping structural noise columns.
func columnPatterns(sample *core.SampleResult) (map[string]core.ColumnPattern, map[string]core.ValueExample) {
	patterns := make(map[string]core.ColumnPattern)
	examples := make(map[string]core.ValueExample)

	for _, column := range sample.Columns {
		if isNoiseColumn(column.Name) || column.Name == "" {
			continue
		}
		patterns[column.Name] = core.ColumnPattern{
			Datatype:     column.Datatype,
			SampleValues: column.SampleValues,
			ValueRange:   valueRange(column),
		}
		examples[column.Name] = core.ValueExample{
			Datatype: column.Datatype,
			Examples: column.SampleValues,
		}
	}

	if len(patterns) == 0 {
		return nil, nil
	}
	return patterns, examples
}

// valueRange renders "min..max" for numeric columns, empty otherwise.
func valueRange(column core.ColumnProfile) string {
	if column.Datatype != core.ColumnInteger && column.Datatype != core.ColumnFloat {
		return ""
	}

	var minVal, maxVal float64
	found := false
	for _, raw := range column.SampleValues {
		var value float64
		if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%f", &value); err != nil {
			continue
		}
		if !found || value < minVal {
			minVal = value
		}
		if !found || value > maxVal {
			maxVal = value
		}
		found = true
	}
	if !found {
		return ""
	}
	return fmt.Sprintf("%g..%g", minVal, maxVal)
}

func isNoiseColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range noiseColumnMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
