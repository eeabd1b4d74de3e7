package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/catalog"
	"github.com/dataforge/dataforge/internal/config"
	"github.com/dataforge/dataforge/internal/core/cache"
	"github.com/dataforge/dataforge/internal/core/generate"
	"github.com/dataforge/dataforge/internal/core/store"
	"github.com/dataforge/dataforge/internal/llm"
	"github.com/dataforge/dataforge/internal/llm/gemini"
	"github.com/dataforge/dataforge/internal/llm/openai"
	"github.com/dataforge/dataforge/internal/metrics"
	"github.com/dataforge/dataforge/internal/observability"
	"github.com/dataforge/dataforge/internal/refctx"
)

// app bundles the wired application graph shared by the CLI commands.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       *store.Store
	builder     *refctx.Builder
	service     *generate.Service
	registry    *metrics.Registry
	searchCache *cache.Cache
	sampleCache *cache.Cache
}

// newApp loads config and wires the full service graph.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	searchCache := cache.New(cfg.Cache.SearchTTL, cache.WithMaxEntries(cfg.Cache.MaxEntries))
	sampleCache := cache.New(cfg.Cache.SampleTTL, cache.WithMaxEntries(cfg.Cache.MaxEntries))

	registry := metrics.NewRegistry()
	fetchers := buildFetchers(cfg.Catalog, logger)
	builder := refctx.NewBuilder(fetchers, searchCache, sampleCache, logger).WithMetrics(registry)

	driver, err := buildDriver(cfg.LLM)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       st,
		builder:     builder,
		service:     generate.NewService(driver, builder, st, logger),
		registry:    registry,
		searchCache: searchCache,
		sampleCache: sampleCache,
	}, nil
}

// Close releases caches, the store and flushes logs.
func (a *app) Close() {
	a.searchCache.Close()
	a.sampleCache.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
	_ = a.logger.Sync() // nolint:errcheck
}

func buildFetchers(cfg config.CatalogConfig, logger *zap.Logger) []catalog.Fetcher {
	var fetchers []catalog.Fetcher
	if cfg.Kaggle.Enabled {
		fetchers = append(fetchers, &catalog.KaggleFetcher{
			Client:  &http.Client{Timeout: catalog.SearchTimeout},
			BaseURL: cfg.Kaggle.BaseURL,
			Logger:  logger,
		})
	}
	if cfg.DataHub.Enabled {
		fetchers = append(fetchers, &catalog.DataHubFetcher{
			Client:  &http.Client{Timeout: catalog.SearchTimeout},
			BaseURL: cfg.DataHub.BaseURL,
			Logger:  logger,
		})
	}
	return fetchers
}

func buildDriver(cfg config.LLMConfig) (llm.Driver, error) {
	params := llm.GenerationParams{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
		MaxTokens:   cfg.MaxTokens,
	}

	switch cfg.Provider {
	case "gemini":
		client := gemini.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, params)
		client.Timeout = cfg.Timeout
		return client, nil
	case "openai":
		client := openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, params)
		client.Timeout = cfg.Timeout
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
