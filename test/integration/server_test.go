package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/catalog"
	"github.com/dataforge/dataforge/internal/config"
	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/cache"
	"github.com/dataforge/dataforge/internal/core/generate"
	"github.com/dataforge/dataforge/internal/core/store"
	"github.com/dataforge/dataforge/internal/llm"
	"github.com/dataforge/dataforge/internal/llm/gemini"
	"github.com/dataforge/dataforge/internal/metrics"
	"github.com/dataforge/dataforge/internal/refctx"
	"github.com/dataforge/dataforge/internal/server"
	"github.com/dataforge/dataforge/internal/server/handlers"
)

// memStore keeps datasets in memory so the full HTTP path can run without a
// database driver.
type memStore struct {
	mu   sync.Mutex
	byID map[string]*core.Dataset
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*core.Dataset{}}
}

func (m *memStore) InsertDataset(_ context.Context, dataset *core.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *dataset
	m.byID[dataset.ID] = &copied
	return nil
}

func (m *memStore) GetDataset(_ context.Context, id string) (*core.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memStore) ListDatasets(_ context.Context, limit, offset int) (*store.DatasetPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]core.Dataset, 0, len(m.byID))
	for _, d := range m.byID {
		items = append(items, *d)
	}
	return &store.DatasetPage{Items: items, Total: len(items), Limit: limit, Offset: offset}, nil
}

func (m *memStore) DeleteDataset(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func (m *memStore) CheckHealth(context.Context) error { return nil }

// fakeKaggle serves the search and preview endpoints the adapter expects.
func fakeKaggle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/datasets/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"ref":"acme/retail-products","title":"Retail Products Catalog","url":"https://example.com/acme/retail-products",
			 "downloadCount":50000,"voteCount":1200,"usabilityRating":0.9},
			{"ref":"other/misc","title":"Miscellaneous Data","downloadCount":10,"voteCount":1,"usabilityRating":0.2}
		]`))
	})
	mux.HandleFunc("/api/v1/datasets/preview/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id,product_name,price,in_stock\n1,Widget,19.99,true\n2,Gadget,24.50,false\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeGemini returns a fixed two-row JSON array for any prompt and exposes
// the last prompt it saw.
func fakeGemini(t *testing.T) (*httptest.Server, func() string) {
	t.Helper()
	var (
		mu         sync.Mutex
		lastPrompt string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			mu.Lock()
			lastPrompt = req.Contents[0].Parts[0].Text
			mu.Unlock()
		}

		rows := `[{"product_name":"Synth Widget","price":12.5},{"product_name":"Synth Gadget","price":30.0}]`
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]string{{"text": rows}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]int{"promptTokenCount": 100, "candidatesTokenCount": 50, "totalTokenCount": 150},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func() string {
		mu.Lock()
		defer mu.Unlock()
		return lastPrompt
	}
}

func newStack(t *testing.T) (*server.Server, *memStore, func() string) {
	t.Helper()
	logger := zap.NewNop()

	kaggle := fakeKaggle(t)
	llmUpstream, lastPrompt := fakeGemini(t)

	searchCache := cache.New(time.Hour, cache.WithoutSweep())
	sampleCache := cache.New(24*time.Hour, cache.WithoutSweep())
	t.Cleanup(func() {
		searchCache.Close()
		sampleCache.Close()
	})

	fetchers := []catalog.Fetcher{
		&catalog.KaggleFetcher{Client: kaggle.Client(), BaseURL: kaggle.URL, Logger: logger},
	}
	builder := refctx.NewBuilder(fetchers, searchCache, sampleCache, logger)

	driver := gemini.NewClient(llmUpstream.URL, "test-key", "gemini-test", llm.DefaultGenerationParams())
	driver.HTTPClient = llmUpstream.Client()

	datasets := newMemStore()
	service := generate.NewService(driver, builder, datasets, logger)

	srv := server.New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, server.Deps{
		Generator: service,
		Datasets:  datasets,
		Builder:   builder,
		Health:    []server.NamedChecker{{Name: "store", Checker: datasets}},
		Metrics:   metrics.NewRegistry(),
		Logger:    logger,
		Version:   handlers.VersionInfo{Version: "test"},
	})
	return srv, datasets, lastPrompt
}

func TestGenerateEndToEnd(t *testing.T) {
	srv, datasets, lastPrompt := newStack(t)

	payload := `{
		"topic": "retail products",
		"columns": [
			{"name": "product_name", "datatype": "string"},
			{"name": "price", "datatype": "currency"}
		],
		"rowCount": 2
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/generate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result generate.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Len(t, result.Rows, 2)
	require.True(t, result.ReferenceUsed)
	require.NotEmpty(t, result.Sources)
	require.Equal(t, "Retail Products Catalog", result.Sources[0].Name)

	// The reference block makes it into the prompt; noise columns do not.
	require.Contains(t, lastPrompt(), "REFERENCE CONTEXT")
	require.Contains(t, lastPrompt(), "product_name")
	require.NotContains(t, lastPrompt(), "- id:")

	// Generated rows were persisted and are retrievable.
	stored, err := datasets.GetDataset(context.Background(), result.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "retail products", stored.Topic)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/"+result.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateSucceedsWithoutCatalogs(t *testing.T) {
	logger := zap.NewNop()
	llmUpstream, lastPrompt := fakeGemini(t)

	searchCache := cache.New(time.Hour, cache.WithoutSweep())
	sampleCache := cache.New(24*time.Hour, cache.WithoutSweep())
	t.Cleanup(func() {
		searchCache.Close()
		sampleCache.Close()
	})

	// A dead upstream degrades to an empty context, never a failure.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(dead.Close)

	fetchers := []catalog.Fetcher{
		&catalog.KaggleFetcher{Client: dead.Client(), BaseURL: dead.URL, Logger: logger},
	}
	builder := refctx.NewBuilder(fetchers, searchCache, sampleCache, logger)

	driver := gemini.NewClient(llmUpstream.URL, "test-key", "gemini-test", llm.DefaultGenerationParams())
	driver.HTTPClient = llmUpstream.Client()

	datasets := newMemStore()
	service := generate.NewService(driver, builder, datasets, logger)

	result, err := service.Generate(context.Background(), generate.Request{
		Topic:    "retail products",
		Columns:  []core.ColumnDef{{Name: "product_name", Datatype: core.ColumnString}},
		RowCount: 2,
	})
	require.NoError(t, err)
	require.False(t, result.ReferenceUsed)
	require.NotContains(t, lastPrompt(), "REFERENCE CONTEXT")
}

func TestDatasetLifecycleOverHTTP(t *testing.T) {
	srv, datasets, _ := newStack(t)

	require.NoError(t, datasets.InsertDataset(context.Background(), &core.Dataset{
		ID: "ds-1", Topic: "products", RowCount: 1, CreatedAt: time.Now().UTC(),
	}))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var page store.DatasetPage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Equal(t, 1, page.Total)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/ds-1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/ds-1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReferenceContextEndpointEndToEnd(t *testing.T) {
	srv, _, _ := newStack(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reference-context?topic=retail+products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ContextResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Empty)
	require.NotEmpty(t, resp.Context.ReferenceSources)
	require.Contains(t, resp.Formatted, "Retail Products Catalog")
}
