package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataforge/dataforge/internal/config"
	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/generate"
	"github.com/dataforge/dataforge/internal/core/store"
	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/metrics"
	"github.com/dataforge/dataforge/internal/server/handlers"
)

type fakeGenerator struct {
	result *generate.Result
	err    error
	got    generate.Request
}

func (f *fakeGenerator) Generate(_ context.Context, req generate.Request) (*generate.Result, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDatasets struct {
	byID map[string]*core.Dataset
}

func (f *fakeDatasets) GetDataset(_ context.Context, id string) (*core.Dataset, error) {
	return f.byID[id], nil
}

func (f *fakeDatasets) ListDatasets(_ context.Context, limit, offset int) (*store.DatasetPage, error) {
	items := make([]core.Dataset, 0, len(f.byID))
	for _, d := range f.byID {
		items = append(items, *d)
	}
	return &store.DatasetPage{Items: items, Total: len(items), Limit: limit, Offset: offset}, nil
}

func (f *fakeDatasets) DeleteDataset(_ context.Context, id string) (bool, error) {
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

type fakeBuilder struct {
	ctx core.ReferenceContext
}

func (f *fakeBuilder) Build(_ context.Context, _, _ string) core.ReferenceContext {
	return f.ctx
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Generator == nil {
		deps.Generator = &fakeGenerator{result: &generate.Result{ID: "unused"}}
	}
	if deps.Datasets == nil {
		deps.Datasets = &fakeDatasets{byID: map[string]*core.Dataset{}}
	}
	if deps.Builder == nil {
		deps.Builder = &fakeBuilder{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, deps)
}

func do(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	gen := &fakeGenerator{result: &generate.Result{
		ID:            "ds-1",
		Rows:          []map[string]any{{"name": "Widget"}},
		ReferenceUsed: true,
	}}
	srv := newTestServer(t, Deps{Generator: gen})

	payload := `{"topic":"products","columns":[{"name":"name","datatype":"string"}],"rowCount":1}`
	rec := do(srv, http.MethodPost, "/api/v1/datasets/generate", []byte(payload))

	require.Equal(t, http.StatusCreated, rec.Code)

	var result generate.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.Equal(t, "ds-1", result.ID)
	require.True(t, result.ReferenceUsed)
	require.Equal(t, "products", gen.got.Topic)
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := do(srv, http.MethodPost, "/api/v1/datasets/generate", []byte("{not json"))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestGenerateMapsGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.WrapGeneration(errors.New("bad json"), "model returned unparseable output")}
	registry := metrics.NewRegistry()
	srv := newTestServer(t, Deps{Generator: gen, Metrics: registry})

	payload := `{"topic":"products","columns":[{"name":"name","datatype":"string"}],"rowCount":1}`
	rec := do(srv, http.MethodPost, "/api/v1/datasets/generate", []byte(payload))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, int64(1), registry.Get(metrics.GenerationErrorsTotal))
}

func TestGetDataset(t *testing.T) {
	datasets := &fakeDatasets{byID: map[string]*core.Dataset{
		"ds-1": {ID: "ds-1", Topic: "products", RowCount: 2, CreatedAt: time.Now().UTC()},
	}}
	srv := newTestServer(t, Deps{Datasets: datasets})

	rec := do(srv, http.MethodGet, "/api/v1/datasets/ds-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dataset core.Dataset
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dataset))
	require.Equal(t, "products", dataset.Topic)

	rec = do(srv, http.MethodGet, "/api/v1/datasets/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDataset(t *testing.T) {
	datasets := &fakeDatasets{byID: map[string]*core.Dataset{"ds-1": {ID: "ds-1"}}}
	srv := newTestServer(t, Deps{Datasets: datasets})

	rec := do(srv, http.MethodDelete, "/api/v1/datasets/ds-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/v1/datasets/ds-1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDatasetsRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := do(srv, http.MethodGet, "/api/v1/datasets?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferenceContextEndpoint(t *testing.T) {
	builder := &fakeBuilder{ctx: core.ReferenceContext{
		ReferenceSources: []core.SourceSummary{{SourceType: core.SourceKaggle, Name: "Products", RelevanceScore: 80}},
		SemanticHints:    []string{"include price field"},
	}}
	srv := newTestServer(t, Deps{Builder: builder})

	rec := do(srv, http.MethodGet, "/api/v1/reference-context?topic=products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ContextResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.False(t, resp.Empty)
	require.Contains(t, resp.Formatted, "REFERENCE CONTEXT")

	rec = do(srv, http.MethodGet, "/api/v1/reference-context", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, Deps{Health: []NamedChecker{
		{Name: "store", Checker: checkerFunc(func(context.Context) error { return nil })},
	}})

	rec := do(srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Equal(t, "healthy", health.Checks["store"])
}

func TestReadyzReportsUnhealthyDependency(t *testing.T) {
	srv := newTestServer(t, Deps{Health: []NamedChecker{
		{Name: "store", Checker: checkerFunc(func(context.Context) error { return errors.New("closed") })},
	}})

	rec := do(srv, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, Deps{Version: handlers.VersionInfo{Version: "1.2.3", Commit: "abc123"}})

	rec := do(srv, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.VersionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "1.2.3", resp.App.Version)
	require.NotEmpty(t, resp.Runtime.GoVersion)
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	registry := metrics.NewRegistry()
	srv := newTestServer(t, Deps{Metrics: registry})

	do(srv, http.MethodGet, "/healthz", nil)
	rec := do(srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	require.GreaterOrEqual(t, snapshot["http_requests_total"], int64(1))
	require.Contains(t, snapshot, "uptime_seconds")
}

func TestNotFoundEnvelope(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := do(srv, http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}
