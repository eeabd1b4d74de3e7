package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/generate"
	"github.com/dataforge/dataforge/internal/core/store"
	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/metrics"
)

// Generator runs one dataset synthesis job.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Result, error)
}

// DatasetReader serves persisted datasets.
type DatasetReader interface {
	GetDataset(ctx context.Context, id string) (*core.Dataset, error)
	ListDatasets(ctx context.Context, limit, offset int) (*store.DatasetPage, error)
	DeleteDataset(ctx context.Context, id string) (bool, error)
}

// DatasetHandler serves the dataset API surface.
type DatasetHandler struct {
	Generator Generator
	Store     DatasetReader
	Metrics   *metrics.Registry
	Logger    *zap.Logger
}

// NewDatasetHandler wires a dataset handler.
func NewDatasetHandler(generator Generator, datasets DatasetReader, registry *metrics.Registry, logger *zap.Logger) *DatasetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetHandler{Generator: generator, Store: datasets, Metrics: registry, Logger: logger}
}

// Generate handles POST /api/v1/datasets/generate.
func (h *DatasetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, apperrors.NewInvalidInput("request body must be valid JSON"))
		return
	}

	h.Metrics.Inc(metrics.GenerationsTotal)
	result, err := h.Generator.Generate(r.Context(), req)
	if err != nil {
		h.Metrics.Inc(metrics.GenerationErrorsTotal)
		h.Logger.Warn("generation failed",
			zap.String("topic", req.Topic),
			zap.Error(err))
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// List handles GET /api/v1/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, r, apperrors.NewInvalidInput("limit must be an integer"))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		WriteError(w, r, apperrors.NewInvalidInput("offset must be an integer"))
		return
	}

	page, err := h.Store.ListDatasets(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/v1/datasets/{id}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dataset, err := h.Store.GetDataset(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if dataset == nil {
		WriteError(w, r, apperrors.NewNotFound("dataset not found"))
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

// Delete handles DELETE /api/v1/datasets/{id}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existed, err := h.Store.DeleteDataset(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !existed {
		WriteError(w, r, apperrors.NewNotFound("dataset not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
