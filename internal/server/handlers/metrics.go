package handlers

import (
	"net/http"

	"github.com/dataforge/dataforge/internal/metrics"
)

// MetricsHandler serves the counter registry as JSON.
type MetricsHandler struct {
	Registry *metrics.Registry
}

// Get handles GET /metrics.
func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Registry.Snapshot()
	if snapshot == nil {
		snapshot = map[string]int64{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}
