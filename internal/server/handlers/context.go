package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/dataforge/dataforge/internal/core"
	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/refctx"
)

// ContextBuilder assembles reference context for a topic.
type ContextBuilder interface {
	Build(ctx context.Context, topic, description string) core.ReferenceContext
}

// ContextHandler exposes reference context assembly for inspection without
// running a generation.
type ContextHandler struct {
	Builder ContextBuilder
}

// ContextResponse is the inspection payload.
type ContextResponse struct {
	Topic     string                `json:"topic"`
	Empty     bool                  `json:"empty"`
	Context   core.ReferenceContext `json:"context"`
	Formatted string                `json:"formatted,omitempty"`
}

// Get handles GET /api/v1/reference-context.
func (h *ContextHandler) Get(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		WriteError(w, r, apperrors.NewInvalidInput("topic query parameter is required"))
		return
	}
	description := r.URL.Query().Get("description")

	refContext := h.Builder.Build(r.Context(), topic, description)
	writeJSON(w, http.StatusOK, ContextResponse{
		Topic:     topic,
		Empty:     refContext.Empty(),
		Context:   refContext,
		Formatted: refctx.Format(refContext),
	})
}
