package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/dataforge/dataforge/internal/errors"
	"github.com/dataforge/dataforge/internal/server/middleware"
)

// errorResponse is the JSON envelope for error replies.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps an application error onto an HTTP status and envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	detail := errorDetail{
		Code:      string(apperrors.CodeOf(err)),
		Message:   err.Error(),
		RequestID: middleware.GetRequestID(r.Context()),
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		detail.Message = appErr.Message
	}
	writeJSON(w, status, errorResponse{Error: detail})
}
