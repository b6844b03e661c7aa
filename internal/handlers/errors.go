package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"semnotes/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrProfileLimitReached):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmbeddingUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error response with the status mapped from err.
func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, statusForError(err), err.Error())
}

// writeErrorStatus writes a JSON error response with an explicit status.
func writeErrorStatus(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
