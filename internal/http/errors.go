// Package httpapi exposes the HTTP API and the recipe page.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/recipe-box-service/internal/csrf"
	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/obs"
	"github.com/fairyhunter13/recipe-box-service/internal/serving"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto the JSON error envelope.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, store.ErrDuplicateTitle):
		WriteJSONError(w, http.StatusConflict, "duplicate_title", err.Error())
	case errors.Is(err, model.ErrValidation):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, serving.ErrOutOfRange), errors.Is(err, serving.ErrInvalidAmount):
		WriteJSONError(w, http.StatusBadRequest, "out_of_range", err.Error())
	case errors.Is(err, csrf.ErrInvalidToken):
		WriteJSONError(w, http.StatusForbidden, "csrf_failed", err.Error())
	default:
		obs.Logger.Error("request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err.Error(),
		)
		WriteJSONError(w, http.StatusInternalServerError, "internal", "")
	}
}
