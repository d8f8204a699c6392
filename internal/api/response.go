package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/projection"
	"github.com/erazemk/inventar/internal/selection"
	"github.com/erazemk/inventar/internal/session"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

type catalogMissingResponse struct {
	Error   string              `json:"error"`
	Missing []model.CatalogKind `json:"missing"`
	Actions []string            `json:"actions"`
}

// writeError maps a domain error to a status code and JSON body. Internal
// failures are logged and reported without detail.
func writeError(w http.ResponseWriter, err error) {
	var missing *model.CatalogMissingError
	switch {
	case errors.As(err, &missing):
		jsonResponse(w, http.StatusUnprocessableEntity, catalogMissingResponse{
			Error:   missing.Error(),
			Missing: missing.Missing,
			Actions: []string{"dismiss", "generate_sample_data"},
		})
	case errors.Is(err, model.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrCatalogInUse), errors.Is(err, model.ErrDuplicateName):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, selection.ErrNotSelecting):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrClosed):
		jsonError(w, http.StatusServiceUnavailable, "shutting down")
	case errors.Is(err, projection.ErrQuery):
		slog.Error("projection query failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "could not load the inventory")
	default:
		slog.Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path parameter, writing a 400 if it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
