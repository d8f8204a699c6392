package api

import (
	"net/http"

	"github.com/erazemk/inventar/internal/query"
	"github.com/erazemk/inventar/internal/session"
)

// BrowseHandler serves the projection and its filter.
type BrowseHandler struct {
	Session  *session.Session
	Currency string
	Language string
}

// Projection handles GET /api/projection.
func (h *BrowseHandler) Projection(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

// SetFilter handles PUT /api/filter.
func (h *BrowseHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var f query.Filter
	if err := decodeJSON(r, &f); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.Session.SetFilter(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

// ResetFilter handles DELETE /api/filter.
func (h *BrowseHandler) ResetFilter(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.ResetFilter(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

// Refresh handles POST /api/refresh.
func (h *BrowseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Session.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}

// Scopes handles GET /api/scopes.
func (h *BrowseHandler) Scopes(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Session.ScopeOptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, opts)
}

type settingsResponse struct {
	Currency string `json:"currency"`
	Language string `json:"language"`
}

// Settings handles GET /api/settings.
func (h *BrowseHandler) Settings(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, settingsResponse{Currency: h.Currency, Language: h.Language})
}
