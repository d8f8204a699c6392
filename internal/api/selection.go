package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/session"
)

// SelectionHandler handles the batch delete flow.
type SelectionHandler struct {
	Session *session.Session
}

type confirmResponse struct {
	Deleted []uuid.UUID   `json:"deleted"`
	Failed  []failedEntry `json:"failed"`
}

type failedEntry struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// Get handles GET /api/selection.
func (h *SelectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Session.SelectionState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Begin handles POST /api/selection.
func (h *SelectionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	v, err := h.Session.BeginSelection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Toggle handles POST /api/selection/{id}.
func (h *SelectionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.Session.ToggleSelection(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Cancel handles DELETE /api/selection.
func (h *SelectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	v, err := h.Session.CancelSelection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Confirm handles POST /api/selection/confirm. Items that could not be
// deleted are listed but do not fail the request.
func (h *SelectionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.Session.ConfirmSelection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := confirmResponse{Deleted: res.Deleted, Failed: []failedEntry{}}
	if resp.Deleted == nil {
		resp.Deleted = []uuid.UUID{}
	}
	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, failedEntry{ID: f.ID, Error: f.Err.Error()})
	}
	jsonResponse(w, http.StatusOK, resp)
}
