package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// maxIconSize bounds an uploaded room icon.
const maxIconSize = 8 << 20

// CatalogHandler handles the endpoints of one catalog kind.
type CatalogHandler struct {
	Store *store.Store
	Kind  model.CatalogKind
}

type catalogRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/{kind}.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListCatalog(r.Context(), h.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Create handles POST /api/{kind}.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req catalogRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	e, err := h.Store.CreateCatalogEntry(r.Context(), h.Kind, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("catalog entry created", "kind", h.Kind, "name", e.Name)
	jsonResponse(w, http.StatusCreated, e)
}

// Update handles PUT /api/{kind}/{id}.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req catalogRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Store.UpdateCatalogEntry(r.Context(), h.Kind, id, req.Name); err != nil {
		writeError(w, err)
		return
	}

	e, err := h.Store.GetCatalogEntry(r.Context(), h.Kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("catalog entry renamed", "kind", h.Kind, "id", id, "name", e.Name)
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/{kind}/{id}. Entries still referenced by an
// item are refused.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteCatalogEntry(r.Context(), h.Kind, id); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("catalog entry deleted", "kind", h.Kind, "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SetIcon handles PUT /api/rooms/{id}/icon. The body is a JPEG or PNG image,
// stored normalized.
func (h *CatalogHandler) SetIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIconSize))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "icon too large")
		return
	}

	icon, err := imaging.Normalize(data)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "icon must be a JPEG or PNG image")
		return
	}

	if err := h.Store.SetRoomIcon(r.Context(), id, icon); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetIcon handles GET /api/rooms/{id}/icon.
func (h *CatalogHandler) GetIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	icon, err := h.Store.GetRoomIcon(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if icon == nil {
		jsonError(w, http.StatusNotFound, "no icon")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := w.Write(icon); err != nil {
		slog.Debug("writing icon", "error", err)
	}
}
