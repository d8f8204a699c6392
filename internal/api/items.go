package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/erazemk/inventar/internal/attach"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/session"
	"github.com/erazemk/inventar/internal/store"
)

// maxUploadSize bounds a multipart attachment request.
const maxUploadSize = 32 << 20

// ItemsHandler handles item endpoints. Mutations go through the session so
// the projection stays current; blob reads go to the store directly.
type ItemsHandler struct {
	Store      *store.Store
	Session    *session.Session
	Thumbnails *imaging.Thumbnails
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.Session.AddItem(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, it)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := h.Session.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	it, err := h.Session.UpdateItem(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Session.DeleteItem(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate handles POST /api/items/{id}/duplicate.
func (h *ItemsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := h.Session.DuplicateItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, it)
}

// Attach handles POST /api/items/{id}/attachments. Every "file" part is one
// dropped payload; the optional "kind" field forces image or document
// handling for all of them.
func (h *ItemsHandler) Attach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	kind := attach.Kind(r.FormValue("kind"))
	switch kind {
	case "":
		kind = attach.KindAuto
	case attach.KindImage, attach.KindDocument, attach.KindAuto:
	default:
		jsonError(w, http.StatusBadRequest, "kind must be image, document or auto")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, http.StatusBadRequest, "no file uploaded")
		return
	}

	payloads := make([]attach.Payload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("reading %q: %v", fh.Filename, err))
			return
		}
		payloads = append(payloads, attach.Payload{ItemID: id, Kind: kind, Data: data, Name: fh.Filename})
	}

	outcomes, err := h.Session.ApplyAttachments(r.Context(), payloads)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, outcomes)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.Store.GetItemImage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, a, "no image")
}

// GetThumbnail handles GET /api/items/{id}/thumbnail. Thumbnails are cached
// per item version.
func (h *ItemsHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !it.HasImage {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	thumb, err := h.Thumbnails.Get(id.String(), it.UpdatedAt, func() ([]byte, error) {
		a, err := h.Store.GetItemImage(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("item %s image: %w", id, model.ErrNotFound)
		}
		return imaging.Fit(a.Data, imaging.ThumbnailDimension)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(thumb); err != nil {
		slog.Debug("writing thumbnail", "error", err)
	}
}

// GetInvoice handles GET /api/items/{id}/invoice.
func (h *ItemsHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.Store.GetItemInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, a, "no invoice")
}

func writeAttachment(w http.ResponseWriter, a *model.Attachment, missing string) {
	if a == nil {
		jsonError(w, http.StatusNotFound, missing)
		return
	}
	w.Header().Set("Content-Type", a.MIME)
	if a.FileName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.FileName))
	}
	if _, err := w.Write(a.Data); err != nil {
		slog.Debug("writing attachment", "error", err)
	}
}
