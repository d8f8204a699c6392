package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/export"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/sample"
	"github.com/erazemk/inventar/internal/session"
	"github.com/erazemk/inventar/internal/store"
)

// DataHandler handles sample data generation and exports.
type DataHandler struct {
	Store   *store.Store
	Session *session.Session
	Seed    *sample.Seed
}

// GenerateSample handles POST /api/sample-data. It is safe to repeat.
func (h *DataHandler) GenerateSample(w http.ResponseWriter, r *http.Request) {
	sum, err := sample.Generate(r.Context(), h.Store, h.Seed)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("sample data generated", "catalogs", sum.Catalogs, "items", sum.Items)
	jsonResponse(w, http.StatusOK, sum)
}

// ExportCSV handles GET /api/export.csv. The export holds the items of the
// current projection in display order.
func (h *DataHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", "csv", export.CSV)
}

// ExportXLSX handles GET /api/export.xlsx.
func (h *DataHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", export.XLSX)
}

func (h *DataHandler) export(w http.ResponseWriter, r *http.Request, contentType, ext string,
	write func(io.Writer, []model.Item) error) {
	snap, err := h.Session.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, snap.Items()); err != nil {
		writeError(w, err)
		return
	}

	name := fmt.Sprintf("inventory_%s.%s", time.Now().Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("writing export", "error", err)
	}
}
