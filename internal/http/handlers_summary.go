package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"dompet/internal/core"
	"dompet/internal/export"
)

const maxImportBytes = 10 << 20

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.svc.Categories(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	def, err := s.svc.DefaultCategory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": cats,
		"default":    def,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.svc.Summary(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryView(sum))
}

// handleExport buffers the CSV so a failure can still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), &buf, f); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleImport reads an export file from the body and inserts every row. On a
// failure after some inserts the error body lists the ids already stored.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := s.svc.Import(r.Context(), r.Body)
	if err != nil {
		status, body := errorResponse(r, importError(err))
		body.Imported, body.IDs = len(res.IDs), res.IDs
		writeJSON(w, status, body)
		return
	}
	ids := res.IDs
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"imported": len(ids),
		"ids":      ids,
	})
}

// importError keeps rule violations and storage failures as they are; any
// other failure means the upload is not an export file.
func importError(err error) error {
	var tooLarge *http.MaxBytesError
	if core.IsValidation(err) || core.IsStorage(err) || errors.As(err, &tooLarge) {
		return err
	}
	return &badRequestError{Code: "malformed_csv", Err: err}
}
