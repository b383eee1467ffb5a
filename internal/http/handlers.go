package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/codec"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r)
}

func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Vocabulary())
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{"months": s.svc.Months()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query(), s.now())
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, s.svc.View(q))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d := draftFromMap(raw)
	d.ID = ""
	rec, err := s.svc.Upsert(r.Context(), d)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	d := draftFromMap(raw)
	d.ID = chi.URLParam(r, "id")
	rec, err := s.svc.Upsert(r.Context(), d)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, r)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8", s.svc.ExportCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", s.svc.ExportXLSX)
}

// export renders into a buffer first so a failure can still become a JSON
// error instead of a truncated attachment.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(io.Writer, string) error) {
	month, err := parseMonth(r.URL.Query(), s.now())
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := render(&buf, month); err != nil {
		log.FromContext(r.Context()).Error("Export failed", log.FieldMonth, month, log.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+codec.ExportFilename(month, ext)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	stored, err := s.svc.Import(r.Context(), r.Body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"imported": len(stored)})
}

// writeServiceError maps domain errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, r, verr.Fields)
	case errors.Is(err, ledger.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, "Not found")
	case errors.Is(err, codec.ErrMalformedImport):
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.FromContext(r.Context()).Error("Request failed", log.FieldError, err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
