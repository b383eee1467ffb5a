package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bilancio/internal/ledger"
	"bilancio/internal/services"
)

// The /api/expenses routes serve clients of the narrow expense shape
// {id, date, amount, category, note}. They read and write the same ledger.

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.ListExpenses())
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, services.ErrInvalidExpense.Error())
		return
	}
	e, err := s.svc.CreateExpense(r.Context(), services.ExpensePatchFromMap(raw))
	if err != nil {
		s.writeExpenseError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.svc.UpdateExpense(r.Context(), chi.URLParam(r, "id"), services.ExpensePatchFromMap(raw))
	if err != nil {
		s.writeExpenseError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeExpenseError(w, r, err)
		return
	}
	writeOK(w, r)
}

func (s *Server) writeExpenseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidExpense):
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, "Not found")
	default:
		s.writeServiceError(w, r, err)
	}
}
