package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BurairCodes/Expense-tracker/internal/chart"
	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/filter"
)

// collection resolves the {collection} path segment. Unknown names are
// reported as not found.
func collection(r *http.Request) (core.Kind, error) {
	return core.ParseKind(chi.URLParam(r, "collection"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p, err := ParseFilter(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	records, err := s.ledger.List(r.Context(), kind, p)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewRecordListResponse(records, s.today()))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rec, err := s.ledger.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewRecordResponse(rec, s.today()))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := DecodeRecordInput(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rec, err := s.ledger.Create(r.Context(), kind, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+rec.ID)
	WriteJSON(w, http.StatusCreated, NewRecordResponse(rec, s.today()))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	// Unknown ids are reported as 404 even when the body is also invalid.
	if _, err := s.ledger.Get(r.Context(), kind, id); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := DecodeRecordInput(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	rec, err := s.ledger.Update(r.Context(), kind, id, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewRecordResponse(rec, s.today()))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: deletedMessage(kind)})
}

func deletedMessage(kind core.Kind) string {
	switch kind {
	case core.KindExpense:
		return "Expense deleted successfully"
	case core.KindIncome:
		return "Income deleted successfully"
	default:
		return "Scheduled charge deleted successfully"
	}
}

// handleSetActive serves deactivate/activate, which only scheduled
// charges support.
func (s *Server) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := collection(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		if kind != core.KindScheduled {
			WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Category: CategoryNotFound})
			return
		}
		rec, err := s.ledger.SetActive(r.Context(), chi.URLParam(r, "id"), active)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, NewRecordResponse(rec, s.today()))
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	kind, p, ok := s.statsRequest(w, r)
	if !ok {
		return
	}
	sum, err := s.ledger.Summary(r.Context(), kind, p)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewSummaryResponse(sum))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, p, ok := s.statsRequest(w, r)
	if !ok {
		return
	}
	model, err := s.ledger.Chart(r.Context(), kind, p, chartOptions(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, model)
}

func (s *Server) statsRequest(w http.ResponseWriter, r *http.Request) (core.Kind, filter.Predicate, bool) {
	kind, err := collection(r)
	if err != nil {
		WriteError(w, r, err)
		return "", filter.Predicate{}, false
	}
	p, err := ParseFilter(r)
	if err != nil {
		WriteError(w, r, err)
		return "", filter.Predicate{}, false
	}
	return kind, p, true
}

// handleDashboard serves the income/expense overview. Only the date range
// applies; category filters would make the balance meaningless.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := ParseFilter(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	p = filter.Predicate{DateFrom: p.DateFrom, DateTo: p.DateTo}

	d, err := s.ledger.Dashboard(r.Context(), p, chartOptions(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, NewDashboardResponse(d))
}

func chartOptions(r *http.Request) chart.Options {
	return chart.Options{Currency: sanitizeInput(r.URL.Query().Get("currency"))}
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
