// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON wire types and the single place where errors
// are classified into status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/aggregate"
	"github.com/BurairCodes/Expense-tracker/internal/chart"
	"github.com/BurairCodes/Expense-tracker/internal/core"
	"github.com/BurairCodes/Expense-tracker/internal/ledger"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/schedule"
)

// ErrorCategory is the machine-checkable class of an error response.
type ErrorCategory string

const (
	CategoryValidation  ErrorCategory = "validation"
	CategoryNotFound    ErrorCategory = "not_found"
	CategoryServer      ErrorCategory = "server"
	CategoryRateLimited ErrorCategory = "rate_limited"
)

type ErrorResponse struct {
	Error    string        `json:"error"`
	Category ErrorCategory `json:"category"`
	Field    string        `json:"field,omitempty"`
}

type RecordResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Frequency   string    `json:"frequency,omitempty"`
	IsActive    *bool     `json:"isActive,omitempty"`
	NextDue     string    `json:"nextDue,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CategoryResponse struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type SummaryResponse struct {
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	Categories []CategoryResponse `json:"categories"`
}

type DashboardResponse struct {
	Income            float64            `json:"income"`
	Expenses          float64            `json:"expenses"`
	Balance           float64            `json:"balance"`
	Status            string             `json:"status"`
	BalanceColor      string             `json:"balanceColor"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	IncomeBreakdown   map[string]float64 `json:"incomeBreakdown"`
	Chart             chart.Model        `json:"chart"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// NewRecordResponse renders r. today only matters for scheduled charges,
// whose next due date is relative to it.
func NewRecordResponse(r core.Record, today core.Date) RecordResponse {
	resp := RecordResponse{
		ID:          r.ID,
		Title:       r.Title,
		Amount:      r.Amount.Decimal(),
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date.String(),
		CreatedAt:   r.CreatedAt,
	}
	if r.Kind == core.KindScheduled {
		active := r.IsActive
		resp.Frequency = string(r.Frequency)
		resp.IsActive = &active
		if next, ok := schedule.NextDue(r, today); ok {
			resp.NextDue = next.String()
		}
	}
	return resp
}

func NewRecordListResponse(rs []core.Record, today core.Date) []RecordResponse {
	out := make([]RecordResponse, len(rs))
	for i, r := range rs {
		out[i] = NewRecordResponse(r, today)
	}
	return out
}

func NewSummaryResponse(s aggregate.Summary) SummaryResponse {
	resp := SummaryResponse{
		Total:      s.Total.Decimal(),
		Count:      s.Count,
		Categories: make([]CategoryResponse, len(s.Categories)),
	}
	for i, c := range s.Categories {
		resp.Categories[i] = CategoryResponse{
			Category:   c.Category,
			Total:      c.Total.Decimal(),
			Count:      c.Count,
			Percentage: c.Percentage,
		}
	}
	return resp
}

func NewDashboardResponse(d ledger.Dashboard) DashboardResponse {
	return DashboardResponse{
		Income:            d.Balance.Income.Decimal(),
		Expenses:          d.Balance.Expenses.Decimal(),
		Balance:           d.Balance.Net.Decimal(),
		Status:            d.Balance.Status,
		BalanceColor:      chart.BalanceColor(d.Balance.Net),
		CategoryBreakdown: breakdown(d.Expenses),
		IncomeBreakdown:   breakdown(d.Income),
		Chart:             d.Chart,
	}
}

func breakdown(s aggregate.Summary) map[string]float64 {
	out := make(map[string]float64, len(s.Categories))
	for _, c := range s.Categories {
		out[c.Category] = c.Total.Decimal()
	}
	return out
}

// WriteJSON sends v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error to its status, category and client message.
// Server errors never leak their text.
func classify(err error) (int, ErrorResponse) {
	var ve *core.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large", Category: CategoryValidation}
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Category: CategoryValidation, Field: ve.Field}
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrInvalidKind):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Category: CategoryNotFound}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Category: CategoryServer}
	}
}

// WriteError classifies err and writes the error body. Server errors are
// logged with the request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, r.Method,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
	}
	WriteJSON(w, status, body)
}
