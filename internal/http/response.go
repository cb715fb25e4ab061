package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"dompet/internal/core"
	"dompet/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`

	// Set when an import failed after some rows were stored.
	Imported int     `json:"imported,omitempty"`
	IDs      []int64 `json:"ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto status codes and machine codes.
// Callers render their own messages from the code and field.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(r, err)
	writeJSON(w, status, body)
}

// errorResponse maps err to a status and body. Unexpected errors are logged.
func errorResponse(r *http.Request, err error) (int, errorBody) {
	var (
		bad      *badRequestError
		invalid  *core.ValidationError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, errorBody{Error: bad.Code, Field: bad.Field}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: "body_too_large"}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, errorBody{Error: "invalid_" + invalid.Field, Field: invalid.Field}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found"}
	default:
		code := "internal"
		if core.IsStorage(err) {
			code = "storage"
		}
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
		return http.StatusInternalServerError, errorBody{Error: code}
	}
}

// transactionView is a transaction as served by the API, with a display
// rendering of its amount.
type transactionView struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	Display     string `json:"display"`
}

func newTransactionView(tx core.Transaction) transactionView {
	return transactionView{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Amount:      tx.Amount,
		Category:    string(tx.Category),
		Type:        string(tx.Type),
		Description: tx.Description,
		CreatedAt:   core.FormatCreatedAt(tx.CreatedAt),
		Display:     core.FormatRupiah(tx.Amount),
	}
}

type totalsDisplay struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

type summaryView struct {
	core.Summary
	Display totalsDisplay `json:"display"`
}

func newSummaryView(s core.Summary) summaryView {
	if s.Monthly == nil {
		s.Monthly = []core.MonthlyRow{}
	}
	if s.ByCategory == nil {
		s.ByCategory = []core.CategoryAmount{}
	}
	return summaryView{
		Summary: s,
		Display: totalsDisplay{
			Income:  core.FormatRupiah(s.Totals.Income),
			Expense: core.FormatRupiah(s.Totals.Expense),
			Balance: core.FormatRupiah(s.Totals.Balance),
		},
	}
}
