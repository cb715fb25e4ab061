// This file turns query strings and request bodies into ledger inputs.
// Parsing problems in the request itself become *badRequestError (400);
// values that parse but break a ledger rule stay *core.ValidationError (422).

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dompet/internal/core"
)

const maxBodyBytes = 1 << 20

type badRequestError struct {
	Code  string
	Field string
	Err   error
}

func (e *badRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %v", e.Code, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *badRequestError) Unwrap() error { return e.Err }

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &badRequestError{Code: "invalid_id", Field: "id", Err: fmt.Errorf("bad id %q", r.PathValue("id"))}
	}
	return id, nil
}

// parseLimit reads an optional row limit and clamps it to the usable range.
func parseLimit(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return core.ClampLimit(0), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &badRequestError{Code: "invalid_query", Field: "limit", Err: err}
	}
	if n <= 0 {
		return 0, &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	return core.ClampLimit(n), nil
}

// parseListFilter reads limit, start_date, end_date and category.
func parseListFilter(r *http.Request) (core.ListFilter, error) {
	q := r.URL.Query()
	limit, err := parseLimit(q)
	if err != nil {
		return core.ListFilter{}, err
	}
	f := core.ListFilter{
		Limit:    limit,
		Category: sanitizeInput(q.Get("category")),
	}
	if f.StartDate, err = parseOptionalDate(q, "start_date"); err != nil {
		return core.ListFilter{}, err
	}
	if f.EndDate, err = parseOptionalDate(q, "end_date"); err != nil {
		return core.ListFilter{}, err
	}
	return f, nil
}

func parseOptionalDate(q url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: key, Err: core.ErrInvalidDate}
	}
	return d, nil
}

// transactionRequest is the JSON body of POST and PUT. Amount may be a
// number or a string such as "Rp 1.500.000".
type transactionRequest struct {
	Date        string          `json:"date"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
}

// parseTransactionInput accepts a JSON body or a urlencoded form.
func parseTransactionInput(w http.ResponseWriter, r *http.Request) (core.TransactionInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req transactionRequest
	var amount string
	if isJSON(r) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return core.TransactionInput{}, bodyError(err)
		}
		var err error
		if amount, err = rawAmount(req.Amount); err != nil {
			return core.TransactionInput{}, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return core.TransactionInput{}, bodyError(err)
		}
		req = transactionRequest{
			Date:        r.PostForm.Get("date"),
			Category:    r.PostForm.Get("category"),
			Type:        r.PostForm.Get("type"),
			Description: r.PostForm.Get("description"),
		}
		amount = r.PostForm.Get("amount")
	}
	return req.toInput(amount)
}

func (req transactionRequest) toInput(amount string) (core.TransactionInput, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.TransactionInput{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.TransactionInput{}, err
	}
	typ, err := core.ParseType(strings.ToLower(strings.TrimSpace(req.Type)))
	if err != nil {
		return core.TransactionInput{}, err
	}
	return core.TransactionInput{
		Date:        date,
		Amount:      amt,
		Category:    core.Category(sanitizeInput(req.Category)),
		Type:        typ,
		Description: sanitizeInput(req.Description),
	}, nil
}

func rawAmount(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] != '"' {
		return string(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &badRequestError{Code: "malformed_body", Field: "amount", Err: err}
	}
	return s, nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("empty body")
	}
	return &badRequestError{Code: "malformed_body", Err: err}
}

// sanitizeInput drops control characters other than tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
