package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the persisted and exported form of a transaction date.
const DateLayout = "2006-01-02"

// MonthLayout truncates a date to its calendar month.
const MonthLayout = "2006-01"

type (
	// Type is the closed set of transaction kinds.
	Type string

	// Category is a free-text label. A valid category is non-empty after trimming.
	Category string

	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	// TransactionInput holds every field a caller may set on insert or update.
	TransactionInput struct {
		Date        Date
		Amount      int64 // smallest currency unit (rupiah)
		Category    Category
		Type        Type
		Description string
	}

	// Transaction is a stored ledger entry. Values returned by a store are
	// detached snapshots.
	Transaction struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Amount      int64     `json:"amount"`
		Category    Category  `json:"category"`
		Type        Type      `json:"type"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

// Types returns every valid transaction type in display order.
func Types() []Type {
	return []Type{Income, Expense}
}

// ParseType accepts exactly "income" or "expense".
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	return t, nil
}

func (t Type) Valid() bool {
	return slices.Contains(Types(), t)
}

func (t Type) String() string {
	return string(t)
}

// NewCategory trims s and rejects it when nothing is left.
func NewCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Err: fmt.Errorf("%w: %q", ErrInvalidDate, s)}
	}
	return Date{Time: t}, nil
}

// DateOf drops the clock part of t, keeping its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

// String returns the ISO form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket of the date.
func (d Date) MonthKey() string {
	return d.Format(MonthLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if err := in.Category.Validate(); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType}
	}
	return nil
}

// Normalize trims the free-text fields the way callers are expected to before
// handing an input to a store.
func (in TransactionInput) Normalize() TransactionInput {
	in.Category = Category(strings.TrimSpace(string(in.Category)))
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// Input returns the mutable fields of tx.
func (tx Transaction) Input() TransactionInput {
	return TransactionInput{
		Date:        tx.Date,
		Amount:      tx.Amount,
		Category:    tx.Category,
		Type:        tx.Type,
		Description: tx.Description,
	}
}
