package core

import (
	"strconv"
	"strings"
)

// AllCategories is the category filter value that disables category filtering.
const AllCategories = "all"

// Limits applied by user-facing layers; stores accept any positive limit.
const (
	DefaultListLimit = 200
	MinListLimit     = 10
	MaxListLimit     = 5000
)

// ListFilter selects transactions. Zero dates leave that bound open.
type ListFilter struct {
	Limit     int
	StartDate Date
	EndDate   Date
	Category  string
}

func (f ListFilter) Validate() error {
	if f.Limit <= 0 {
		return &ValidationError{Field: "limit", Err: ErrInvalidLimit}
	}
	return nil
}

// CategoryFilter returns the exact category to match and whether to filter at all.
func (f ListFilter) CategoryFilter() (string, bool) {
	if f.Category == "" || strings.EqualFold(f.Category, AllCategories) {
		return "", false
	}
	return f.Category, true
}

// Matches reports whether tx passes the date and category bounds of f.
// Bounds compare on the ISO date string, inclusive on both ends.
func (f ListFilter) Matches(tx Transaction) bool {
	date := tx.Date.String()
	if !f.StartDate.IsZero() && date < f.StartDate.String() {
		return false
	}
	if !f.EndDate.IsZero() && date > f.EndDate.String() {
		return false
	}
	if cat, ok := f.CategoryFilter(); ok && string(tx.Category) != cat {
		return false
	}
	return true
}

// Key is a stable cache key for the filter.
func (f ListFilter) Key() string {
	cat, _ := f.CategoryFilter()
	return strings.Join([]string{
		strconv.Itoa(f.Limit),
		f.StartDate.String(),
		f.EndDate.String(),
		cat,
	}, "|")
}

// ClampLimit bounds a user supplied row limit to the usable range,
// using DefaultListLimit when none was given.
func ClampLimit(n int) int {
	switch {
	case n == 0:
		return DefaultListLimit
	case n < MinListLimit:
		return MinListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}
