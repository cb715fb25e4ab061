// Package core provides money parsing and handling utilities.
//
// Amounts are integers in the smallest currency unit (rupiah). Parsing accepts
// what a person would type into a form; formatting is for display only and
// never reaches storage or exports.
package core

import (
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// groupedThousands matches "1.234.567": dot-separated groups of three digits.
var groupedThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts user input into a positive integer amount.
//
// It accepts an optional "Rp" prefix, dot thousands grouping ("1.500.000"),
// and a decimal part as long as it is zero ("1500000,00"). Fractions of a
// rupiah, negatives and zero are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("50000")       -> 50000, nil
//	ParseAmount("Rp 1.500.000") -> 1500000, nil
//	ParseAmount("12,50")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.EqualFold(s[:2], "rp") {
		s = strings.TrimSpace(s[2:])
	}
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}

	if groupedThousands.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	} else {
		// Decimal comma
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.Sign() <= 0 || d.GreaterThan(maxAmount) {
		return 0, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	return d.IntPart(), nil
}

// FormatRupiah renders an amount for display, e.g. "Rp 1.234.567".
func FormatRupiah(amount int64) string {
	return "Rp " + humanize.FormatInteger("#.###,", int(amount))
}
