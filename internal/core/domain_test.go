package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-03-15 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-03-15" || d.MonthKey() != "2024-03" {
		t.Fatalf("unexpected date %s / %s", d.String(), d.MonthKey())
	}

	for _, in := range []string{"", "2024-13-01", "15/03/2024", "2024-02-30"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 1, 5))
	if err != nil || string(b) != `"2024-01-05"` {
		t.Fatalf("marshal = %s, %v", b, err)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-01-20"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.String() != "2024-01-20" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"20-01-2024"`), &d); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestParseType(t *testing.T) {
	for _, in := range []string{"income", "expense"} {
		if _, err := ParseType(in); err != nil {
			t.Fatalf("%q expected ok, got %v", in, err)
		}
	}
	for _, in := range []string{"", "Income", "transfer", "pengeluaran"} {
		_, err := ParseType(in)
		if !errors.Is(err, ErrInvalidType) || !IsValidation(err) {
			t.Fatalf("%q expected validation error, got %v", in, err)
		}
	}
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("  Food ")
	if err != nil || c != "Food" {
		t.Fatalf("got %q, %v", c, err)
	}
	if _, err := NewCategory("   "); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Date:     NewDate(2024, 1, 5),
		Amount:   50000,
		Category: "Food",
		Type:     Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*TransactionInput)
		field string
		want  error
	}{
		{"zero date", func(in *TransactionInput) { in.Date = Date{} }, "date", ErrInvalidDate},
		{"zero amount", func(in *TransactionInput) { in.Amount = 0 }, "amount", ErrInvalidAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = -1 }, "amount", ErrInvalidAmount},
		{"blank category", func(in *TransactionInput) { in.Category = "  " }, "category", ErrEmptyCategory},
		{"unknown type", func(in *TransactionInput) { in.Type = "transfer" }, "type", ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := good
			tc.mut(&in)
			err := in.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field || !errors.Is(err, tc.want) {
				t.Fatalf("got field=%s err=%v", ve.Field, err)
			}
		})
	}
}

func TestTransactionInputNormalize(t *testing.T) {
	in := TransactionInput{Category: "  Food\t", Description: "\n lunch  "}.Normalize()
	if in.Category != "Food" || in.Description != "lunch" {
		t.Fatalf("unexpected normalize result: %+v", in)
	}
}

func TestNotFoundErrorIs(t *testing.T) {
	err := error(&NotFoundError{ID: 7})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is(ErrNotFound)")
	}
	wrapped := &StorageError{Op: "get", Err: errors.New("disk I/O error")}
	if errors.Is(wrapped, ErrNotFound) || !IsStorage(wrapped) {
		t.Fatalf("storage error misclassified")
	}
}

func TestCreatedAtRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 5, 1, 30, 0, 0, time.UTC) // 08:30 WIB
	s := FormatCreatedAt(at)
	if s != "2024-01-05 08:30:00" {
		t.Fatalf("FormatCreatedAt = %q", s)
	}
	back, err := ParseCreatedAt(s)
	if err != nil || !back.Equal(at) {
		t.Fatalf("ParseCreatedAt = %v, %v", back, err)
	}
	if _, offset := WIBClock().Zone(); offset != 7*60*60 {
		t.Fatalf("WIBClock offset = %d", offset)
	}
}
