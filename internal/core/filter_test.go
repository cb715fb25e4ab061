package core

import (
	"errors"
	"testing"
)

func TestListFilterMatches(t *testing.T) {
	food := tx("2024-01-05", 1, "Food", Expense)
	salary := tx("2024-01-20", 1, "Salary", Income)
	start, _ := ParseDate("2024-01-05")
	end, _ := ParseDate("2024-01-19")

	cases := []struct {
		name   string
		filter ListFilter
		tx     Transaction
		want   bool
	}{
		{"no bounds", ListFilter{}, food, true},
		{"start inclusive", ListFilter{StartDate: start}, food, true},
		{"end inclusive", ListFilter{EndDate: food.Date}, food, true},
		{"after end", ListFilter{StartDate: start, EndDate: end}, salary, false},
		{"before start", ListFilter{StartDate: salary.Date}, food, false},
		{"exact category", ListFilter{Category: "Food"}, food, true},
		{"case sensitive category", ListFilter{Category: "food"}, food, false},
		{"all sentinel", ListFilter{Category: "ALL"}, salary, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tc.tx); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListFilterValidate(t *testing.T) {
	if err := (ListFilter{Limit: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, limit := range []int{0, -5} {
		if err := (ListFilter{Limit: limit}).Validate(); !errors.Is(err, ErrInvalidLimit) {
			t.Fatalf("limit %d expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestListFilterKey(t *testing.T) {
	a := ListFilter{Limit: 200, Category: "All"}
	b := ListFilter{Limit: 200}
	if a.Key() != b.Key() {
		t.Fatalf("all-categories filters should share a key: %q vs %q", a.Key(), b.Key())
	}
	c := ListFilter{Limit: 200, Category: "Food"}
	if a.Key() == c.Key() {
		t.Fatalf("category filter should change key")
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{0: 200, 1: 10, 10: 10, 250: 250, 5000: 5000, 9000: 5000}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
