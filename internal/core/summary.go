package core

import "sort"

// Totals are the income/expense sums of a transaction set.
type Totals struct {
	Income  int64 `json:"income_total"`
	Expense int64 `json:"expense_total"`
	Balance int64 `json:"balance"`
}

// MonthlyRow is one month of the dense monthly breakdown.
type MonthlyRow struct {
	Month   string `json:"month"` // YYYY-MM
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// CategoryAmount represents an amount aggregated by category and type.
type CategoryAmount struct {
	Category Category `json:"category"`
	Type     Type     `json:"type"`
	Amount   int64    `json:"amount"`
}

// Summary bundles every aggregate derived from one result set.
type Summary struct {
	Count      int              `json:"count"`
	Totals     Totals           `json:"totals"`
	Monthly    []MonthlyRow     `json:"monthly"`
	ByCategory []CategoryAmount `json:"by_category"`
}

// TotalByType sums amounts per type. An empty set yields zeros.
func TotalByType(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income += tx.Amount
		case Expense:
			t.Expense += tx.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}

// MonthlyBreakdown groups amounts by calendar month and type. Every month in
// the input gets a row with both columns, zero-filled, sorted ascending.
func MonthlyBreakdown(txs []Transaction) []MonthlyRow {
	byMonth := make(map[string]*MonthlyRow)
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		row, ok := byMonth[key]
		if !ok {
			row = &MonthlyRow{Month: key}
			byMonth[key] = row
		}
		switch tx.Type {
		case Income:
			row.Income += tx.Amount
		case Expense:
			row.Expense += tx.Amount
		}
	}

	rows := make([]MonthlyRow, 0, len(byMonth))
	for _, row := range byMonth {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// TotalsByCategory sums amounts per (category, type), sorted by category then type.
func TotalsByCategory(txs []Transaction) []CategoryAmount {
	type key struct {
		cat Category
		typ Type
	}
	sums := make(map[key]int64)
	for _, tx := range txs {
		sums[key{tx.Category, tx.Type}] += tx.Amount
	}

	out := make([]CategoryAmount, 0, len(sums))
	for k, amount := range sums {
		out = append(out, CategoryAmount{Category: k.cat, Type: k.typ, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Summarize computes all aggregates over txs without re-filtering.
func Summarize(txs []Transaction) Summary {
	return Summary{
		Count:      len(txs),
		Totals:     TotalByType(txs),
		Monthly:    MonthlyBreakdown(txs),
		ByCategory: TotalsByCategory(txs),
	}
}
