package memory

import (
	"context"
	"testing"
	"time"

	"dompet/internal/core"
)

func tx(id, amount int64) core.Transaction {
	return core.Transaction{
		ID: id, Date: core.NewDate(2024, 1, 5), Amount: amount, Category: "Food",
		Type: core.Expense, CreatedAt: time.Date(2024, 1, 5, 8, 30, 0, 0, core.Jakarta),
	}
}

func TestMirror(t *testing.T) {
	ctx := context.Background()
	m := New()

	_ = m.Upsert(ctx, tx(2, 10))
	_ = m.Upsert(ctx, tx(1, 20))
	_ = m.Upsert(ctx, tx(2, 30))
	row, ok := m.Row(2)
	if !ok || row[0] != "2" || row[2] != int64(30) || row[6] != "2024-01-05 08:30:00" {
		t.Fatalf("row 2 = %v, %v", row, ok)
	}

	if err := m.Remove(ctx, 99); err != nil {
		t.Fatalf("removing a missing row: %v", err)
	}
	_ = m.Remove(ctx, 1)
	if got := m.IDs(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("ids = %v", got)
	}

	_ = m.Replace(ctx, []core.Transaction{tx(5, 1), tx(4, 1)})
	if got := m.IDs(); len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("ids after replace = %v", got)
	}

	calls := map[string]int{"upsert": 3, "remove": 2, "replace": 1}
	for method, want := range calls {
		if got := m.Calls(method); got != want {
			t.Errorf("Calls(%q) = %d, want %d", method, got, want)
		}
	}
}
