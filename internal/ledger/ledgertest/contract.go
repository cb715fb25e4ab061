// Package ledgertest holds the behavioural contract every ledger.Store must
// satisfy, runnable against any implementation.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

// Factory opens an empty store stamping created_at with now.
type Factory func(t *testing.T, now core.Clock) ledger.Store

// FixedNow is the instant pinned by RunContract: 2024-01-05 08:30:00 WIB.
var FixedNow = time.Date(2024, 1, 5, 8, 30, 0, 0, core.Jakarta)

// Input builds a valid input; it panics on a malformed date.
func Input(date string, amount int64, category string, typ core.Type, desc string) core.TransactionInput {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.TransactionInput{
		Date:        d,
		Amount:      amount,
		Category:    core.Category(category),
		Type:        typ,
		Description: desc,
	}
}

// RunContract exercises every store operation through newStore.
func RunContract(t *testing.T, newStore Factory) {
	fixed := func() time.Time { return FixedNow }
	open := func(t *testing.T) ledger.Store {
		t.Helper()
		s := newStore(t, fixed)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("insert then get round trips", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		in := Input("2024-01-05", 50000, "Food", core.Expense, "nasi goreng")

		id, err := s.Insert(ctx, in)
		require.NoError(t, err)
		require.NotZero(t, id)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, in, got.Input())
		assert.True(t, got.CreatedAt.Equal(FixedNow), "created_at = %v", got.CreatedAt)
		_, offset := got.CreatedAt.Zone()
		assert.Equal(t, 7*60*60, offset)
	})

	t.Run("get missing id reports not found", func(t *testing.T) {
		_, err := open(t).Get(context.Background(), 42)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("non-positive amount is rejected without mutation", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		id, err := s.Insert(ctx, Input("2024-01-05", 1000, "Food", core.Expense, ""))
		require.NoError(t, err)

		for _, amount := range []int64{0, -500} {
			_, err := s.Insert(ctx, Input("2024-01-06", amount, "Food", core.Expense, ""))
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
			assert.True(t, core.IsValidation(err))

			err = s.Update(ctx, id, Input("2024-02-01", amount, "Other", core.Income, "changed"))
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
		}

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1000, got.Amount)
		assert.Equal(t, core.Category("Food"), got.Category)
	})

	t.Run("unknown type and empty category are rejected", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		_, err := s.Insert(ctx, Input("2024-01-05", 10, "Food", core.Type("transfer"), ""))
		assert.ErrorIs(t, err, core.ErrInvalidType)
		_, err = s.Insert(ctx, Input("2024-01-05", 10, "", core.Income, ""))
		assert.ErrorIs(t, err, core.ErrEmptyCategory)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update replaces fields and keeps id and created_at", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		id, err := s.Insert(ctx, Input("2024-01-05", 50000, "Food", core.Expense, ""))
		require.NoError(t, err)
		before, err := s.Get(ctx, id)
		require.NoError(t, err)

		next := Input("2024-01-07", 75000, "Transport", core.Income, "ojek")
		require.NoError(t, s.Update(ctx, id, next))

		after, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, after.ID)
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
		assert.Equal(t, next, after.Input())
	})

	t.Run("update missing id does not create", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		_, err := s.Insert(ctx, Input("2024-01-05", 1, "Food", core.Expense, ""))
		require.NoError(t, err)

		err = s.Update(ctx, 999, Input("2024-01-05", 1, "Food", core.Expense, ""))
		assert.ErrorIs(t, err, core.ErrNotFound)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("delete twice reports not found the second time", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		id, err := s.Insert(ctx, Input("2024-01-05", 1, "Food", core.Expense, ""))
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, id))
		assert.ErrorIs(t, s.Delete(ctx, id), core.ErrNotFound)
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		a, err := s.Insert(ctx, Input("2024-01-05", 1, "Food", core.Expense, ""))
		require.NoError(t, err)
		b, err := s.Insert(ctx, Input("2024-01-05", 1, "Food", core.Expense, ""))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, b))

		c, err := s.Insert(ctx, Input("2024-01-05", 1, "Food", core.Expense, ""))
		require.NoError(t, err)
		assert.Greater(t, c, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("returned snapshots are detached", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		id, err := s.Insert(ctx, Input("2024-01-05", 100, "Food", core.Expense, ""))
		require.NoError(t, err)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		got.Amount = 1
		got.Category = "Changed"

		listed, err := s.List(ctx, core.ListFilter{Limit: 10})
		require.NoError(t, err)
		listed[0].Amount = 2

		again, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 100, again.Amount)
		assert.Equal(t, core.Category("Food"), again.Category)
	})

	t.Run("list filters by inclusive date range", func(t *testing.T) {
		ctx := context.Background()
		s := seed(t, open(t))
		start, _ := core.ParseDate("2024-01-05")
		end, _ := core.ParseDate("2024-01-20")

		got, err := s.List(ctx, core.ListFilter{Limit: 100, StartDate: start, EndDate: end})
		require.NoError(t, err)
		require.NotEmpty(t, got)
		for _, tx := range got {
			d := tx.Date.String()
			assert.True(t, d >= "2024-01-05" && d <= "2024-01-20", "date %s out of range", d)
		}
		assert.Len(t, got, 3)
	})

	t.Run("list filters by exact category", func(t *testing.T) {
		ctx := context.Background()
		s := seed(t, open(t))

		food, err := s.List(ctx, core.ListFilter{Limit: 100, Category: "Food"})
		require.NoError(t, err)
		assert.Len(t, food, 2)
		for _, tx := range food {
			assert.Equal(t, core.Category("Food"), tx.Category)
		}

		lower, err := s.List(ctx, core.ListFilter{Limit: 100, Category: "food"})
		require.NoError(t, err)
		assert.Empty(t, lower)

		all, err := s.List(ctx, core.ListFilter{Limit: 100, Category: "All"})
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("list orders by date then id descending and honours limit", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		first, err := s.Insert(ctx, Input("2024-01-10", 1, "A", core.Expense, ""))
		require.NoError(t, err)
		second, err := s.Insert(ctx, Input("2024-01-10", 2, "A", core.Expense, ""))
		require.NoError(t, err)
		latest, err := s.Insert(ctx, Input("2024-02-01", 3, "A", core.Expense, ""))
		require.NoError(t, err)
		_, err = s.Insert(ctx, Input("2023-12-31", 4, "A", core.Expense, ""))
		require.NoError(t, err)

		got, err := s.List(ctx, core.ListFilter{Limit: 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{latest, second, first}, []int64{got[0].ID, got[1].ID, got[2].ID})

		_, err = s.List(ctx, core.ListFilter{Limit: 0})
		assert.ErrorIs(t, err, core.ErrInvalidLimit)
	})

	t.Run("list categories is sorted and distinct", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		for _, c := range []string{"Transport", "Food", "Food", "Transport"} {
			_, err := s.Insert(ctx, Input("2024-01-05", 1, c, core.Expense, ""))
			require.NoError(t, err)
		}
		got, err := s.ListCategories(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"Food", "Transport"}, got)

		capped, err := s.ListCategories(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Food"}, capped)
	})

	t.Run("aggregation scenario over stored rows", func(t *testing.T) {
		ctx := context.Background()
		s := open(t)
		_, err := s.Insert(ctx, Input("2024-01-05", 50000, "Food", core.Expense, ""))
		require.NoError(t, err)
		_, err = s.Insert(ctx, Input("2024-01-20", 200000, "Salary", core.Income, ""))
		require.NoError(t, err)

		txs, err := s.List(ctx, core.ListFilter{Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, core.Totals{Income: 200000, Expense: 50000, Balance: 150000}, core.TotalByType(txs))
		assert.Equal(t, []core.MonthlyRow{{Month: "2024-01", Income: 200000, Expense: 50000}}, core.MonthlyBreakdown(txs))
	})
}

func seed(t *testing.T, s ledger.Store) ledger.Store {
	t.Helper()
	inputs := []core.TransactionInput{
		Input("2024-01-04", 10, "Food", core.Expense, ""),
		Input("2024-01-05", 20, "Food", core.Expense, ""),
		Input("2024-01-12", 30, "Transport", core.Expense, ""),
		Input("2024-01-20", 40, "Salary", core.Income, ""),
		Input("2024-01-21", 50, "Gift", core.Income, ""),
	}
	for _, in := range inputs {
		if _, err := s.Insert(context.Background(), in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}
