package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	ledgertest.RunContract(t, func(t *testing.T, now core.Clock) ledger.Store {
		return NewWithClock(now)
	})
}

func TestSeedStopsAtFirstInvalid(t *testing.T) {
	s := New()
	err := Seed(context.Background(), s,
		ledgertest.Input("2024-01-01", 10, "Food", core.Expense, ""),
		ledgertest.Input("2024-01-02", 0, "Food", core.Expense, ""),
		ledgertest.Input("2024-01-03", 10, "Food", core.Expense, ""),
	)
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	n, _ := s.Count(context.Background())
	require.EqualValues(t, 1, n)
}

func TestConcurrentInsertsGetDistinctIDs(t *testing.T) {
	s := New()
	const workers = 16
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Insert(context.Background(), ledgertest.Input("2024-01-01", 1, "Food", core.Expense, ""))
			if err == nil {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
}
