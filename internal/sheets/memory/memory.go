package memory

import (
	"context"
	"sort"
	"sync"

	"dompet/internal/core"
	"dompet/internal/sheets"
)

var _ sheets.Mirror = (*Mirror)(nil)

// Mirror keeps mirrored rows in process, for the memory backend and tests.
type Mirror struct {
	mu   sync.Mutex
	rows map[int64][]any
	// Calls counts mutations, keyed by method name.
	calls map[string]int
}

func New() *Mirror {
	return &Mirror{rows: make(map[int64][]any), calls: make(map[string]int)}
}

func (m *Mirror) Upsert(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["upsert"]++
	m.rows[tx.ID] = sheets.Row(tx)
	return nil
}

func (m *Mirror) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["remove"]++
	delete(m.rows, id)
	return nil
}

func (m *Mirror) Replace(_ context.Context, txs []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["replace"]++
	m.rows = make(map[int64][]any, len(txs))
	for _, tx := range txs {
		m.rows[tx.ID] = sheets.Row(tx)
	}
	return nil
}

// Row returns the mirrored row for id.
func (m *Mirror) Row(id int64) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok
}

// IDs lists mirrored ids ascending.
func (m *Mirror) IDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Mirror) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}
