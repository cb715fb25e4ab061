package memory

import (
	"context"
	"sort"
	"sync"

	"dompet/internal/core"
	"dompet/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps the ledger in process memory. Ids come from a monotonic
// counter and are never reused after a delete.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Transaction
	now    core.Clock
}

func New() *Store {
	return NewWithClock(core.WIBClock)
}

// NewWithClock lets tests pin created_at.
func NewWithClock(now core.Clock) *Store {
	return &Store{items: make(map[int64]core.Transaction), now: now}
}

// Seed inserts every input in order, stopping at the first invalid one.
func Seed(ctx context.Context, s *Store, inputs ...core.TransactionInput) error {
	for _, in := range inputs {
		if _, err := s.Insert(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Insert(_ context.Context, in core.TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx := core.Transaction{
		ID:        s.nextID,
		CreatedAt: s.now().In(core.Jakarta),
	}
	apply(&tx, in)
	s.items[tx.ID] = tx
	return tx.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	return tx, nil
}

func (s *Store) List(_ context.Context, f core.ListFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Date.String(), out[j].Date.String()
		if di != dj {
			return di > dj
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, id int64, in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.items[id]
	if !ok {
		return &core.NotFoundError{ID: id}
	}
	apply(&tx, in)
	s.items[id] = tx
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return &core.NotFoundError{ID: id}
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	s.mu.Lock()
	seen := make(map[string]struct{})
	for _, tx := range s.items {
		seen[string(tx.Category)] = struct{}{}
	}
	s.mu.Unlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

func (s *Store) Close() error {
	return nil
}

func apply(tx *core.Transaction, in core.TransactionInput) {
	tx.Date = in.Date
	tx.Amount = in.Amount
	tx.Category = in.Category
	tx.Type = in.Type
	tx.Description = in.Description
}
