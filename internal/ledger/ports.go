package ledger

import (
	"context"

	"dompet/internal/core"
)

// Ports for ledger storage backends.
type (
	// Writer mutates the ledger. Inputs are expected to be trimmed already;
	// stores validate amount, type, category and date but never re-trim.
	Writer interface {
		Insert(ctx context.Context, in core.TransactionInput) (int64, error)
		Update(ctx context.Context, id int64, in core.TransactionInput) error
		Delete(ctx context.Context, id int64) error
	}

	// Reader returns detached snapshots of stored transactions.
	Reader interface {
		// Get returns an error matching core.ErrNotFound when id is absent.
		Get(ctx context.Context, id int64) (core.Transaction, error)
		// List orders by date descending, then id descending.
		List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error)
		Count(ctx context.Context) (int64, error)
	}

	// CategoryLister enumerates distinct categories in ascending order.
	CategoryLister interface {
		ListCategories(ctx context.Context, limit int) ([]string, error)
	}

	// Store is the full ledger contract, owned by exactly one handle per process.
	Store interface {
		Writer
		Reader
		CategoryLister
		Close() error
	}
)
