package sheets

import (
	"context"
	"strconv"

	"dompet/internal/core"
)

// Mirror is an append-friendly copy of the ledger kept in a spreadsheet.
// Rows are keyed by the transaction id in the first column.
type Mirror interface {
	// Upsert writes tx over its existing row, or appends one.
	Upsert(ctx context.Context, tx core.Transaction) error
	// Remove clears the row for id. A missing row is not an error.
	Remove(ctx context.Context, id int64) error
	// Replace rewrites the whole sheet: header first, then txs in order.
	Replace(ctx context.Context, txs []core.Transaction) error
}

// Header is the first row of a mirrored sheet.
var Header = []any{"id", "date", "amount", "category", "type", "description", "created_at"}

// Row renders tx in Header order. Amounts stay numeric so sheet formulas work.
func Row(tx core.Transaction) []any {
	return []any{
		strconv.FormatInt(tx.ID, 10),
		tx.Date.String(),
		tx.Amount,
		string(tx.Category),
		string(tx.Type),
		tx.Description,
		core.FormatCreatedAt(tx.CreatedAt),
	}
}
