package storage

// Transaction mirrors a row of the transactions table. Dates are ISO strings
// and created_at is stored as WIB wall-clock text.
type Transaction struct {
	ID          int64
	Date        string
	Amount      int64
	Category    string
	Type        string
	Description string
	CreatedAt   string
}
