package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dompet/internal/core"
	"dompet/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository is the durable ledger.Store. Writers take an immediate
// transaction so concurrent processes queue on busy_timeout instead of
// failing with SQLITE_BUSY mid-transaction.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     core.Clock
}

// uriEscaper escapes the characters that would end the path part of a
// file: URI. SQLite decodes them again when it opens the file.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// DSN builds the modernc connection string for dbPath.
func DSN(dbPath string) string {
	return "file:" + uriEscaper.Replace(dbPath) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	return NewSQLiteRepositoryWithClock(dbPath, core.WIBClock)
}

func NewSQLiteRepositoryWithClock(dbPath string, now core.Clock) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &core.StorageError{Op: "ping", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, in core.TransactionInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Date:        in.Date.String(),
		Amount:      in.Amount,
		Category:    string(in.Category),
		Type:        string(in.Type),
		Description: in.Description,
		CreatedAt:   core.FormatCreatedAt(r.now()),
	})
	if err != nil {
		return 0, &core.StorageError{Op: "insert", Err: err}
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"date", in.Date.String(),
		"amount", in.Amount,
		"category", string(in.Category),
		"type", string(in.Type))

	return id, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "get", Err: err}
	}
	return toCore(row)
}

func (r *SQLiteRepository) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	params := ListTransactionsParams{Limit: int64(f.Limit)}
	if !f.StartDate.IsZero() {
		params.StartDate = sql.NullString{String: f.StartDate.String(), Valid: true}
	}
	if !f.EndDate.IsZero() {
		params.EndDate = sql.NullString{String: f.EndDate.String(), Valid: true}
	}
	if c, ok := f.CategoryFilter(); ok {
		params.Category = sql.NullString{String: c, Valid: true}
	}

	rows, err := r.queries.ListTransactions(ctx, params)
	if err != nil {
		return nil, &core.StorageError{Op: "list", Err: err}
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, in core.TransactionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	return r.inTx(ctx, "update", func(q *Queries) error {
		n, err := q.UpdateTransaction(ctx, UpdateTransactionParams{
			Date:        in.Date.String(),
			Amount:      in.Amount,
			Category:    string(in.Category),
			Type:        string(in.Type),
			Description: in.Description,
			ID:          id,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	return r.inTx(ctx, "delete", func(q *Queries) error {
		n, err := q.DeleteTransaction(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{ID: id}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	cats, err := r.queries.ListCategories(ctx, int64(limit))
	if err != nil {
		return nil, &core.StorageError{Op: "list categories", Err: err}
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, &core.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// inTx runs fn in one transaction. Not-found results roll back and pass
// through unwrapped; every other failure becomes a StorageError.
func (r *SQLiteRepository) inTx(ctx context.Context, op string, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: op, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return &core.StorageError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

func toCore(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "decode", Err: fmt.Errorf("row %d date: %w", row.ID, err)}
	}
	createdAt, err := core.ParseCreatedAt(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "decode", Err: fmt.Errorf("row %d created_at: %w", row.ID, err)}
	}
	return core.Transaction{
		ID:          row.ID,
		Date:        date,
		Amount:      row.Amount,
		Category:    core.Category(row.Category),
		Type:        core.Type(row.Type),
		Description: row.Description,
		CreatedAt:   createdAt,
	}, nil
}
