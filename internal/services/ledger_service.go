package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/export"
	"dompet/internal/ledger"
	"dompet/internal/log"
	"dompet/internal/metrics"
)

// FallbackCategory seeds the category field when the ledger is empty.
const FallbackCategory = "Lainnya"

// EventPublisher announces ledger mutations. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind amqp.EventKind, transactionID int64) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// LedgerService is the single entry point for presentation layers. It trims
// free text, validates, writes through the store, then invalidates cached
// summaries and publishes an event. Publication never fails a write.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
	summaries *cache.SummaryCache
	metrics   *metrics.Metrics
	logger    *log.Logger
	events    *log.StructuredLogger
}

type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithSummaryCache(c *cache.SummaryCache) Option {
	return func(s *LedgerService) { s.summaries = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l.WithComponent(log.ComponentLedger) }
}

func NewLedgerService(store ledger.Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.FromContext(context.Background()).WithComponent(log.ComponentLedger)
	}
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

func (s *LedgerService) Create(ctx context.Context, in core.TransactionInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.Insert(ctx, in)
	s.metrics.LedgerWrite("insert", err)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.events.LogTransactionWritten(ctx, log.OpCreate, id, string(in.Type), string(in.Category), in.Amount)
	s.afterWrite(ctx, amqp.EventCreated, id)
	return id, nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *LedgerService) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) Update(ctx context.Context, id int64, in core.TransactionInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	err := s.store.Update(ctx, id, in)
	s.metrics.LedgerWrite("update", err)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.events.LogTransactionWritten(ctx, log.OpUpdate, id, string(in.Type), string(in.Category), in.Amount)
	s.afterWrite(ctx, amqp.EventUpdated, id)
	return nil
}

func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	s.metrics.LedgerWrite("delete", err)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	s.afterWrite(ctx, amqp.EventDeleted, id)
	return nil
}

func (s *LedgerService) Categories(ctx context.Context, limit int) ([]string, error) {
	cats, err := s.store.ListCategories(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// DefaultCategory suggests a category for a blank entry form: the first
// stored category, or FallbackCategory when there is none.
func (s *LedgerService) DefaultCategory(ctx context.Context) (string, error) {
	cats, err := s.store.ListCategories(ctx, 1)
	if err != nil {
		return "", fmt.Errorf("default category: %w", err)
	}
	if len(cats) == 0 {
		return FallbackCategory, nil
	}
	return cats[0], nil
}

// Summary aggregates the transactions matching f. Results are cached per
// filter until the next write.
func (s *LedgerService) Summary(ctx context.Context, f core.ListFilter) (core.Summary, error) {
	if err := f.Validate(); err != nil {
		return core.Summary{}, err
	}
	load := func() (core.Summary, error) {
		txs, err := s.store.List(ctx, f)
		if err != nil {
			return core.Summary{}, err
		}
		return core.Summarize(txs), nil
	}

	if s.summaries == nil {
		sum, err := load()
		if err != nil {
			return core.Summary{}, fmt.Errorf("summarize: %w", err)
		}
		return sum, nil
	}

	sum, hit, err := s.summaries.GetOrLoad(f.Key(), load)
	s.metrics.SummaryLookup(hit)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	s.logger.DebugContext(ctx, "Summary served", log.FieldOperation, log.OpSummary, "cache_hit", hit, "count", sum.Count)
	return sum, nil
}

// Export writes the transactions matching f as CSV.
func (s *LedgerService) Export(ctx context.Context, w io.Writer, f core.ListFilter) error {
	txs, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, txs); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	s.logger.InfoContext(ctx, "Export written", log.FieldOperation, log.OpExport, "rows", len(txs))
	return nil
}

// ImportResult reports the ids created by Import, in file order.
type ImportResult struct {
	IDs []int64
}

// Import reads an export and inserts every row as a new transaction. The
// whole file is decoded and validated before the first insert.
func (s *LedgerService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	rows, err := export.ReadCSV(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import csv: %w", err)
	}

	var res ImportResult
	for _, row := range rows {
		id, err := s.Create(ctx, row.Input)
		if err != nil {
			return res, fmt.Errorf("import line %d: %w", row.Line, err)
		}
		res.IDs = append(res.IDs, id)
	}
	s.logger.InfoContext(ctx, "Import finished", "inserted", len(res.IDs), log.FieldOperation, log.OpImport)
	return res, nil
}

// Ready reports whether the store answers queries.
func (s *LedgerService) Ready(ctx context.Context) error {
	if _, err := s.store.Count(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func (s *LedgerService) afterWrite(ctx context.Context, kind amqp.EventKind, id int64) {
	if s.summaries != nil {
		if n := s.summaries.Invalidate(); n > 0 {
			s.logger.DebugContext(ctx, "Summary cache invalidated", "entries", n)
		}
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher, skipping ledger event", log.FieldEventKind, kind, log.FieldTransactionID, id)
		return
	}
	err := s.publisher.PublishLedgerEvent(ctx, kind, id)
	s.metrics.EventPublished(string(kind), err)
	if err != nil {
		s.events.LogError(ctx, "Failed to publish ledger event", err, log.OpSync,
			log.LogFields{log.FieldEventKind: string(kind), log.FieldTransactionID: id})
	}
}

// Close releases the store and, when it owns one, the publisher connection.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
