package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/metrics"
	"dompet/internal/sheets"
)

// EventSource delivers ledger events until ctx ends. *amqp.Client satisfies it.
type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

var _ EventSource = (*amqp.Client)(nil)

// MirrorWorker keeps a spreadsheet copy of the ledger. Events are applied
// one at a time; a periodic full resync repairs anything missed while the
// worker or broker was down.
type MirrorWorker struct {
	store   ledger.Reader
	mirror  sheets.Mirror
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMirrorWorker(store ledger.Reader, mirror sheets.Mirror, m *metrics.Metrics, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{store: store, mirror: mirror, metrics: m, logger: logger}
}

// HandleEvent applies one event. Created and updated events re-read the
// row, so an event for a since-deleted transaction clears its row.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	err := w.apply(ctx, ev)
	w.metrics.MirrorApplied(string(ev.Kind), err)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "Ledger event mirrored",
		"event_id", ev.EventID,
		"kind", ev.Kind,
		"transaction_id", ev.TransactionID)
	return nil
}

func (w *MirrorWorker) apply(ctx context.Context, ev *amqp.LedgerEvent) error {
	switch ev.Kind {
	case amqp.EventCreated, amqp.EventUpdated:
		tx, err := w.store.Get(ctx, ev.TransactionID)
		if errors.Is(err, core.ErrNotFound) {
			return w.remove(ctx, ev.TransactionID)
		}
		if err != nil {
			return fmt.Errorf("get transaction %d: %w", ev.TransactionID, err)
		}
		if err := w.mirror.Upsert(ctx, tx); err != nil {
			return fmt.Errorf("upsert row %d: %w", tx.ID, err)
		}
		return nil
	case amqp.EventDeleted:
		return w.remove(ctx, ev.TransactionID)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func (w *MirrorWorker) remove(ctx context.Context, id int64) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove row %d: %w", id, err)
	}
	return nil
}

// Resync rewrites the whole mirror from the store, newest first.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	n, err := w.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	limit := int(n)
	if limit < 1 {
		limit = 1
	}
	txs, err := w.store.List(ctx, core.ListFilter{Limit: limit})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := w.mirror.Replace(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror resynced", "rows", len(txs))
	return nil
}

// Run resyncs once, then consumes src (if any) and resyncs every interval
// until ctx ends. Consumer failures are retried with exponential backoff.
func (w *MirrorWorker) Run(ctx context.Context, src EventSource, interval time.Duration) error {
	if err := w.Resync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup resync failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if src != nil {
		g.Go(func() error { return w.consume(ctx, src) })
	} else {
		w.logger.InfoContext(ctx, "No event source configured, relying on periodic resync")
	}

	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := w.Resync(ctx); err != nil {
						w.logger.ErrorContext(ctx, "Periodic resync failed", "error", err)
					}
				}
			}
		})
	}

	return g.Wait()
}

func (w *MirrorWorker) consume(ctx context.Context, src EventSource) error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	for {
		err := src.Consume(ctx, w.HandleEvent)
		if ctx.Err() != nil {
			return nil
		}
		wait := b.NextBackOff()
		w.logger.ErrorContext(ctx, "Event consumption stopped, retrying",
			"error", err,
			"retry_in", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}
