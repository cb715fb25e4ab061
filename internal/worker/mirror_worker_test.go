package worker

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/core"
	"dompet/internal/ledger/ledgertest"
	"dompet/internal/ledger/memory"
	"dompet/internal/metrics"
	sheetmem "dompet/internal/sheets/memory"
)

func setup(t *testing.T) (*MirrorWorker, *memory.Store, *sheetmem.Mirror) {
	t.Helper()
	store := memory.New()
	mirror := sheetmem.New()
	return NewMirrorWorker(store, mirror, nil, nil), store, mirror
}

func TestHandleEventUpsertsAndRemoves(t *testing.T) {
	ctx := context.Background()
	w, store, mirror := setup(t)

	id, err := store.Insert(ctx, ledgertest.Input("2024-01-05", 50000, "Food", core.Expense, "soto"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, id)); err != nil {
		t.Fatal(err)
	}
	row, ok := mirror.Row(id)
	if !ok || row[2] != int64(50000) || row[5] != "soto" {
		t.Fatalf("row = %v, %v", row, ok)
	}

	if err := store.Update(ctx, id, ledgertest.Input("2024-01-05", 60000, "Food", core.Expense, "soto")); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventUpdated, id)); err != nil {
		t.Fatal(err)
	}
	if row, _ := mirror.Row(id); row[2] != int64(60000) {
		t.Fatalf("row not updated: %v", row)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventDeleted, id)); err != nil {
		t.Fatal(err)
	}
	if _, ok := mirror.Row(id); ok {
		t.Fatal("row should be cleared")
	}
}

func TestHandleEventForVanishedTransactionClearsRow(t *testing.T) {
	ctx := context.Background()
	w, store, mirror := setup(t)

	id, _ := store.Insert(ctx, ledgertest.Input("2024-01-05", 1, "Food", core.Expense, ""))
	_ = w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, id))
	_ = store.Delete(ctx, id)

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventUpdated, id)); err != nil {
		t.Fatalf("stale update should not fail: %v", err)
	}
	if _, ok := mirror.Row(id); ok {
		t.Fatal("stale row should be cleared")
	}
}

func TestHandleEventCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	m := metrics.New()
	id, _ := store.Insert(ctx, ledgertest.Input("2024-01-05", 1, "Food", core.Expense, ""))

	ok := NewMirrorWorker(store, sheetmem.New(), m, nil)
	if err := ok.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, id)); err != nil {
		t.Fatal(err)
	}
	failing := NewMirrorWorker(store, failingMirror{sheetmem.New()}, m, nil)
	_ = failing.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, id))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`dompet_mirror_events_total{kind="created",result="ok"} 1`,
		`dompet_mirror_events_total{kind="created",result="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

type failingMirror struct{ *sheetmem.Mirror }

func (failingMirror) Upsert(context.Context, core.Transaction) error {
	return errors.New("quota exceeded")
}

func TestHandleEventSurfacesMirrorErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id, _ := store.Insert(ctx, ledgertest.Input("2024-01-05", 1, "Food", core.Expense, ""))
	w := NewMirrorWorker(store, failingMirror{sheetmem.New()}, nil, nil)

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventCreated, id)); err == nil {
		t.Fatal("expected mirror error so the event is redelivered")
	}
}

func TestResyncReplacesEverything(t *testing.T) {
	ctx := context.Background()
	w, store, mirror := setup(t)
	var ids []int64
	for i := 0; i < 3; i++ {
		id, _ := store.Insert(ctx, ledgertest.Input("2024-01-05", int64(i+1), "Food", core.Expense, ""))
		ids = append(ids, id)
	}
	_ = mirror.Upsert(ctx, core.Transaction{ID: 999})

	if err := w.Resync(ctx); err != nil {
		t.Fatal(err)
	}
	got := mirror.IDs()
	if len(got) != 3 || got[0] != ids[0] || got[2] != ids[2] {
		t.Fatalf("mirrored ids = %v, want %v", got, ids)
	}

	empty, _, emptyMirror := setup(t)
	if err := empty.Resync(ctx); err != nil {
		t.Fatal(err)
	}
	if len(emptyMirror.IDs()) != 0 || emptyMirror.Calls("replace") != 1 {
		t.Fatal("empty ledger should still rewrite the sheet")
	}
}

type fakeSource struct {
	events []*amqp.LedgerEvent
	calls  atomic.Int32
}

func (f *fakeSource) Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	if f.calls.Add(1) == 1 {
		for _, ev := range f.events {
			if err := handler(ctx, ev); err != nil {
				return err
			}
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunResyncsThenConsumes(t *testing.T) {
	w, store, mirror := setup(t)
	bg := context.Background()
	first, _ := store.Insert(bg, ledgertest.Input("2024-01-05", 1, "Food", core.Expense, ""))
	second, _ := store.Insert(bg, ledgertest.Input("2024-01-06", 2, "Food", core.Expense, ""))

	src := &fakeSource{events: []*amqp.LedgerEvent{amqp.NewLedgerEvent(amqp.EventDeleted, first)}}
	ctx, cancel := context.WithCancel(bg)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, src, time.Hour) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := mirror.Row(first); !ok && mirror.Calls("replace") == 1 && mirror.Calls("remove") == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if _, ok := mirror.Row(second); !ok {
		t.Fatal("startup resync should mirror existing rows")
	}
	if _, ok := mirror.Row(first); ok {
		t.Fatal("delete event should clear the row")
	}
}
