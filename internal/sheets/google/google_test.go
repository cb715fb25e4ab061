package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"dompet/internal/core"
)

type call struct {
	method string
	path   string
	body   string
}

// fakeSheets answers the handful of Values endpoints the mirror uses.
type fakeSheets struct {
	mu     sync.Mutex
	column [][]any
	calls  []call
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	f.calls = append(f.calls, call{method: r.Method, path: r.URL.Path, body: string(body)})

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.column})
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func (f *fakeSheets) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, column [][]any) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{column: column}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "Transaksi"), fake
}

func sampleTx(id int64) core.Transaction {
	d, _ := core.ParseDate("2024-01-05")
	return core.Transaction{
		ID: id, Date: d, Amount: 50000, Category: "Food", Type: core.Expense,
		Description: "soto", CreatedAt: time.Date(2024, 1, 5, 8, 30, 0, 0, core.Jakarta),
	}
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	c, fake := newTestClient(t, [][]any{{"id"}, {"1"}, {"2"}})
	if err := c.Upsert(context.Background(), sampleTx(2)); err != nil {
		t.Fatal(err)
	}
	muts := fake.mutations()
	if len(muts) != 1 || muts[0].method != http.MethodPut {
		t.Fatalf("unexpected calls %+v", muts)
	}
	if !strings.HasSuffix(muts[0].path, "'Transaksi'!A3:G3") {
		t.Errorf("updated %s, want row 3", muts[0].path)
	}
	if !strings.Contains(muts[0].body, `"soto"`) {
		t.Errorf("body missing description: %s", muts[0].body)
	}
}

func TestUpsertAppendsNewRow(t *testing.T) {
	c, fake := newTestClient(t, [][]any{{"id"}, {"1"}})
	if err := c.Upsert(context.Background(), sampleTx(9)); err != nil {
		t.Fatal(err)
	}
	muts := fake.mutations()
	if len(muts) != 1 || muts[0].method != http.MethodPost || !strings.HasSuffix(muts[0].path, ":append") {
		t.Fatalf("expected append, got %+v", muts)
	}
}

func TestRemoveClearsOnlyExistingRows(t *testing.T) {
	c, fake := newTestClient(t, [][]any{{"id"}, {"4"}})
	if err := c.Remove(context.Background(), 4); err != nil {
		t.Fatal(err)
	}
	if err := c.Remove(context.Background(), 99); err != nil {
		t.Fatal(err)
	}
	muts := fake.mutations()
	if len(muts) != 1 || !strings.HasSuffix(muts[0].path, "'Transaksi'!A2:G2:clear") {
		t.Fatalf("expected one clear of row 2, got %+v", muts)
	}
}

func TestReplaceClearsThenWritesHeader(t *testing.T) {
	c, fake := newTestClient(t, nil)
	if err := c.Replace(context.Background(), []core.Transaction{sampleTx(1), sampleTx(2)}); err != nil {
		t.Fatal(err)
	}
	muts := fake.mutations()
	if len(muts) != 2 {
		t.Fatalf("calls = %+v", muts)
	}
	if !strings.HasSuffix(muts[0].path, ":clear") {
		t.Errorf("first call should clear, got %s", muts[0].path)
	}
	if muts[1].method != http.MethodPut || !strings.Contains(muts[1].body, `"created_at"`) {
		t.Errorf("second call should write header, got %+v", muts[1])
	}
}

func TestRowOf(t *testing.T) {
	values := [][]any{{"id"}, {}, {" 7 "}, {float64(12)}}
	cases := map[int64]int{7: 3, 12: 4, 5: 0}
	for id, want := range cases {
		if got := rowOf(values, id); got != want {
			t.Errorf("rowOf(%d) = %d, want %d", id, got, want)
		}
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Bob's Ledger"); got != "'Bob''s Ledger'" {
		t.Fatalf("quoteSheet = %q", got)
	}
}

func TestNewFromEnvRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := NewFromEnv(context.Background(), " ", "Transaksi"); err == nil {
		t.Fatal("expected missing spreadsheet id error")
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := NewFromEnv(context.Background(), "id", "Transaksi")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}
