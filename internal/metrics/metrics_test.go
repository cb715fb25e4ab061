package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersByResult(t *testing.T) {
	m := New()
	m.LedgerWrite("insert", nil)
	m.LedgerWrite("insert", nil)
	m.LedgerWrite("insert", errors.New("boom"))
	m.SummaryLookup(true)
	m.SummaryLookup(false)
	m.SummaryLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerWrites.WithLabelValues("insert", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerWrites.WithLabelValues("insert", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summaryCache.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.summaryCache.WithLabelValues("miss")))
}

func TestHandlerExposesHTTPSeries(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/summary", 200, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `dompet_http_requests_total{method="GET",route="/api/summary",status="200"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.LedgerWrite("delete", nil)
	m.EventPublished("created", nil)
	m.MirrorApplied("deleted", nil)
	m.ObserveHTTP("GET", "/", 200, time.Second)
	assert.Nil(t, m.Registry())
}

func TestServerServesOnlyMetrics(t *testing.T) {
	m := New()
	m.MirrorApplied("created", nil)
	srv := m.NewServer(":0")

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `dompet_mirror_events_total{kind="created",result="ok"} 1`)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/summary", nil))
	assert.Equal(t, 404, rec.Code)
}
