package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/middleware/ratelimit"
	"dompet/internal/middleware/security"
	"dompet/internal/middleware/trace"
	"dompet/internal/services"
)

// Server is the JSON API in front of a LedgerService.
type Server struct {
	http.Server

	svc      *services.LedgerService
	metrics  *metrics.Metrics
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// Options tune a Server. The zero value is usable.
type Options struct {
	RateLimitPerMinute int
	Metrics            *metrics.Metrics
	Logger             *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		svc:      svc,
		metrics:  opts.Metrics,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	s.handle(mux, "GET /healthz", s.handleHealth, false)
	s.handle(mux, "GET /readyz", s.handleReady, false)

	s.handle(mux, "GET /api/transactions", s.handleListTransactions, false)
	s.handle(mux, "POST /api/transactions", s.handleCreateTransaction, true)
	s.handle(mux, "GET /api/transactions/{id}", s.handleGetTransaction, false)
	s.handle(mux, "PUT /api/transactions/{id}", s.handleUpdateTransaction, true)
	s.handle(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction, true)

	s.handle(mux, "GET /api/categories", s.handleCategories, false)
	s.handle(mux, "GET /api/summary", s.handleSummary, false)
	s.handle(mux, "GET /api/export.csv", s.handleExport, false)
	s.handle(mux, "POST /api/import", s.handleImport, true)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = headers.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = detector.Middleware(logger.Logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// handle registers fn under pattern, recording per-route metrics. Mutating
// routes go through the per-client rate limiter.
func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc, limited bool) {
	_, route, _ := strings.Cut(pattern, " ")
	var h http.Handler = fn
	if limited {
		h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldRoute, route,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited"})
		})(h)
	}

	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rw, r)
		s.metrics.ObserveHTTP(r.Method, route, rw.status, time.Since(start))
	}))
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
