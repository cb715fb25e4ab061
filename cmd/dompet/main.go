package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"dompet/internal/backend"
	"dompet/internal/cache"
	"dompet/internal/cli"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/metrics"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting dompet server", "port", cfg.Port, "backend", cfg.DataBackend)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	m := metrics.New()
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger, m).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	if res.Summaries != nil {
		caches.Register(res.Summaries)
		caches.StartCleanup(time.Minute)
	}

	srv := apphttp.NewServer(cfg.Addr(), res.Service, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            m,
		Logger:             logger,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			exitCode = 1
		}
	}

	err = cli.Shutdown(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error { caches.Stop(); return nil },
		func(context.Context) error { return res.Cleanup() },
	)
	if err != nil {
		exitCode = 1
	}
	logger.Info("Server stopped")
	os.Exit(exitCode)
}
