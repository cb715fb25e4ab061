package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"dompet/internal/amqp"
	"dompet/internal/backend"
	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	sheetmem "dompet/internal/sheets/memory"
	"dompet/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting dompet-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("The worker reads the ledger from SQLite; set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	store, err := backend.OpenStore(bcfg)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "path", cfg.LedgerDBPath)
		os.Exit(1)
	}

	var mirror sheets.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		mirror = sheetmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	var src worker.EventSource
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		src = events
	}

	m := metrics.New()
	var metricsSrv *http.Server
	if addr := cfg.WorkerMetricsAddr(); addr != "" {
		metricsSrv = m.NewServer(addr)
		go func() {
			logger.Info("Metrics listener started", "addr", addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics listener failed", "error", err, "addr", addr)
			}
		}()
	}

	w := worker.NewMirrorWorker(store, mirror, m, logger.Logger)
	if err := w.Run(ctx, src, cfg.ResyncInterval); err != nil {
		logger.Error("Worker stopped with error", "error", err)
	}

	err = cli.Shutdown(logger, 30*time.Second,
		func(ctx context.Context) error {
			if metricsSrv == nil {
				return nil
			}
			return metricsSrv.Shutdown(ctx)
		},
		func(context.Context) error {
			if events == nil {
				return nil
			}
			return events.Close()
		},
		func(context.Context) error { return store.Close() },
	)
	if err != nil {
		os.Exit(1)
	}
}
