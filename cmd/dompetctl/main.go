// Command dompetctl reads and writes the ledger database directly.
package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/alecthomas/kong"

	"dompet/internal/backend"
	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/log"
)

func main() {
	cli.LoadEnvFile()

	var c CLI
	kctx := kong.Parse(&c,
		kong.Name("dompetctl"),
		kong.Description("Record and inspect personal finance transactions."),
		kong.UsageOnError(),
	)

	cfg := config.Load()
	cfg.DataBackend = config.BackendSQLite
	cfg.LedgerDBPath = c.DB
	if !c.Events {
		cfg.AMQPURL = ""
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	logger, err := cli.SetupLogger(cfg, os.Stderr)
	kctx.FatalIfErrorf(err)
	logger = logger.WithComponent(log.ComponentCLI)

	bcfg, err := backend.FromAppConfig(cfg)
	kctx.FatalIfErrorf(err)
	res, err := backend.NewFactory(logger, nil).CreateBackend(context.Background(), bcfg)
	kctx.FatalIfErrorf(err)

	runErr := kctx.Run(&app{svc: res.Service, out: os.Stdout, in: os.Stdin})
	if err := res.Cleanup(); err != nil {
		fmt.Fprintln(os.Stderr, "close ledger:", err)
	}
	kctx.FatalIfErrorf(runErr)
}
