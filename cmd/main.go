package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/app"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/reporting"
)

const version = "v1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync() //nolint:errcheck

	if err := reporting.Init(&cfg.Sentry, version); err != nil {
		lg.Fatalf("sentry.Init: %s", err)
	}
	defer reporting.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatalw("failed to build app", "error", err)
	}

	if err := a.Run(ctx); err != nil {
		lg.Errorw("app stopped with error", "error", err)
	}
}
