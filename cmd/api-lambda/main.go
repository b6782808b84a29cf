// Command api-lambda serves link issuance behind API Gateway.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/app"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/reporting"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/s3store"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/transport/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatal(err)
	}

	if err := reporting.Init(&cfg.Sentry, "v1"); err != nil {
		lg.Fatalf("sentry.Init: %s", err)
	}

	// one client per container, reused across invocations
	store, err := s3store.NewStorage(context.Background(), &cfg.Storage)
	if err != nil {
		lg.Fatalw("failed to build storage client", "error", err)
	}

	h := app.NewHandler(cfg, store, nil, lg)
	adapter := httpadapter.New(router.NewRouter(h))

	lambda.Start(adapter.ProxyWithContext)
}
