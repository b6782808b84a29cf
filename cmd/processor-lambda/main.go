// Command processor-lambda consumes S3 notifications delivered through SQS.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/app"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/reporting"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/s3store"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/transport/sqs"
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

	store, err := s3store.NewStorage(context.Background(), &cfg.Storage)
	if err != nil {
		lg.Fatalw("failed to build storage client", "error", err)
	}

	h := sqs.NewHandler(app.NewIngestor(cfg, store, lg), lg)

	lambda.Start(func(ctx context.Context, event events.SQSEvent) error {
		// the runtime may freeze the container right after returning
		defer reporting.Flush()
		defer lg.Sync() //nolint:errcheck
		return h.Handle(ctx, event)
	})
}
