// Package sqs adapts SQS batch deliveries to the ingestion pipeline.
package sqs

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/samber/lo"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/pipeline"
)

type BatchHandler interface {
	HandleBatch(ctx context.Context, envs []pipeline.Envelope) pipeline.BatchReport
}

type Handler struct {
	ingestor BatchHandler
	log      *logger.Logger
}

func NewHandler(ingestor BatchHandler, log *logger.Logger) *Handler {
	return &Handler{ingestor: ingestor, log: log.Named("sqs")}
}

// Handle never returns an error: failed items are dropped rather than handed
// back to SQS for redelivery.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) error {
	envs := lo.Map(event.Records, func(m events.SQSMessage, _ int) pipeline.Envelope {
		return pipeline.Envelope{ID: m.MessageId, Body: m.Body}
	})

	h.log.Infow("received batch", "messages", len(envs))
	report := h.ingestor.HandleBatch(ctx, envs)
	if failed := report.Failed(); len(failed) > 0 {
		h.log.Warnw("batch finished with dropped items", "message_ids", failed)
	}
	return nil
}
