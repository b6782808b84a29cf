package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/pipeline"
)

type BatchHandler interface {
	HandleBatch(ctx context.Context, envs []pipeline.Envelope) pipeline.BatchReport
}

// Worker feeds Redis Stream entries to a BatchHandler. Entries are acked once
// the batch has been handled and failed items are not retried. Only entries
// interrupted by shutdown stay pending; they and entries left by a crashed
// consumer are reclaimed on start.
type Worker struct {
	rc      func() redis.UniversalClient
	cfg     config.QueueConfig
	handler BatchHandler
	log     *logger.Logger
}

func NewWorker(rc func() redis.UniversalClient, cfg config.QueueConfig, handler BatchHandler, log *logger.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	return &Worker{
		rc:      rc,
		cfg:     cfg,
		handler: handler,
		log:     log.Named("queue-worker"),
	}
}

func (w *Worker) EnsureGroup(ctx context.Context) error {
	// MkStream so the group can exist before the first notification arrives
	err := w.rc().XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Start blocks until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("failed to ensure Redis group: %w", err)
	}

	w.log.Infow("starting consumer",
		"group", w.cfg.Group, "stream", w.cfg.Stream, "consumer", w.cfg.Consumer, "batch_size", w.cfg.BatchSize)

	w.autoClaim(ctx)

	for {
		if _, err := w.poll(ctx); err != nil {
			if ctx.Err() != nil {
				w.log.Infow("context canceled, stopping")
				return nil
			}
			w.log.Warnw("read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// autoClaim takes over entries another consumer read but never acked, which
// happens when a worker dies mid-batch, and processes them.
func (w *Worker) autoClaim(ctx context.Context) {
	next := "0-0"

	// do not steal entries still being worked on by slow consumers
	minIdle := 30 * time.Second
	if t := w.cfg.BlockTimeout * 6; t > minIdle {
		minIdle = t
	}

	for {
		msgs, start, err := w.rc().XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   w.cfg.Stream,
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			MinIdle:  minIdle,
			Start:    next,
			Count:    w.cfg.BatchSize,
		}).Result()
		if err != nil || len(msgs) == 0 {
			return
		}
		w.log.Infow("reclaimed pending entries", "count", len(msgs))
		w.handle(ctx, msgs)
		if start == "0-0" {
			return
		}
		next = start
	}
}

// poll reads one batch of new entries and handles it.
func (w *Worker) poll(ctx context.Context) (int, error) {
	streams, err := w.rc().XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.cfg.Group,
		Consumer: w.cfg.Consumer,
		Streams:  []string{w.cfg.Stream, ">"},
		Count:    w.cfg.BatchSize,
		Block:    w.cfg.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	for _, s := range streams {
		w.handle(ctx, s.Messages)
		n += len(s.Messages)
	}
	return n, nil
}

func (w *Worker) handle(ctx context.Context, msgs []redis.XMessage) {
	if len(msgs) == 0 {
		return
	}

	envs := make([]pipeline.Envelope, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
		raw, ok := m.Values[payloadField].(string)
		if !ok {
			w.log.Warnw("entry without payload, dropping", "id", m.ID)
			continue
		}
		envs = append(envs, pipeline.Envelope{ID: m.ID, Body: raw})
	}

	report := w.handler.HandleBatch(ctx, envs)

	// entries a shutdown cut short stay pending so autoClaim hands them to
	// the next consumer
	held := make(map[string]struct{})
	for _, res := range report.Results {
		if w.holdBack(ctx, res) {
			held[res.EnvelopeID] = struct{}{}
		}
	}
	if len(held) > 0 {
		w.log.Infow("leaving interrupted entries pending", "count", len(held))
		ids = lo.Filter(ids, func(id string, _ int) bool {
			_, ok := held[id]
			return !ok
		})
	}
	if len(ids) == 0 {
		return
	}

	// ack with a fresh context so a shutdown does not leave handled entries pending
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.rc().XAck(ackCtx, w.cfg.Stream, w.cfg.Group, ids...).Err(); err != nil {
		w.log.Errorw("ack failed", "error", err, "ids", ids)
	}
}

// holdBack reports whether an entry must not be acked. Malformed entries
// are acked even during shutdown since redelivery cannot fix them.
func (w *Worker) holdBack(ctx context.Context, res pipeline.Result) bool {
	if res.Status != pipeline.StatusFailed {
		return false
	}
	if res.Interrupted() {
		return true
	}
	return ctx.Err() != nil && !ierr.IsValidation(res.Err)
}
