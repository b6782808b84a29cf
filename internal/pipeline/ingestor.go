package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/naming"
)

type Store interface {
	Download(ctx context.Context, loc entities.Location) (entities.Object, error)
	Upload(ctx context.Context, a entities.OutputArtifact) error
}

// Reporter forwards item failures to error tracking.
type Reporter interface {
	Capture(err error, tags map[string]string)
}

type Options struct {
	DefaultWidth int
	// Envelopes handled in parallel within one batch; 1 means sequential.
	Concurrency int
}

// Ingestor consumes batches of storage notifications. A failing envelope
// only fails itself: nothing is retried and nothing aborts the batch.
type Ingestor struct {
	store    Store
	router   Router
	opts     Options
	logger   *logger.Logger
	reporter Reporter
}

func NewIngestor(store Store, router Router, opts Options, log *logger.Logger, reporter Reporter) *Ingestor {
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = DefaultWidth
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Ingestor{
		store:    store,
		router:   router,
		opts:     opts,
		logger:   log.Named("ingestor"),
		reporter: reporter,
	}
}

// HandleBatch processes every envelope and reports one Result for each.
func (i *Ingestor) HandleBatch(ctx context.Context, envs []Envelope) BatchReport {
	results := make([]Result, len(envs))

	var g errgroup.Group
	g.SetLimit(i.opts.Concurrency)
	for idx, env := range envs {
		g.Go(func() error {
			results[idx] = i.handle(ctx, env)
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Results: results}
	i.logger.Infow("batch done",
		"envelopes", len(envs),
		"processed", report.Count(StatusProcessed),
		"skipped", report.Count(StatusSkipped),
		"failed", report.Count(StatusFailed),
	)
	return report
}

func (i *Ingestor) handle(ctx context.Context, env Envelope) (res Result) {
	res.EnvelopeID = env.ID
	log := i.logger.With("envelope_id", env.ID)

	defer func() {
		if r := recover(); r != nil {
			res = i.fail(log, res, ierr.NewErrorf("panic: %v", r).Mark(ierr.ErrSystem))
		}
	}()

	evt, err := ParseEnvelope(env.Body)
	if err != nil {
		if ierr.IsNotActionable(err) {
			log.Infow("not a storage notification, skipping")
			res.Status, res.Reason = StatusSkipped, "not actionable"
			return res
		}
		return i.fail(log, res, err)
	}

	res.Source = evt.Source
	res.Category = naming.Classify(evt.Source.Key)
	log = log.With("bucket", evt.Source.Bucket, "key", evt.Source.Key)

	transform, ok := i.router.Route(res.Category)
	if !ok {
		log.Infow("file type not supported, skipping")
		res.Status, res.Reason = StatusSkipped, "unsupported type"
		res.Err = ierr.NewErrorf("unsupported type %q", evt.Source.Key).Mark(ierr.ErrUnsupported)
		return res
	}

	if err := ctx.Err(); err != nil {
		return i.fail(log, res, err)
	}

	obj, err := i.store.Download(ctx, evt.Source)
	if err != nil {
		return i.fail(log, res, err)
	}
	evt.Metadata = obj.Metadata

	width := ResolveWidth(evt.Metadata, i.opts.DefaultWidth)
	log.Infow("processing object", "category", res.Category.String(), "target_width", width, "size", len(obj.Body))

	artifact, err := transform.Transform(ctx, entities.TransformRequest{
		Source:      evt.Source,
		Content:     obj.Body,
		TargetWidth: width,
		ContentType: obj.ContentType,
	})
	if err != nil {
		return i.fail(log, res, err)
	}

	if err := i.store.Upload(ctx, artifact); err != nil {
		return i.fail(log, res, err)
	}

	log.Infow("saved artifact", "destination", artifact.Destination.Key, "content_type", artifact.ContentType)
	res.Status = StatusProcessed
	res.Destination = artifact.Destination
	return res
}

func (i *Ingestor) fail(log *logger.Logger, res Result, err error) Result {
	res.Status = StatusFailed
	res.Err = err
	res.Reason = reason(err)

	if res.Interrupted() {
		log.Warnw("item interrupted", "error", err)
		return res
	}

	log.Errorw("item dropped", "reason", res.Reason, "error", err)
	if i.reporter != nil {
		i.reporter.Capture(err, map[string]string{
			"envelope_id": res.EnvelopeID,
			"key":         res.Source.Key,
			"reason":      res.Reason,
		})
	}
	return res
}

func reason(err error) string {
	switch {
	case ierr.Is(err, context.Canceled), ierr.Is(err, context.DeadlineExceeded):
		return "interrupted"
	case ierr.Is(err, ierr.ErrValidation):
		return "malformed event"
	case ierr.Is(err, ierr.ErrFetch):
		return "fetch failed"
	case ierr.Is(err, ierr.ErrTransform):
		return "transform failed"
	case ierr.Is(err, ierr.ErrWrite):
		return "write failed"
	default:
		return fmt.Sprintf("unexpected: %v", err)
	}
}
