package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/archive"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/naming"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/pipeline"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/processor"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/queue"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/redisholder"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/reporting"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/s3store"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/transport/handler"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/transport/router"
	use_case "github.com/ravishrisanjay/AWS-serverless-processor/internal/use-case"
)

// App runs the link API and, when the Redis queue is enabled, the pipeline
// worker in one process.
type App struct {
	HttpServer *http.Server
	worker     *queue.Worker
	holder     *redisholder.Holder
	log        *logger.Logger
}

func Mapper(cfg *config.Config) naming.Mapper {
	return naming.Mapper{LegacyImageNames: cfg.Links.LegacyImageNames}
}

// NewIngestor wires the transforms to the store.
func NewIngestor(cfg *config.Config, store pipeline.Store, log *logger.Logger) *pipeline.Ingestor {
	mapper := Mapper(cfg)
	routes := pipeline.Router{
		Image: pipeline.ImageTransform{
			Encoder:      processor.NewJPEGTransformer(cfg.Pipeline.JPEGQuality).
				WithLimits(cfg.Pipeline.MaxWidth, cfg.Pipeline.MaxPixels),
			Mapper:       mapper,
			OutputBucket: cfg.Storage.OutputBucket,
		},
		Document: pipeline.ArchiveTransform{
			Archiver:     archive.Zipper{},
			Mapper:       mapper,
			OutputBucket: cfg.Storage.OutputBucket,
		},
	}

	return pipeline.NewIngestor(store, routes, pipeline.Options{
		DefaultWidth: cfg.Pipeline.DefaultWidth,
		Concurrency:  cfg.Pipeline.Concurrency,
	}, log, reporting.NewSentry(nil))
}

// NewHandler builds the HTTP handler; publisher may be nil.
func NewHandler(cfg *config.Config, presigner use_case.Presigner, publisher handler.Publisher, log *logger.Logger) *handler.Handler {
	uc := use_case.New(presigner, use_case.Options{
		InputBucket:  cfg.Storage.InputBucket,
		OutputBucket: cfg.Storage.OutputBucket,
		UploadTTL:    cfg.Links.UploadTTL,
		DownloadTTL:  cfg.Links.DownloadTTL,
		Mapper:       Mapper(cfg),
	})
	return handler.New(uc, publisher, cfg.Server.MaxRequestBodyKB<<10, log)
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	store, err := s3store.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{log: log}

	var publisher handler.Publisher
	if cfg.Queue.Enabled {
		holder, err := redisholder.Build(ctx, &cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		a.holder = holder

		publisher = queue.NewProducer(holder.Get, cfg.Queue.Stream, cfg.Queue.MaxLen)
		a.worker = queue.NewWorker(holder.Get, cfg.Queue, NewIngestor(cfg, store, log), log)
	}

	a.HttpServer = &http.Server{
		Handler:      router.NewRouter(NewHandler(cfg, store, publisher, log)),
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// Run serves until ctx is canceled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Infow("starting server", "addr", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.HttpServer.Shutdown(shutdownCtx)
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(ctx)
		})
	}

	err := g.Wait()
	if a.holder != nil {
		_ = a.holder.Close()
	}
	return err
}
