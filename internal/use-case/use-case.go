package use_case

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/naming"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/transport/handler"
)

const (
	DefaultSize        = "800"
	DefaultContentType = "application/octet-stream"
	resizeMetadataKey  = "resize"
)

type Presigner interface {
	PresignPut(ctx context.Context, loc entities.Location, contentType string, metadata map[string]string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, loc entities.Location, ttl time.Duration) (string, error)
}

type Options struct {
	InputBucket  string
	OutputBucket string
	UploadTTL    time.Duration
	DownloadTTL  time.Duration
	Mapper       naming.Mapper
}

type useCase struct {
	presigner Presigner
	opts      Options
	validator *validator.Validate
}

func New(presigner Presigner, opts Options) *useCase {
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 5 * time.Minute
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = time.Hour
	}
	return &useCase{
		presigner: presigner,
		opts:      opts,
		validator: validator.New(),
	}
}

// IssueLinks returns an upload URL for the input bucket and a download URL for
// the key the pipeline will write the result under.
func (c *useCase) IssueLinks(ctx context.Context, req handler.LinkRequest) (entities.Links, error) {
	if err := c.validator.Struct(req); err != nil {
		return entities.Links{}, ierr.WithError(err).
			WithHint(validationHint(err)).
			Mark(ierr.ErrValidation)
	}

	size := string(req.Size)
	if size == "" {
		size = DefaultSize
	}
	fileType := req.FileType
	if fileType == "" {
		fileType = DefaultContentType
	}

	up, err := c.presigner.PresignPut(ctx,
		entities.Location{Bucket: c.opts.InputBucket, Key: req.Filename},
		fileType,
		map[string]string{resizeMetadataKey: size},
		c.opts.UploadTTL,
	)
	if err != nil {
		return entities.Links{}, ierr.WithError(err).
			WithHintf("could not issue upload link for %q", req.Filename).
			Mark(ierr.ErrSystem)
	}

	down, err := c.presigner.PresignGet(ctx,
		entities.Location{Bucket: c.opts.OutputBucket, Key: c.opts.Mapper.DownloadKey(req.Filename)},
		c.opts.DownloadTTL,
	)
	if err != nil {
		return entities.Links{}, ierr.WithError(err).
			WithHintf("could not issue download link for %q", req.Filename).
			Mark(ierr.ErrSystem)
	}

	return entities.Links{Up: up, Down: down}, nil
}

func validationHint(err error) string {
	var verrs validator.ValidationErrors
	if ierr.As(err, &verrs) {
		for _, e := range verrs {
			if e.Field() == "Filename" && e.Tag() == "max" {
				return "Filename is too long"
			}
		}
	}
	return "No filename provided"
}
