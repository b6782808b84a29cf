package pipeline

import (
	"context"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/naming"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/processor"
)

const (
	contentTypeJPEG = "image/jpeg"
	contentTypeZIP  = "application/zip"
)

// Transform turns one request into the artifact to write. Implementations
// must not write anything themselves.
type Transform interface {
	Transform(ctx context.Context, req entities.TransformRequest) (entities.OutputArtifact, error)
}

type ImageEncoder interface {
	Transform(content []byte, width int) (processor.Result, error)
}

type Archiver interface {
	Zip(entryName string, content []byte) ([]byte, error)
}

// ImageTransform resizes and re-encodes rasters as JPEG.
type ImageTransform struct {
	Encoder      ImageEncoder
	Mapper       naming.Mapper
	OutputBucket string
}

func (t ImageTransform) Transform(_ context.Context, req entities.TransformRequest) (entities.OutputArtifact, error) {
	res, err := t.Encoder.Transform(req.Content, req.TargetWidth)
	if err != nil {
		return entities.OutputArtifact{}, err
	}

	return entities.OutputArtifact{
		Destination: entities.Location{Bucket: t.OutputBucket, Key: t.Mapper.OutputKey(req.Source.Key)},
		Body:        res.Data,
		ContentType: contentTypeJPEG,
	}, nil
}

// ArchiveTransform wraps documents, unmodified, into a ZIP named after the
// original key.
type ArchiveTransform struct {
	Archiver     Archiver
	Mapper       naming.Mapper
	OutputBucket string
}

func (t ArchiveTransform) Transform(_ context.Context, req entities.TransformRequest) (entities.OutputArtifact, error) {
	data, err := t.Archiver.Zip(req.Source.Key, req.Content)
	if err != nil {
		return entities.OutputArtifact{}, ierr.WithError(err).
			WithMessagef("zip %s", req.Source.Key).
			Mark(ierr.ErrTransform)
	}

	return entities.OutputArtifact{
		Destination: entities.Location{Bucket: t.OutputBucket, Key: t.Mapper.OutputKey(req.Source.Key)},
		Body:        data,
		ContentType: contentTypeZIP,
	}, nil
}

// Router selects the transform for a category.
type Router struct {
	Image    Transform
	Document Transform
}

// Route returns false for categories nothing handles.
func (r Router) Route(c entities.Category) (Transform, bool) {
	switch c {
	case entities.Image:
		return r.Image, r.Image != nil
	case entities.Document:
		return r.Document, r.Document != nil
	default:
		return nil, false
	}
}
