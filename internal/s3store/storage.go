package s3store

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	conf "github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
)

// ObjectAPI is the part of the S3 client the store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	manager.UploadAPIClient
}

// PresignAPI is the part of s3.PresignClient the store needs.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3 is created once per process and shared by every component.
type S3 struct {
	client    ObjectAPI
	uploader  *manager.Uploader
	presigner PresignAPI
}

func NewStorage(ctx context.Context, cfg *conf.StorageConfig) (*S3, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretKey, "",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to load AWS config").
			Mark(ierr.ErrSystem)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return New(client, s3.NewPresignClient(client)), nil
}

// New wraps already constructed clients.
func New(client ObjectAPI, presigner PresignAPI) *S3 {
	return &S3{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: presigner,
	}
}

// Download reads the whole object with its user metadata.
func (s *S3) Download(ctx context.Context, loc entities.Location) (entities.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return entities.Object{}, ierr.WithError(err).
			WithMessagef("failed to download %s/%s", loc.Bucket, loc.Key).
			Mark(ierr.ErrFetch)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return entities.Object{}, ierr.WithError(err).
			WithMessagef("failed to read body for %s/%s", loc.Bucket, loc.Key).
			Mark(ierr.ErrFetch)
	}

	return entities.Object{
		Location:    loc,
		Body:        buf.Bytes(),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
	}, nil
}

// Upload writes the artifact, replacing any earlier object at the same key.
// Bodies over the part size go up as a multipart upload, which only becomes
// visible once completed.
func (s *S3) Upload(ctx context.Context, a entities.OutputArtifact) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Destination.Bucket),
		Key:         aws.String(a.Destination.Key),
		Body:        bytes.NewReader(a.Body),
		ContentType: aws.String(a.ContentType),
	})
	if err != nil {
		return ierr.WithError(err).
			WithMessagef("failed to upload %s/%s", a.Destination.Bucket, a.Destination.Key).
			Mark(ierr.ErrWrite)
	}
	return nil
}

// PresignPut issues an upload URL bound to contentType and carrying metadata.
// The uploader has to send the same Content-Type and x-amz-meta-* headers.
func (s *S3) PresignPut(ctx context.Context, loc entities.Location, contentType string, metadata map[string]string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", ierr.WithError(err).
			WithMessagef("failed to presign upload for %s/%s", loc.Bucket, loc.Key).
			Mark(ierr.ErrSystem)
	}
	return req.URL, nil
}

func (s *S3) PresignGet(ctx context.Context, loc entities.Location, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", ierr.WithError(err).
			WithMessagef("failed to presign download for %s/%s", loc.Bucket, loc.Key).
			Mark(ierr.ErrSystem)
	}
	return req.URL, nil
}
