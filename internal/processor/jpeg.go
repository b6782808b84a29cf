package processor

import (
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
)

const (
	DefaultQuality = 85
	// DefaultMaxWidth caps the requested output width.
	DefaultMaxWidth = 10000
	// DefaultMaxPixels caps both the decoded source and the resized output.
	// At 4 bytes a pixel this keeps each buffer around 200MB.
	DefaultMaxPixels = 50_000_000
)

// Result is a re-encoded image.
type Result struct {
	Data   []byte
	Width  int
	Height int
	// Source format as detected on decode.
	Format string
}

// JPEGTransformer resizes any supported raster image to a target width and
// re-encodes it as an opaque JPEG.
// Requests over the size limits fail instead of being clamped, since the
// width comes from uploader-supplied metadata.
type JPEGTransformer struct {
	Quality   int
	MaxWidth  int
	MaxPixels int
}

func NewJPEGTransformer(quality int) JPEGTransformer {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return JPEGTransformer{Quality: quality, MaxWidth: DefaultMaxWidth, MaxPixels: DefaultMaxPixels}
}

// WithLimits replaces the size limits; non-positive values keep the defaults.
func (t JPEGTransformer) WithLimits(maxWidth, maxPixels int) JPEGTransformer {
	if maxWidth > 0 {
		t.MaxWidth = maxWidth
	}
	if maxPixels > 0 {
		t.MaxPixels = maxPixels
	}
	return t
}

// checkLimits rejects work whose buffers would not fit in memory. An
// allocation failure at that size is fatal and would take the batch down.
func (t JPEGTransformer) checkLimits(content []byte, width int) error {
	if width > t.MaxWidth {
		return ierr.NewErrorf("target width %d exceeds limit %d", width, t.MaxWidth).
			Mark(ierr.ErrTransform)
	}

	cfg, _, err := DecodeConfig(content)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("read image header").
			Mark(ierr.ErrTransform)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ierr.NewErrorf("image has empty bounds %dx%d", cfg.Width, cfg.Height).
			Mark(ierr.ErrTransform)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(t.MaxPixels) {
		return ierr.NewErrorf("source %dx%d exceeds %d pixels", cfg.Width, cfg.Height, t.MaxPixels).
			Mark(ierr.ErrTransform)
	}
	if width > 0 {
		h := TargetHeight(width, cfg.Width, cfg.Height)
		if int64(width)*int64(h) > int64(t.MaxPixels) {
			return ierr.NewErrorf("output %dx%d exceeds %d pixels", width, h, t.MaxPixels).
				Mark(ierr.ErrTransform)
		}
	}
	return nil
}

func (t JPEGTransformer) Transform(content []byte, width int) (Result, error) {
	if err := t.checkLimits(content, width); err != nil {
		return Result{}, err
	}

	imgp := &ImageProcessor{}
	if err := imgp.Load(content); err != nil {
		return Result{}, ierr.WithError(err).
			WithMessage("decode image").
			Mark(ierr.ErrTransform)
	}

	transparent := hasAlpha(imgp.img)

	if err := imgp.ResizeToWidth(width); err != nil {
		return Result{}, ierr.WithError(err).
			WithMessage("resize image").
			Mark(ierr.ErrTransform)
	}

	if transparent {
		imgp.Flatten()
	}

	data, err := imgp.GetJPEG(t.Quality)
	if err != nil {
		return Result{}, ierr.WithError(err).
			WithMessage("encode jpeg").
			Mark(ierr.ErrTransform)
	}

	w, h := imgp.GetBounds()
	return Result{Data: data, Width: w, Height: h, Format: imgp.Format()}, nil
}
