package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// Load images, apply actions on them and then encode
type ImageProcessor struct {
	img    image.Image
	format string
}

// Load sniffs the content and picks the matching decoder. Formats without a
// dedicated loader go through the registered image decoders.
func (i *ImageProcessor) Load(b []byte) error {
	r := bytes.NewReader(b)

	switch mimetype.Detect(b).String() {
	case "image/png":
		return i.LoadPNG(r)
	case "image/jpeg":
		return i.LoadJPEG(r)
	case "image/webp":
		return i.LoadWEBP(r)
	default:
		img, format, err := image.Decode(r)
		if err != nil {
			return err
		}
		i.img, i.format = img, format
		return nil
	}
}

// DecodeConfig reads only the dimensions and format from the header, so size
// limits can be enforced before any pixel buffer is allocated.
func DecodeConfig(b []byte) (image.Config, string, error) {
	r := bytes.NewReader(b)

	switch mimetype.Detect(b).String() {
	case "image/png":
		cfg, err := png.DecodeConfig(r)
		return cfg, "png", err
	case "image/jpeg":
		cfg, err := jpeg.DecodeConfig(r)
		return cfg, "jpeg", err
	case "image/webp":
		cfg, err := webp.DecodeConfig(r)
		return cfg, "webp", err
	default:
		return image.DecodeConfig(r)
	}
}

func (i *ImageProcessor) LoadPNG(r io.Reader) error {
	img, err := png.Decode(r)
	i.img, i.format = img, "png"
	return err
}

func (i *ImageProcessor) LoadJPEG(r io.Reader) error {
	img, err := jpeg.Decode(r)
	i.img, i.format = img, "jpeg"
	return err
}

func (i *ImageProcessor) LoadWEBP(r io.Reader) error {
	img, err := webp.Decode(r)
	i.img, i.format = img, "webp"
	return err
}

// Format is the name of the decoder that loaded the current image.
func (i *ImageProcessor) Format() string {
	return i.format
}

// ResizeToWidth scales to width, deriving the height from the current bounds
// so the aspect ratio is kept.
func (i *ImageProcessor) ResizeToWidth(width int) error {
	w, h := i.GetBounds()
	if w == 0 || h == 0 {
		return fmt.Errorf("image has empty bounds %dx%d", w, h)
	}
	if width <= 0 {
		return fmt.Errorf("target width must be positive, got %d", width)
	}

	i.img = imaging.Resize(i.img, width, TargetHeight(width, w, h), imaging.Lanczos)
	return nil
}

// Flatten composites the image onto an opaque white canvas. JPEG has no alpha
// channel, so transparent and palette images must go through here first.
func (i *ImageProcessor) Flatten() {
	w, h := i.GetBounds()
	bg := imaging.New(w, h, color.White)
	i.img = imaging.Overlay(bg, i.img, image.Point{}, 1.0)
}

func (i *ImageProcessor) GetJPEG(quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := imaging.Encode(buf, i.img, imaging.JPEG, imaging.JPEGQuality(quality))
	return buf.Bytes(), err
}

func (i *ImageProcessor) GetBounds() (int, int) {
	return i.img.Bounds().Size().X, i.img.Bounds().Size().Y
}

// TargetHeight is round(width * origHeight / origWidth), at least 1.
func TargetHeight(width, origWidth, origHeight int) int {
	h := int(math.Round(float64(width) * float64(origHeight) / float64(origWidth)))
	if h < 1 {
		return 1
	}
	return h
}

// hasAlpha reports whether img may carry transparency.
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.Paletted:
		return true
	case interface{ Opaque() bool }:
		return !m.Opaque()
	default:
		return true
	}
}
