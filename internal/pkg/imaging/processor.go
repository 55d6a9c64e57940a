package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// ProcessedImage holds the listing-size image and its card thumbnail.
type ProcessedImage struct {
	Original    []byte
	Thumbnail   []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	MaxWidth    int // bounds for the stored original
	MaxHeight   int
	ThumbWidth  int // listing card crop
	ThumbHeight int
	Quality     int // JPEG quality 1-100
}

// DefaultConfig returns the sizes used by apartment listings.
func DefaultConfig() Config {
	return Config{
		MaxWidth:    2400,
		MaxHeight:   1600,
		ThumbWidth:  480,
		ThumbHeight: 320,
		Quality:     85,
	}
}

// Processor resizes uploaded apartment photos.
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes data, applies EXIF orientation, bounds it to the
// configured size and produces a center-cropped thumbnail. PNG stays PNG;
// every other format is re-encoded as JPEG.
func (p *Processor) Process(data []byte) (*ProcessedImage, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := img
	b := img.Bounds()
	if b.Dx() > p.config.MaxWidth || b.Dy() > p.config.MaxHeight {
		resized = imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	}
	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)

	out := &ProcessedImage{
		Width:  resized.Bounds().Dx(),
		Height: resized.Bounds().Dy(),
	}
	if format == "png" {
		out.ContentType, out.Ext = "image/png", ".png"
	} else {
		out.ContentType, out.Ext = "image/jpeg", ".jpg"
	}

	if out.Original, err = p.encode(resized, format); err != nil {
		return nil, fmt.Errorf("encode original: %w", err)
	}
	if out.Thumbnail, err = p.encode(thumb, format); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return out, nil
}

func (p *Processor) encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
