// Package imaging downsizes and re-encodes photos before upload.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	// Decoders for the accepted input formats.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality = 80

	CarImageMaxSide = 1024
	AvatarMaxSide   = 500
)

var (
	ErrInvalidBox       = errors.New("target box must be positive")
	ErrInvalidQuality   = errors.New("quality must be within 1..100")
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
)

// boxKernel averages every source pixel covered by a destination pixel.
var boxKernel = &draw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

// SampleSize returns the power-of-two reduction factor for a w×h image and a
// maxW×maxH box. The factor only grows while both halved sides would still
// cover the box, so the result may exceed the box by up to 2× per side.
func SampleSize(w, h, maxW, maxH int) int {
	n := 1
	if h > maxH || w > maxW {
		halfH, halfW := h/2, w/2
		for halfH/n >= maxH && halfW/n >= maxW {
			n *= 2
		}
	}
	return n
}

func ceilDiv(a, b int) int {
	d := (a + b - 1) / b
	if d < 1 {
		return 1
	}
	return d
}

// Compress decodes src (JPEG, PNG, GIF, BMP or WebP), reduces it by
// SampleSize and encodes it as JPEG at quality. Transparent areas are
// flattened onto white. The output depends only on the inputs.
func Compress(src []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, ErrInvalidBox
	}
	if quality < 1 || quality > 100 {
		return nil, ErrInvalidQuality
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	n := SampleSize(cfg.Width, cfg.Height, maxWidth, maxHeight)

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, ceilDiv(b.Dx(), n), ceilDiv(b.Dy(), n)))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if n == 1 {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		boxKernel.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
