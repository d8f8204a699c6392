// Package imaging normalizes stored pictures: uploads are decoded, scaled to
// fit a bounding box and re-encoded as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxDimension bounds the width and height of stored images.
	MaxDimension = 1024

	// ThumbnailDimension bounds the width and height of thumbnails.
	ThumbnailDimension = 160

	// JPEGQuality is the compression quality of every encoded image.
	JPEGQuality = 85
)

// ErrUnsupported is returned for payloads that are not JPEG or PNG.
var ErrUnsupported = errors.New("unsupported image format")

// IsImage reports whether data sniffs as a supported image type.
func IsImage(data []byte) bool {
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
		return true
	}
	return false
}

// Normalize decodes a JPEG or PNG, fits it within MaxDimension and encodes
// it as JPEG.
func Normalize(data []byte) ([]byte, error) {
	return Fit(data, MaxDimension)
}

// Fit decodes a JPEG or PNG, shrinks it so neither side exceeds maxDim and
// encodes it as JPEG. Images already within bounds are re-encoded at their
// original size.
func Fit(data []byte, maxDim int) ([]byte, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, http.DetectContentType(data))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, shrink(img, maxDim), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// shrink scales img down with Catmull-Rom so it fits a maxDim square,
// keeping the aspect ratio.
func shrink(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
