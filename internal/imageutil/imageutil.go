// Package imageutil prepares local images for inference: decode, downscale
// to fit a bounding box, re-encode as JPEG, and wrap as a base64 data URL.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "image/png"
)

// Defaults match the deployed inference pipeline: full-HD bounding box,
// JPEG quality 80.
const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
	DefaultQuality   = 80
)

// EncodeDataURL reads the image at path, scales it down proportionally so
// it fits within maxWidth x maxHeight (never scaling up), re-encodes it as
// JPEG at the given quality, and returns it as a data URL suitable for an
// OpenAI-style image_url content part.
func EncodeDataURL(path string, maxWidth, maxHeight, quality int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	dst := fit(src, maxWidth, maxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit scales src proportionally to fit within the bounding box. Images
// already inside the box are returned unchanged.
func fit(src image.Image, maxWidth, maxHeight int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}

	dw := int(float64(w) * scale)
	if dw < 1 {
		dw = 1
	}
	dh := int(float64(h) * scale)
	if dh < 1 {
		dh = 1
	}

	// Src: dst is a fresh buffer, so the source pixels are copied rather
	// than composited, keeping partially transparent PNG pixels intact.
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
