package sink

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/inkframe/pkg/page"
)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale float64
}

// WithScale resamples the raster by s before encoding. 1 keeps page pixels.
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// RenderPNG encodes the composed page as PNG.
func RenderPNG(img image.Image, opts ...PNGOption) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("png: nil image")
	}
	r := pngRenderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}

	if r.scale > 0 && r.scale != 1 {
		b := img.Bounds()
		w := max(int(float64(b.Dx())*r.scale+0.5), 1)
		h := max(int(float64(b.Dy())*r.scale+0.5), 1)
		if err := page.CheckRasterSize(float64(w), float64(h)); err != nil {
			return nil, fmt.Errorf("png: scale %g: %w", r.scale, err)
		}
		img = imaging.Resize(img, w, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return buf.Bytes(), nil
}
