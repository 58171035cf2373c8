package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/compositor"
	"github.com/matzehuels/inkframe/pkg/render/sink"
)

// Render encodes a rendered page in every requested format.
//
// PNG and PDF share one composited raster; SVG and JSON are produced from
// the geometry directly, so a request for only those never loads images.
func Render(ctx context.Context, rp *page.RenderedPage, opts Options) (artifacts map[string][]byte, err error) {
	if rp == nil {
		return nil, fmt.Errorf("render: nil page")
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	var raster image.Image
	if opts.NeedsRaster() {
		comp := NewCompositor(opts)
		raster, err = comp.Composite(ctx, rp)
		if err != nil {
			return nil, fmt.Errorf("composite: %w", err)
		}
	}

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatPNG:
			data, err = sink.RenderPNG(raster, sink.WithScale(opts.Scale))
		case FormatPDF:
			data, err = sink.RenderPDF(raster, sink.WithTitle(pageTitle(rp)))
		case FormatSVG:
			data = sink.RenderSVG(rp, svgOptions(opts)...)
		case FormatJSON:
			data, err = sink.RenderJSON(rp)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// NewCompositor builds a compositor configured from opts. Options are
// expected to carry render defaults already.
func NewCompositor(opts Options) *compositor.Compositor {
	return compositor.New(
		compositor.WithLogger(opts.Logger),
		compositor.WithFetcher(opts.Fetcher),
		compositor.WithPageNumbers(opts.PageNumbers),
		compositor.WithBackground(opts.Background),
		compositor.WithImageTimeout(opts.ImageTimeout),
		compositor.WithConcurrency(opts.Concurrency),
	)
}

func svgOptions(opts Options) []sink.SVGOption {
	out := []sink.SVGOption{sink.WithSVGBackground(opts.Background)}
	if opts.PageNumbers {
		out = append(out, sink.WithPageNumbers())
	}
	return out
}

func pageTitle(rp *page.RenderedPage) string {
	if rp.Number > 0 {
		return fmt.Sprintf("Page %d", rp.Number)
	}
	return rp.PageID
}
