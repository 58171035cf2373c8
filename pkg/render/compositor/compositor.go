package compositor

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/inkframe/pkg/fonts"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/httputil"
	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/layout"
	"github.com/matzehuels/inkframe/pkg/render/shape"
)

// DefaultConcurrency bounds simultaneous image loads per page.
const DefaultConcurrency = 8

// Option configures a [Compositor].
type Option func(*Compositor)

// WithLogger sets the logger for image failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFetcher sets the source of image bytes.
func WithFetcher(f *httputil.Fetcher) Option {
	return func(c *Compositor) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// WithPageNumbers draws the page number centred at the bottom edge.
func WithPageNumbers(on bool) Option {
	return func(c *Compositor) { c.pageNumbers = on }
}

// WithBackground sets the page fill as a hex color.
func WithBackground(hex string) Option {
	return func(c *Compositor) {
		if hex != "" {
			c.background = hex
		}
	}
}

// WithImageTimeout bounds each image load. Zero means no extra bound.
func WithImageTimeout(d time.Duration) Option {
	return func(c *Compositor) { c.imageTimeout = d }
}

// WithConcurrency bounds simultaneous image loads.
func WithConcurrency(n int) Option {
	return func(c *Compositor) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Compositor draws rendered pages. One instance is one session: it owns the
// decoded-image map and is safe for concurrent use.
type Compositor struct {
	logger       *log.Logger
	fetcher      *httputil.Fetcher
	pageNumbers  bool
	background   string
	imageTimeout time.Duration
	concurrency  int

	mu     sync.RWMutex
	images map[string]image.Image
	group  singleflight.Group
}

// New creates a compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		logger:      log.New(io.Discard),
		fetcher:     httputil.NewFetcher(),
		background:  shape.DefaultBackground,
		concurrency: DefaultConcurrency,
		images:      make(map[string]image.Image),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Composite draws rp and returns the page image. It fails only for a page
// with no drawable area or one beyond the raster limits; missing images,
// bubbles or panels are drawn as far as they go.
func (c *Compositor) Composite(ctx context.Context, rp *page.RenderedPage) (img image.Image, err error) {
	if rp == nil {
		return nil, fmt.Errorf("composite: nil page")
	}
	if err := page.CheckRasterSize(rp.Width, rp.Height); err != nil {
		return nil, fmt.Errorf("composite: page %q: %w", rp.PageID, err)
	}
	w, h := int(math.Round(rp.Width)), int(math.Round(rp.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("composite: page %q has no area (%gx%g)", rp.PageID, rp.Width, rp.Height)
	}

	hooks := observability.Pipeline()
	hooks.OnCompositeStart(ctx, rp.PageID, len(rp.Panels))
	start := time.Now()
	defer func() { hooks.OnCompositeComplete(ctx, rp.PageID, time.Since(start), err) }()

	loaded := c.loadAll(ctx, rp.Panels)

	dc := gg.NewContext(w, h)
	dc.SetHexColor(c.background)
	dc.Clear()

	for _, p := range layout.ZOrder(rp.Panels) {
		c.drawPanel(dc, p, loaded[p.ImageURL])
	}
	if c.pageNumbers && rp.Number > 0 {
		drawPageNumber(dc, rp.Number)
	}
	return dc.Image(), nil
}

// Cached reports how many decoded images the session holds.
func (c *Compositor) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func (c *Compositor) drawPanel(dc *gg.Context, p page.RenderedPanel, img image.Image) {
	box := p.Box
	if !box.Renderable() {
		return
	}

	dc.SetHexColor(shape.PanelFill)
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Fill()

	switch {
	case img != nil:
		drawCover(dc, img, box)
	case p.ImageURL != "":
		drawPlaceholder(dc, box, p.PanelIndex)
	}

	for _, b := range p.Bubbles {
		drawBubble(dc, b)
	}

	drawBorder(dc, box, p.BorderStyle, p.BorderWidth)
}

// drawCover scales img to fill box, cropping the overflow around the centre.
func drawCover(dc *gg.Context, img image.Image, box geom.PixelRect) {
	x0, y0 := int(math.Round(box.X)), int(math.Round(box.Y))
	x1, y1 := int(math.Round(box.Right())), int(math.Round(box.Bottom()))
	if x1 <= x0 || y1 <= y0 {
		return
	}
	fitted := imaging.Fill(img, x1-x0, y1-y0, imaging.Center, imaging.Lanczos)

	dc.Push()
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Clip()
	dc.DrawImage(fitted, x0, y0)
	dc.ResetClip()
	dc.Pop()
}

func drawPlaceholder(dc *gg.Context, box geom.PixelRect, panelIndex int) {
	dc.SetHexColor(shape.PlaceholderFill)
	dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
	dc.Fill()

	face, err := fonts.Face(fonts.Bold, shape.PlaceholderFontSize(box))
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetHexColor(shape.PlaceholderInk)
	dc.DrawStringAnchored(shape.PlaceholderLabel(panelIndex), box.CenterX(), box.CenterY(), 0.5, 0.5)
}

// drawBorder strokes the panel outline.
func drawBorder(dc *gg.Context, box geom.PixelRect, style page.BorderStyle, width float64) {
	if width <= 0 {
		return
	}
	dc.SetHexColor(shape.Ink)
	dc.SetLineWidth(width)
	dc.SetDash()

	switch style {
	case page.BorderNone:
		return
	case page.BorderDouble:
		dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
		dc.Stroke()
		inner := box.Inset(shape.DoubleBorderInset)
		if inner.Renderable() {
			dc.DrawRectangle(inner.X, inner.Y, inner.Width, inner.Height)
			dc.Stroke()
		}
	case page.BorderSolid:
		dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
		dc.Stroke()
	}
}

func drawPageNumber(dc *gg.Context, n int) {
	face, err := fonts.Face(fonts.Regular, shape.PageNumberSize)
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetHexColor(shape.Ink)
	x := float64(dc.Width()) / 2
	y := float64(dc.Height()) - shape.PageNumberOffset
	dc.DrawStringAnchored(fmt.Sprintf("%d", n), x, y, 0.5, 0)
}
