package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/httputil"
	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/page"
)

var red = color.NRGBA{R: 255, A: 255}

func solidPNG(t *testing.T, c color.Color, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// imageServer serves a solid red PNG at /red.png and 404 elsewhere.
func imageServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	data := solidPNG(t, red, 40, 20)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/red.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestCompositor(opts ...Option) *Compositor {
	f := httputil.NewFetcher(httputil.WithBackoff(httputil.Backoff{Attempts: 1}))
	return New(append([]Option{WithFetcher(f)}, opts...)...)
}

func rendered(panels ...page.RenderedPanel) *page.RenderedPage {
	return &page.RenderedPage{PageID: "p1", Number: 3, Width: 400, Height: 300, Panels: panels}
}

func panelAt(id string, idx int, box geom.PixelRect) page.RenderedPanel {
	return page.RenderedPanel{
		ID:          id,
		PanelIndex:  idx,
		Box:         box,
		BorderStyle: page.BorderSolid,
		BorderWidth: 2,
	}
}

func rgb(img image.Image, x, y int) (r, g, b uint8) {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return c.R, c.G, c.B
}

func near(got, want uint8) bool {
	d := int(got) - int(want)
	return d >= -3 && d <= 3
}

func wantColor(t *testing.T, img image.Image, x, y int, wr, wg, wb uint8) {
	t.Helper()
	r, g, b := rgb(img, x, y)
	if !near(r, wr) || !near(g, wg) || !near(b, wb) {
		t.Errorf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, wr, wg, wb)
	}
}

func TestCompositeEmptyPage(t *testing.T) {
	img, err := New().Composite(context.Background(), rendered())
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("bounds = %v, want 400x300", b)
	}
	wantColor(t, img, 200, 150, 255, 255, 255)
}

func TestCompositeBackground(t *testing.T) {
	img, err := New(WithBackground("#102030")).Composite(context.Background(), rendered())
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	wantColor(t, img, 10, 10, 0x10, 0x20, 0x30)
}

func TestCompositeRejectsEmptyArea(t *testing.T) {
	c := New()
	if _, err := c.Composite(context.Background(), nil); err == nil {
		t.Error("Composite(nil) error = nil")
	}
	if _, err := c.Composite(context.Background(), &page.RenderedPage{PageID: "x"}); err == nil {
		t.Error("Composite() of zero-size page error = nil")
	}
}

func TestCompositeRejectsOversizedPage(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
	}{
		{"huge", 1e10, 1e10},
		{"area", 1e5, 1e5},
		{"side", page.MaxDimension + 1, 10},
		{"nan", math.NaN(), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := &page.RenderedPage{PageID: "big", Width: tt.w, Height: tt.h}
			_, err := New().Composite(context.Background(), rp)
			if !errors.Is(err, errors.ErrCodeInvalidPage) {
				t.Errorf("Composite(%gx%g) error = %v, want %v", tt.w, tt.h, err, errors.ErrCodeInvalidPage)
			}
		})
	}
}

func TestCompositeLoadsImagesConcurrently(t *testing.T) {
	const delay = 300 * time.Millisecond
	data := solidPNG(t, red, 4, 4)
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(delay)
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)

	a := panelAt("a", 0, geom.PixelRect{X: 0, Y: 0, Width: 100, Height: 100})
	a.ImageURL = srv.URL + "/a.png"
	b := panelAt("b", 1, geom.PixelRect{X: 200, Y: 0, Width: 100, Height: 100})
	b.ImageURL = srv.URL + "/b.png"

	start := time.Now()
	img, err := newTestCompositor().Composite(context.Background(), rendered(a, b))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	if peak.Load() != 2 {
		t.Errorf("peak concurrent fetches = %d, want 2", peak.Load())
	}
	if elapsed >= 2*delay {
		t.Errorf("Composite() took %v, want under %v", elapsed, 2*delay)
	}
	wantColor(t, img, 50, 50, 255, 0, 0)
	wantColor(t, img, 250, 50, 255, 0, 0)
}

func TestCompositeCoverFitImage(t *testing.T) {
	srv, _ := imageServer(t)
	p := panelAt("a", 0, geom.PixelRect{X: 50, Y: 50, Width: 200, Height: 200})
	p.ImageURL = srv.URL + "/red.png"

	img, err := newTestCompositor().Composite(context.Background(), rendered(p))
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	wantColor(t, img, 150, 150, 255, 0, 0)
	// Square box, 2:1 image: the crop still covers the corners.
	wantColor(t, img, 55, 55, 255, 0, 0)
	wantColor(t, img, 245, 245, 255, 0, 0)
	// Nothing escapes the box.
	wantColor(t, img, 270, 150, 255, 255, 255)
	wantColor(t, img, 150, 30, 255, 255, 255)
}

type imageErrors struct {
	observability.NoopImageHooks
	mu   sync.Mutex
	urls []string
}

func (h *imageErrors) OnImageError(_ context.Context, url string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.urls = append(h.urls, url)
}

func TestCompositePlaceholderOnFailure(t *testing.T) {
	srv, _ := imageServer(t)
	hooks := &imageErrors{}
	observability.SetImageHooks(hooks)
	defer observability.Reset()

	broken := panelAt("a", 0, geom.PixelRect{X: 20, Y: 20, Width: 160, Height: 160})
	broken.ImageURL = srv.URL + "/missing.png"
	good := panelAt("b", 1, geom.PixelRect{X: 220, Y: 20, Width: 160, Height: 160})
	good.ImageURL = srv.URL + "/red.png"

	img, err := newTestCompositor().Composite(context.Background(), rendered(broken, good))
	if err != nil {
		t.Fatalf("Composite() error = %v, want degraded render", err)
	}
	wantColor(t, img, 30, 30, 0xd8, 0xd8, 0xd8)
	wantColor(t, img, 300, 100, 255, 0, 0)

	if len(hooks.urls) != 1 || hooks.urls[0] != broken.ImageURL {
		t.Errorf("OnImageError urls = %v, want [%s]", hooks.urls, broken.ImageURL)
	}
}

func TestCompositeEmptyPanelHasNoLabel(t *testing.T) {
	p := panelAt("a", 0, geom.PixelRect{X: 20, Y: 20, Width: 160, Height: 160})
	img, err := New().Composite(context.Background(), rendered(p))
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	for y := 30; y < 170; y++ {
		for x := 30; x < 170; x++ {
			if r, g, b := rgb(img, x, y); r != 0xf0 || g != 0xf0 || b != 0xf0 {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want plain panel fill", x, y, r, g, b)
			}
		}
	}
}

func TestCompositeReusesDecodes(t *testing.T) {
	srv, hits := imageServer(t)
	a := panelAt("a", 0, geom.PixelRect{X: 0, Y: 0, Width: 100, Height: 100})
	a.ImageURL = srv.URL + "/red.png"
	b := panelAt("b", 1, geom.PixelRect{X: 200, Y: 0, Width: 100, Height: 100})
	b.ImageURL = a.ImageURL

	c := newTestCompositor()
	for range 2 {
		if _, err := c.Composite(context.Background(), rendered(a, b)); err != nil {
			t.Fatalf("Composite() error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
	if c.Cached() != 1 {
		t.Errorf("Cached() = %d, want 1", c.Cached())
	}

	// A fresh compositor is a fresh session.
	if _, err := newTestCompositor().Composite(context.Background(), rendered(a)); err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits after new session = %d, want 2", got)
	}
}

func TestCompositeZOrder(t *testing.T) {
	srv, _ := imageServer(t)
	top := panelAt("top", 0, geom.PixelRect{X: 50, Y: 50, Width: 200, Height: 200})
	top.ImageURL = srv.URL + "/red.png"
	bottom := panelAt("bottom", 1, geom.PixelRect{X: 100, Y: 100, Width: 200, Height: 150})

	tests := []struct {
		name       string
		topZ, botZ int
		wr, wg, wb uint8
	}{
		{"image above", 1, 0, 255, 0, 0},
		{"empty panel above", 0, 1, 0xf0, 0xf0, 0xf0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			top.ZIndex, bottom.ZIndex = tt.topZ, tt.botZ
			img, err := newTestCompositor().Composite(context.Background(), rendered(top, bottom))
			if err != nil {
				t.Fatalf("Composite() error: %v", err)
			}
			wantColor(t, img, 120, 120, tt.wr, tt.wg, tt.wb)
		})
	}
}

func TestCompositeBubbles(t *testing.T) {
	box := geom.PixelRect{X: 100, Y: 60, Width: 200, Height: 100}
	target := &geom.Point{X: 200, Y: 260}

	tests := []struct {
		typ        page.BubbleType
		wr, wg, wb uint8
	}{
		{page.BubbleStandard, 255, 255, 255},
		{page.BubbleThought, 255, 255, 255},
		{page.BubbleShout, 255, 255, 255},
		{page.BubbleWhisper, 255, 255, 255},
		{page.BubbleNarration, 0xff, 0xf8, 0xdc},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p := panelAt("a", 0, geom.PixelRect{X: 0, Y: 0, Width: 400, Height: 300})
			p.BorderStyle = page.BorderNone
			p.Bubbles = []page.RenderedBubble{{
				ID: "b", Text: "Hi", Type: tt.typ, Box: box, TailTarget: target,
			}}
			img, err := New().Composite(context.Background(), rendered(p))
			if err != nil {
				t.Fatalf("Composite() error: %v", err)
			}
			// Left of centre, clear of the short text.
			wantColor(t, img, int(box.X+0.25*box.Width), int(box.CenterY()), tt.wr, tt.wg, tt.wb)
			// Outside the bubble the panel fill shows.
			wantColor(t, img, 20, 280, 0xf0, 0xf0, 0xf0)
		})
	}
}

func TestCompositeBorders(t *testing.T) {
	box := geom.PixelRect{X: 50, Y: 50, Width: 300, Height: 200}
	tests := []struct {
		style     page.BorderStyle
		innerDark bool
		outerDark bool
	}{
		{page.BorderSolid, false, true},
		{page.BorderDouble, true, true},
		{page.BorderNone, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			p := panelAt("a", 0, box)
			p.BorderStyle = tt.style
			p.BorderWidth = 2
			img, err := New().Composite(context.Background(), rendered(p))
			if err != nil {
				t.Fatalf("Composite() error: %v", err)
			}
			r, _, _ := rgb(img, 50, 150)
			if dark := r < 64; dark != tt.outerDark {
				t.Errorf("outer stroke dark = %v, want %v (r=%d)", dark, tt.outerDark, r)
			}
			r, _, _ = rgb(img, 53, 150)
			if dark := r < 64; dark != tt.innerDark {
				t.Errorf("inner stroke dark = %v, want %v (r=%d)", dark, tt.innerDark, r)
			}
		})
	}
}

func TestCompositePageNumber(t *testing.T) {
	countDark := func(img image.Image) int {
		n := 0
		for y := 300 - 30; y < 300; y++ {
			for x := 180; x < 220; x++ {
				if r, _, _ := rgb(img, x, y); r < 128 {
					n++
				}
			}
		}
		return n
	}

	without, _ := New().Composite(context.Background(), rendered())
	with, _ := New(WithPageNumbers(true)).Composite(context.Background(), rendered())
	if countDark(without) != 0 {
		t.Error("page number drawn without WithPageNumbers")
	}
	if countDark(with) == 0 {
		t.Error("page number missing with WithPageNumbers")
	}
}

func TestCompositeCancelledContextDegrades(t *testing.T) {
	srv, _ := imageServer(t)
	p := panelAt("a", 0, geom.PixelRect{X: 20, Y: 20, Width: 160, Height: 160})
	p.ImageURL = srv.URL + "/red.png"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img, err := newTestCompositor(WithImageTimeout(time.Second)).Composite(ctx, rendered(p))
	if err != nil {
		t.Fatalf("Composite() error = %v, want placeholder", err)
	}
	wantColor(t, img, 30, 30, 0xd8, 0xd8, 0xd8)
}

func TestDecode(t *testing.T) {
	img, err := Decode(solidPNG(t, red, 3, 2))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("Decode() bounds = %v, want 3x2", b)
	}
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("Decode() of garbage error = nil")
	}
}
