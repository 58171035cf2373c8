package bubble

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/resolve"
)

// Placement constants.
const (
	Padding       = 5.0  // minimum gap between a bubble and its panel edge
	MaxIterations = 10   // overlap resolution pass limit
	Step          = 10.0 // downward nudge per overlap, in pixels

	// tailTargetY is where a speaker's mouth likely is, as a fraction of
	// panel height.
	tailTargetY = 0.7
)

// Suggester proposes bubble rectangles, typically from an image model that
// can see the panel art. Keys are bubble ids; values are relative to the
// panel box.
type Suggester interface {
	Suggest(ctx context.Context, panelID string, bubbles []page.SpeechBubble) (map[string]geom.NormalizedRect, error)
}

// SuggesterFunc adapts a function to [Suggester].
type SuggesterFunc func(ctx context.Context, panelID string, bubbles []page.SpeechBubble) (map[string]geom.NormalizedRect, error)

// Suggest calls f.
func (f SuggesterFunc) Suggest(ctx context.Context, panelID string, bubbles []page.SpeechBubble) (map[string]geom.NormalizedRect, error) {
	return f(ctx, panelID, bubbles)
}

// Option configures an [Engine].
type Option func(*Engine)

// WithSuggester consults s before any other geometry source.
func WithSuggester(s Suggester) Option { return func(e *Engine) { e.suggester = s } }

// WithLogger sets the logger used for suggestion failures and
// non-converging panels.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxIterations overrides [MaxIterations]. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// Engine places bubbles. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	suggester     Suggester
	logger        *log.Logger
	maxIterations int
}

// New returns an engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:        log.New(io.Discard),
		maxIterations: MaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of placing one panel's bubbles.
type Result struct {
	Bubbles   []page.RenderedBubble
	Passes    int  // overlap passes run
	Converged bool // no two bubbles overlap
}

// Place resolves bubbles inside panel using the default engine.
func Place(panel geom.PixelRect, bubbles []page.SpeechBubble, opts ...Option) []page.RenderedBubble {
	return New(opts...).PlacePanel(context.Background(), "", panel, bubbles).Bubbles
}

// PlacePanel resolves the bubbles of one panel. panelID is passed to the
// suggester only.
func (e *Engine) PlacePanel(ctx context.Context, panelID string, panel geom.PixelRect, bubbles []page.SpeechBubble) Result {
	if len(bubbles) == 0 {
		return Result{Converged: true}
	}

	suggested := e.suggest(ctx, panelID, bubbles)

	boxes := make([]geom.PixelRect, len(bubbles))
	dialogue := 0
	for i := range bubbles {
		b := &bubbles[i]
		// A rejected suggestion falls through to the anchor.
		hint, suggestedOK := suggested[b.ID]
		rejected := suggestedOK && b.ID != "" && !ValidSuggestion(hint)
		rect := resolve.Or(geom.PixelRect{},
			func() (geom.PixelRect, bool) {
				if !suggestedOK || b.ID == "" || rejected {
					return geom.PixelRect{}, false
				}
				return geom.RelativeToAbsolute(hint, panel), true
			},
			func() (geom.PixelRect, bool) {
				r, ok := b.RelativeRect()
				return geom.RelativeToAbsolute(r, panel), ok && !rejected
			},
			func() (geom.PixelRect, bool) {
				r, ok := b.LocalRect()
				return r.Offset(panel.X, panel.Y), ok && !rejected
			},
			func() (geom.PixelRect, bool) {
				return geom.RelativeToAbsolute(AnchorRect(b, dialogue, panel), panel), true
			},
		)
		if !b.Type.OrDefault().IsNarration() {
			dialogue++
		}
		boxes[i] = Clamp(rect, panel)
	}

	passes, converged := e.Resolve(boxes, panel)
	if !converged {
		e.logger.Debug("bubble overlap unresolved", "panel", panelID, "bubbles", len(bubbles), "passes", passes)
	}

	out := make([]page.RenderedBubble, len(bubbles))
	for i, b := range bubbles {
		out[i] = page.RenderedBubble{
			ID:            b.ID,
			Text:          b.Text,
			Type:          b.Type.OrDefault(),
			Box:           boxes[i],
			TailDirection: TailDirection(boxes[i], panel),
			TailTarget:    tailTarget(b.TailTarget, panel),
		}
	}
	return Result{Bubbles: out, Passes: passes, Converged: converged}
}

// Placer adapts e to the per-panel callback used by the page renderer.
func (e *Engine) Placer(ctx context.Context) func(page.RenderedPanel, []page.SpeechBubble) []page.RenderedBubble {
	return func(p page.RenderedPanel, bubbles []page.SpeechBubble) []page.RenderedBubble {
		return e.PlacePanel(ctx, p.ID, p.Box, bubbles).Bubbles
	}
}

func (e *Engine) suggest(ctx context.Context, panelID string, bubbles []page.SpeechBubble) map[string]geom.NormalizedRect {
	if e.suggester == nil {
		return nil
	}
	s, err := e.suggester.Suggest(ctx, panelID, bubbles)
	if err != nil {
		e.logger.Warn("bubble suggestion failed, using anchors", "panel", panelID, "err", err)
		return nil
	}
	return s
}

// ValidSuggestion reports whether an externally supplied rectangle is usable:
// inside the unit square and at least 0.1 wide and 0.05 tall.
func ValidSuggestion(r geom.NormalizedRect) bool {
	return r.Valid() && r.Width >= 0.1 && r.Height >= 0.05
}

// Clamp constrains r inside panel, leaving [Padding] on every side.
func Clamp(r, panel geom.PixelRect) geom.PixelRect {
	r.Width = geom.Clamp(r.Width, 0, panel.Width-2*Padding)
	r.Height = geom.Clamp(r.Height, 0, panel.Height-2*Padding)
	r.X = geom.Clamp(r.X, panel.X+Padding, panel.Right()-r.Width-Padding)
	r.Y = geom.Clamp(r.Y, panel.Y+Padding, panel.Bottom()-r.Height-Padding)
	return r
}

// Resolve nudges overlapping boxes apart in place. Each pass walks pairs
// i<j in order and moves j down by [Step] on overlap, re-clamping it into
// panel. It stops after a clean pass or the iteration limit and reports the
// passes run and whether the boxes ended overlap-free.
func (e *Engine) Resolve(boxes []geom.PixelRect, panel geom.PixelRect) (passes int, converged bool) {
	for passes < e.maxIterations {
		passes++
		moved := false
		for i := 0; i < len(boxes); i++ {
			for j := i + 1; j < len(boxes); j++ {
				if geom.Overlaps(boxes[i], boxes[j]) {
					boxes[j].Y += Step
					boxes[j] = Clamp(boxes[j], panel)
					moved = true
				}
			}
		}
		if !moved {
			return passes, true
		}
	}
	return passes, !anyOverlap(boxes)
}

func anyOverlap(boxes []geom.PixelRect) bool {
	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			if geom.Overlaps(boxes[i], boxes[j]) {
				return true
			}
		}
	}
	return false
}

// TailDirection points the tail into the quadrant opposite the bubble's
// position. A center exactly on an axis counts as top or left.
func TailDirection(bubble, panel geom.PixelRect) page.TailDirection {
	left := bubble.CenterX() <= panel.CenterX()
	top := bubble.CenterY() <= panel.CenterY()
	switch {
	case top && left:
		return page.TailBottomRight
	case top:
		return page.TailBottomLeft
	case left:
		return page.TailTopRight
	default:
		return page.TailTopLeft
	}
}

func tailTarget(local *geom.Point, panel geom.PixelRect) *geom.Point {
	if local != nil {
		return &geom.Point{X: panel.X + local.X, Y: panel.Y + local.Y}
	}
	return &geom.Point{X: panel.CenterX(), Y: panel.Y + tailTargetY*panel.Height}
}
