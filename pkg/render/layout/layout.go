package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/resolve"
	"github.com/matzehuels/inkframe/pkg/templates"
)

// Page defaults applied when a record leaves a value unset.
const (
	DefaultPageWidth   = 1200.0
	DefaultPageHeight  = 1800.0
	DefaultBorderWidth = 2.0
)

var (
	// DefaultPageMargins define the safe area when a page has no margins.
	DefaultPageMargins = geom.Uniform(20)
	// DefaultPanelMargins shrink a panel inside its slot when neither the
	// panel nor the slot specify margins.
	DefaultPanelMargins = geom.Uniform(10)
)

// TemplateNotFoundError is returned when a page names an unknown template.
type TemplateNotFoundError struct {
	ID string
}

func (e *TemplateNotFoundError) Error() string {
	return "layout template not found: " + e.ID
}

// Unwrap exposes the error code so errors.Is(err, errors.ErrCodeTemplateNotFound)
// holds for callers that only inspect codes.
func (e *TemplateNotFoundError) Unwrap() error {
	return errors.New(errors.ErrCodeTemplateNotFound, "unknown layout template %q", e.ID)
}

// BubblePlacer computes the final bubbles of one panel. It receives the panel
// with its final box already set.
type BubblePlacer func(panel page.RenderedPanel, bubbles []page.SpeechBubble) []page.RenderedBubble

// Option configures [RenderPage].
type Option func(*renderer)

type renderer struct {
	registry     *templates.Registry
	panelMargins geom.Margins
	placer       BubblePlacer
}

// WithRegistry resolves templates from r instead of the built-in catalog.
func WithRegistry(r *templates.Registry) Option {
	return func(rn *renderer) {
		if r != nil {
			rn.registry = r
		}
	}
}

// WithDefaultPanelMargins overrides the last-resort panel margins.
func WithDefaultPanelMargins(m geom.Margins) Option {
	return func(rn *renderer) { rn.panelMargins = m }
}

// WithBubblePlacer fills each panel's bubbles using fn. Without it the
// rendered panels carry no bubbles.
func WithBubblePlacer(fn BubblePlacer) Option {
	return func(rn *renderer) { rn.placer = fn }
}

// RenderPage resolves p into a [page.RenderedPage].
func RenderPage(p page.Page, opts ...Option) (*page.RenderedPage, error) {
	r := renderer{
		registry:     templates.Builtin(),
		panelMargins: DefaultPanelMargins,
	}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := p.Width, p.Height
	if width <= 0 {
		width = DefaultPageWidth
	}
	if height <= 0 {
		height = DefaultPageHeight
	}
	margins := resolve.Or(DefaultPageMargins, resolve.Ptr(p.Margins))
	safe := geom.ApplySafeArea(width, height, margins)

	templateID := resolve.Or(r.registry.DefaultID(), resolve.NonZero(p.LayoutTemplateID))
	tmpl, ok := r.registry.Get(templateID)
	if !ok {
		return nil, &TemplateNotFoundError{ID: templateID}
	}

	panels := slices.Clone(p.Panels)
	slices.SortStableFunc(panels, func(a, b page.Panel) int {
		return cmp.Compare(a.PanelIndex, b.PanelIndex)
	})

	out := &page.RenderedPage{
		PageID:           p.ID,
		Number:           p.Number,
		Width:            width,
		Height:           height,
		Margins:          margins,
		SafeArea:         safe,
		LayoutTemplateID: tmpl.ID,
		Panels:           make([]page.RenderedPanel, 0, len(panels)),
	}
	for i := range panels {
		rp := r.renderPanel(&panels[i], i, tmpl, safe)
		if r.placer != nil && len(panels[i].Bubbles) > 0 {
			rp.Bubbles = r.placer(rp, panels[i].Bubbles)
		}
		out.Panels = append(out.Panels, rp)
	}
	return out, nil
}

func (r *renderer) renderPanel(p *page.Panel, i int, tmpl templates.LayoutTemplate, safe geom.PixelRect) page.RenderedPanel {
	slot, hasSlot := tmpl.Slot(i)

	rel := resolveRect(p, slot, hasSlot, safe)
	box := geom.RelativeToAbsolute(rel, safe)

	margins := resolve.Or(r.panelMargins,
		resolve.Ptr(p.PanelMargins),
		func() (geom.Margins, bool) {
			if hasSlot && slot.Margins != nil {
				return *slot.Margins, true
			}
			return geom.Margins{}, false
		},
	)
	box = geom.ApplyMargins(box, margins)

	panelType := resolve.Or(page.PanelStandard,
		func() (page.PanelType, bool) { return p.PanelType, p.PanelType.Valid() },
		func() (page.PanelType, bool) { return slot.PanelType, hasSlot && slot.PanelType.Valid() },
	)
	zIndex := resolve.Or(0,
		resolve.Ptr(p.ZIndex),
		func() (int, bool) { return slot.ZIndex, hasSlot },
	)

	border := p.BorderStyle
	if !border.Valid() {
		border = page.BorderSolid
		if panelType == page.PanelBorderless {
			border = page.BorderNone
		}
	}
	borderWidth := resolve.Or(DefaultBorderWidth, func() (float64, bool) {
		return deref(p.BorderWidth), p.BorderWidth != nil && *p.BorderWidth >= 0
	})

	return page.RenderedPanel{
		ID:          p.ID,
		PanelIndex:  p.PanelIndex,
		Relative:    rel,
		Box:         box,
		ZIndex:      zIndex,
		PanelType:   panelType,
		Margins:     margins,
		BorderStyle: border,
		BorderWidth: borderWidth,
		ImageURL:    p.ImageURL,
	}
}

// resolveRect picks the normalized rectangle a panel occupies in the safe area.
func resolveRect(p *page.Panel, slot templates.PanelTemplate, hasSlot bool, safe geom.PixelRect) geom.NormalizedRect {
	rect := resolve.Or(geom.NormalizedRect{Width: 1, Height: 1},
		p.RelativeRect,
		func() (geom.NormalizedRect, bool) { return slot.Rect, hasSlot },
		func() (geom.NormalizedRect, bool) {
			abs, ok := p.AbsoluteRect()
			if !ok || !safe.Renderable() {
				return geom.NormalizedRect{}, false
			}
			return geom.AbsoluteToRelative(abs, safe), true
		},
	)
	return rect.Clamp()
}

// ZOrder returns panels in drawing order: z-index ascending, ties broken by
// panel index. The input is not modified.
func ZOrder(panels []page.RenderedPanel) []page.RenderedPanel {
	out := slices.Clone(panels)
	slices.SortStableFunc(out, func(a, b page.RenderedPanel) int {
		return cmp.Or(cmp.Compare(a.ZIndex, b.ZIndex), cmp.Compare(a.PanelIndex, b.PanelIndex))
	})
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
