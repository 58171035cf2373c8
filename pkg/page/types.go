package page

import (
	"github.com/google/uuid"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/geom"
)

// =============================================================================
// Enumerations
// =============================================================================

// PanelType classifies a panel slot.
type PanelType string

const (
	PanelStandard   PanelType = "standard"
	PanelSplash     PanelType = "splash"
	PanelInset      PanelType = "inset"
	PanelBorderless PanelType = "borderless"
)

// Valid reports whether t is a known panel type.
func (t PanelType) Valid() bool {
	switch t {
	case PanelStandard, PanelSplash, PanelInset, PanelBorderless:
		return true
	}
	return false
}

// OrDefault returns t if valid, otherwise [PanelStandard].
func (t PanelType) OrDefault() PanelType {
	if t.Valid() {
		return t
	}
	return PanelStandard
}

// BorderStyle controls how a panel outline is stroked.
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDouble BorderStyle = "double"
	BorderNone   BorderStyle = "none"
)

// Valid reports whether s is a known border style.
func (s BorderStyle) Valid() bool {
	switch s {
	case BorderSolid, BorderDouble, BorderNone:
		return true
	}
	return false
}

// OrDefault returns s if valid, otherwise [BorderSolid].
func (s BorderStyle) OrDefault() BorderStyle {
	if s.Valid() {
		return s
	}
	return BorderSolid
}

// BubbleType selects the bubble shape. It never affects geometry except for
// narration, which uses its own anchor and size rules.
type BubbleType string

const (
	BubbleStandard  BubbleType = "standard"
	BubbleThought   BubbleType = "thought"
	BubbleShout     BubbleType = "shout"
	BubbleWhisper   BubbleType = "whisper"
	BubbleNarration BubbleType = "narration"
)

// Valid reports whether t is a known bubble type.
func (t BubbleType) Valid() bool {
	switch t {
	case BubbleStandard, BubbleThought, BubbleShout, BubbleWhisper, BubbleNarration:
		return true
	}
	return false
}

// OrDefault returns t if valid, otherwise [BubbleStandard].
func (t BubbleType) OrDefault() BubbleType {
	if t.Valid() {
		return t
	}
	return BubbleStandard
}

// IsNarration reports whether t is a narration caption.
func (t BubbleType) IsNarration() bool { return t == BubbleNarration }

// TailDirection is the quadrant a bubble tail points toward.
type TailDirection string

const (
	TailTopLeft     TailDirection = "top-left"
	TailTopRight    TailDirection = "top-right"
	TailBottomLeft  TailDirection = "bottom-left"
	TailBottomRight TailDirection = "bottom-right"
)

// =============================================================================
// Input Records
// =============================================================================

// Page is the external page record.
type Page struct {
	ID               string        `json:"id" bson:"_id"`
	Number           int           `json:"number,omitempty" bson:"number,omitempty"`
	Width            float64       `json:"width,omitempty" bson:"width,omitempty"`
	Height           float64       `json:"height,omitempty" bson:"height,omitempty"`
	LayoutTemplateID string        `json:"layout_template_id,omitempty" bson:"layout_template_id,omitempty"`
	Margins          *geom.Margins `json:"margins,omitempty" bson:"margins,omitempty"`
	Panels           []Panel       `json:"panels" bson:"panels"`
}

// Panel is the external panel record. Geometry may be given relative to the
// page safe area, in absolute page pixels, or not at all (template slot).
type Panel struct {
	ID         string `json:"id" bson:"id"`
	PanelIndex int    `json:"panel_index" bson:"panel_index"`

	RelativeX      *float64 `json:"relative_x,omitempty" bson:"relative_x,omitempty"`
	RelativeY      *float64 `json:"relative_y,omitempty" bson:"relative_y,omitempty"`
	RelativeWidth  *float64 `json:"relative_width,omitempty" bson:"relative_width,omitempty"`
	RelativeHeight *float64 `json:"relative_height,omitempty" bson:"relative_height,omitempty"`

	X      *float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      *float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  *float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height *float64 `json:"height,omitempty" bson:"height,omitempty"`

	ZIndex       *int          `json:"z_index,omitempty" bson:"z_index,omitempty"`
	PanelType    PanelType     `json:"panel_type,omitempty" bson:"panel_type,omitempty"`
	PanelMargins *geom.Margins `json:"panel_margins,omitempty" bson:"panel_margins,omitempty"`
	BorderStyle  BorderStyle   `json:"border_style,omitempty" bson:"border_style,omitempty"`
	BorderWidth  *float64      `json:"border_width,omitempty" bson:"border_width,omitempty"`
	ImageURL     string        `json:"image_url,omitempty" bson:"image_url,omitempty"`

	Bubbles []SpeechBubble `json:"bubbles,omitempty" bson:"bubbles,omitempty"`
}

// RelativeRect returns the panel's own normalized rectangle if all four
// relative fields are set and the size is positive.
func (p *Panel) RelativeRect() (geom.NormalizedRect, bool) {
	return rectFrom(p.RelativeX, p.RelativeY, p.RelativeWidth, p.RelativeHeight)
}

// AbsoluteRect returns the panel's absolute page rectangle if all four
// fields are set and the size is positive.
func (p *Panel) AbsoluteRect() (geom.PixelRect, bool) {
	r, ok := rectFrom(p.X, p.Y, p.Width, p.Height)
	return geom.PixelRect(r), ok
}

// SpeechBubble is the external bubble record. Absolute fields are in
// panel-local pixels; relative fields are fractions of the panel box.
type SpeechBubble struct {
	ID   string     `json:"id" bson:"id"`
	Text string     `json:"text" bson:"text"`
	Type BubbleType `json:"type,omitempty" bson:"type,omitempty"`

	X      *float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y      *float64 `json:"y,omitempty" bson:"y,omitempty"`
	Width  *float64 `json:"width,omitempty" bson:"width,omitempty"`
	Height *float64 `json:"height,omitempty" bson:"height,omitempty"`

	RelativeX      *float64 `json:"relative_x,omitempty" bson:"relative_x,omitempty"`
	RelativeY      *float64 `json:"relative_y,omitempty" bson:"relative_y,omitempty"`
	RelativeWidth  *float64 `json:"relative_width,omitempty" bson:"relative_width,omitempty"`
	RelativeHeight *float64 `json:"relative_height,omitempty" bson:"relative_height,omitempty"`

	// TailTarget is a panel-local point the tail should aim at.
	TailTarget *geom.Point `json:"tail_target,omitempty" bson:"tail_target,omitempty"`
}

// RelativeRect returns the bubble's normalized rectangle within its panel.
func (b *SpeechBubble) RelativeRect() (geom.NormalizedRect, bool) {
	return rectFrom(b.RelativeX, b.RelativeY, b.RelativeWidth, b.RelativeHeight)
}

// LocalRect returns the bubble's panel-local pixel rectangle.
func (b *SpeechBubble) LocalRect() (geom.PixelRect, bool) {
	r, ok := rectFrom(b.X, b.Y, b.Width, b.Height)
	return geom.PixelRect(r), ok
}

// HasSize reports whether the bubble carries explicit dimensions in either space.
func (b *SpeechBubble) HasSize() bool {
	return (b.Width != nil && b.Height != nil && *b.Width > 0 && *b.Height > 0) ||
		(b.RelativeWidth != nil && b.RelativeHeight != nil && *b.RelativeWidth > 0 && *b.RelativeHeight > 0)
}

func rectFrom(x, y, w, h *float64) (geom.NormalizedRect, bool) {
	if x == nil || y == nil || w == nil || h == nil {
		return geom.NormalizedRect{}, false
	}
	if *w <= 0 || *h <= 0 {
		return geom.NormalizedRect{}, false
	}
	return geom.NormalizedRect{X: *x, Y: *y, Width: *w, Height: *h}, true
}

// =============================================================================
// Helpers
// =============================================================================

// Float returns a pointer to v. Useful for building records in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// EnsureID assigns a random UUID to p if it has none and returns the ID.
func (p *Page) EnsureID() string {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p.ID
}

// Raster limits. A page at MaxPixels needs 256 MiB as RGBA.
const (
	MaxDimension = 16384
	MaxPixels    = 64 << 20
)

// CheckRasterSize rejects page sizes that cannot be rasterized within the
// limits. Non-positive sides are allowed; layout replaces them with defaults.
func CheckRasterSize(width, height float64) error {
	if !(width <= MaxDimension && height <= MaxDimension) || max(width, 0)*max(height, 0) > MaxPixels {
		return errors.New(errors.ErrCodeInvalidPage,
			"page size %gx%g exceeds the raster limit (%d per side, %d pixels)", width, height, MaxDimension, MaxPixels)
	}
	return nil
}

// Validate rejects records that cannot be rendered at all. Everything else,
// including odd margins and repeated panel ids, falls back during layout.
func (p *Page) Validate() error {
	return CheckRasterSize(p.Width, p.Height)
}
