// Package geom provides the coordinate algebra shared by the layout and
// compositing stages.
//
// Two coordinate spaces are used throughout Inkframe:
//
//   - [NormalizedRect]: fractions in [0,1] of a parent rectangle (the page
//     safe area for panels, the panel box for bubbles). Templates and stored
//     layouts use this space so they stay resolution-independent.
//   - [PixelRect]: absolute pixels on the page raster.
//
// [RelativeToAbsolute] and [AbsoluteToRelative] convert between the two and
// are exact inverses for non-degenerate bounds. [ApplySafeArea] and
// [ApplyMargins] shrink rectangles by [Margins].
//
// Every function in this package is pure and safe for concurrent use.
package geom

// NormalizedRect is a rectangle expressed as fractions of a parent rectangle.
type NormalizedRect struct {
	X      float64 `json:"x" bson:"x" toml:"x"`
	Y      float64 `json:"y" bson:"y" toml:"y"`
	Width  float64 `json:"width" bson:"width" toml:"width"`
	Height float64 `json:"height" bson:"height" toml:"height"`
}

// Valid reports whether all four values are in [0,1] and the rectangle fits
// inside its parent (x+width ≤ 1, y+height ≤ 1).
func (r NormalizedRect) Valid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return r.X+r.Width <= 1+epsilon && r.Y+r.Height <= 1+epsilon
}

// Clamp returns r with every value forced into [0,1] and the size reduced so
// the rectangle fits inside its parent.
func (r NormalizedRect) Clamp() NormalizedRect {
	r.X = clamp(r.X, 0, 1)
	r.Y = clamp(r.Y, 0, 1)
	r.Width = clamp(r.Width, 0, 1-r.X)
	r.Height = clamp(r.Height, 0, 1-r.Y)
	return r
}

// PixelRect is a rectangle in absolute page pixels. The origin is the top-left
// corner of the page and y grows downward.
type PixelRect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Right returns the x coordinate of the right edge.
func (r PixelRect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r PixelRect) Bottom() float64 { return r.Y + r.Height }

// CenterX returns the horizontal center.
func (r PixelRect) CenterX() float64 { return r.X + r.Width/2 }

// CenterY returns the vertical center.
func (r PixelRect) CenterY() float64 { return r.Y + r.Height/2 }

// Renderable reports whether the rectangle has a positive area.
func (r PixelRect) Renderable() bool { return r.Width > 0 && r.Height > 0 }

// Offset returns r translated by (dx, dy).
func (r PixelRect) Offset(dx, dy float64) PixelRect {
	r.X += dx
	r.Y += dy
	return r
}

// Inset returns r shrunk by d on every side, never below zero size.
func (r PixelRect) Inset(d float64) PixelRect {
	return ApplyMargins(r, Margins{Top: d, Right: d, Bottom: d, Left: d})
}

// Margins are pixel insets applied to the four sides of a rectangle.
type Margins struct {
	Top    float64 `json:"top" bson:"top" toml:"top"`
	Right  float64 `json:"right" bson:"right" toml:"right"`
	Bottom float64 `json:"bottom" bson:"bottom" toml:"bottom"`
	Left   float64 `json:"left" bson:"left" toml:"left"`
}

// Uniform returns margins with the same inset on every side.
func Uniform(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Horizontal returns the combined left and right inset.
func (m Margins) Horizontal() float64 { return m.Left + m.Right }

// Vertical returns the combined top and bottom inset.
func (m Margins) Vertical() float64 { return m.Top + m.Bottom }

// Point is a position in page pixels.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}
