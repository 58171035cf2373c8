package geom

import "math"

// epsilon absorbs float error when checking normalized bounds.
const epsilon = 1e-9

// RelativeToAbsolute maps a normalized rectangle into bounds.
// No clamping is applied; callers clamp as needed.
func RelativeToAbsolute(rect NormalizedRect, bounds PixelRect) PixelRect {
	return PixelRect{
		X:      bounds.X + rect.X*bounds.Width,
		Y:      bounds.Y + rect.Y*bounds.Height,
		Width:  rect.Width * bounds.Width,
		Height: rect.Height * bounds.Height,
	}
}

// AbsoluteToRelative is the inverse of [RelativeToAbsolute]. It is used to
// persist pixel-space edits back into the normalized representation.
// An axis with zero extent in bounds maps to 0.
func AbsoluteToRelative(rect PixelRect, bounds PixelRect) NormalizedRect {
	var r NormalizedRect
	if bounds.Width != 0 {
		r.X = (rect.X - bounds.X) / bounds.Width
		r.Width = rect.Width / bounds.Width
	}
	if bounds.Height != 0 {
		r.Y = (rect.Y - bounds.Y) / bounds.Height
		r.Height = rect.Height / bounds.Height
	}
	return r
}

// ApplySafeArea returns the page rectangle left after subtracting margins.
func ApplySafeArea(pageWidth, pageHeight float64, m Margins) PixelRect {
	return PixelRect{
		X:      m.Left,
		Y:      m.Top,
		Width:  pageWidth - m.Left - m.Right,
		Height: pageHeight - m.Top - m.Bottom,
	}
}

// ApplyMargins shrinks rect inward by m. Width and height are clamped to zero;
// a zero-sized result is not renderable.
func ApplyMargins(rect PixelRect, m Margins) PixelRect {
	return PixelRect{
		X:      rect.X + m.Left,
		Y:      rect.Y + m.Top,
		Width:  math.Max(0, rect.Width-m.Left-m.Right),
		Height: math.Max(0, rect.Height-m.Top-m.Bottom),
	}
}

// Overlaps reports whether a and b share interior area. Rectangles that only
// touch along an edge do not overlap.
func Overlaps(a, b PixelRect) bool {
	return !(a.Right() <= b.X || b.Right() <= a.X || a.Bottom() <= b.Y || b.Bottom() <= a.Y)
}

// ApproxEqual reports whether two pixel rectangles match within tol,
// measured relative to the larger magnitude of each component.
func ApproxEqual(a, b PixelRect, tol float64) bool {
	return near(a.X, b.X, tol) && near(a.Y, b.Y, tol) &&
		near(a.Width, b.Width, tol) && near(a.Height, b.Height, tol)
}

func near(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// Clamp forces v into [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 { return clamp(v, lo, hi) }
