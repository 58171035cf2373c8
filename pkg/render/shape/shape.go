// Package shape computes bubble outlines shared by the raster compositor and
// the SVG sink, so both outputs draw the same geometry.
//
// Everything here is pure geometry in page pixels. Callers decide how to
// stroke or fill the result.
package shape

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
)

// Text sizing bounds.
const (
	MinFontSize = 12.0
	MaxFontSize = 24.0
)

// Style constants.
const (
	NarrationRadius = 6.0
	StarSpikes      = 12
	starInnerRatio  = 0.78
	cloudLobes      = 9
	tailBaseRatio   = 0.15
	tailReach       = 40.0
	textPadRatio    = 0.15
)

// WhisperDash is the dash pattern of whisper outlines.
var WhisperDash = []float64{6, 4}

// Circle is a filled disc.
type Circle struct {
	C geom.Point
	R float64
}

// FontSize scales bubble text inversely with its length, clamped to
// [MinFontSize, MaxFontSize].
func FontSize(box geom.PixelRect, text string) float64 {
	n := float64(utf8.RuneCountInString(text))
	size := min(box.Width, box.Height) / 8 * max(0.5, 1-n/100)
	return geom.Clamp(size, MinFontSize, MaxFontSize)
}

// TextBox is the region text wraps inside. Ellipses lose their corners, so
// the box is inset proportionally.
func TextBox(box geom.PixelRect, t page.BubbleType) geom.PixelRect {
	pad := textPadRatio
	if t == page.BubbleNarration {
		pad = 0.05
	}
	return geom.ApplyMargins(box, geom.Margins{
		Top:    box.Height * pad,
		Bottom: box.Height * pad,
		Left:   box.Width * pad,
		Right:  box.Width * pad,
	})
}

// Star returns the jagged outline of a shout bubble: spikes alternate
// between the bounding ellipse and an inner ellipse.
func Star(box geom.PixelRect) []geom.Point {
	cx, cy := box.CenterX(), box.CenterY()
	rx, ry := box.Width/2, box.Height/2
	n := StarSpikes * 2
	pts := make([]geom.Point, n)
	for i := range n {
		a := float64(i)*math.Pi/float64(StarSpikes) - math.Pi/2
		k := 1.0
		if i%2 == 1 {
			k = starInnerRatio
		}
		pts[i] = geom.Point{X: cx + rx*k*math.Cos(a), Y: cy + ry*k*math.Sin(a)}
	}
	return pts
}

// Cloud returns the lobes of a thought bubble: a core ellipse approximated
// by circles placed on an inner ellipse. The union stays inside box.
func Cloud(box geom.PixelRect) []Circle {
	cx, cy := box.CenterX(), box.CenterY()
	r := min(box.Width, box.Height) / 4
	rx := max(box.Width/2-r, 0)
	ry := max(box.Height/2-r, 0)

	out := make([]Circle, 0, cloudLobes+1)
	for i := range cloudLobes {
		a := 2 * math.Pi * float64(i) / cloudLobes
		out = append(out, Circle{C: geom.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}, R: r})
	}
	return out
}

// CloudCore is the ellipse filling the middle of a cloud.
func CloudCore(box geom.PixelRect) (cx, cy, rx, ry float64) {
	r := min(box.Width, box.Height) / 4
	return box.CenterX(), box.CenterY(), max(box.Width/2-r/2, 0), max(box.Height/2-r/2, 0)
}

// ThoughtDots returns three shrinking circles leading from the bubble edge
// toward target.
func ThoughtDots(box geom.PixelRect, target geom.Point) []Circle {
	start, dir, dist := edgeToward(box, target)
	if dist <= 0 {
		return nil
	}
	base := max(min(box.Width, box.Height)/10, 2)
	step := min(dist, tailReach) / 3
	out := make([]Circle, 3)
	for i := range out {
		d := step * (float64(i) + 0.5)
		out[i] = Circle{
			C: geom.Point{X: start.X + dir.X*d, Y: start.Y + dir.Y*d},
			R: base * (1 - float64(i)*0.3),
		}
	}
	return out
}

// Tail returns the triangle from the bubble centre toward target. The base
// sits inside the bubble so the body covers it when drawn afterwards. ok is
// false when target is inside the bubble.
func Tail(box geom.PixelRect, target geom.Point) (pts [3]geom.Point, ok bool) {
	edge, dir, dist := edgeToward(box, target)
	if dist <= 0 {
		return pts, false
	}
	reach := min(dist, tailReach)
	apex := geom.Point{X: edge.X + dir.X*reach, Y: edge.Y + dir.Y*reach}

	half := min(box.Width, box.Height) * tailBaseRatio
	cx, cy := box.CenterX(), box.CenterY()
	// Base midpoint halfway between centre and edge.
	mx, my := (cx+edge.X)/2, (cy+edge.Y)/2
	px, py := -dir.Y, dir.X
	pts[0] = geom.Point{X: mx + px*half, Y: my + py*half}
	pts[1] = apex
	pts[2] = geom.Point{X: mx - px*half, Y: my - py*half}
	return pts, true
}

// edgeToward returns where the ray from the box centre to target leaves the
// inscribed ellipse, the unit direction, and the remaining distance to
// target. dist is zero or less when target lies inside the ellipse.
func edgeToward(box geom.PixelRect, target geom.Point) (edge, dir geom.Point, dist float64) {
	cx, cy := box.CenterX(), box.CenterY()
	dx, dy := target.X-cx, target.Y-cy
	l := math.Hypot(dx, dy)
	if l == 0 || box.Width <= 0 || box.Height <= 0 {
		return geom.Point{X: cx, Y: cy}, geom.Point{}, 0
	}
	ux, uy := dx/l, dy/l
	rx, ry := box.Width/2, box.Height/2
	// Distance along (ux,uy) to the ellipse boundary.
	t := 1 / math.Sqrt((ux*ux)/(rx*rx)+(uy*uy)/(ry*ry))
	edge = geom.Point{X: cx + ux*t, Y: cy + uy*t}
	return edge, geom.Point{X: ux, Y: uy}, l - t
}
