package bubble

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
)

// NarrationAnchor is the caption strip across the top of a panel.
var NarrationAnchor = geom.NormalizedRect{X: 0.1, Y: 0.05, Width: 0.8, Height: 0.12}

// anchor is a dialogue slot. Right-aligned anchors pin the bubble's right
// edge to x instead of its left edge.
type anchor struct {
	x, y  float64
	right bool
}

// Upper-right, mid-left, lower-right.
var dialogueAnchors = [...]anchor{
	{x: 0.95, y: 0.05, right: true},
	{x: 0.05, y: 0.35},
	{x: 0.95, y: 0.65, right: true},
}

// AnchorRect returns the rule-based rectangle for a bubble with no usable
// geometry. dialogueIndex counts the non-narration bubbles before b in its
// panel and selects the anchor slot.
func AnchorRect(b *page.SpeechBubble, dialogueIndex int, panel geom.PixelRect) geom.NormalizedRect {
	w, h := bubbleSize(b, panel)

	if b.Type.OrDefault().IsNarration() {
		return geom.NormalizedRect{X: NarrationAnchor.X, Y: NarrationAnchor.Y, Width: w, Height: h}.Clamp()
	}

	a := dialogueAnchors[dialogueIndex%len(dialogueAnchors)]
	x := a.x
	if a.right {
		x -= w
	}
	return geom.NormalizedRect{X: max(0, x), Y: a.y, Width: w, Height: h}.Clamp()
}

// bubbleSize returns the normalized size from whatever explicit dimensions the
// bubble carries, else from its text.
func bubbleSize(b *page.SpeechBubble, panel geom.PixelRect) (w, h float64) {
	if b.RelativeWidth != nil && b.RelativeHeight != nil && *b.RelativeWidth > 0 && *b.RelativeHeight > 0 {
		return *b.RelativeWidth, *b.RelativeHeight
	}
	if b.Width != nil && b.Height != nil && *b.Width > 0 && *b.Height > 0 && panel.Renderable() {
		return *b.Width / panel.Width, *b.Height / panel.Height
	}
	return EstimateSize(b.Text, b.Type)
}

// EstimateSize derives a normalized bubble size from the text length.
//
// Narration captions grow in width with the text and stay short. Dialogue
// bubbles take an area proportional to the character count, clamped to
// [0.08, 0.25] of the panel, at a 1.5 aspect ratio.
func EstimateSize(text string, t page.BubbleType) (w, h float64) {
	n := float64(utf8.RuneCountInString(text))
	if t.OrDefault().IsNarration() {
		return min(0.8, max(0.4, n/80)), min(0.15, max(0.08, n/200))
	}
	area := geom.Clamp(n*0.002, 0.08, 0.25)
	return min(1, math.Sqrt(area*1.5)), min(1, math.Sqrt(area/1.5))
}
