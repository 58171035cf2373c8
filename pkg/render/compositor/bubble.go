package compositor

import (
	"github.com/fogleman/gg"

	"github.com/matzehuels/inkframe/pkg/fonts"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/shape"
)

func drawBubble(dc *gg.Context, b page.RenderedBubble) {
	box := b.Box
	if !box.Renderable() {
		return
	}
	dc.SetLineWidth(shape.BubbleStroke)
	dc.SetDash()

	if b.TailTarget != nil {
		switch b.Type {
		case page.BubbleNarration:
		case page.BubbleThought:
			for _, c := range shape.ThoughtDots(box, *b.TailTarget) {
				dc.DrawCircle(c.C.X, c.C.Y, c.R)
				fillAndStroke(dc, shape.BubbleFill)
			}
		default:
			if pts, ok := shape.Tail(box, *b.TailTarget); ok {
				dc.MoveTo(pts[0].X, pts[0].Y)
				dc.LineTo(pts[1].X, pts[1].Y)
				dc.LineTo(pts[2].X, pts[2].Y)
				dc.ClosePath()
				fillAndStroke(dc, shape.BubbleFill)
			}
		}
	}

	switch b.Type {
	case page.BubbleThought:
		drawCloud(dc, box)
	case page.BubbleShout:
		for i, p := range shape.Star(box) {
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
			} else {
				dc.LineTo(p.X, p.Y)
			}
		}
		dc.ClosePath()
		fillAndStroke(dc, shape.BubbleFill)
	case page.BubbleWhisper:
		dc.DrawEllipse(box.CenterX(), box.CenterY(), box.Width/2, box.Height/2)
		dc.SetHexColor(shape.BubbleFill)
		dc.FillPreserve()
		dc.SetHexColor(shape.Ink)
		dc.SetDash(shape.WhisperDash...)
		dc.Stroke()
		dc.SetDash()
	case page.BubbleNarration:
		dc.DrawRoundedRectangle(box.X, box.Y, box.Width, box.Height, shape.NarrationRadius)
		fillAndStroke(dc, shape.NarrationFill)
	default:
		dc.DrawEllipse(box.CenterX(), box.CenterY(), box.Width/2, box.Height/2)
		fillAndStroke(dc, shape.BubbleFill)
	}

	drawText(dc, b)
}

// drawCloud strokes every lobe, then paints the interior over the inner
// arcs so only the scalloped outline remains.
func drawCloud(dc *gg.Context, box geom.PixelRect) {
	lobes := shape.Cloud(box)
	for _, c := range lobes {
		dc.DrawCircle(c.C.X, c.C.Y, c.R)
		fillAndStroke(dc, shape.BubbleFill)
	}
	dc.SetHexColor(shape.BubbleFill)
	for _, c := range lobes {
		dc.DrawCircle(c.C.X, c.C.Y, max(c.R-shape.BubbleStroke, 0))
		dc.Fill()
	}
	cx, cy, rx, ry := shape.CloudCore(box)
	dc.DrawEllipse(cx, cy, rx, ry)
	dc.Fill()
}

func fillAndStroke(dc *gg.Context, fill string) {
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor(shape.Ink)
	dc.Stroke()
}

func drawText(dc *gg.Context, b page.RenderedBubble) {
	if b.Text == "" {
		return
	}
	tl, err := shape.LayoutText(b.Box, b.Type, b.Text)
	if err != nil {
		return
	}
	face, err := fonts.Face(fonts.Regular, tl.Size)
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetHexColor(shape.Ink)
	for i, line := range tl.Lines {
		dc.DrawStringAnchored(line, tl.CenterX, tl.Baselines[i], 0.5, 0)
	}
}
