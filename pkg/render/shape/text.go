package shape

import (
	"github.com/fogleman/gg"

	"github.com/matzehuels/inkframe/pkg/fonts"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
)

// LineSpacing is the line height as a multiple of the font height.
const LineSpacing = 1.2

// TextLayout is bubble text broken into centred lines.
type TextLayout struct {
	Size      float64   // font size in pixels
	CenterX   float64   // horizontal centre of every line
	Lines     []string  // wrapped lines
	Baselines []float64 // baseline y of each line
}

// LayoutText wraps text to the bubble's text box and centres the block
// vertically. Both the raster and SVG outputs letter bubbles from this.
func LayoutText(box geom.PixelRect, t page.BubbleType, text string) (TextLayout, error) {
	size := fonts.Quantize(FontSize(box, text))
	face, err := fonts.Face(fonts.Regular, size)
	if err != nil {
		return TextLayout{}, err
	}
	area := TextBox(box, t)

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	lines := dc.WordWrap(text, max(area.Width, 1))

	fh := dc.FontHeight()
	total := float64(len(lines))*fh*LineSpacing - (LineSpacing-1)*fh
	y := area.CenterY() - total/2 + fh

	out := TextLayout{Size: size, CenterX: area.CenterX(), Lines: lines, Baselines: make([]float64, len(lines))}
	for i := range lines {
		out.Baselines[i] = y
		y += fh * LineSpacing
	}
	return out, nil
}
