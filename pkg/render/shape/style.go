package shape

import (
	"fmt"

	"github.com/matzehuels/inkframe/pkg/geom"
)

// Palette shared by every output.
const (
	DefaultBackground = "#ffffff"
	Ink               = "#000000"
	PanelFill         = "#f0f0f0"
	PlaceholderFill   = "#d8d8d8"
	PlaceholderInk    = "#808080"
	BubbleFill        = "#ffffff"
	NarrationFill     = "#fff8dc"
)

// Stroke and label metrics.
const (
	BubbleStroke      = 2.0
	DoubleBorderInset = 3.0
	PageNumberSize    = 14.0
	PageNumberOffset  = 12.0
)

// PlaceholderLabel is the text drawn in a panel without an image.
func PlaceholderLabel(panelIndex int) string {
	return fmt.Sprintf("Panel %d", panelIndex+1)
}

// PlaceholderFontSize scales the placeholder label with the panel.
func PlaceholderFontSize(box geom.PixelRect) float64 {
	return geom.Clamp(min(box.Width, box.Height)/8, 12, 36)
}
