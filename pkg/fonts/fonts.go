// Package fonts provides the embedded typefaces used to letter bubbles and
// labels.
//
// The faces come from the Go font family (golang.org/x/image/font/gofont),
// compiled into the binary so rendering needs no system fonts. Fonts are
// parsed once; faces are created per call because a truetype face keeps a
// glyph cache that is not safe for concurrent use.
package fonts

import (
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Weight selects a face in the family.
type Weight int

const (
	Regular Weight = iota
	Bold
)

// FontFamily is the CSS font-family used by the SVG sink.
const FontFamily = "Go"

// FallbackFontFamily lists fallbacks for viewers without the Go fonts.
const FallbackFontFamily = `'Go', 'Comic Neue', 'Comic Sans MS', 'Helvetica Neue', sans-serif`

var (
	parseOnce sync.Once
	parsed    [2]*truetype.Font
	parseErr  error

)

func load() error {
	parseOnce.Do(func() {
		if parsed[Regular], parseErr = truetype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		parsed[Bold], parseErr = truetype.Parse(gobold.TTF)
	})
	return parseErr
}

// Face returns a face of the given weight at size points (72 DPI, so one
// point is one pixel). Sizes are rounded to a quarter point. Each call
// returns a new face owned by the caller.
func Face(w Weight, size float64) (font.Face, error) {
	if err := load(); err != nil {
		return nil, err
	}
	if w != Bold {
		w = Regular
	}
	return truetype.NewFace(parsed[w], &truetype.Options{
		Size:    Quantize(size),
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Quantize rounds size to a quarter point, never below one point.
func Quantize(size float64) float64 {
	return max(math.Round(size*4)/4, 1)
}

// TTF returns the raw TrueType data for w.
func TTF(w Weight) []byte {
	if w == Bold {
		return gobold.TTF
	}
	return goregular.TTF
}
