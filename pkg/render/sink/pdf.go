package sink

import (
	"bytes"
	"fmt"
	"image"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
)

// cssDPI is the pixel density page coordinates are defined at.
const cssDPI = 96.0

const mmPerInch = 25.4

// PDFOption configures PDF rendering.
type PDFOption func(*pdfRenderer)

type pdfRenderer struct {
	dpi   float64
	title string
}

// WithDPI sets the density page pixels are mapped at. Default 96, so a
// 1200px page is 12.5 inches wide.
func WithDPI(dpi float64) PDFOption {
	return func(r *pdfRenderer) {
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// WithTitle sets the document title metadata.
func WithTitle(title string) PDFOption {
	return func(r *pdfRenderer) { r.title = title }
}

// RenderPDF places the composed page on a single PDF page of the same
// aspect ratio.
func RenderPDF(img image.Image, opts ...PDFOption) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("pdf: nil image")
	}
	r := pdfRenderer{dpi: cssDPI}
	for _, opt := range opts {
		opt(&r)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("pdf: empty image")
	}
	wMM := float64(b.Dx()) / r.dpi * mmPerInch
	hMM := float64(b.Dy()) / r.dpi * mmPerInch

	var buf bytes.Buffer
	writer := pdf.New(&buf, wMM, hMM, nil)
	writer.SetInfo(r.title, "", "", "", "inkframe")

	c := canvas.New(wMM, hMM)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, img, canvas.DPMM(float64(b.Dx())/wMM))
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return buf.Bytes(), nil
}
