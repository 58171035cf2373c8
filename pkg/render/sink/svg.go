package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/inkframe/pkg/fonts"
	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/layout"
	"github.com/matzehuels/inkframe/pkg/render/shape"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background  string
	pageNumbers bool
	images      bool
}

// WithSVGBackground sets the page fill.
func WithSVGBackground(hex string) SVGOption {
	return func(r *svgRenderer) {
		if hex != "" {
			r.background = hex
		}
	}
}

// WithPageNumbers draws the page number centred at the bottom edge.
func WithPageNumbers() SVGOption { return func(r *svgRenderer) { r.pageNumbers = true } }

// WithoutImages draws placeholders instead of linking panel images.
func WithoutImages() SVGOption { return func(r *svgRenderer) { r.images = false } }

// RenderSVG draws the rendered geometry as SVG. Panel images are linked by
// URL and cover-fit with preserveAspectRatio="xMidYMid slice".
func RenderSVG(rp *page.RenderedPage, opts ...SVGOption) []byte {
	r := svgRenderer{background: shape.DefaultBackground, images: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(rp.Width), num(rp.Height), num(rp.Width), num(rp.Height))

	panels := layout.ZOrder(rp.Panels)
	renderDefs(&buf, panels)

	fmt.Fprintf(&buf, `  <rect width="%s" height="%s" fill="%s"/>`+"\n", num(rp.Width), num(rp.Height), escapeXML(r.background))
	for i, p := range panels {
		r.renderPanel(&buf, i, p)
	}
	if r.pageNumbers && rp.Number > 0 {
		fmt.Fprintf(&buf, `  <text x="%s" y="%s" font-family="%s" font-size="%s" text-anchor="middle" fill="%s">%d</text>`+"\n",
			num(rp.Width/2), num(rp.Height-shape.PageNumberOffset), fonts.FallbackFontFamily, num(shape.PageNumberSize), shape.Ink, rp.Number)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, panels []page.RenderedPanel) {
	buf.WriteString("  <defs>\n")
	for i, p := range panels {
		fmt.Fprintf(buf, `    <clipPath id="clip-%d"><rect x="%s" y="%s" width="%s" height="%s"/></clipPath>`+"\n",
			i, num(p.Box.X), num(p.Box.Y), num(p.Box.Width), num(p.Box.Height))
	}
	buf.WriteString("  </defs>\n")
}

func (r *svgRenderer) renderPanel(buf *bytes.Buffer, i int, p page.RenderedPanel) {
	box := p.Box
	if !box.Renderable() {
		return
	}
	fmt.Fprintf(buf, `  <g class="panel" id="panel-%s" data-index="%d">`+"\n", escapeXML(p.ID), p.PanelIndex)
	fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(box.X), num(box.Y), num(box.Width), num(box.Height), shape.PanelFill)

	switch {
	case p.ImageURL == "":
	case r.images:
		fmt.Fprintf(buf, `    <image href="%s" x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="xMidYMid slice" clip-path="url(#clip-%d)"/>`+"\n",
			escapeXML(p.ImageURL), num(box.X), num(box.Y), num(box.Width), num(box.Height), i)
	default:
		fmt.Fprintf(buf, `    <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(box.X), num(box.Y), num(box.Width), num(box.Height), shape.PlaceholderFill)
		fmt.Fprintf(buf, `    <text x="%s" y="%s" font-family="%s" font-weight="bold" font-size="%s" text-anchor="middle" dominant-baseline="central" fill="%s">%s</text>`+"\n",
			num(box.CenterX()), num(box.CenterY()), fonts.FallbackFontFamily, num(shape.PlaceholderFontSize(box)),
			shape.PlaceholderInk, escapeXML(shape.PlaceholderLabel(p.PanelIndex)))
	}

	for _, b := range p.Bubbles {
		renderBubble(buf, b)
	}
	renderBorder(buf, box, p.BorderStyle, p.BorderWidth)
	buf.WriteString("  </g>\n")
}

func renderBubble(buf *bytes.Buffer, b page.RenderedBubble) {
	box := b.Box
	if !box.Renderable() {
		return
	}
	stroke := fmt.Sprintf(`stroke="%s" stroke-width="%s"`, shape.Ink, num(shape.BubbleStroke))
	fmt.Fprintf(buf, `    <g class="bubble bubble-%s" id="bubble-%s" data-tail="%s">`+"\n",
		escapeXML(string(b.Type)), escapeXML(b.ID), b.TailDirection)

	if b.TailTarget != nil {
		switch b.Type {
		case page.BubbleNarration:
		case page.BubbleThought:
			for _, c := range shape.ThoughtDots(box, *b.TailTarget) {
				fmt.Fprintf(buf, `      <circle cx="%s" cy="%s" r="%s" fill="%s" %s/>`+"\n",
					num(c.C.X), num(c.C.Y), num(c.R), shape.BubbleFill, stroke)
			}
		default:
			if pts, ok := shape.Tail(box, *b.TailTarget); ok {
				fmt.Fprintf(buf, `      <polygon points="%s" fill="%s" %s/>`+"\n", points(pts[:]), shape.BubbleFill, stroke)
			}
		}
	}

	cx, cy, rx, ry := box.CenterX(), box.CenterY(), box.Width/2, box.Height/2
	switch b.Type {
	case page.BubbleThought:
		lobes := shape.Cloud(box)
		for _, c := range lobes {
			fmt.Fprintf(buf, `      <circle cx="%s" cy="%s" r="%s" fill="%s" %s/>`+"\n",
				num(c.C.X), num(c.C.Y), num(c.R), shape.BubbleFill, stroke)
		}
		for _, c := range lobes {
			fmt.Fprintf(buf, `      <circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
				num(c.C.X), num(c.C.Y), num(max(c.R-shape.BubbleStroke, 0)), shape.BubbleFill)
		}
		ccx, ccy, crx, cry := shape.CloudCore(box)
		fmt.Fprintf(buf, `      <ellipse cx="%s" cy="%s" rx="%s" ry="%s" fill="%s"/>`+"\n",
			num(ccx), num(ccy), num(crx), num(cry), shape.BubbleFill)
	case page.BubbleShout:
		fmt.Fprintf(buf, `      <polygon points="%s" fill="%s" %s/>`+"\n", points(shape.Star(box)), shape.BubbleFill, stroke)
	case page.BubbleWhisper:
		fmt.Fprintf(buf, `      <ellipse cx="%s" cy="%s" rx="%s" ry="%s" fill="%s" %s stroke-dasharray="%s"/>`+"\n",
			num(cx), num(cy), num(rx), num(ry), shape.BubbleFill, stroke, dashArray(shape.WhisperDash))
	case page.BubbleNarration:
		fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s" %s/>`+"\n",
			num(box.X), num(box.Y), num(box.Width), num(box.Height), num(shape.NarrationRadius), shape.NarrationFill, stroke)
	default:
		fmt.Fprintf(buf, `      <ellipse cx="%s" cy="%s" rx="%s" ry="%s" fill="%s" %s/>`+"\n",
			num(cx), num(cy), num(rx), num(ry), shape.BubbleFill, stroke)
	}

	renderText(buf, b)
	buf.WriteString("    </g>\n")
}

func renderText(buf *bytes.Buffer, b page.RenderedBubble) {
	if b.Text == "" {
		return
	}
	tl, err := shape.LayoutText(b.Box, b.Type, b.Text)
	if err != nil || len(tl.Lines) == 0 {
		return
	}
	fmt.Fprintf(buf, `      <text font-family="%s" font-size="%s" text-anchor="middle" fill="%s">`,
		fonts.FallbackFontFamily, num(tl.Size), shape.Ink)
	for i, line := range tl.Lines {
		fmt.Fprintf(buf, `<tspan x="%s" y="%s">%s</tspan>`, num(tl.CenterX), num(tl.Baselines[i]), escapeXML(line))
	}
	buf.WriteString("</text>\n")
}

func renderBorder(buf *bytes.Buffer, box geom.PixelRect, style page.BorderStyle, width float64) {
	if width <= 0 {
		return
	}
	rect := func(r geom.PixelRect) {
		fmt.Fprintf(buf, `    <rect class="border" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
			num(r.X), num(r.Y), num(r.Width), num(r.Height), shape.Ink, num(width))
	}
	switch style {
	case page.BorderNone:
	case page.BorderDouble:
		rect(box)
		if inner := box.Inset(shape.DoubleBorderInset); inner.Renderable() {
			rect(inner)
		}
	case page.BorderSolid:
		rect(box)
	}
}

func points(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

func dashArray(d []float64) string {
	parts := make([]string, len(d))
	for i, v := range d {
		parts[i] = num(v)
	}
	return strings.Join(parts, " ")
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
