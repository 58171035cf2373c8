// Package sink encodes a composed page into output formats.
//
// A "sink" turns either the composed raster or the rendered geometry into
// bytes:
//
//   - PNG: the raster, encoded losslessly ([RenderPNG])
//   - PDF: the raster placed on a page of matching size ([RenderPDF])
//   - SVG: a vector rendition drawn straight from the geometry ([RenderSVG])
//   - JSON: the rendered page itself ([RenderJSON])
//
// The SVG sink shares bubble outlines and text layout with the compositor
// through the shape package, so all four formats describe the same page.
//
//	img, _ := compositor.New().Composite(ctx, rp)
//	png, _ := sink.RenderPNG(img)
//	pdf, _ := sink.RenderPDF(img, sink.WithDPI(150))
//	svg := sink.RenderSVG(rp, sink.WithPageNumbers())
package sink
