// Package render groups the stages that turn a page record into output.
//
// # Stages
//
//   - [resolve] maps each panel to a pixel rectangle: its own relative or
//     absolute geometry, its template slot, or a safe-area fallback.
//   - [bubble] sizes speech bubbles from their text and places them inside
//     their panel, nudging them apart until none overlap.
//   - [layout] runs both over a page and produces a page.RenderedPage.
//   - [shape] draws bubble outlines and tails and wraps bubble text.
//   - [compositor] paints panel art, borders and bubbles onto a raster.
//   - [sink] encodes a rendered page as PNG, PDF, SVG or JSON.
//
// Layout is pure geometry and needs no fonts or images; only the
// compositor and the SVG sink touch fonts, and only the compositor loads
// panel art.
//
//	rp, err := layout.RenderPage(p, layout.WithRegistry(templates.Builtin()))
//	img, err := compositor.New().Composite(ctx, rp)
//	png, err := sink.RenderPNG(img)
//
// [resolve]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/resolve
// [bubble]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/bubble
// [layout]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/layout
// [shape]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/shape
// [compositor]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/compositor
// [sink]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/sink
package render
