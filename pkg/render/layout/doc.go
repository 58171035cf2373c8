// Package layout resolves a page record into exact panel geometry.
//
// # Overview
//
// [RenderPage] is a pure projection from a [page.Page] to a
// [page.RenderedPage]. It never mutates its input and produces identical
// output for identical input, so callers may memoize it freely.
//
// # Resolution Order
//
// Every value on a panel has a fallback chain. Geometry resolves in this
// order:
//
//  1. The panel's own relative rectangle (fractions of the safe area).
//  2. The template slot at the panel's sorted position. Extra panels beyond
//     the template's slot count reuse the last slot and overlap it.
//  3. The panel's absolute pixel rectangle, converted to relative.
//  4. The whole safe area.
//
// Margins resolve panel, then slot, then a flat 10px. Panel type and
// z-index resolve panel, then slot, then standard and 0.
//
// # Errors
//
// The only error RenderPage returns is [*TemplateNotFoundError], when a page
// names a template the registry does not know. A page that names none uses
// [templates.DefaultID].
//
// # Z-Order
//
// Panels are emitted in panel_index order. [ZOrder] returns them in drawing
// order (z-index ascending, ties by panel index) for compositors.
//
// [page.Page]: github.com/matzehuels/inkframe/pkg/page.Page
// [page.RenderedPage]: github.com/matzehuels/inkframe/pkg/page.RenderedPage
// [templates.DefaultID]: github.com/matzehuels/inkframe/pkg/templates.DefaultID
package layout
