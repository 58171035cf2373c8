// Package pkg provides the core libraries for Inkframe comic page layout.
//
// # Overview
//
// Inkframe turns page records (panels, panel art and speech bubbles) into
// finished comic pages. Panels are placed by layout templates or by their
// own geometry, bubbles are positioned inside their panel without
// overlapping, and the result is rendered to PNG, PDF, SVG or JSON.
//
// The pkg directory is organized into these areas:
//
//  1. [page], [geom] - Data model: page records, resolved pages, geometry
//  2. [templates] - The catalog of named panel arrangements
//  3. [render] - Layout resolution, bubble placement, compositing, output
//  4. [pipeline] - Orchestration (layout → render) with caching
//  5. [cache], [store], [httputil] - Infrastructure
//  6. [server] - The HTTP render service
//
// # Architecture
//
// The typical data flow:
//
//	page.json
//	    ↓
//	[io] package (decode + validate)
//	    ↓
//	[render/layout] package (panel rectangles, bubble placement)
//	    ↓
//	page.RenderedPage (layout.json)
//	    ↓
//	[render/compositor] package (panel art, borders, bubbles)
//	    ↓
//	[render/sink] package (PNG/PDF/SVG/JSON)
//
// # Quick Start
//
// Lay out and render a page:
//
//	import (
//	    "github.com/matzehuels/inkframe/pkg/cache"
//	    "github.com/matzehuels/inkframe/pkg/io"
//	    "github.com/matzehuels/inkframe/pkg/pipeline"
//	)
//
//	p, _ := io.ImportJSON("page.json")
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(0), nil, nil)
//	defer runner.Close()
//
//	result, _ := runner.Execute(ctx, *p, pipeline.Options{
//	    Formats: []string{"png", "svg"},
//	})
//	os.WriteFile("page.png", result.Artifacts["png"], 0o644)
//
// # Package Organization
//
// Data model:
//   - [page] - Page, Panel and SpeechBubble records; RenderedPage output
//   - [geom] - Normalized and pixel rectangles, margins, points
//   - [templates] - Embedded TOML template catalog and custom catalogs
//
// Rendering:
//   - [render/resolve] - Panel rectangle resolution and border defaults
//   - [render/bubble] - Bubble sizing and non-overlapping placement
//   - [render/layout] - Page layout combining the two
//   - [render/shape] - Bubble outlines, tails and text wrapping
//   - [render/compositor] - Raster page composition
//   - [render/sink] - PNG, PDF, SVG and JSON writers
//
// Infrastructure:
//   - [cache] - Memory, file and Redis caches with content-hash keys
//   - [httputil] - Panel image fetching with retries and rate limiting
//   - [store] - Page persistence in memory, on disk or in MongoDB
//   - [observability] - Hooks for tracing and metrics
//   - [errors] - Coded errors shared by the CLI and the HTTP service
//
// Serving:
//   - [pipeline] - Layout and render orchestration
//   - [server] - chi-based HTTP API
//   - [io] - Page JSON import and export
//
// # Caching
//
// Layouts are keyed by the page content hash plus the template override;
// artifacts by the layout hash plus format options; panel images by URL.
// Any [cache.Cache] works; the CLI defaults to a file cache under
// ~/.cache/inkframe and the server can share a Redis instance.
//
// [page]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/page
// [geom]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/geom
// [templates]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/templates
// [render]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render
// [render/resolve]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/resolve
// [render/bubble]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/bubble
// [render/layout]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/layout
// [render/shape]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/shape
// [render/compositor]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/compositor
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/cache
// [cache.Cache]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/cache#Cache
// [store]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/store
// [httputil]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/errors
// [server]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/server
// [io]: https://pkg.go.dev/github.com/matzehuels/inkframe/pkg/io
package pkg
