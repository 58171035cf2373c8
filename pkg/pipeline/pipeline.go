// Package pipeline provides the page pipeline for Inkframe.
//
// This package implements the complete layout → composite → render pipeline
// used by the CLI and the HTTP service. Both entry points go through a
// [Runner] so caching and defaults behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: resolve the page record against its template and place every
//     bubble, producing a [page.RenderedPage]
//  2. Render: composite the raster (for PNG and PDF) and encode each
//     requested format
//
// Each stage can be run on its own or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, p, pipeline.Options{
//	    Formats:     []string{"png", "svg"},
//	    PageNumbers: true,
//	})
//	png := result.Artifacts["png"]
//
// Run individual stages:
//
//	rp, err := runner.Layout(ctx, p, opts)
//	artifacts, err := runner.Render(ctx, rp, opts)
package pipeline

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkframe/pkg/cache"
	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/httputil"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/bubble"
	"github.com/matzehuels/inkframe/pkg/render/layout"
	"github.com/matzehuels/inkframe/pkg/templates"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultImageTimeout bounds a single panel image fetch.
	DefaultImageTimeout = 15 * time.Second

	// DefaultConcurrency is the number of panel images loaded at once.
	DefaultConcurrency = 8

	// DefaultScale keeps page pixels in raster output.
	DefaultScale = 1.0

	// DefaultBackground is the page fill.
	DefaultBackground = "#ffffff"
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatPDF:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatSVG:  "image/svg+xml",
	FormatJSON: "application/json",
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the page pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	TemplateID string `json:"template_id,omitempty"` // overrides the page's template

	// Render options
	Formats     []string `json:"formats,omitempty"`
	PageNumbers bool     `json:"page_numbers,omitempty"`
	Background  string   `json:"background,omitempty"`
	Scale       float64  `json:"scale,omitempty"`

	// Image options
	ImageTimeout time.Duration `json:"image_timeout,omitempty"`
	Concurrency  int           `json:"concurrency,omitempty"`

	// Cache options
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger    *log.Logger         `json:"-"`
	Fetcher   *httputil.Fetcher   `json:"-"`
	Registry  *templates.Registry `json:"-"`
	Suggester bubble.Suggester    `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Rendered is the resolved page geometry.
	Rendered *page.RenderedPage

	// LayoutHash is the content hash of the rendered geometry.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PanelCount  int
	BubbleCount int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, pdf, svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated list such as "png,svg", dropping
// blanks and duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ValidateBackground checks that a background is a #rgb, #rrggbb or
// #rrggbbaa color.
func ValidateBackground(bg string) error {
	if !hexColor.MatchString(bg) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid background: %q (want #rrggbb)", bg)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Registry == nil {
		o.Registry = templates.Builtin()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.TemplateID != "" {
		if _, ok := o.Registry.Get(o.TemplateID); !ok {
			return &layout.TemplateNotFoundError{ID: o.TemplateID}
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.ImageTimeout == 0 {
		o.ImageTimeout = DefaultImageTimeout
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Fetcher == nil {
		o.Fetcher = httputil.NewFetcher()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateBackground(o.Background); err != nil {
		return err
	}
	if o.Scale < 0 || o.Scale > 8 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %g (must be in (0, 8])", o.Scale)
	}
	return nil
}

// ValidateAndSetDefaults prepares options for the full pipeline.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// NeedsRaster reports whether any requested format needs the composited
// raster.
func (o *Options) NeedsRaster() bool {
	for _, f := range o.Formats {
		if f == FormatPNG || f == FormatPDF {
			return true
		}
	}
	return false
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	opts := cache.LayoutKeyOpts{TemplateID: o.TemplateID}
	if o.Registry != nil && o.Registry != templates.Builtin() {
		if h, err := cache.HashJSON(o.Registry.All()); err == nil {
			opts.Catalog = h
		}
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		PageNumbers: o.PageNumbers,
		Background:  o.Background,
		Scale:       o.Scale,
	}
}

func (o *Options) String() string {
	return fmt.Sprintf("formats=%v template=%q page_numbers=%v", o.Formats, o.TemplateID, o.PageNumbers)
}
