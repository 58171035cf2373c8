package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/inkframe/pkg/cache"
	"github.com/matzehuels/inkframe/pkg/httputil"
	"github.com/matzehuels/inkframe/pkg/page"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// AllowLocalImages lets panel images name files on this machine. Only
	// the CLI sets it; a service rendering client pages must not.
	AllowLocalImages bool
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, p page.Page, opts Options) (*Result, error) {
	r.applyRuntime(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Layout
	layoutStart := time.Now()
	rp, layoutHit, err := r.LayoutWithCacheInfo(ctx, p, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Rendered = rp
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.PanelCount = len(rp.Panels)
	result.Stats.BubbleCount = rp.BubbleCount()
	result.CacheInfo.LayoutHit = layoutHit
	result.LayoutHash, _ = cache.HashJSON(rp)

	r.Logger.Info("computed layout",
		"page", rp.PageID,
		"template", rp.LayoutTemplateID,
		"panels", result.Stats.PanelCount,
		"bubbles", result.Stats.BubbleCount,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, rp, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo lays out a page with caching and returns cache hit info.
//
// Layouts that consult a bubble suggester are not cached: the suggester's
// answer is not part of the key.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, p page.Page, opts Options) (*page.RenderedPage, bool, error) {
	r.applyRuntime(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	cacheable := opts.Suggester == nil
	var cacheKey string
	if cacheable {
		pageHash, err := cache.HashJSON(p)
		if err != nil {
			return nil, false, fmt.Errorf("hash page: %w", err)
		}
		cacheKey = r.Keyer.LayoutKey(pageHash, opts.LayoutKeyOpts())

		if !opts.Refresh {
			var cached page.RenderedPage
			if cache.GetJSON(ctx, r.Cache, "layout", cacheKey, &cached) {
				return &cached, true, nil // Cache hit
			}
		}
	}

	rp, err := Layout(ctx, p, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if err := cache.SetJSON(ctx, r.Cache, "layout", cacheKey, rp, cache.TTLLayout); err != nil {
			r.Logger.Debug("layout cache write failed", "err", err)
		}
	}
	return rp, false, nil // Cache miss
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, p page.Page, opts Options) (*page.RenderedPage, error) {
	rp, _, err := r.LayoutWithCacheInfo(ctx, p, opts)
	return rp, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// The hit flag is true only when every requested format came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, rp *page.RenderedPage, opts Options) (map[string][]byte, bool, error) {
	r.applyRuntime(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if rp == nil {
		return nil, false, fmt.Errorf("render: nil page")
	}

	layoutHash, err := cache.HashJSON(rp)
	if err != nil {
		return nil, false, fmt.Errorf("hash layout: %w", err)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if opts.Refresh {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit := cache.GetBytes(ctx, r.Cache, "artifact", key); hit {
			artifacts[format] = data
		} else {
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render only what the cache could not serve
	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, rp, renderOpts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := cache.SetBytes(ctx, r.Cache, "artifact", key, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("artifact cache write failed", "format", format, "err", err)
		}
		artifacts[format] = data
	}
	return artifacts, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, rp *page.RenderedPage, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, rp, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyRuntime sets the runner's logger on options if not already set and
// gives image fetches the runner's cache.
func (r *Runner) applyRuntime(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if opts.Fetcher == nil {
		opts.Fetcher = httputil.NewFetcher(
			httputil.WithCache(r.Cache, r.Keyer),
			httputil.WithAllowLocal(r.AllowLocalImages),
		)
	}
}
