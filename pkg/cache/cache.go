// Package cache provides the byte-level caches used by the page pipeline.
//
// Three things are cached, each under its own key space (see [Keyer]):
//
//   - Remote panel images, keyed by URL, so repeated renders do not refetch.
//   - Resolved page layouts, keyed by a hash of the page record.
//   - Rendered artifacts (PNG, PDF, SVG, JSON), keyed by layout hash and
//     render options.
//
// Backends:
//
//   - [FileCache]: JSON entries on disk, for the CLI.
//   - [MemoryCache]: in-process TTL map, the server default.
//   - [RedisCache]: shared cache for multiple server replicas.
//   - [NullCache]: disables caching.
//
// Decoded images are not cached here; the compositor keeps its own
// per-session map of decoded images.
package cache

import (
	"context"
	"time"
)

// Default TTLs per key space.
const (
	TTLImage    = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values with an optional TTL. A ttl of zero means
// the entry does not expire. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ImageKey returns the key for the raw bytes of a remote image.
	ImageKey(url string) string

	// LayoutKey returns the key for a resolved page layout.
	LayoutKey(pageHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the page record that change a layout.
type LayoutKeyOpts struct {
	TemplateID string `json:"template_id,omitempty"` // overrides the page's template
	Catalog    string `json:"catalog,omitempty"`     // hash of a non-default template catalog
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	PageNumbers bool    `json:"page_numbers,omitempty"`
	Background  string  `json:"background,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces unscoped keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ImageKey hashes the URL so arbitrary URLs make safe keys.
func (DefaultKeyer) ImageKey(url string) string {
	return hashKey("image", url)
}

// LayoutKey combines the page hash with layout options.
func (DefaultKeyer) LayoutKey(pageHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", pageHash, opts)
}

// ArtifactKey combines the layout hash with render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
