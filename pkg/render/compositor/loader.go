package compositor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/page"
)

// loadAll fetches and decodes the images of every panel concurrently.
// Failed URLs are absent from the result.
func (c *Compositor) loadAll(ctx context.Context, panels []page.RenderedPanel) map[string]image.Image {
	urls := make([]string, 0, len(panels))
	seen := make(map[string]bool, len(panels))
	for _, p := range panels {
		if p.ImageURL == "" || seen[p.ImageURL] {
			continue
		}
		seen[p.ImageURL] = true
		urls = append(urls, p.ImageURL)
	}

	results := make([]image.Image, len(urls))
	var eg errgroup.Group
	eg.SetLimit(c.concurrency)
	for i, u := range urls {
		eg.Go(func() error {
			img, err := c.load(ctx, u)
			if err != nil {
				c.logger.Warn("image load failed", "url", u, "err", err)
				observability.Image().OnImageError(ctx, u, err)
				return nil
			}
			results[i] = img
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[string]image.Image, len(urls))
	for i, u := range urls {
		if results[i] != nil {
			out[u] = results[i]
		}
	}
	return out
}

// load returns the decoded image for url, decoding it at most once per
// session even under concurrent requests.
func (c *Compositor) load(ctx context.Context, url string) (image.Image, error) {
	start := time.Now()
	c.mu.RLock()
	img, ok := c.images[url]
	c.mu.RUnlock()
	if ok {
		observability.Image().OnImageLoad(ctx, url, time.Since(start), true)
		return img, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		c.mu.RLock()
		existing, ok := c.images[url]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		fetchCtx := ctx
		if c.imageTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, c.imageTimeout)
			defer cancel()
		}
		data, err := c.fetcher.Fetch(fetchCtx, url)
		if err != nil {
			return nil, err
		}
		decoded, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", url, err)
		}

		c.mu.Lock()
		c.images[url] = decoded
		c.mu.Unlock()
		return decoded, nil
	})
	if err != nil {
		return nil, err
	}

	img, ok = v.(image.Image)
	if !ok {
		return nil, fmt.Errorf("unexpected singleflight result %T", v)
	}
	observability.Image().OnImageLoad(ctx, url, time.Since(start), false)
	return img, nil
}

// Decode decodes PNG, JPEG, GIF or WebP bytes, applying EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
