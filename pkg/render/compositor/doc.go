// Package compositor rasterizes a resolved page.
//
// The compositor consumes a [page.RenderedPage] and draws it with
// github.com/fogleman/gg. It reads geometry only; every box it draws comes
// straight from the rendered page so that raster, SVG and JSON outputs agree.
//
// Drawing order per panel, in z order:
//
//  1. a neutral fill
//  2. the panel image, cover-fit and clipped to the box, or a "Panel N"
//     placeholder when the image is missing or fails to load
//  3. bubbles, each with its tail and wrapped text
//  4. the border
//
// Images for all panels load concurrently before drawing starts. Decoded
// images are kept per [Compositor] instance, so compositing several pages
// with one instance decodes each URL once. Image failures are logged and
// reported through [observability.ImageHooks]; they never fail the page.
//
//	c := compositor.New(compositor.WithFetcher(f), compositor.WithPageNumbers(true))
//	img, err := c.Composite(ctx, rendered)
package compositor
