// Package httputil fetches panel image bytes for the compositor.
//
// [Fetcher] accepts the three image reference forms a page may carry:
// http(s) URLs, file:// URLs, and bare filesystem paths. Local forms are
// refused unless enabled with [WithAllowLocal] or [WithBaseDir]. Remote fetches go
// through a shared rate limiter, are retried on transient failures (network
// errors, 5xx and 429 responses) with exponential backoff, and are stored in
// a [cache.Cache] under [cache.Keyer.ImageKey] so repeated renders of the
// same page do not refetch.
//
//	f := httputil.NewFetcher(
//	    httputil.WithCache(cache.NewMemoryCache(time.Minute), cache.NewDefaultKeyer()),
//	    httputil.WithRateLimit(100*time.Millisecond, 2),
//	)
//	data, err := f.Fetch(ctx, "https://cdn.example.com/panel-1.png")
//
// [Retry] is usable on its own for any operation that marks transient
// failures with [RetryableError].
package httputil
