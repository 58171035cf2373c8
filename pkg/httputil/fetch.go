package httputil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/inkframe/pkg/cache"
	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/observability"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultMaxBytes  = 32 << 20
	defaultUserAgent = "inkframe"
)

// Fetcher loads image bytes from URLs and local paths.
// It is safe for concurrent use.
type Fetcher struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	limiter   *rate.Limiter
	backoff   Backoff
	maxBytes  int64
	userAgent  string
	baseDir    string
	allowLocal bool
}

// FetcherOption configures a [Fetcher].
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client (15s timeout).
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithCache stores fetched remote bytes in c. A nil keyer uses
// [cache.NewDefaultKeyer].
func WithCache(c cache.Cache, keyer cache.Keyer) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
		if keyer != nil {
			f.keyer = keyer
		}
	}
}

// WithCacheTTL sets the TTL of cached image bytes. Default [cache.TTLImage].
func WithCacheTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) { f.ttl = ttl }
}

// WithRateLimit allows one remote request every interval with the given
// burst. A zero interval disables limiting.
func WithRateLimit(interval time.Duration, burst int) FetcherOption {
	return func(f *Fetcher) {
		if interval <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(interval), max(burst, 1))
	}
}

// WithBackoff sets the retry policy for remote fetches.
func WithBackoff(b Backoff) FetcherOption {
	return func(f *Fetcher) { f.backoff = b }
}

// WithMaxBytes caps the size of a single image. Default 32 MiB.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header on remote requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithAllowLocal permits file:// URLs and bare filesystem paths. Off by
// default; services that render client-supplied pages must leave it off.
func WithAllowLocal(on bool) FetcherOption {
	return func(f *Fetcher) { f.allowLocal = on }
}

// WithPublicOnly refuses connections to loopback, private, link-local,
// multicast and unspecified addresses. The check runs on the dialed address,
// so host names that resolve to such addresses are refused too.
func WithPublicOnly() FetcherOption {
	return func(f *Fetcher) {
		dialer := &net.Dialer{Timeout: 10 * time.Second, Control: publicOnly}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
		f.http = &http.Client{Timeout: f.http.Timeout, Transport: transport}
	}
}

func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsMulticast() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() {
		return errors.New(errors.ErrCodeInvalidURL, "refusing non-public address %s", ip)
	}
	return nil
}

// WithBaseDir allows local paths and resolves relative ones against dir.
func WithBaseDir(dir string) FetcherOption {
	return func(f *Fetcher) {
		f.baseDir = dir
		f.allowLocal = true
	}
}

// NewFetcher creates a Fetcher. Without options it fetches http(s) only,
// does not cache, does not rate limit, and retries with [DefaultBackoff].
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		http:      &http.Client{Timeout: defaultTimeout},
		cache:     cache.NewNullCache(),
		keyer:     cache.NewDefaultKeyer(),
		ttl:       cache.TTLImage,
		backoff:   DefaultBackoff,
		maxBytes:  defaultMaxBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the bytes behind ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, _, err := f.FetchWithCacheInfo(ctx, ref)
	return data, err
}

// FetchWithCacheInfo is like [Fetcher.Fetch] but also reports whether the
// bytes came from the cache. Local files are never cached.
func (f *Fetcher) FetchWithCacheInfo(ctx context.Context, ref string) ([]byte, bool, error) {
	if err := errors.ValidateImageURL(ref); err != nil {
		return nil, false, err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidURL, err, "parse %q", ref)
	}

	switch u.Scheme {
	case "file", "":
		if !f.allowLocal {
			return nil, false, errors.New(errors.ErrCodeInvalidURL, "local image paths are not allowed: %q", ref)
		}
		path := ref
		if u.Scheme == "file" {
			path = u.Path
		}
		data, err := f.readFile(path)
		return data, false, err
	}

	key := f.keyer.ImageKey(ref)
	if data, ok := cache.GetBytes(ctx, f.cache, "image", key); ok {
		return data, true, nil
	}

	var data []byte
	err = Retry(ctx, f.backoff, func() error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var fetchErr error
		data, fetchErr = f.get(ctx, u)
		return fetchErr
	})
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, false, err
		}
		return nil, false, errors.Wrap(errors.ErrCodeImageLoad, err, "fetch %s", ref)
	}

	_ = cache.SetBytes(ctx, f.cache, "image", key, data, f.ttl)
	return data, false, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	if f.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.baseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeImageLoad, err, "stat %s", path)
	}
	if info.Size() > f.maxBytes {
		return nil, errors.New(errors.ErrCodeImageLoad, "image %s is %d bytes, limit %d", path, info.Size(), f.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageLoad, err, "read %s", path)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if errors.GetCode(err) == errors.ErrCodeInvalidURL {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", u)
		}
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", u)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", u)}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.New(errors.ErrCodeImageLoad, "image %s exceeds %d bytes", u, f.maxBytes)
	}
	return data, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "image not found: %s", resp.Request.URL)
	case code == http.StatusTooManyRequests:
		return &RetryableError{
			Err:   errors.New(errors.ErrCodeRateLimited, "status %d", code),
			After: retryAfter(resp.Header.Get("Retry-After")),
		}
	case code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "status %d", code)}
	default:
		return errors.New(errors.ErrCodeImageLoad, "status %d", code)
	}
}

// retryAfter parses the seconds form of Retry-After, capped at 10s.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return min(time.Duration(secs)*time.Second, 10*time.Second)
}

// String describes the fetcher for logs.
func (f *Fetcher) String() string {
	limit := "none"
	if f.limiter != nil {
		limit = fmt.Sprintf("%.2f/s burst %d", float64(f.limiter.Limit()), f.limiter.Burst())
	}
	return fmt.Sprintf("fetcher(rate=%s, attempts=%d, local=%t)", limit, max(f.backoff.Attempts, 1), f.allowLocal)
}
