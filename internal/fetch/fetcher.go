package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds how much of a response body is read before cleaning.
const maxBodyBytes = 512 * 1024

// Fetcher retrieves a single URL and reduces it to bounded plain text.
type Fetcher interface {
	FetchText(ctx context.Context, targetURL string) (string, error)
}

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration // per-request deadline
	MaxChars  int           // cap on cleaned text length
	HostRate  rate.Limit    // per-host request rate; 0 disables limiting
	HostBurst int
}

// HTTPFetcher implements Fetcher over net/http with a per-request timeout,
// an identifying User-Agent, and per-host rate limiting. It returns the
// cleaned page text; callers decide whether a failed fetch is fatal.
type HTTPFetcher struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher, filling in defaults for zero-value
// options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 20000
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; CompanyScoutBot/1.0)"
	}
	if opts.HostBurst <= 0 {
		opts.HostBurst = 2
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.Timeout,
				}).DialContext,
				TLSHandshakeTimeout: opts.Timeout,
			},
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// FetchText fetches the URL and returns its cleaned text, capped at
// Options.MaxChars. Timeouts, transport errors, and non-2xx responses are
// returned as errors; the text is never partially cleaned.
func (f *HTTPFetcher) FetchText(ctx context.Context, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if err := f.waitHost(ctx, targetURL); err != nil {
		return "", eris.Wrap(err, "fetch: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: create request %s", targetURL)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: get %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("fetch: %s returned status %d", targetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrapf(err, "fetch: read body %s", targetURL)
	}

	text := CleanHTML(string(body))
	return Truncate(text, f.opts.MaxChars), nil
}

// waitHost blocks on the per-host rate limiter, creating one on first use.
func (f *HTTPFetcher) waitHost(ctx context.Context, targetURL string) error {
	if f.opts.HostRate <= 0 {
		return nil
	}
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil // malformed URLs fail later in http.NewRequest
	}

	f.mu.Lock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(f.opts.HostRate, f.opts.HostBurst)
		f.limiters[u.Host] = lim
	}
	f.mu.Unlock()

	return lim.Wait(ctx)
}
