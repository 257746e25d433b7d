package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/harborline/product-import/internal/ratelimit"
	"github.com/harborline/product-import/internal/urlutil"
)

var (
	ErrEmptyBody  = errors.New("empty response body")
	ErrBadStatus  = errors.New("unexpected HTTP status")
	ErrInvalidURL = errors.New("invalid URL")
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Options struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	RateLimit  *ratelimit.PerHostRateLimiter
}

// Fetcher downloads product pages over plain HTTP. Pages that only render
// through JavaScript are out of scope; the extraction heuristics work on
// server-rendered markup.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	limiter    *ratelimit.PerHostRateLimiter
	logger     *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxRetries: maxRetries,
		limiter:    opts.RateLimit,
		logger:     logger.With("component", "fetcher"),
	}
}

// FetchPage retrieves the HTML of one product page, retrying transient
// failures. A 2xx response with an empty body is treated as a failure.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	host := urlutil.Hostname(pageURL)
	if host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, pageURL)
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.WaitHost(ctx, host); err != nil {
				return "", err
			}
		}

		html, status, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if f.limiter != nil && (status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable) {
			f.limiter.SlowHost(host)
			f.logger.Warn("host throttling detected, slowing down", "host", host, "status", status)
		}

		f.logger.Warn("fetch attempt failed",
			"url", pageURL, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("fetching %s after %d attempts: %w", pageURL, f.maxRetries, lastErr)
}

// fetchOnce performs a single GET. The returned status is zero when the
// request never reached the server.
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("reading body: %w", err)
	}
	if len(body) == 0 {
		return "", resp.StatusCode, ErrEmptyBody
	}

	return string(body), resp.StatusCode, nil
}

// FetchBinary downloads a non-HTML asset, bounded by maxBytes. It is used
// for image and document sideloading.
func (f *Fetcher) FetchBinary(ctx context.Context, assetURL string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}

	return data, nil
}

// ContentLength issues a HEAD request and returns the declared size, or -1
// when the server does not advertise one.
func (f *Fetcher) ContentLength(ctx context.Context, assetURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return -1, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return -1, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return -1, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	return resp.ContentLength, nil
}
