package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/product-import/internal/ratelimit"
)

func newTestFetcher(opts Options) *Fetcher {
	return New(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html><body>product</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(Options{})
	html, err := f.FetchPage(context.Background(), srv.URL+"/products/widget")
	require.NoError(t, err)
	assert.Contains(t, html, "product")
}

func TestFetchPage_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(Options{MaxRetries: 1})
	_, err := f.FetchPage(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestFetchPage_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(Options{MaxRetries: 3})
	html, err := f.FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "ok")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPage_SlowsDownAfterThrottleResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	limiter := ratelimit.NewPerHostRateLimiter(20*time.Millisecond, 21*time.Millisecond)
	f := newTestFetcher(Options{MaxRetries: 2, RateLimit: limiter})

	start := time.Now()
	html, err := f.FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "ok")
	assert.Equal(t, int32(2), calls.Load())

	// The 429 doubles the host's delay window, so the retry waits for the
	// widened gap rather than the default one.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestFetchPage_InvalidURL(t *testing.T) {
	f := newTestFetcher(Options{})
	_, err := f.FetchPage(context.Background(), "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetchBinary_SizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := newTestFetcher(Options{})

	_, err := f.FetchBinary(context.Background(), srv.URL, 1024)
	assert.Error(t, err)

	data, err := f.FetchBinary(context.Background(), srv.URL, 4096)
	require.NoError(t, err)
	assert.Len(t, data, 2048)
}

func TestContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "512")
		if r.Method == http.MethodHead {
			return
		}
		w.Write(make([]byte, 512))
	}))
	defer srv.Close()

	f := newTestFetcher(Options{})
	size, err := f.ContentLength(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(512), size)
}
