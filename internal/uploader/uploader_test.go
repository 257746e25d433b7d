package uploader

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/product-import/internal/fetcher"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newTestUploader(t *testing.T) *Uploader {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fetcher.New(fetcher.Options{MaxRetries: 1}, logger)
	return New(f, nil, Options{Dir: t.TempDir()}, logger)
}

func TestValidateImageBytes(t *testing.T) {
	assert.NoError(t, ValidateImageBytes(pngBytes(t, 200, 200)))
	assert.ErrorIs(t, ValidateImageBytes(pngBytes(t, 40, 200)), ErrImageTooSmall)
	assert.ErrorIs(t, ValidateImageBytes(pngBytes(t, 200, 10)), ErrImageTooSmall)
	assert.ErrorIs(t, ValidateImageBytes([]byte("not an image")), ErrNotAnImage)
}

func TestValidatePDFBytes(t *testing.T) {
	assert.NoError(t, ValidatePDFBytes([]byte("%PDF-1.7\n...")))
	assert.ErrorIs(t, ValidatePDFBytes([]byte("<html>not found</html>")), ErrNotAPDF)
}

func TestSideloadImage(t *testing.T) {
	img := pngBytes(t, 300, 300)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	u := newTestUploader(t)
	asset, err := u.SideloadImage(context.Background(), srv.URL+"/products/widget.png")
	require.NoError(t, err)

	assert.Equal(t, "widget.png", asset.Filename)
	assert.Equal(t, int64(len(img)), asset.Size)
	assert.FileExists(t, asset.Path)
}

func TestSideloadImage_RejectsTinyImage(t *testing.T) {
	img := pngBytes(t, 16, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	u := newTestUploader(t)
	_, err := u.SideloadImage(context.Background(), srv.URL+"/pixel.png")
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestSideloadPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake document body"))
	}))
	defer srv.Close()

	u := newTestUploader(t)
	asset, err := u.SideloadPDF(context.Background(), srv.URL+"/docs/manual.pdf")
	require.NoError(t, err)

	assert.Equal(t, "manual.pdf", asset.Filename)
	assert.False(t, asset.Cached)
	assert.FileExists(t, asset.Path)
}

func TestSideloadPDF_RejectsNonPDFResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	u := newTestUploader(t)
	_, err := u.SideloadPDF(context.Background(), srv.URL+"/docs/manual.pdf")
	assert.ErrorIs(t, err, ErrNotAPDF)
}

func TestSideloadPDF_RejectsOversizedByHead(t *testing.T) {
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "99999999")
			return
		}
		gets++
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fetcher.New(fetcher.Options{MaxRetries: 1}, logger)
	u := New(f, nil, Options{Dir: t.TempDir(), MaxPDFBytes: 1024}, logger)

	_, err := u.SideloadPDF(context.Background(), srv.URL+"/docs/huge.pdf")
	assert.ErrorIs(t, err, ErrPDFTooLarge)
	assert.Zero(t, gets, "oversized document must not be downloaded")
}
