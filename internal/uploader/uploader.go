package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	_ "golang.org/x/image/webp"

	"github.com/harborline/product-import/internal/fetcher"
	"github.com/harborline/product-import/internal/urlutil"
)

var (
	ErrImageTooSmall = errors.New("image below minimum dimensions")
	ErrNotAnImage    = errors.New("data is not a decodable image")
	ErrNotAPDF       = errors.New("data is not a PDF document")
	ErrPDFTooLarge   = errors.New("PDF exceeds size limit")
)

// Images smaller than this on either axis are tracking pixels or icons, not
// product media.
const minImageDimension = 50

var pdfSignature = []byte("%PDF-")

// StoredAsset describes one sideloaded media file.
type StoredAsset struct {
	ID       string
	Path     string
	Filename string
	Size     int64
	Cached   bool
}

type Options struct {
	Dir         string
	MaxPDFBytes int64
	CacheTTL    time.Duration
}

// Uploader downloads remote product media, validates it and stores it under
// a local media directory. PDF downloads are deduplicated by filename through
// Redis so re-imports of the same store skip documents already fetched.
type Uploader struct {
	fetcher     *fetcher.Fetcher
	cache       redis.Cmdable
	dir         string
	maxPDFBytes int64
	cacheTTL    time.Duration
	logger      *slog.Logger
}

func New(f *fetcher.Fetcher, cache redis.Cmdable, opts Options, logger *slog.Logger) *Uploader {
	maxPDFBytes := opts.MaxPDFBytes
	if maxPDFBytes == 0 {
		maxPDFBytes = 50 << 20
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 7 * 24 * time.Hour
	}

	return &Uploader{
		fetcher:     f,
		cache:       cache,
		dir:         opts.Dir,
		maxPDFBytes: maxPDFBytes,
		cacheTTL:    cacheTTL,
		logger:      logger.With("component", "uploader"),
	}
}

// SideloadImage downloads and stores one product image. Images that fail to
// decode or fall under the minimum size are rejected.
func (u *Uploader) SideloadImage(ctx context.Context, imgURL string) (*StoredAsset, error) {
	data, err := u.fetcher.FetchBinary(ctx, imgURL, 0)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}

	if err := ValidateImageBytes(data); err != nil {
		return nil, err
	}

	asset, err := u.store(data, urlutil.FilenameFromURL(imgURL))
	if err != nil {
		return nil, err
	}

	u.logger.Debug("image sideloaded", "url", imgURL, "path", asset.Path, "bytes", asset.Size)
	return asset, nil
}

// SideloadPDF downloads and stores one product document. A HEAD request
// rejects oversized files before the download starts, and a Redis filename
// cache short-circuits documents fetched by an earlier import.
func (u *Uploader) SideloadPDF(ctx context.Context, pdfURL string) (*StoredAsset, error) {
	filename := urlutil.FilenameFromURL(pdfURL)
	cacheKey := "import:pdf:" + strings.ToLower(filename)

	if u.cache != nil {
		if path, err := u.cache.Get(ctx, cacheKey).Result(); err == nil && path != "" {
			u.logger.Debug("pdf cache hit", "filename", filename, "path", path)
			return &StoredAsset{
				ID:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Path:     path,
				Filename: filename,
				Cached:   true,
			}, nil
		}
	}

	if size, err := u.fetcher.ContentLength(ctx, pdfURL); err == nil && size > u.maxPDFBytes {
		return nil, fmt.Errorf("%w: %d bytes declared", ErrPDFTooLarge, size)
	}

	data, err := u.fetcher.FetchBinary(ctx, pdfURL, u.maxPDFBytes)
	if err != nil {
		return nil, fmt.Errorf("downloading pdf: %w", err)
	}

	if err := ValidatePDFBytes(data); err != nil {
		return nil, err
	}

	asset, err := u.store(data, filename)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, cacheKey, asset.Path, u.cacheTTL).Err(); err != nil {
			u.logger.Warn("failed to cache pdf path", "filename", filename, "error", err)
		}
	}

	u.logger.Debug("pdf sideloaded", "url", pdfURL, "path", asset.Path, "bytes", asset.Size)
	return asset, nil
}

func (u *Uploader) store(data []byte, originalName string) (*StoredAsset, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}

	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(u.dir, id+ext)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing asset: %w", err)
	}

	return &StoredAsset{
		ID:       id,
		Path:     path,
		Filename: originalName,
		Size:     int64(len(data)),
	}, nil
}

// ValidateImageBytes checks that data decodes as a supported image format
// and meets the minimum dimensions.
func ValidateImageBytes(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	if cfg.Width < minImageDimension || cfg.Height < minImageDimension {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, cfg.Width, cfg.Height)
	}
	return nil
}

// ValidatePDFBytes checks the PDF magic bytes.
func ValidatePDFBytes(data []byte) error {
	if !bytes.HasPrefix(data, pdfSignature) {
		return ErrNotAPDF
	}
	return nil
}
