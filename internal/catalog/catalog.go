package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/harborline/product-import/internal/database"
	"github.com/harborline/product-import/internal/events"
	"github.com/harborline/product-import/internal/models"
	"github.com/harborline/product-import/internal/uploader"
)

// gstPhrases mark a page as quoting prices exclusive of GST. Matching any of
// them adds the 10% markup on import.
var gstPhrases = []string{
	"excl gst",
	"excl. gst",
	"excluding gst",
	"ex gst",
	"ex. gst",
	"price excl",
	"price excluding",
}

const gstMultiplier = 1.10

type Options struct {
	MaxImages      int
	ApplyGSTMarkup bool
	DefaultStatus  database.ProductStatus
}

// Service turns scraped product records into catalog rows. The insert and
// its PRODUCT_IMPORTED outbox event commit in one transaction.
type Service struct {
	db        *database.DB
	products  *database.ProductRepository
	publisher *events.Publisher
	uploader  *uploader.Uploader
	opts      Options
	logger    *slog.Logger
}

func NewService(db *database.DB, up *uploader.Uploader, opts Options, logger *slog.Logger) *Service {
	if opts.MaxImages <= 0 {
		opts.MaxImages = 10
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = database.StatusDraft
	}

	return &Service{
		db:        db,
		products:  database.NewProductRepository(db),
		publisher: events.NewPublisher(db, logger),
		uploader:  up,
		opts:      opts,
		logger:    logger.With("component", "catalog"),
	}
}

// CreateProduct imports one scraped record into the catalog: resolves the
// SKU, applies the GST markup when the page quotes GST-exclusive prices,
// sideloads media, and writes the row plus its event atomically.
func (s *Service) CreateProduct(ctx context.Context, record *models.ProductRecord) (*models.ImportResult, error) {
	sku, err := s.resolveSKU(ctx, record.SKU)
	if err != nil {
		return nil, err
	}

	price := record.Price
	gstApplied := false
	if s.opts.ApplyGSTMarkup && DetectGSTExclusive(record.RawHTML) {
		if marked, ok := applyGST(record.Price); ok {
			price = marked
			gstApplied = true
			s.logger.Info("added 10% GST to price", "sku", sku, "original", record.Price, "price", price)
		}
	}

	images := s.sideloadImages(ctx, record.Images)
	pdfs := s.sideloadPDFs(ctx, record.PDFs)

	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("marshaling images: %w", err)
	}
	pdfsJSON, err := json.Marshal(pdfs)
	if err != nil {
		return nil, fmt.Errorf("marshaling pdfs: %w", err)
	}
	infoJSON, err := json.Marshal(record.AdditionalInfo)
	if err != nil {
		return nil, fmt.Errorf("marshaling additional info: %w", err)
	}

	product := &database.ImportedProduct{
		SKU:             sku,
		Title:           record.Title,
		Price:           price,
		GSTApplied:      gstApplied,
		DescriptionHTML: record.DescriptionHTML,
		Images:          imagesJSON,
		PDFs:            pdfsJSON,
		AdditionalInfo:  infoJSON,
		SourceURL:       record.SourceURL,
		Status:          s.opts.DefaultStatus,
	}

	err = s.db.Transaction(ctx, func(tx pgx.Tx) error {
		if err := s.products.InsertWithTx(ctx, tx, product); err != nil {
			return err
		}

		payload := &events.ProductImportedPayload{
			ProductID:  product.ID.String(),
			SKU:        sku,
			Title:      record.Title,
			Price:      price,
			GSTApplied: gstApplied,
			ImageCount: len(images),
			PDFCount:   len(pdfs),
			SourceURL:  record.SourceURL,
		}
		return s.publisher.PublishProductImportedTx(ctx, tx, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("importing product: %w", err)
	}

	s.logger.Info("product imported",
		"product_id", product.ID,
		"sku", sku,
		"images", len(images),
		"pdfs", len(pdfs),
		"gst_applied", gstApplied,
	)

	return &models.ImportResult{
		ProductID:  product.ID.String(),
		SKU:        sku,
		ImagesUsed: len(images),
		PDFsUsed:   len(pdfs),
		GSTApplied: gstApplied,
		ImportedAt: product.CreatedAt,
	}, nil
}

// ReportFailure records an import that could not complete as an
// IMPORT_FAILED event. Publishing failures are logged, never returned: the
// caller already has an error to surface.
func (s *Service) ReportFailure(ctx context.Context, sourceURL, reason string) {
	if s.publisher == nil {
		return
	}

	payload := &events.ImportFailedPayload{
		SourceURL: sourceURL,
		Reason:    reason,
	}
	if err := s.publisher.PublishImportFailed(ctx, payload); err != nil {
		s.logger.Error("failed to publish import failure", "url", sourceURL, "error", err)
	}
}

// resolveSKU keeps the extracted SKU when it is present and unclaimed, and
// falls back to a generated one otherwise.
func (s *Service) resolveSKU(ctx context.Context, extracted string) (string, error) {
	if extracted == "" {
		sku := GenerateFallbackSKU()
		s.logger.Warn("no SKU extracted, generated fallback", "sku", sku)
		return sku, nil
	}

	exists, err := s.products.SKUExists(ctx, extracted)
	if err != nil {
		return "", fmt.Errorf("checking sku: %w", err)
	}
	if exists {
		sku := GenerateFallbackSKU()
		s.logger.Warn("duplicate SKU detected, generated fallback",
			"extracted", extracted, "sku", sku)
		return sku, nil
	}

	return extracted, nil
}

func (s *Service) sideloadImages(ctx context.Context, urls []string) []string {
	if len(urls) > s.opts.MaxImages {
		urls = urls[:s.opts.MaxImages]
	}
	if s.uploader == nil {
		return urls
	}

	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, err := s.uploader.SideloadImage(ctx, u); err != nil {
			s.logger.Warn("skipping image", "url", u, "error", err)
			continue
		}
		kept = append(kept, u)
	}
	return kept
}

func (s *Service) sideloadPDFs(ctx context.Context, links []models.PDFLink) []models.PDFLink {
	if s.uploader == nil {
		return links
	}

	kept := make([]models.PDFLink, 0, len(links))
	for _, link := range links {
		if _, err := s.uploader.SideloadPDF(ctx, link.URL); err != nil {
			s.logger.Warn("skipping pdf", "url", link.URL, "error", err)
			continue
		}
		kept = append(kept, link)
	}
	return kept
}

// DetectGSTExclusive reports whether the page text quotes prices without
// GST.
func DetectGSTExclusive(html string) bool {
	if html == "" {
		return false
	}
	lower := strings.ToLower(html)
	for _, phrase := range gstPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// applyGST adds the 10% markup to a numeric price string. Non-numeric prices
// pass through untouched.
func applyGST(price string) (string, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return price, false
	}
	return strconv.FormatFloat(value*gstMultiplier, 'f', 2, 64), true
}

// GenerateFallbackSKU produces a catalog-assigned SKU for products whose own
// SKU is missing or already taken.
func GenerateFallbackSKU() string {
	return fmt.Sprintf("API-%d", 1000+rand.Intn(9000))
}
