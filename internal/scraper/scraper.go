package scraper

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/harborline/product-import/internal/extractor"
	"github.com/harborline/product-import/internal/models"
	"github.com/harborline/product-import/internal/parser"
	"github.com/harborline/product-import/internal/urlutil"
)

var (
	ErrEmptyHTML   = errors.New("empty HTML input")
	ErrParseFailed = errors.New("failed to parse HTML")
)

// Scraper turns a fetched product page into a structured ProductRecord. Only
// unusable input is an error; individual extractors failing to find anything
// leave their fields at zero values.
type Scraper struct {
	images      *extractor.ImageExtractor
	pdfs        *extractor.PDFExtractor
	description *extractor.DescriptionExtractor
	sku         *extractor.SKUExtractor
	logger      *slog.Logger

	// debugDomain, when set, upgrades the per-scrape summary to a detailed
	// debug log for pages whose host contains it.
	debugDomain string
}

func New(logger *slog.Logger) *Scraper {
	return &Scraper{
		images:      extractor.NewImageExtractor(logger),
		pdfs:        extractor.NewPDFExtractor(logger),
		description: extractor.NewDescriptionExtractor(logger),
		sku:         extractor.NewSKUExtractor(logger),
		logger:      logger.With("component", "scraper"),
	}
}

// SetDebugDomain enables detailed logging for pages from hosts matching domain.
func (s *Scraper) SetDebugDomain(domain string) {
	s.debugDomain = strings.ToLower(strings.TrimSpace(domain))
}

// Scrape extracts every product field from the page HTML. The description is
// cleaned and mined for structured attributes before it lands on the record.
func (s *Scraper) Scrape(html, sourceURL string) (*models.ProductRecord, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}

	doc, err := parser.Parse(html)
	if err != nil {
		if errors.Is(err, parser.ErrEmptyDocument) {
			return nil, ErrEmptyHTML
		}
		return nil, errors.Join(ErrParseFailed, err)
	}

	record := models.NewProductRecord(sourceURL)
	record.RawHTML = html
	record.Title = parser.ExtractTitle(doc)
	record.Price = parser.ExtractPrice(doc)
	record.SKU = s.sku.Extract(doc, sourceURL, html)
	record.Images = s.images.Extract(doc, sourceURL, html)
	if pdfs := s.pdfs.Extract(doc, sourceURL, html); pdfs != nil {
		record.PDFs = pdfs
	}

	// Attributes are mined from the raw extraction result: the cleaner may
	// strip list markup the miner still wants to see.
	description := s.description.Extract(doc)
	record.AdditionalInfo = s.description.ExtractAdditionalInfo(description)
	if description != "" {
		description = s.description.CleanHTML(description)
	}
	record.DescriptionHTML = description

	s.logger.Info("scrape complete",
		"url", sourceURL,
		"title", record.Title,
		"sku", record.SKU,
		"images", len(record.Images),
		"pdfs", len(record.PDFs),
		"attributes", record.AdditionalInfo.Len(),
	)

	if s.debugDomain != "" && strings.Contains(strings.ToLower(urlutil.Hostname(sourceURL)), s.debugDomain) {
		s.logger.Debug("scrape detail",
			"url", sourceURL,
			"price", record.Price,
			"image_urls", record.Images,
			"pdf_links", record.PDFs,
			"visible_pdf_filenames", s.pdfs.VisiblePDFFilenames(html),
			"description_len", len(record.DescriptionHTML),
		)
	}

	return record, nil
}
