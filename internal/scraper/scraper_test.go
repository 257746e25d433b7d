package scraper

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/harborline/product-import/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScraper() *Scraper {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScrape_ShopifyProductPage(t *testing.T) {
	html := `<html><head>
<title>Widget Pro | Example Store</title>
<meta property="og:title" content="Widget Pro">
<meta property="og:price:amount" content="129.95">
<script src="https://cdn.shopify.com/shopify-features.js"></script>
</head><body>
<h1 class="product-title">Widget Pro</h1>
<div class="product__media">
  <img src="https://cdn.shopify.com/s/files/1/0001/widget-front_100x.jpg">
  <img src="https://cdn.shopify.com/s/files/1/0001/widget-back_100x.jpg">
</div>
<span class="product-sku">WP-100</span>
<div class="product-description">
  <p>The Widget Pro does widget things.</p>
  <ul><li>Weight: 1.4 kg</li></ul>
</div>
<a href="/files/widget-pro-manual.pdf" title="Owner's Manual">Manual</a>
</body></html>`

	record, err := newTestScraper().Scrape(html, "https://example.myshopify.com/products/widget-pro")
	require.NoError(t, err)

	assert.Equal(t, "Widget Pro", record.Title)
	assert.Equal(t, "129.95", record.Price)
	assert.Equal(t, "WP-100", record.SKU)

	require.Len(t, record.Images, 2)
	assert.Contains(t, record.Images[0], "_2048x.jpg")

	require.Len(t, record.PDFs, 1)
	assert.Equal(t, "https://example.myshopify.com/files/widget-pro-manual.pdf", record.PDFs[0].URL)
	assert.Equal(t, "Owner's Manual", record.PDFs[0].Caption)

	assert.Contains(t, record.DescriptionHTML, "does widget things")

	weight, ok := record.AdditionalInfo.Get("Weight")
	require.True(t, ok)
	assert.Equal(t, "1.4 kg", weight)

	assert.Equal(t, "https://example.myshopify.com/products/widget-pro", record.SourceURL)
}

func TestScrape_ProductInfoContainerKeepsDescriptionAndAttributes(t *testing.T) {
	// The description container itself carries a class the cleaner's noise
	// strips would match. The container must survive cleaning and its list
	// markup must still feed the attribute miner.
	html := `<html><body>
<div class="product-info">
  <p>A sturdy widget.</p>
  <ul><li>Weight: 2 kg</li></ul>
</div>
</body></html>`

	record, err := newTestScraper().Scrape(html, "https://example.com/p/widget")
	require.NoError(t, err)

	assert.Contains(t, record.DescriptionHTML, "A sturdy widget.")
	assert.Contains(t, record.DescriptionHTML, "Weight: 2 kg")

	weight, ok := record.AdditionalInfo.Get("Weight")
	require.True(t, ok)
	assert.Equal(t, "2 kg", weight)
}

func TestScrape_DebugDomainLogsVisiblePDFFilenames(t *testing.T) {
	// A bare filename in page text never becomes a document entry, but the
	// detailed log for a debugged host must surface it.
	html := `<html><body>
<h1 class="product-title">Widget</h1>
<p>See spec-sheet.pdf at the service counter.</p>
</body></html>`

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := New(logger)
	s.SetDebugDomain("example.com")

	record, err := s.Scrape(html, "https://shop.example.com/p/widget")
	require.NoError(t, err)
	assert.Empty(t, record.PDFs)

	out := buf.String()
	assert.Contains(t, out, "visible_pdf_filenames")
	assert.Contains(t, out, "spec-sheet.pdf")
}

func TestScrape_SparsePage(t *testing.T) {
	html := `<html><body><p>Nothing for sale here.</p></body></html>`

	record, err := newTestScraper().Scrape(html, "https://example.com/about")
	require.NoError(t, err)

	assert.Empty(t, record.Title)
	assert.Empty(t, record.SKU)
	assert.Empty(t, record.Images)
	assert.Empty(t, record.PDFs)
	assert.Equal(t, 0, record.AdditionalInfo.Len())
}

func TestScrape_EmptyInput(t *testing.T) {
	_, err := newTestScraper().Scrape("", "https://example.com/p")
	assert.ErrorIs(t, err, ErrEmptyHTML)

	_, err = newTestScraper().Scrape("   \n\t ", "https://example.com/p")
	assert.ErrorIs(t, err, ErrEmptyHTML)
}

func TestScrape_RecordSerializesCleanly(t *testing.T) {
	html := `<html><body>
<div class="product-description"><ul><li>Caliber: 6mm</li><li>Action: Spring</li></ul></div>
</body></html>`

	record, err := newTestScraper().Scrape(html, "https://example.com/p/widget")
	require.NoError(t, err)

	data, err := json.Marshal(record)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "raw_html")
	assert.Contains(t, string(data), `"pdfs":[]`)
	assert.Contains(t, string(data), `"additional_info":{"Caliber":"6mm","Action":"Spring"}`)

	var back models.ProductRecord
	require.NoError(t, json.Unmarshal(data, &back))
	caliber, ok := back.AdditionalInfo.Get("Caliber")
	require.True(t, ok)
	assert.Equal(t, "6mm", caliber)
}
