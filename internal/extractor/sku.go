package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/urlutil"
)

var (
	topGunSKUPattern  = regexp.MustCompile(`(?i)<span[^>]*class="[^"]*product-sku__value[^"]*"[^>]*>([^<]+)</span>`)
	modelColumnValue  = regexp.MustCompile(`^[A-Z0-9\-]+$`)
	genericSKUPattern = regexp.MustCompile(`(?i)SKU\s*:?\s*</[^>]+>\s*<[^>]+>\s*([A-Za-z0-9\-_.]+)`)
	skuLabelPrefix    = regexp.MustCompile(`(?i)^\s*SKU\s*:?\s*`)
)

// SKUExtractor resolves a product SKU using a per-store strategy keyed on
// the page hostname, falling back to a generic selector sweep.
type SKUExtractor struct {
	logger *slog.Logger
}

func NewSKUExtractor(logger *slog.Logger) *SKUExtractor {
	return &SKUExtractor{logger: logger.With("component", "sku_extractor")}
}

// Extract returns the SKU for the page, or "" when no strategy matches.
func (e *SKUExtractor) Extract(doc *goquery.Document, pageURL, html string) string {
	host := urlutil.Hostname(pageURL)

	var sku string
	switch {
	case strings.HasSuffix(host, "topgunwelding.com.au"):
		sku = extractTopGunSKU(doc, html)
	case strings.HasSuffix(host, "eastwesteng.com.au"):
		sku = extractModelColumnSKU(doc)
	default:
		sku = extractGenericSKU(doc, html)
	}

	sku = strings.TrimSpace(skuLabelPrefix.ReplaceAllString(sku, ""))
	if sku != "" {
		e.logger.Debug("sku extracted", "host", host, "sku", sku)
	}
	return sku
}

// extractTopGunSKU reads the themed SKU value span, with a raw-HTML regex
// fallback for pages where the span is built client-side.
func extractTopGunSKU(doc *goquery.Document, html string) string {
	if span := doc.Find("span.product-sku__value").First(); span.Length() > 0 {
		if sku := strings.TrimSpace(span.Text()); sku != "" {
			return sku
		}
	}
	if match := topGunSKUPattern.FindStringSubmatch(html); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// extractModelColumnSKU locates a spec table with a "Model" header and
// returns the first body cell in that column that looks like a part number.
func extractModelColumnSKU(doc *goquery.Document) string {
	var sku string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		modelCol := -1
		table.Find("th").Each(func(i int, th *goquery.Selection) {
			if modelCol >= 0 {
				return
			}
			if strings.EqualFold(strings.TrimSpace(th.Text()), "model") {
				modelCol = i
			}
		})
		if modelCol < 0 {
			return true
		}

		table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() <= modelCol {
				return true
			}
			candidate := strings.TrimSpace(cells.Eq(modelCol).Text())
			if modelColumnValue.MatchString(candidate) {
				sku = candidate
				return false
			}
			return true
		})
		return sku == ""
	})
	return sku
}

// extractGenericSKU tries common SKU markup: sku-classed spans and divs,
// schema.org itemprop, then a labelled "SKU:" sibling in the raw HTML.
func extractGenericSKU(doc *goquery.Document, html string) string {
	selectors := []string{
		`span[class*='sku']`,
		`div[class*='sku']`,
		`[itemprop='sku']`,
	}
	for _, selector := range selectors {
		var sku string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			text = strings.TrimSpace(skuLabelPrefix.ReplaceAllString(text, ""))
			if text != "" && len(text) <= 64 {
				sku = text
				return false
			}
			return true
		})
		if sku != "" {
			return sku
		}
	}

	if match := genericSKUPattern.FindStringSubmatch(html); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}
