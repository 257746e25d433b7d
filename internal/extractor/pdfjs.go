package extractor

import (
	"regexp"
	"strings"

	"github.com/harborline/product-import/internal/models"
	"github.com/harborline/product-import/internal/urlutil"
)

// pdfJSParser mines product-attachment maps out of inline storefront scripts.
// Several Shopify attachment apps ship their config as a JSON-like blob keyed
// by product GID; the parser recovers the attachments scoped to the product
// on the current page.
type pdfJSParser struct {
	configPatterns    []*regexp.Regexp
	productIDPatterns []productIDPattern
	attachmentsArray  *regexp.Regexp
	attachmentObject  *regexp.Regexp
	objectLink        *regexp.Regexp
	objectProduct     *regexp.Regexp
	gidReference      *regexp.Regexp
	attachmentSection *regexp.Regexp
	sectionHrefs      *regexp.Regexp
	bareFilename      *regexp.Regexp
}

type productIDPattern struct {
	re          *regexp.Regexp
	description string
}

func newPDFJSParser() *pdfJSParser {
	return &pdfJSParser{
		configPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?s)window\.TPAConfigs\s*=\s*(\{.*?product_attachments.*?\});`),
			regexp.MustCompile(`(?s)window\.TPAConfigs\.product_attachments\s*=\s*(\[.*?\]);`),
			regexp.MustCompile(`(?s)var\s+TPAConfigs\s*=\s*(\{.*?product_attachments.*?\});`),
		},
		productIDPatterns: []productIDPattern{
			{regexp.MustCompile(`"product-id"\s+value="(\d+)"`), "product-id input value"},
			{regexp.MustCompile(`product_id["']?\s*:\s*["']?gid://shopify/Product/(\d+)`), "product_id with GID"},
			{regexp.MustCompile(`data-product-id=["'](\d+)["']`), "data-product-id attribute"},
			{regexp.MustCompile(`"id":\s*(\d{10,})`), "JSON id field"},
			{regexp.MustCompile(`product:\s*\{[^}]*id["']?\s*:\s*["']?(\d+)`), "product object id"},
		},
		attachmentsArray:  regexp.MustCompile(`(?s)"product_attachments"\s*:\s*(\[.*?\])`),
		attachmentObject:  regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`),
		objectLink:        regexp.MustCompile(`"link"\s*:\s*"([^"]*\.pdf[^"]*)"`),
		objectProduct:     regexp.MustCompile(`"apply_product"\s*:\s*"([^"]*)"`),
		gidReference:      regexp.MustCompile(`gid://shopify/Product/(\d+)`),
		attachmentSection: regexp.MustCompile(`(?s)<div[^>]*class=["'][^"']*tigren-product-attachments[^"']*["'][^>]*>(.*?)</div>`),
		sectionHrefs:      regexp.MustCompile(`href=["']([^"']*\.pdf[^"']*)["']`),
		bareFilename:      regexp.MustCompile(`(?i)([a-zA-Z0-9_-]+\.pdf)`),
	}
}

// extract walks the fallback chain in fixed precedence: JS config filtered by
// product GID first, then the attachment-section HTML scan. The order is
// deliberate and must not be reconciled even when the channels disagree.
func (p *pdfJSParser) extract(html, pageURL string) []models.PDFLink {
	if html == "" {
		return nil
	}

	if links := p.extractFromConfig(html, pageURL); len(links) > 0 {
		return links
	}

	return p.extractFromSection(html, pageURL)
}

func (p *pdfJSParser) extractFromConfig(html, pageURL string) []models.PDFLink {
	var configData string
	for _, pattern := range p.configPatterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			configData = m[1]
			break
		}
	}
	if configData == "" {
		return nil
	}

	productID := p.extractProductID(html)
	if productID == "" {
		return nil
	}

	return p.filterByProductID(configData, productID, pageURL)
}

// extractProductID discovers the numeric product identifier on the page,
// trying several concrete markups in priority order, with a bare GID
// reference as the last resort.
func (p *pdfJSParser) extractProductID(html string) string {
	for _, pattern := range p.productIDPatterns {
		if m := pattern.re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	if m := p.gidReference.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	return ""
}

// filterByProductID keeps the attachment objects whose apply_product field
// references the current product's GID.
func (p *pdfJSParser) filterByProductID(configData, productID, pageURL string) []models.PDFLink {
	productGID := "gid://shopify/Product/" + productID

	attachments := configData
	if strings.Contains(configData, "product_attachments") {
		m := p.attachmentsArray.FindStringSubmatch(configData)
		if m == nil {
			return nil
		}
		attachments = m[1]
	}

	var (
		links []models.PDFLink
		seen  = make(map[string]bool)
	)

	for _, obj := range p.attachmentObject.FindAllString(attachments, -1) {
		linkMatch := p.objectLink.FindStringSubmatch(obj)
		if linkMatch == nil {
			continue
		}
		productMatch := p.objectProduct.FindStringSubmatch(obj)
		if productMatch == nil {
			continue
		}
		if !strings.Contains(productMatch[1], productGID) {
			continue
		}

		pdfURL := urlutil.MakeAbsolute(linkMatch[1], pageURL)
		key := urlutil.NormalizePDFURL(pdfURL)
		if seen[key] {
			continue
		}
		seen[key] = true

		filename := urlutil.FilenameFromURL(pdfURL)
		links = append(links, models.PDFLink{
			URL:             pdfURL,
			Caption:         strings.TrimSuffix(filename, ".pdf"),
			DetectionMethod: "js-config",
		})
	}

	return links
}

// extractFromSection scans a known attachment-list HTML block for PDF hrefs
// when the JS config path produced nothing.
func (p *pdfJSParser) extractFromSection(html, pageURL string) []models.PDFLink {
	section := p.attachmentSection.FindStringSubmatch(html)
	if section == nil {
		return nil
	}

	var (
		links []models.PDFLink
		seen  = make(map[string]bool)
	)

	for _, m := range p.sectionHrefs.FindAllStringSubmatch(section[1], -1) {
		pdfURL := urlutil.MakeAbsolute(m[1], pageURL)
		key := urlutil.NormalizePDFURL(pdfURL)
		if seen[key] {
			continue
		}
		seen[key] = true

		filename := urlutil.FilenameFromURL(pdfURL)
		links = append(links, models.PDFLink{
			URL:             pdfURL,
			Caption:         strings.TrimSuffix(filename, ".pdf"),
			DetectionMethod: "attachment-section",
		})
	}

	return links
}

// VisiblePDFFilenames sweeps the entire HTML for bare *.pdf filenames. The
// result is a visibility hint only: a bare filename carries no path, so it
// never becomes a document entry on its own.
func (e *PDFExtractor) VisiblePDFFilenames(html string) []string {
	seen := make(map[string]bool)
	var filenames []string
	for _, m := range e.js.bareFilename.FindAllStringSubmatch(html, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		filenames = append(filenames, name)
	}
	return filenames
}
