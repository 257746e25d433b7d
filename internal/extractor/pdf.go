package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/models"
	"github.com/harborline/product-import/internal/parser"
	"github.com/harborline/product-import/internal/urlutil"
)

// pdfKeywords flag a link as a likely document download even when the href
// hides the extension behind a handler URL.
var pdfKeywords = []string{
	"download manual", "download", "manual", "view pdf", "user manual",
	"installation guide", "documents", "brochure", "datasheet", "guide",
	"instructions", "specification", "spec sheet",
}

var pdfHrefSuffix = regexp.MustCompile(`(?i)\.pdf(\?.*)?$`)

// PDFExtractor discovers downloadable product documents through two
// independent channels: a DOM link scan and an embedded JavaScript
// configuration parser. Channel results are merged and deduplicated by
// normalized URL.
type PDFExtractor struct {
	js     *pdfJSParser
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	return &PDFExtractor{
		js:     newPDFJSParser(),
		logger: logger.With("component", "pdf_extractor"),
	}
}

// Extract returns the ordered, deduplicated document list for one page. The
// raw HTML is required for the JavaScript channel, which works on script text
// the DOM tree does not expose.
func (e *PDFExtractor) Extract(doc *goquery.Document, pageURL, html string) []models.PDFLink {
	seen := make(map[string]bool)
	var pdfs []models.PDFLink

	for _, link := range e.extractFromDOM(doc, pageURL) {
		key := urlutil.NormalizePDFURL(link.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		pdfs = append(pdfs, link)
	}

	for _, link := range e.js.extract(html, pageURL) {
		key := urlutil.NormalizePDFURL(link.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		pdfs = append(pdfs, link)
	}

	e.logger.Debug("pdf extraction complete", "url", pageURL, "pdfs", len(pdfs))
	return pdfs
}

// extractFromDOM scans every anchor on the page, excluding links living in
// header, footer or navigation chrome. When no href on the whole page
// mentions .pdf the scan exits immediately with nothing.
func (e *PDFExtractor) extractFromDOM(doc *goquery.Document, pageURL string) []models.PDFLink {
	if doc.Find(`a[href*=".pdf"]`).Length() == 0 {
		return nil
	}

	var (
		pdfs []models.PDFLink
		seen = make(map[string]bool)
	)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if parser.InHeaderOrFooter(s) {
			return
		}

		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		linkText := strings.TrimSpace(s.Text())

		var detectionMethod string
		switch {
		case pdfHrefSuffix.MatchString(href):
			detectionMethod = "extension"
		case linkText != "":
			lower := strings.ToLower(linkText)
			for _, keyword := range pdfKeywords {
				if strings.Contains(lower, keyword) {
					detectionMethod = "keyword '" + keyword + "'"
					break
				}
			}
		}
		if detectionMethod == "" {
			return
		}

		href = urlutil.MakeAbsolute(href, pageURL)
		key := urlutil.NormalizePDFURL(href)
		if seen[key] {
			return
		}
		seen[key] = true

		pdfs = append(pdfs, models.PDFLink{
			URL:             href,
			Caption:         linkCaption(s, linkText, href),
			DetectionMethod: detectionMethod,
		})
	})

	return pdfs
}

// linkCaption resolves the document caption: title attribute first, then the
// link text, then the filename stem.
func linkCaption(s *goquery.Selection, linkText, href string) string {
	if title := strings.TrimSpace(s.AttrOr("title", "")); title != "" {
		return title
	}
	if linkText != "" {
		return linkText
	}
	filename := urlutil.FilenameFromURL(href)
	return strings.TrimSuffix(filename, ".pdf")
}
