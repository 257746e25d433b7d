package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/parser"
	"github.com/harborline/product-import/internal/urlutil"
)

// bigCommerceSelectors target stencil-theme gallery structures. The
// cloud-zoom anchor is special-cased: the image URL lives on the link, not on
// an <img> child.
var bigCommerceSelectors = []string{
	"ul[class*='productView-thumbnails'] li img",
	"figure[class*='productView-image'] img",
	"div[class*='productView-img-container'] img",
	"a[class*='cloud-zoom-gallery']",
	"div[class*='productView'] img[class*='main-image']",
}

func (e *ImageExtractor) extractBigCommerce(doc *goquery.Document, pageURL, sourceDomain string, st *imageState) {
	for _, selector := range bigCommerceSelectors {
		isZoomLink := selector == "a[class*='cloud-zoom-gallery']"

		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if parser.InRelatedProductsSection(s) {
				return
			}
			if isZoomLink {
				e.extractZoomLink(s, pageURL, sourceDomain, st)
			} else {
				e.extractNode(s, fallbackAttributes, pageURL, sourceDomain, st)
			}
		})
	}
}

// extractZoomLink pulls image URLs from a cloud-zoom gallery anchor, trying
// both the href and the data-zoom-image attribute.
func (e *ImageExtractor) extractZoomLink(s *goquery.Selection, pageURL, sourceDomain string, st *imageState) {
	for _, attr := range []string{"href", "data-zoom-image"} {
		imgURL, ok := s.Attr(attr)
		if !ok {
			continue
		}
		imgURL = strings.TrimSpace(imgURL)
		if imgURL == "" {
			continue
		}

		if !strings.HasPrefix(imgURL, "http") {
			imgURL = urlutil.MakeAbsolute(imgURL, pageURL)
		}
		imgURL = urlutil.ToHighRes(imgURL)

		st.add(imgURL, sourceDomain, e.blacklist)
	}
}
