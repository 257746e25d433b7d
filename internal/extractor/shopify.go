package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/parser"
	"github.com/harborline/product-import/internal/urlutil"
)

// shopifyIndicators are concrete markers confirming a Shopify storefront once
// the word "shopify" appears anywhere in the HTML.
var shopifyIndicators = []string{
	"Shopify.theme",
	"shopify-features",
	"cdn.shopify.com",
	"shopifycdn.com",
	"Shopify.shop",
	"shopify-section",
	"data-shopify",
	"shopify-product",
	"Shopify.routes",
}

var collectionsProductPath = regexp.MustCompile(`(?i)/collections/.*/products/`)

// shopifyImageAttributes is the attribute priority order for Shopify nodes;
// responsive srcset variants outrank lazy-load and zoom attributes.
var shopifyImageAttributes = []string{
	"data-srcset",
	"srcset",
	"data-src",
	"data-zoom-src",
	"data-zoom",
	"data-image",
	"data-full-src",
	"src",
}

// shopifySelectors are ordered by priority: Shopify 2.0 custom elements
// first, then common gallery structures, then older themes and generic
// product containers.
var shopifySelectors = []string{
	"product-media img",
	"media-gallery img",
	"slider-component img",
	"div[class*='product__media-list'] img",
	"div[class*='product-media-gallery'] img",
	"div[class*='product__media-wrapper'] img",
	"div[class*='product__media'] img",
	"div[class*='product__main-photos'] img",
	"div[class*='product-single__photos'] img",
	"div[class*='product-single__photo'] img",
	"ul[class*='product-single__thumbnails'] img",
	"div[class*='product-gallery'] img",
	"div[class*='product-photos'] img",
	"div[class*='product-images'] img",
	"div[class*='thumbnail-list'] img",
	"div[class*='product-thumbnails'] img",
	"div[data-media-id] img",
	"div[id*='MediaGallery'] img",
	"div[class*='product'] img[src*='product']",
	"div#product img",
}

var (
	shopifySizeSuffix = regexp.MustCompile(`(?i)_\d+x\d*\.(jpg|jpeg|png|gif|webp)`)
	shopifySizeToken  = regexp.MustCompile(`_\d+x\d*\.`)
)

// shopifyStrategyCap stops selector iteration once this many images were
// contributed by the Shopify strategy.
const shopifyStrategyCap = 15

// IsShopifySite detects a Shopify storefront from HTML signatures or URL
// shape.
func IsShopifySite(html, pageURL string) bool {
	if strings.Contains(strings.ToLower(html), "shopify") {
		for _, indicator := range shopifyIndicators {
			if strings.Contains(strings.ToLower(html), strings.ToLower(indicator)) {
				return true
			}
		}
	}

	if pageURL != "" {
		if strings.Contains(strings.ToLower(pageURL), ".myshopify.com") {
			return true
		}
		if u, err := url.Parse(pageURL); err == nil && collectionsProductPath.MatchString(u.Path) {
			return true
		}
	}

	return false
}

func (e *ImageExtractor) extractShopify(doc *goquery.Document, pageURL, sourceDomain string, st *imageState) {
	found := 0
	for _, selector := range shopifySelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if parser.InRelatedProductsSection(s) {
				return
			}
			if e.extractShopifyNode(s, pageURL, sourceDomain, st) {
				found++
			}
		})
		if found >= shopifyStrategyCap {
			return
		}
	}
}

func (e *ImageExtractor) extractShopifyNode(s *goquery.Selection, pageURL, sourceDomain string, st *imageState) bool {
	var imgURL string
	for _, attr := range shopifyImageAttributes {
		value, ok := s.Attr(attr)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if attr == "data-srcset" || attr == "srcset" {
			imgURL = HighestResFromSrcset(value)
		} else {
			imgURL = value
		}
		if imgURL != "" {
			break
		}
	}

	if imgURL == "" {
		return false
	}

	if !strings.HasPrefix(imgURL, "http") {
		if strings.HasPrefix(imgURL, "//") {
			imgURL = "https:" + imgURL
		} else {
			imgURL = urlutil.MakeAbsolute(imgURL, pageURL)
		}
	}

	imgURL = ShopifyHighRes(imgURL)

	return st.add(imgURL, sourceDomain, e.blacklist)
}

// ShopifyHighRes rewrites Shopify CDN image URLs to their largest rendition:
// size-suffixed filenames become _2048x, and CDN URLs get width=2048 while
// the v= cache token is preserved.
func ShopifyHighRes(imgURL string) string {
	if shopifySizeSuffix.MatchString(imgURL) {
		imgURL = shopifySizeToken.ReplaceAllString(imgURL, "_2048x.")
	}

	lower := strings.ToLower(imgURL)
	isShopifyCDN := strings.Contains(lower, "cdn.shopify.com") ||
		strings.Contains(lower, "shopifycdn.com") ||
		cdnShopFilesPath.MatchString(imgURL)
	if !isShopifyCDN {
		return imgURL
	}

	parsed, err := url.Parse(imgURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return imgURL
	}

	query := parsed.Query()
	query.Set("width", "2048")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

var cdnShopFilesPath = regexp.MustCompile(`/cdn/shop/(files|products)/`)
