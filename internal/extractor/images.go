package extractor

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/parser"
	"github.com/harborline/product-import/internal/urlutil"
)

// Platform classifies the storefront software behind a product page. Only the
// image engine consumes this: it decides which strategy runs first.
type Platform int

const (
	PlatformGeneric Platform = iota
	PlatformShopify
	PlatformBigCommerce
)

func (p Platform) String() string {
	switch p {
	case PlatformShopify:
		return "shopify"
	case PlatformBigCommerce:
		return "bigcommerce"
	default:
		return "generic"
	}
}

// enoughImages is the short-circuit threshold: once a strategy has gathered
// this many images the remaining strategies are skipped.
const enoughImages = 3

// allImagesCap bounds how many new images the last-resort all-<img> sweep may
// contribute.
const allImagesCap = 5

var (
	srcsetWidth   = regexp.MustCompile(`(?i)(\d+)w`)
	srcsetDensity = regexp.MustCompile(`(?i)(\d+\.?\d*)x`)
)

// fallbackAttributes is the attribute priority list for non-Shopify nodes.
var fallbackAttributes = []string{
	"data-image-gallery-new-image-url", "data-zoom-image", "data-large", "data-src", "src",
}

var productContainerSelectors = []string{
	"div[class*='product-images'] img",
	"div[class*='product-gallery'] img",
	"div[id*='product-images'] img",
	"div[class*='product-detail'] img",
	"div[class*='product-media'] img",
	"div[class*='product-slider'] img",
	"div[class*='woocommerce-product-gallery'] img",
}

var mainContentSelectors = []string{
	"div[class*='main-content'] img",
	"main img",
	"article img",
	"div[class*='content'] img",
}

// ImageExtractor discovers product gallery images across heterogeneous
// storefront markup. Strategies run in platform order and short-circuit once
// enough images are collected.
type ImageExtractor struct {
	blacklist []string
	logger    *slog.Logger
}

func NewImageExtractor(logger *slog.Logger) *ImageExtractor {
	return &ImageExtractor{
		blacklist: urlutil.BlacklistedImageTerms(),
		logger:    logger.With("component", "image_extractor"),
	}
}

// imageState accumulates accepted images and their dedup keys for one scrape.
type imageState struct {
	images []string
	seen   map[string]bool
}

func newImageState() *imageState {
	return &imageState{seen: make(map[string]bool)}
}

// add validates, dedups and appends one candidate URL. Returns true when the
// image was accepted.
func (st *imageState) add(imgURL, sourceDomain string, blacklist []string) bool {
	key := urlutil.NormalizeForDedup(imgURL)
	if st.seen[key] {
		return false
	}
	if !urlutil.IsValidProductImage(imgURL, blacklist, sourceDomain) {
		return false
	}
	st.images = append(st.images, imgURL)
	st.seen[key] = true
	return true
}

// Extract runs the strategy pipeline over the parsed page. The raw HTML is
// needed alongside the document for platform detection. An empty result is a
// valid outcome, not an error.
func (e *ImageExtractor) Extract(doc *goquery.Document, pageURL, html string) []string {
	st := newImageState()
	sourceDomain := urlutil.Hostname(pageURL)

	if html != "" && IsShopifySite(html, pageURL) {
		e.logger.Debug("shopify site detected, using shopify extraction", "url", pageURL)
		e.extractShopify(doc, pageURL, sourceDomain, st)

		if len(st.images) >= enoughImages {
			e.logger.Debug("shopify extraction sufficient", "images", len(st.images))
			return st.finalize()
		}
	}

	e.extractBigCommerce(doc, pageURL, sourceDomain, st)

	if len(st.images) < enoughImages {
		e.extractFallback(doc, pageURL, sourceDomain, st)
	}

	e.logger.Debug("image extraction complete", "url", pageURL, "images", len(st.images))
	return st.finalize()
}

func (e *ImageExtractor) extractFallback(doc *goquery.Document, pageURL, sourceDomain string, st *imageState) {
	e.extractFromSelectors(doc, productContainerSelectors, pageURL, sourceDomain, st, 0)

	if len(st.images) < enoughImages {
		e.extractFromSelectors(doc, mainContentSelectors, pageURL, sourceDomain, st, 0)
	}

	if len(st.images) < 2 {
		e.extractFromSelectors(doc, []string{"img"}, pageURL, sourceDomain, st, allImagesCap)
	}
}

// extractFromSelectors visits every node the selectors match, skipping nodes
// inside related-product widgets. maxNew of zero means unbounded.
func (e *ImageExtractor) extractFromSelectors(doc *goquery.Document, selectors []string, pageURL, sourceDomain string, st *imageState, maxNew int) {
	added := 0
	for _, selector := range selectors {
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if parser.InRelatedProductsSection(s) {
				return true
			}
			if e.extractNode(s, fallbackAttributes, pageURL, sourceDomain, st) {
				added++
			}
			return maxNew == 0 || added < maxNew
		})
		if maxNew > 0 && added >= maxNew {
			return
		}
	}
}

// extractNode reads one image URL out of a node using the given attribute
// priority list, then resolves, upgrades and validates it.
func (e *ImageExtractor) extractNode(s *goquery.Selection, attributes []string, pageURL, sourceDomain string, st *imageState) bool {
	var imgURL string
	for _, attr := range attributes {
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

	imgURL = urlutil.ToHighRes(imgURL)
	if !strings.HasPrefix(imgURL, "http") {
		imgURL = urlutil.MakeAbsolute(imgURL, pageURL)
	}

	return st.add(imgURL, sourceDomain, e.blacklist)
}

// HighestResFromSrcset parses a srcset-style attribute and returns the
// candidate with the largest estimated width. Density descriptors are
// estimated at 1000px per 1x. A bare URL with no descriptor is kept as a
// fallback when nothing better appears.
func HighestResFromSrcset(srcset string) string {
	var (
		highestRes int
		highestURL string
	)

	for _, source := range strings.Split(srcset, ",") {
		parts := strings.Fields(strings.TrimSpace(source))
		switch {
		case len(parts) >= 2:
			candidate, descriptor := parts[0], parts[1]

			if m := srcsetWidth.FindStringSubmatch(descriptor); m != nil {
				if width, err := strconv.Atoi(m[1]); err == nil && width > highestRes {
					highestRes = width
					highestURL = candidate
				}
			} else if m := srcsetDensity.FindStringSubmatch(descriptor); m != nil {
				if density, err := strconv.ParseFloat(m[1], 64); err == nil {
					estimated := int(density * 1000)
					if estimated > highestRes {
						highestRes = estimated
						highestURL = candidate
					}
				}
			}
		case len(parts) == 1 && parts[0] != "":
			if highestURL == "" {
				highestURL = parts[0]
			}
		}
	}

	return highestURL
}

// finalize dedups by exact URL and reindexes, mirroring the accepted output
// contract: ordered, unique, possibly empty.
func (st *imageState) finalize() []string {
	seen := make(map[string]bool, len(st.images))
	out := make([]string, 0, len(st.images))
	for _, img := range st.images {
		if seen[img] {
			continue
		}
		seen[img] = true
		out = append(out, img)
	}
	return out
}
