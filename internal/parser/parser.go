package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyDocument is returned when the input HTML is empty or whitespace.
var ErrEmptyDocument = errors.New("empty HTML document")

var (
	priceNumber = regexp.MustCompile(`[\d.,]+`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// titleSelectors are tried in order; the first non-empty text wins.
var titleSelectors = []string{
	"h1[class*='product'][class*='title']",
	"h1.product-title",
	"h1[class*='product-name']",
	"h1[class*='productView-title']",
	"div[class*='product-detail'] h1",
	"div[class*='product-info'] h1",
	"h1[itemprop='name']",
}

var priceSelectors = []string{
	"span[itemprop='price']",
	"span[class*='productView-price']",
	"div[class*='product-price']",
	"span[class*='price']",
	"div[class*='price']",
	"p[class*='price']",
}

// Parse builds a queryable document from raw HTML. Malformed markup is
// recovered best-effort; only empty input is an error.
func Parse(html string) (*goquery.Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ExtractTitle returns the product title, trying known heading selectors, then
// the og:title meta tag, then the document title element.
func ExtractTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return spaceRuns.ReplaceAllString(title, " ")
		}
	}

	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return spaceRuns.ReplaceAllString(title, " ")
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	return spaceRuns.ReplaceAllString(title, " ")
}

// ExtractPrice returns the first numeric-looking substring from the first
// price-classed element, with thousands separators removed. Empty when no
// price markup exists.
func ExtractPrice(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:price:amount']").Attr("content"); ok {
		if m := priceNumber.FindString(content); m != "" {
			return strings.ReplaceAll(m, ",", "")
		}
	}

	for _, selector := range priceSelectors {
		var price string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if m := priceNumber.FindString(text); m != "" {
				price = strings.ReplaceAll(m, ",", "")
				return false
			}
			return true
		})
		if price != "" {
			return price
		}
	}

	return ""
}
