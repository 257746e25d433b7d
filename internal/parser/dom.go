package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var relatedSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)related[-_]?products?`),
	regexp.MustCompile(`(?i)similar[-_]?products?`),
	regexp.MustCompile(`(?i)recommended[-_]?products?`),
	regexp.MustCompile(`(?i)you[-_]?may[-_]?also[-_]?like`),
	regexp.MustCompile(`(?i)cross[-_]?sell`),
	regexp.MustCompile(`(?i)up[-_]?sell`),
	regexp.MustCompile(`(?i)product[-_]?recommendations?`),
	regexp.MustCompile(`(?i)product[-_]?suggestions?`),
}

var relatedHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)related\s+products`),
	regexp.MustCompile(`(?i)similar\s+products`),
	regexp.MustCompile(`(?i)you\s+may\s+also\s+like`),
	regexp.MustCompile(`(?i)recommended\s+for\s+you`),
}

var navKeywords = []string{
	"menu", "navigation", "navbar", "nav-bar",
	"site-nav", "main-nav", "breadcrumb", "bread-crumb",
}

var headerFooterPatterns = []string{
	"site-header", "page-header", "main-header",
	"site-footer", "page-footer", "main-footer",
	"footer-content", "header-content",
}

// AncestorMatch walks from s up through at most maxLevels ancestors (the node
// itself included) and reports whether pred matched any of them. Both the
// related-products and the header/footer exclusion checks ride on this.
func AncestorMatch(s *goquery.Selection, maxLevels int, pred func(*goquery.Selection) bool) bool {
	current := s
	for level := 0; current.Length() > 0 && level < maxLevels; level++ {
		if pred(current) {
			return true
		}
		current = current.Parent()
	}
	return false
}

// InRelatedProductsSection reports whether the node sits inside a related /
// similar / recommended products widget, checked up to 10 ancestor levels via
// class and id patterns and via heading text.
//
// The patterns are English-language heuristics; non-English storefronts
// degrade to no exclusion.
func InRelatedProductsSection(s *goquery.Selection) bool {
	return AncestorMatch(s, 10, func(n *goquery.Selection) bool {
		class := n.AttrOr("class", "")
		id := n.AttrOr("id", "")

		for _, p := range relatedSectionPatterns {
			if p.MatchString(class) || p.MatchString(id) {
				return true
			}
		}

		switch goquery.NodeName(n) {
		case "h1", "h2", "h3", "h4":
			text := n.Text()
			for _, p := range relatedHeadingPatterns {
				if p.MatchString(text) {
					return true
				}
			}
		}

		return false
	})
}

// InHeaderOrFooter reports whether the node sits inside the page header,
// footer or a navigation block, checked up to 15 ancestor levels. Plain <nav>
// elements without navigation class/id keywords are allowed through since
// product tab strips often use them.
func InHeaderOrFooter(s *goquery.Selection) bool {
	return AncestorMatch(s, 15, func(n *goquery.Selection) bool {
		switch goquery.NodeName(n) {
		case "header", "footer":
			return true
		case "nav":
			class := strings.ToLower(n.AttrOr("class", ""))
			id := strings.ToLower(n.AttrOr("id", ""))
			for _, kw := range navKeywords {
				if strings.Contains(class, kw) || strings.Contains(id, kw) {
					return true
				}
			}
		}

		class := strings.ToLower(n.AttrOr("class", ""))
		id := strings.ToLower(n.AttrOr("id", ""))
		for _, p := range headerFooterPatterns {
			if strings.Contains(class, p) || strings.Contains(id, p) {
				return true
			}
		}

		return false
	})
}
