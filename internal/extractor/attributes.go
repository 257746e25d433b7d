package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/models"
)

// taxonomyFields is the closed attribute taxonomy mined from product
// descriptions, in canonical order.
var taxonomyFields = []string{
	"Caliber", "Power Source", "Velocity", "Magazine Capacity", "Action",
	"Frame Material", "Barrel", "Accessory Rail", "Finish", "Intended Use",
	"Length", "Safety", "Sights", "Trigger", "Weight",
}

// fieldSynonyms maps a canonical field to the alternate labels storefronts
// use for it. The canonical name is always tried before any synonym.
var fieldSynonyms = map[string][]string{
	"Magazine Capacity": {"Capacity", "Mag Capacity", "Mag. Capacity", "Magazine Size"},
	"Frame Material":    {"Frame", "Material", "Construction"},
	"Accessory Rail":    {"Rail", "Rails", "Accessory", "Rail Type"},
	"Intended Use":      {"Use", "Purpose", "Application"},
	"Power Source":      {"Power", "Power Type", "Source"},
	"Barrel":            {"Barrel Length", "Barrel Size", "Barrel Details", "Barrel Specs"},
	"Action":            {"Action Type", "Operating System"},
	"Finish":            {"Finish Type", "Surface Finish", "Color"},
	"Sights":            {"Sight", "Sight System", "Sight Type"},
	"Trigger":           {"Trigger Type", "Trigger System", "Trigger Pull"},
	"Weight":            {"Gun Weight", "Product Weight", "Total Weight"},
	"Safety":            {"Safety Type", "Safety System", "Safety Features"},
	"Length":            {"Overall Length", "Total Length", "Gun Length"},
}

// listItemSeparators are the label/value separators accepted by the raw-HTML
// list-item pass.
var listItemSeparators = []string{":", "-", "—", "=", "|"}

// attributeMiner runs the four extraction passes over a description
// fragment. Passes only fill fields not yet found; the first successful pass
// for a field wins.
type attributeMiner struct {
	listItemPatterns map[string][]*regexp.Regexp
}

func newAttributeMiner() *attributeMiner {
	m := &attributeMiner{listItemPatterns: make(map[string][]*regexp.Regexp)}

	// Precompile the <li>Label<sep>Value</li> patterns for every label and
	// separator combination.
	for _, field := range taxonomyFields {
		labels := append([]string{field}, fieldSynonyms[field]...)
		for _, label := range labels {
			for _, sep := range listItemSeparators {
				m.listItemPatterns[field] = append(m.listItemPatterns[field], regexp.MustCompile(
					`(?i)<li[^>]*>\s*`+regexp.QuoteMeta(label)+`\s*`+regexp.QuoteMeta(sep)+`\s*([^<]+)</li>`))
			}
		}
	}

	return m
}

func (m *attributeMiner) extract(descriptionHTML string) *models.AttributeList {
	info := models.NewAttributeList()
	if strings.TrimSpace(descriptionHTML) == "" {
		return info
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + descriptionHTML + "</div>"))
	if err != nil {
		return info
	}

	m.extractFromSchema(doc, info)
	m.extractFromListMarkup(descriptionHTML, info)
	m.extractFromTables(doc, info)
	m.extractFromListText(doc, info)

	return info
}

// labelsFor returns the canonical field name followed by its synonyms.
func labelsFor(field string) []string {
	return append([]string{field}, fieldSynonyms[field]...)
}

// extractFromSchema matches schema.org list items: an <li> holding a label
// span and a value span marked itemprop="value".
func (m *attributeMiner) extractFromSchema(doc *goquery.Document, info *models.AttributeList) {
	for _, field := range taxonomyFields {
		if info.Has(field) {
			continue
		}

		for _, label := range labelsFor(field) {
			want := strings.ToLower(label)
			var value string

			doc.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
				matched := false
				li.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
					if strings.ToLower(strings.TrimSpace(span.Text())) == want {
						matched = true
						return false
					}
					return true
				})
				if !matched {
					return true
				}

				valueSpan := li.Find(`span[itemprop="value"]`).First()
				if valueSpan.Length() > 0 {
					value = strings.TrimSpace(valueSpan.Text())
					return false
				}
				return true
			})

			if value != "" {
				info.Set(field, value)
				break
			}
		}
	}
}

// extractFromListMarkup runs the precompiled <li>Label<sep>Value</li>
// patterns over the raw fragment.
func (m *attributeMiner) extractFromListMarkup(html string, info *models.AttributeList) {
	for _, field := range taxonomyFields {
		if info.Has(field) {
			continue
		}
		for _, pattern := range m.listItemPatterns[field] {
			if match := pattern.FindStringSubmatch(html); match != nil {
				info.Set(field, strings.TrimSpace(match[1]))
				break
			}
		}
	}
}

// extractFromTables reads two-column table rows whose first cell's text
// contains the label.
func (m *attributeMiner) extractFromTables(doc *goquery.Document, info *models.AttributeList) {
	for _, field := range taxonomyFields {
		if info.Has(field) {
			continue
		}

		for _, label := range labelsFor(field) {
			want := strings.ToLower(label)
			var value string

			doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
				cells := row.Find("td")
				if cells.Length() < 2 {
					return true
				}
				first := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
				if !strings.Contains(first, want) {
					return true
				}
				value = strings.TrimSpace(cells.Eq(1).Text())
				return false
			})

			if value != "" {
				info.Set(field, value)
				break
			}
		}
	}
}

// extractFromListText catches free list items whose text begins with
// "Label:".
func (m *attributeMiner) extractFromListText(doc *goquery.Document, info *models.AttributeList) {
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if text == "" {
			return
		}
		lower := strings.ToLower(text)

		for _, field := range taxonomyFields {
			if info.Has(field) {
				continue
			}
			for _, label := range labelsFor(field) {
				prefix := strings.ToLower(label) + ":"
				if !strings.HasPrefix(lower, prefix) {
					continue
				}
				parts := strings.SplitN(text, ":", 2)
				if len(parts) == 2 {
					if value := strings.TrimSpace(parts[1]); value != "" {
						info.Set(field, value)
					}
				}
				break
			}
		}
	})
}
