package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/harborline/product-import/internal/models"
)

// descriptionSelectors locate the descriptive content block, most specific
// first. Tab titles and headings sharing the "description" class are filtered
// out after matching since CSS cannot express the negation compactly.
var descriptionSelectors = []string{
	"div[class*='description']",
	"div[class*='product-description']",
	"div#description",
	"div#tab-description",
	"div[class*='woocommerce-Tabs-panel--description']",
	"div.tab-content div[id*='description']",
	"div.tab-content > div[class*='active']",
	"div#product-description",
	"section[class*='product-description']",
	"div[class*='product-details-description']",
	"div[class*='woocommerce-product-details__short-description']",
	"div[class*='product_description']",
	"div[class*='pdp-description']",
}

var broaderSelectors = []string{
	"div[class*='tab-content']",
	"div[class*='product-details']",
	"div[class*='product-info']",
	"div[class*='product-specs']",
	"div[class*='product-specification']",
	"article[class*='product']",
	"div#detailBullets",
	"div#productDescription",
}

var productContainerDescSelectors = []string{
	"div[class*='product']",
	"main[class*='product']",
	"div#product",
	"div[itemtype='http://schema.org/Product']",
}

// DescriptionExtractor locates and denoises the product description block.
type DescriptionExtractor struct {
	attributes *attributeMiner
	cleaner    *htmlCleaner
	logger     *slog.Logger
}

func NewDescriptionExtractor(logger *slog.Logger) *DescriptionExtractor {
	return &DescriptionExtractor{
		attributes: newAttributeMiner(),
		cleaner:    newHTMLCleaner(),
		logger:     logger.With("component", "description_extractor"),
	}
}

// Extract serializes the first matching description container to HTML,
// cascading from specific to broad selectors and finally to the page's meta
// description wrapped in a paragraph. Empty string when nothing matched.
func (e *DescriptionExtractor) Extract(doc *goquery.Document) string {
	if html := firstContainerHTML(doc, descriptionSelectors, true); html != "" {
		return html
	}
	if html := firstContainerHTML(doc, broaderSelectors, false); html != "" {
		return html
	}
	if html := firstContainerHTML(doc, productContainerDescSelectors, false); html != "" {
		return html
	}

	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		if content = strings.TrimSpace(content); content != "" {
			return "<p>" + content + "</p>"
		}
	}

	return ""
}

// firstContainerHTML returns the outer HTML of the first node any selector
// matches. When skipTabChrome is set, nodes whose class marks them as tab
// titles or headings are passed over.
func firstContainerHTML(doc *goquery.Document, selectors []string, skipTabChrome bool) string {
	for _, selector := range selectors {
		var html string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if skipTabChrome {
				class := s.AttrOr("class", "")
				if strings.Contains(class, "tab-title") || strings.Contains(class, "tab-heading") {
					return true
				}
			}
			if out, err := goquery.OuterHtml(s); err == nil && strings.TrimSpace(out) != "" {
				html = out
				return false
			}
			return true
		})
		if html != "" {
			return html
		}
	}
	return ""
}

// CleanHTML strips editorial noise from a description block: scripts,
// iframes, tab navigation chrome, review and Q&A widgets, highlighted info
// boxes and empty wrappers. It is a pattern-substitution denoising pass over
// the HTML text, not a re-parse.
func (e *DescriptionExtractor) CleanHTML(html string) string {
	return e.cleaner.clean(html)
}

// ExtractAdditionalInfo mines the structured attribute taxonomy out of a
// description HTML fragment.
func (e *DescriptionExtractor) ExtractAdditionalInfo(descriptionHTML string) *models.AttributeList {
	return e.attributes.extract(descriptionHTML)
}

type htmlCleaner struct {
	tagStrips      []*regexp.Regexp
	phraseWrappers []phrasePattern
	classStrips    []*regexp.Regexp
	headingStrips  []*regexp.Regexp
	tailStrips     []*regexp.Regexp
	brRuns         *regexp.Regexp
}

type phrasePattern struct {
	divRe *regexp.Regexp
	pRe   *regexp.Regexp
}

func newHTMLCleaner() *htmlCleaner {
	c := &htmlCleaner{
		tagStrips: []*regexp.Regexp{
			regexp.MustCompile(`(?is)<script\b[^>]*>(.*?)</script>`),
			regexp.MustCompile(`(?is)<iframe\b[^>]*>(.*?)</iframe>`),
			regexp.MustCompile(`(?is)<ul[^>]*class=["'][^"']*(?:tabs|nav-tabs|wc-tabs)[^"']*["'][^>]*>.*?</ul>`),
			regexp.MustCompile(`(?is)<nav[^>]*class=["'][^"']*(?:woocommerce-tabs|tabs)[^"']*["'][^>]*>.*?</nav>`),
			regexp.MustCompile(`(?is)<div[^>]*class=["'][^"']*(?:tab-nav|tab-header|wc-tabs-wrapper|product-tabs)[^"']*["'][^>]*>.*?</div>`),
			regexp.MustCompile(`(?is)<div[^>]*role=["']tablist["'][^>]*>.*?</div>`),
			regexp.MustCompile(`(?is)<ul[^>]*role=["']tablist["'][^>]*>.*?</ul>`),
			regexp.MustCompile(`(?is)<h[1-6][^>]*class=["'][^"']*tab[^"']*["'][^>]*>.*?</h[1-6]>`),
			regexp.MustCompile(`(?is)<h[1-6][^>]*id=["'][^"']*tab[^"']*["'][^>]*>.*?</h[1-6]>`),
			regexp.MustCompile(`(?is)<div[^>]*style=["'][^"']*background(?:-color)?:\s*#[dD]9[eE][dD][fF]7[^"']*["'][^>]*>.*?</div>`),
			regexp.MustCompile(`(?is)<div[^>]*style=["'][^"']*background(?:-color)?:\s*#[eE][aA][fF][0-9a-fA-F][^"']*["'][^>]*>.*?</div>`),
			regexp.MustCompile(`(?is)<div[^>]*style=["'][^"']*background(?:-color)?:\s*rgb\(\s*217\s*,\s*237\s*,\s*247[^"']*["'][^>]*>.*?</div>`),
		},
		brRuns: regexp.MustCompile(`(?is)(\s*<br\s*/?>\s*){3,}`),
	}

	phrases := []string{
		"Be first to review this item",
		"Ask our customer community",
		"Other customers may have experience",
		"Post Question",
	}
	// The phrase must sit directly inside the wrapper, before any child tag,
	// so that an outer layout div containing the widget is not swallowed.
	for _, phrase := range phrases {
		quoted := regexp.QuoteMeta(phrase)
		c.phraseWrappers = append(c.phraseWrappers, phrasePattern{
			divRe: regexp.MustCompile(`(?is)<div[^>]*>[^<]*` + quoted + `.*?</div>`),
			pRe:   regexp.MustCompile(`(?is)<p[^>]*>[^<]*` + quoted + `.*?</p>`),
		})
	}

	noiseClasses := []string{
		"alert", "info", "notice", "notification", "comment-area", "review-area",
		"feedback", "rating-widget", "customer-feedback", "review-banner",
		"review-section", "qa-section", "community-qa", "product-qa",
	}
	for _, class := range noiseClasses {
		c.classStrips = append(c.classStrips, regexp.MustCompile(
			`(?is)<div[^>]*class=["'][^"']*`+regexp.QuoteMeta(class)+`[^"']*["'][^>]*>.*?</div>`))
	}

	tabHeadings := []string{`DESCRIPTION`, `REVIEWS`, `REVIEWS \(\d+\)`, `Q & A`}
	for _, heading := range tabHeadings {
		c.headingStrips = append(c.headingStrips,
			regexp.MustCompile(`(?is)<div[^>]*>\s*`+heading+`\s*</div>`),
			regexp.MustCompile(`(?is)<h[1-6][^>]*>\s*`+heading+`\s*</h[1-6]>`))
	}

	c.tailStrips = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<button[^>]*>.*?(?:Post|Review|Question).*?</button>`),
		regexp.MustCompile(`(?is)<a[^>]*class=["'][^"']*(?:btn|button)[^"']*["'][^>]*>.*?</a>`),
		regexp.MustCompile(`(?is)<hr[^>]*>`),
		regexp.MustCompile(`\(\d+/\d+\)`),
		regexp.MustCompile(`(?is)<p[^>]*>\s*</p>`),
		regexp.MustCompile(`(?is)<div[^>]*>\s*</div>`),
	}

	return c
}

// rootWrapper matches a fragment that is one element wrapping everything
// else, as Extract produces.
var rootWrapper = regexp.MustCompile(`(?is)^\s*(<([a-z][a-z0-9-]*)\b[^>]*>)(.*)(</([a-z][a-z0-9-]*)\s*>)\s*$`)

// clean runs the strip passes over the fragment's content. The fragment's
// own root element is the description container the extractor chose; it is
// never noise, so the class and phrase strips must not be able to swallow
// it whole.
func (c *htmlCleaner) clean(html string) string {
	if m := rootWrapper.FindStringSubmatch(html); m != nil && strings.EqualFold(m[2], m[5]) {
		return m[1] + c.cleanContent(m[3]) + m[4]
	}
	return c.cleanContent(html)
}

func (c *htmlCleaner) cleanContent(html string) string {
	for _, re := range c.tagStrips {
		html = re.ReplaceAllString(html, "")
	}
	for _, p := range c.phraseWrappers {
		html = p.divRe.ReplaceAllString(html, "")
		html = p.pRe.ReplaceAllString(html, "")
	}
	for _, re := range c.classStrips {
		html = re.ReplaceAllString(html, "")
	}
	for _, re := range c.headingStrips {
		html = re.ReplaceAllString(html, "")
	}
	for _, re := range c.tailStrips {
		html = re.ReplaceAllString(html, "")
	}
	html = c.brRuns.ReplaceAllString(html, "<br>")
	return html
}
