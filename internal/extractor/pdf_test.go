package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExtractor_ExtensionLinks(t *testing.T) {
	html := `<html><body>
<div class="product-downloads">
  <a href="/files/widget-manual.pdf" title="Widget Manual">Manual</a>
  <a href="https://example.com/files/widget-specs.pdf">Spec Sheet</a>
</div>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	require.Len(t, pdfs, 2)
	assert.Equal(t, "https://example.com/files/widget-manual.pdf", pdfs[0].URL)
	assert.Equal(t, "Widget Manual", pdfs[0].Caption)
	assert.Equal(t, "extension", pdfs[0].DetectionMethod)
	assert.Equal(t, "Spec Sheet", pdfs[1].Caption)
}

func TestPDFExtractor_FastExitWithoutPDFHrefs(t *testing.T) {
	// Keyword links alone are not enough: without a single .pdf href on the
	// page the DOM scan does not run at all.
	html := `<html><body>
<a href="/downloads/handler?id=9">Download Manual</a>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	assert.Empty(t, pdfs)
}

func TestPDFExtractor_KeywordLinks(t *testing.T) {
	html := `<html><body>
<a href="/files/widget.pdf">Datasheet</a>
<a href="/downloads/handler?id=9">Download Manual</a>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	require.Len(t, pdfs, 2)
	assert.Equal(t, "extension", pdfs[0].DetectionMethod)
	assert.Equal(t, "https://example.com/downloads/handler?id=9", pdfs[1].URL)
	assert.Equal(t, "keyword 'download manual'", pdfs[1].DetectionMethod)
}

func TestPDFExtractor_DedupsQueryVariants(t *testing.T) {
	html := `<html><body>
<a href="/files/widget.pdf?ver=2">Manual</a>
<a href="/files/widget.pdf?ver=3">Manual (updated)</a>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	require.Len(t, pdfs, 1)
	assert.Equal(t, "https://example.com/files/widget.pdf?ver=2", pdfs[0].URL)
}

func TestPDFExtractor_SkipsHeaderAndFooterLinks(t *testing.T) {
	html := `<html><body>
<footer>
  <a href="/files/terms.pdf">Terms</a>
</footer>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	assert.Empty(t, pdfs)
}

func TestPDFExtractor_CaptionFallsBackToFilename(t *testing.T) {
	html := `<html><body>
<a href="/files/widget-install-guide.pdf"><img src="/img/pdf-icon.png"></a>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/p/widget", html)

	require.Len(t, pdfs, 1)
	assert.Equal(t, "widget-install-guide", pdfs[0].Caption)
}

func TestPDFJSParser_ConfigFilteredByProductGID(t *testing.T) {
	html := `<html><body>
<input type="hidden" name="product-id" value="8881112223334">
<script>
window.TPAConfigs = {"product_attachments": [
  {"link": "https://cdn.example.com/docs/widget-manual.pdf", "apply_product": "gid://shopify/Product/8881112223334"},
  {"link": "https://cdn.example.com/docs/other-manual.pdf", "apply_product": "gid://shopify/Product/999"}
]};
</script>
</body></html>`

	e := NewPDFExtractor(testLogger())
	pdfs := e.Extract(mustParse(t, html), "https://example.com/products/widget", html)

	require.Len(t, pdfs, 1)
	assert.Equal(t, "https://cdn.example.com/docs/widget-manual.pdf", pdfs[0].URL)
	assert.Equal(t, "widget-manual", pdfs[0].Caption)
	assert.Equal(t, "js-config", pdfs[0].DetectionMethod)
}

func TestPDFJSParser_ConfigWithoutProductIDYieldsNothing(t *testing.T) {
	html := `<html><body>
<script>
window.TPAConfigs = {"product_attachments": [
  {"link": "https://cdn.example.com/docs/widget-manual.pdf", "apply_product": "gid://shopify/Product/123"}
]};
</script>
</body></html>`

	p := newPDFJSParser()
	// The GID inside the config itself serves as the last-resort product ID,
	// so this page still resolves.
	links := p.extract(html, "https://example.com/products/widget")
	require.Len(t, links, 1)

	// With no GID anywhere the config cannot be scoped and produces nothing.
	bare := `<script>window.TPAConfigs = {"product_attachments": [{"link": "/a.pdf", "apply_product": "none"}]};</script>`
	assert.Empty(t, p.extract(bare, "https://example.com/products/widget"))
}

func TestPDFJSParser_AttachmentSectionFallback(t *testing.T) {
	html := `<html><body>
<div class="tigren-product-attachments">
  <a href="/media/attachments/widget-guide.pdf">Guide</a>
  <a href="/media/attachments/widget-guide.pdf?v=2">Guide again</a>
</div>
</body></html>`

	p := newPDFJSParser()
	links := p.extract(html, "https://example.com/widget")

	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/media/attachments/widget-guide.pdf", links[0].URL)
	assert.Equal(t, "attachment-section", links[0].DetectionMethod)
}

func TestPDFExtractor_VisiblePDFFilenames(t *testing.T) {
	html := `<p>See widget-manual.pdf and widget-manual.pdf for details, plus setup_guide.pdf.</p>`

	e := NewPDFExtractor(testLogger())
	names := e.VisiblePDFFilenames(html)

	assert.Equal(t, []string{"widget-manual.pdf", "setup_guide.pdf"}, names)
}
