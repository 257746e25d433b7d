package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSKUExtractor_TopGunWelding(t *testing.T) {
	html := `<html><body>
<div class="product-sku">SKU: <span class="product-sku__value">TGW-4501</span></div>
</body></html>`

	e := NewSKUExtractor(testLogger())
	sku := e.Extract(mustParse(t, html), "https://www.topgunwelding.com.au/products/helmet", html)

	assert.Equal(t, "TGW-4501", sku)
}

func TestSKUExtractor_TopGunWeldingRegexFallback(t *testing.T) {
	// The span only exists inside script text, so the DOM lookup misses it
	// and the raw-HTML pattern has to catch it.
	html := `<html><body><script>document.write('<span class="product-sku__value">TGW-9100</span>');</script></body></html>`

	e := NewSKUExtractor(testLogger())
	sku := e.Extract(mustParse(t, html), "https://topgunwelding.com.au/products/torch", html)

	assert.Equal(t, "TGW-9100", sku)
}

func TestSKUExtractor_EastWestModelColumn(t *testing.T) {
	html := `<html><body>
<table>
<tr><th>Model</th><th>Capacity</th><th>Weight</th></tr>
<tr><td>EW-250X</td><td>250kg</td><td>12kg</td></tr>
</table>
</body></html>`

	e := NewSKUExtractor(testLogger())
	sku := e.Extract(mustParse(t, html), "https://www.eastwesteng.com.au/products/hoist", html)

	assert.Equal(t, "EW-250X", sku)
}

func TestSKUExtractor_EastWestNoModelColumn(t *testing.T) {
	html := `<html><body>
<table>
<tr><th>Capacity</th><th>Weight</th></tr>
<tr><td>250kg</td><td>12kg</td></tr>
</table>
</body></html>`

	e := NewSKUExtractor(testLogger())
	sku := e.Extract(mustParse(t, html), "https://www.eastwesteng.com.au/products/hoist", html)

	assert.Empty(t, sku)
}

func TestSKUExtractor_GenericSelectors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "sku classed span",
			html: `<span class="product-sku">AB-100</span>`,
			want: "AB-100",
		},
		{
			name: "label prefix stripped",
			html: `<div class="sku-wrapper">SKU: CD-200</div>`,
			want: "CD-200",
		},
		{
			name: "schema itemprop",
			html: `<meta itemprop="sku" content="x"><span itemprop="sku">EF-300</span>`,
			want: "EF-300",
		},
	}

	e := NewSKUExtractor(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := `<html><body>` + tt.html + `</body></html>`
			sku := e.Extract(mustParse(t, page), "https://example.com/p/widget", page)
			assert.Equal(t, tt.want, sku)
		})
	}
}

func TestSKUExtractor_UnknownHostWithoutMarkup(t *testing.T) {
	html := `<html><body><p>No identifiers here.</p></body></html>`

	e := NewSKUExtractor(testLogger())
	sku := e.Extract(mustParse(t, html), "https://unknown-shop.example.com/widget", html)

	assert.Empty(t, sku)
}
