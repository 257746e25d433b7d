package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptionExtractor_PrefersDescriptionContainer(t *testing.T) {
	html := `<html><body>
<div class="product-details">ignored, broader match</div>
<div class="product-description"><p>A sturdy widget for daily use.</p></div>
</body></html>`

	e := NewDescriptionExtractor(testLogger())
	out := e.Extract(mustParse(t, html))

	assert.Contains(t, out, "A sturdy widget for daily use.")
	assert.NotContains(t, out, "broader match")
}

func TestDescriptionExtractor_SkipsTabChrome(t *testing.T) {
	html := `<html><body>
<div class="tab-title description">Description</div>
<div class="description-content description"><p>Real content.</p></div>
</body></html>`

	e := NewDescriptionExtractor(testLogger())
	out := e.Extract(mustParse(t, html))

	assert.Contains(t, out, "Real content.")
	assert.NotContains(t, out, "tab-title")
}

func TestDescriptionExtractor_BroaderFallback(t *testing.T) {
	html := `<html><body>
<div class="product-info"><p>Listed under product info only.</p></div>
</body></html>`

	e := NewDescriptionExtractor(testLogger())
	out := e.Extract(mustParse(t, html))

	assert.Contains(t, out, "Listed under product info only.")
}

func TestDescriptionExtractor_MetaFallback(t *testing.T) {
	html := `<html><head>
<meta name="description" content="Fallback summary text.">
</head><body><span>nothing structured</span></body></html>`

	e := NewDescriptionExtractor(testLogger())
	out := e.Extract(mustParse(t, html))

	assert.Equal(t, "<p>Fallback summary text.</p>", out)
}

func TestDescriptionExtractor_NothingFound(t *testing.T) {
	html := `<html><body><span>bare page</span></body></html>`

	e := NewDescriptionExtractor(testLogger())
	out := e.Extract(mustParse(t, html))

	assert.Empty(t, out)
}

func TestCleanHTML(t *testing.T) {
	e := NewDescriptionExtractor(testLogger())

	tests := []struct {
		name        string
		in          string
		wantGone    []string
		wantPresent []string
	}{
		{
			name:        "scripts and iframes stripped",
			in:          `<p>Keep me.</p><script>track();</script><iframe src="x"></iframe>`,
			wantGone:    []string{"<script", "track()", "<iframe"},
			wantPresent: []string{"Keep me."},
		},
		{
			name:        "review widget phrase removed",
			in:          `<p>Keep me.</p><div class="box">Be first to review this item today</div>`,
			wantGone:    []string{"Be first to review"},
			wantPresent: []string{"Keep me."},
		},
		{
			name:        "tab navigation removed",
			in:          `<ul class="nav-tabs"><li>Description</li><li>Reviews</li></ul><p>Body text.</p>`,
			wantGone:    []string{"nav-tabs"},
			wantPresent: []string{"Body text."},
		},
		{
			name:        "review section class removed",
			in:          `<p>Body.</p><div class="review-section">5 stars!</div>`,
			wantGone:    []string{"5 stars!"},
			wantPresent: []string{"Body."},
		},
		{
			name:        "tab heading text removed",
			in:          `<h2>DESCRIPTION</h2><p>The goods.</p>`,
			wantGone:    []string{"DESCRIPTION"},
			wantPresent: []string{"The goods."},
		},
		{
			name:        "pagination marker removed",
			in:          `<p>Photo captions (1/4) here.</p>`,
			wantGone:    []string{"(1/4)"},
			wantPresent: []string{"Photo captions"},
		},
		{
			name:        "container root with noisy class survives",
			in:          `<div class="product-info"><p>Body.</p><div class="alert">Ad box</div></div>`,
			wantGone:    []string{"Ad box"},
			wantPresent: []string{"product-info", "Body."},
		},
		{
			name:        "br runs collapsed",
			in:          `<p>One.</p><br><br><br><br><p>Two.</p>`,
			wantGone:    []string{"<br><br>"},
			wantPresent: []string{"One.", "Two.", "<br>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.CleanHTML(tt.in)
			for _, s := range tt.wantGone {
				assert.NotContains(t, out, s)
			}
			for _, s := range tt.wantPresent {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestExtractAdditionalInfo_SchemaSpans(t *testing.T) {
	descriptionHTML := `<ul>
<li><span>Caliber</span> <span itemprop="value">.308</span></li>
<li><span>Weight</span> <span itemprop="value">3.2 kg</span></li>
</ul>`

	e := NewDescriptionExtractor(testLogger())
	info := e.ExtractAdditionalInfo(descriptionHTML)

	caliber, ok := info.Get("Caliber")
	require.True(t, ok)
	assert.Equal(t, ".308", caliber)

	weight, ok := info.Get("Weight")
	require.True(t, ok)
	assert.Equal(t, "3.2 kg", weight)
}
