package urlutil

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	stencilPattern  = regexp.MustCompile(`/stencil/[^/]+/`)
	relatedPatterns = []string{"/related/", "/similar/", "/recommended/"}
	widthParam      = regexp.MustCompile(`(?i)[?&]width=(\d+)`)
	pdfSuffix       = regexp.MustCompile(`(?i)\.pdf(\?.*)?$`)
	cdnShopFiles    = regexp.MustCompile(`/cdn/shop/(files|products)/`)
	shopifySizeTag  = regexp.MustCompile(`_\d+x\d*\.`)
)

// BlacklistedImageTerms returns substrings that mark an image URL as page
// chrome rather than product media: logos, icons, social widgets, cart and
// checkout art, rating sprites and similar noise.
func BlacklistedImageTerms() []string {
	return []string{
		"icon", "logo", "placeholder", "pixel", "spinner", "loading", "banner",
		"button", "thumbnail-default", "social", "facebook", "twitter", "instagram",
		"background", "pattern", "avatar", "profile", "cart", "checkout", "payment",
		"shipping", "footer", "header", "navigation", "menu", "search", "sprite", "guarantee",
		"badge", "star", "rating", "share", "wishlist", "compare", "like", "heart",
		"zoom", "magnify", "close", "play", "video-placeholder", "track.png",
		"/collections/", "collection-", "-collection",
		"/tY.png", "logo-", "-logo", "brand-", "-brand",
	}
}

// allowedCDNPatterns are cross-domain image hosts that are still trusted to
// serve first-party product media.
var allowedCDNPatterns = []string{
	"cdn.shopify.com",
	"shopifycdn.com",
	"bigcommerce",
	"cloudinary",
	"imgix",
	"fastly",
}

// MakeAbsolute resolves a possibly relative URL against base. URLs that
// already carry a scheme pass through unchanged. No network access.
func MakeAbsolute(rawURL, base string) string {
	if strings.HasPrefix(rawURL, "http") {
		return rawURL
	}

	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return rawURL
	}

	if strings.HasPrefix(rawURL, "//") {
		return parsed.Scheme + ":" + rawURL
	}

	root := parsed.Scheme + "://" + parsed.Host
	if strings.HasPrefix(rawURL, "/") {
		return root + rawURL
	}

	if parsed.Path != "" {
		dir := path.Dir(parsed.Path)
		if dir == "." || dir == "/" {
			return root + "/" + rawURL
		}
		return root + dir + "/" + rawURL
	}

	return root + "/" + rawURL
}

// ToHighRes rewrites platform thumbnail URLs to their large-size variant.
// BigCommerce stencil URLs embed the size as a path segment; anything else
// passes through unchanged.
func ToHighRes(u string) string {
	if strings.Contains(u, "/stencil/") {
		return stencilPattern.ReplaceAllString(u, "/stencil/1280x1280/")
	}
	return u
}

// IsValidProductImage reports whether a URL plausibly points at product
// media. The policy is default-deny: ambiguous candidates are rejected to
// avoid importing navigation chrome as gallery images.
func IsValidProductImage(u string, blacklist []string, sourceDomain string) bool {
	if u == "" {
		return false
	}
	if blacklist == nil {
		blacklist = BlacklistedImageTerms()
	}

	lower := strings.ToLower(u)
	for _, term := range blacklist {
		if strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}

	for _, p := range relatedPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}

	parsed, parseErr := url.Parse(u)

	// Very short filenames combined with a small explicit width are almost
	// always logos or icons.
	if parseErr == nil {
		filename := path.Base(parsed.Path)
		if len(filename) <= 6 {
			if m := widthParam.FindStringSubmatch(u); m != nil {
				if w, err := strconv.Atoi(m[1]); err == nil && w <= 400 {
					return false
				}
			}
		}
	}

	if sourceDomain != "" && parseErr == nil && parsed.Host != "" {
		imageDomain := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		sourceClean := strings.TrimPrefix(strings.ToLower(sourceDomain), "www.")

		if imageDomain != sourceClean {
			allowed := false
			for _, cdn := range allowedCDNPatterns {
				if strings.Contains(imageDomain, cdn) {
					allowed = true
					break
				}
			}
			if !allowed && !strings.Contains(lower, "/cdn/shop/") {
				return false
			}
		}
	}

	ext := ""
	if parseErr == nil {
		ext = strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), "."))
	}
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return true
	}

	// Shopify CDN paths are product media unless they live under the theme
	// assets folder.
	if strings.Contains(lower, "cdn.shopify.com") ||
		strings.Contains(lower, "shopifycdn.com") ||
		cdnShopFiles.MatchString(u) {
		return !strings.Contains(lower, "/assets/")
	}

	if strings.Contains(lower, "bigcommerce") && strings.Contains(lower, "/products/") {
		return true
	}

	if strings.Contains(u, "/images/") ||
		strings.Contains(u, "/img/") ||
		strings.Contains(u, "image") ||
		strings.Contains(u, "product") {
		return true
	}

	return false
}

// IsValidPDFURL reports whether u is a syntactically valid absolute URL
// pointing at a .pdf resource, optionally with a query string.
func IsValidPDFURL(u string) bool {
	if u == "" {
		return false
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	return pdfSuffix.MatchString(u)
}

// NormalizeForDedup reduces an image URL to a duplicate-suppression key:
// scheme, host and path, keeping only the v= version parameter for known
// CDN URLs. On Shopify CDNs the _NNNxNN filename size token is stripped so
// every rendition of one photo maps to the same key. Two URLs differing
// only in query noise map to the same key.
func NormalizeForDedup(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" || parsed.Path == "" {
		return u
	}

	lower := strings.ToLower(u)
	shopifyCDN := strings.Contains(lower, "cdn.shopify.com") ||
		strings.Contains(lower, "/cdn/shop/") ||
		strings.Contains(lower, "shopifycdn.com")

	p := parsed.Path
	if shopifyCDN {
		p = shopifySizeTag.ReplaceAllString(p, ".")
	}
	base := parsed.Scheme + "://" + parsed.Host + p

	if shopifyCDN && parsed.RawQuery != "" {
		if v := parsed.Query().Get("v"); v != "" {
			return base + "?v=" + v
		}
	}

	return base
}

// NormalizePDFURL reduces a PDF URL to its dedup key: lower-cased with any
// query string removed.
func NormalizePDFURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(u)
}

// FilenameFromURL returns the last path element of u without any query
// string, used for captions and duplicate-filename checks.
func FilenameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		return path.Base(u)
	}
	return path.Base(parsed.Path)
}

// Hostname extracts the host portion of a URL, empty if unparseable.
func Hostname(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
