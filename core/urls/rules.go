// Package urls resolves link annotations against a document's reference URL
// and site root, and normalizes URLs for batch list deduplication.
package urls

import (
	"net/url"
	"path"
	"strings"
)

// staticExtensions are file extensions that never hold an HTML document.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
}

// IsStaticAsset checks if a URL points to a static asset (image, CSS, JS, etc.).
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	return staticExtensions[ext]
}

// IsAbsolute reports whether rawURL carries a scheme and host.
func IsAbsolute(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// NormalizeURL strips fragments and trailing slashes for deduplication.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Remove fragment.
	parsed.Fragment = ""

	// Remove trailing slash (but keep root "/").
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String()
}

// SiteRoot returns the scheme and authority of rawURL, e.g.
// "https://x.io/docs/a" -> "https://x.io". It returns "" for relative input.
func SiteRoot(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// WithoutFragment returns rawURL with any "#..." suffix removed.
func WithoutFragment(rawURL string) string {
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		return rawURL[:idx]
	}
	return rawURL
}

// Resolve turns a raw href into an absolute URL.
//   - "#frag"  -> reference URL (fragment replaced) + "#frag"
//   - "/path"  -> site root + "/path" (site root derived from reference when empty)
//   - "scheme:..." is returned unchanged
//   - any other relative reference is resolved against the reference URL
func Resolve(href, reference, siteRoot string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "#"):
		return WithoutFragment(reference) + href
	case strings.HasPrefix(href, "//"):
		if parsed, err := url.Parse(reference); err == nil && parsed.Scheme != "" {
			return parsed.Scheme + ":" + href
		}
		return href
	case strings.HasPrefix(href, "/"):
		if siteRoot == "" {
			siteRoot = SiteRoot(reference)
		}
		if siteRoot == "" {
			return href
		}
		return strings.TrimRight(siteRoot, "/") + href
	}

	parsed, err := url.Parse(href)
	if err != nil || parsed.Scheme != "" {
		return href
	}
	base, err := url.Parse(reference)
	if err != nil || base.Scheme == "" {
		return href
	}
	return base.ResolveReference(parsed).String()
}

// CategoryFromURL derives a category from the last path segment of rawURL,
// e.g. ("Kubernetes", ".../services-networking/ingress/") -> "Kubernetes_ingress".
func CategoryFromURL(prefix, rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
		trimmed = strings.TrimRight(parsed.Path, "/")
	}
	last := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx != -1 {
		last = trimmed[idx+1:]
	}
	switch {
	case prefix == "":
		return last
	case last == "":
		return prefix
	default:
		return prefix + "_" + last
	}
}
