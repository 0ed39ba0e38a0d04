package crawler

import (
	"net/url"
	"path"
	"strings"
)

// forbiddenExtensions lists file types the frontier never follows.
var forbiddenExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".rar",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".ico",
}

// IsValidURL reports whether the string is an absolute http(s) URL with a
// host. Malformed and non-HTTP links are rejected before enqueueing.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SameOrigin reports whether two URLs share a scheme and host.
func SameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && strings.EqualFold(ua.Host, ub.Host)
}

// HasForbiddenExtension reports whether the URL path ends in a binary or
// document format the extractor cannot handle.
func HasForbiddenExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return false
	}
	for _, forbidden := range forbiddenExtensions {
		if ext == forbidden {
			return true
		}
	}
	return false
}

// NormalizeURL canonicalizes a URL for visited-set membership: fragments
// are dropped, the www prefix is stripped, and a missing scheme defaults
// to https.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	parsed.Fragment = ""
	parsed.Host = strings.TrimPrefix(parsed.Host, "www.")
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	return parsed.String()
}
