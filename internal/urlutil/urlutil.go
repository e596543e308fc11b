package urlutil

import (
	"net/url"
	"strings"
)

// BuildAbsolute builds an absolute URL from a base origin and a path.
func BuildAbsolute(base, path string) string {
	base = normalizeBaseURL(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// Root returns the site root ("https://host/") for a base URL.
func Root(base string) string {
	return normalizeBaseURL(base) + "/"
}

// SameDocument reports whether two URLs address the same document, ignoring
// host case, a trailing slash, and the fragment.
func SameDocument(a, b string) bool {
	ua, errA := url.Parse(strings.TrimSpace(a))
	ub, errB := url.Parse(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) &&
		strings.EqualFold(ua.Host, ub.Host) &&
		normalizePath(ua.Path) == normalizePath(ub.Path) &&
		ua.RawQuery == ub.RawQuery
}

// PathOf returns the path component of rawURL, or "" when it does not parse.
func PathOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Path
}

// Host returns the host of rawURL, or "" when it does not parse.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Host
}

func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}
