package safeurl

import (
	"fmt"
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https and a host.
// Used to reject file://, ftp://, javascript: and other schemes before fetching.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return false
	}
	s := strings.ToLower(parsed.Scheme)
	return (s == "http" || s == "https") && parsed.Host != ""
}

// Resolve joins ref (e.g. "/categories.json") onto an http(s) base URL.
func Resolve(base, ref string) (string, error) {
	if !IsHTTPOrHTTPS(base) {
		return "", fmt.Errorf("safeurl: base %q is not an http(s) URL", base)
	}
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("safeurl: ref %q: %w", ref, err)
	}
	out := b.ResolveReference(r)
	if !IsHTTPOrHTTPS(out.String()) {
		return "", fmt.Errorf("safeurl: %q escapes http(s)", ref)
	}
	return out.String(), nil
}
