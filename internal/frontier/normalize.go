// Package frontier turns seed URLs into stored Webpages and discovered
// Links: URL normalization, the per-Frontier queue and visited set, the
// crawl-time quality gate, and the main fetch/parse/persist loop.
package frontier

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// UrlNormalizationError reports that a raw string could not be normalized
// into a canonical URL.
type UrlNormalizationError struct {
	Raw string
	Err error
}

func (e *UrlNormalizationError) Error() string {
	return fmt.Sprintf("normalize url %q: %v", e.Raw, e.Err)
}

func (e *UrlNormalizationError) Unwrap() error { return e.Err }

// Normalize canonicalizes raw: parse, drop the default port, trim one
// trailing slash from the path, sort query parameters by key, drop the
// fragment, lowercase the result.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", &UrlNormalizationError{Raw: raw, Err: err}
	}
	if !u.IsAbs() {
		return "", &UrlNormalizationError{Raw: raw, Err: fmt.Errorf("not an absolute url")}
	}

	u.Host = dropDefaultPort(u.Scheme, u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = sortedQuery(u.RawQuery)
	u.Fragment = ""

	return strings.ToLower(u.String()), nil
}

func dropDefaultPort(scheme, host string) string {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return h
	}
	return host
}

func sortedQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(values))
	for _, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for _, v := range vs {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// Domain extracts the registrable host portion (host without port) from a
// normalized or raw absolute URL, for domain-policy checks.
func Domain(rawOrNormalized string) (string, error) {
	u, err := url.Parse(rawOrNormalized)
	if err != nil {
		return "", err
	}
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host), nil
}
