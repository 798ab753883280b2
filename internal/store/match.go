package store

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// MatchesDomain reports whether a cookie stored under cookieDomain is
// selected by a domain filter: equal to it, or a subdomain of it. Leading
// dots and case are ignored on both sides.
func MatchesDomain(cookieDomain, filter string) bool {
	filter = NormalizeHost(filter)
	if filter == "" {
		return true
	}
	cookieDomain = NormalizeHost(cookieDomain)
	if cookieDomain == "" {
		return false
	}
	if cookieDomain == filter {
		return true
	}
	return strings.HasSuffix(cookieDomain, "."+filter)
}

// NormalizeHost lowercases host and strips surrounding space and a leading dot.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, ".")
	return strings.ToLower(host)
}

// Target is where a SetDetails descriptor lands in a store.
type Target struct {
	// Domain is the stored domain: ".example.com" for domain cookies,
	// "example.com" for host-only cookies.
	Domain   string
	HostOnly bool
	Path     string
}

// Resolve validates d and derives the stored domain and path.
func Resolve(d SetDetails) (Target, error) {
	if d.Name == "" {
		return Target{}, ErrEmptyName
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if u.Scheme == "" || NormalizeHost(host) == "" {
		return Target{}, ErrInvalidURL
	}
	if d.Secure && u.Scheme != "https" {
		return Target{}, ErrInsecureURL
	}

	t := Target{Path: d.Path}
	if t.Path == "" {
		t.Path = u.Path
	}
	if t.Path == "" || t.Path[0] != '/' {
		t.Path = "/"
	}

	if strings.HasPrefix(host, ".") {
		bare := NormalizeHost(host)
		suffix, _ := publicsuffix.PublicSuffix(bare)
		if suffix == bare {
			return Target{}, fmt.Errorf("%w: %s", ErrPublicSuffix, host)
		}
		t.Domain = "." + bare
		return t, nil
	}
	t.Domain = host
	t.HostOnly = true
	return t, nil
}
