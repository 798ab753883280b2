// Package store defines the cookie store adapter contract consumed by the
// cookie aggregator and import applier, together with the helpers shared by
// its implementations (store/cdp, store/firefox, store/netscape).
//
// A store owns the durable cookie state. cookieport never caches cookies
// between calls; every GetAll and Set is a single round trip.
package store

import (
	"context"
	"errors"
	"net/url"
	"time"
)

var (
	// ErrEmptyName is returned by Set when the descriptor has no cookie name.
	ErrEmptyName = errors.New("cookie name is required")
	// ErrInvalidURL is returned by Set when the descriptor URL has no host.
	ErrInvalidURL = errors.New("cookie url must include scheme and host")
	// ErrPublicSuffix is returned by Set for domain cookies on a public suffix
	// such as ".com" or ".co.uk".
	ErrPublicSuffix = errors.New("cookie domain is a public suffix")
	// ErrInsecureURL is returned by Set for secure cookies with an http URL.
	ErrInsecureURL = errors.New("secure cookie requires an https url")
)

// Filter restricts GetAll. An empty Domain matches every cookie; otherwise
// cookies whose domain equals or is a subdomain of Domain are returned.
type Filter struct {
	Domain string
}

// Cookie is a cookie as reported by a store. It carries more than the
// exported record; the aggregator projects it down to the record fields.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	HostOnly bool
	// SameSite is the store's own spelling (e.g. "lax", "no_restriction").
	SameSite string
	// ExpirationDate is seconds since the Unix epoch; nil for session cookies.
	ExpirationDate *float64
	// StoreID identifies the cookie partition (profile, container, context).
	StoreID string

	Session      bool
	CreationTime time.Time
	Priority     string
}

// SetDetails describes a cookie to be written, mirroring the browser
// cookies.set descriptor. The cookie domain is derived from URL: a host with
// a leading dot produces a domain cookie, any other host a host-only cookie.
type SetDetails struct {
	URL      string
	Name     string
	Value    string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite string
	// ExpirationDate is seconds since the Unix epoch; nil writes a session cookie.
	ExpirationDate *float64
}

// TabLocator reports the URL of the active browser tab. A nil URL with a
// nil error means there is no active tab with a resolvable URL.
type TabLocator interface {
	ActiveTab(ctx context.Context) (*url.URL, error)
}

// Store is the cookie store adapter contract.
type Store interface {
	TabLocator
	// GetAll enumerates cookies matching the filter.
	GetAll(ctx context.Context, f Filter) ([]Cookie, error)
	// Set writes one cookie, replacing any cookie with the same name, domain
	// and path.
	Set(ctx context.Context, d SetDetails) error
}
