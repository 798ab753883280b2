package cdp

import (
	"strings"

	"github.com/cookieport/cookieport/internal/store"
)

// defaultStoreID is the id Chromium extensions see for the regular profile
// cookie store.
const defaultStoreID = "0"

// cookie is Network.Cookie as returned by Storage.getCookies.
type cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	Session  bool    `json:"session"`
	SameSite string  `json:"sameSite,omitempty"`
	Priority string  `json:"priority,omitempty"`
}

func (c cookie) toStore() store.Cookie {
	out := store.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		HostOnly: !strings.HasPrefix(c.Domain, "."),
		SameSite: extensionSameSite(c.SameSite),
		StoreID:  defaultStoreID,
		Session:  c.Session,
		Priority: c.Priority,
	}
	if !c.Session && c.Expires > 0 {
		exp := c.Expires
		out.ExpirationDate = &exp
	}
	return out
}

// cookieParam is Network.CookieParam as accepted by Storage.setCookies.
type cookieParam struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	URL      string  `json:"url,omitempty"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
}

// extensionSameSite maps the protocol spelling to the one the extension
// cookies API uses.
func extensionSameSite(v string) string {
	switch v {
	case "Strict":
		return "strict"
	case "Lax":
		return "lax"
	case "None":
		return "no_restriction"
	default:
		return "unspecified"
	}
}

func protocolSameSite(v string) string {
	switch strings.ToLower(v) {
	case "strict":
		return "Strict"
	case "lax":
		return "Lax"
	case "none", "no_restriction":
		return "None"
	default:
		return ""
	}
}
