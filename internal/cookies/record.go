package cookies

import (
	"encoding/json"
	"strings"

	"github.com/cookieport/cookieport/internal/store"
)

// SameSite is the cookie SameSite attribute.
type SameSite string

const (
	SameSiteStrict      SameSite = "Strict"
	SameSiteLax         SameSite = "Lax"
	SameSiteNone        SameSite = "None"
	SameSiteUnspecified SameSite = "unspecified"
)

// ParseSameSite accepts the spellings used by browsers and cookie files,
// case-insensitively. "no_restriction" is None. Anything unrecognized is
// SameSiteUnspecified.
func ParseSameSite(s string) SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return SameSiteStrict
	case "lax":
		return SameSiteLax
	case "none", "no_restriction":
		return SameSiteNone
	default:
		return SameSiteUnspecified
	}
}

// UnmarshalJSON normalizes any known spelling. An empty string stays empty
// so that import defaulting can tell it apart from an explicit value.
func (s *SameSite) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	*s = ParseSameSite(raw)
	return nil
}

// Record is a cookie as exchanged with callers and written to export
// files. Identity is the (Name, Domain) pair.
type Record struct {
	Name     string   `json:"name"`
	Value    string   `json:"value"`
	Domain   string   `json:"domain"`
	Path     string   `json:"path"`
	Secure   bool     `json:"secure"`
	HTTPOnly bool     `json:"httpOnly"`
	SameSite SameSite `json:"sameSite"`
	// ExpirationDate is seconds since the Unix epoch; nil for session cookies.
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
	StoreID        string   `json:"storeId,omitempty"`
	HostOnly       bool     `json:"hostOnly"`
}

// FromStore projects a store cookie onto the record field set. Store
// extras such as session and priority are dropped.
func FromStore(c store.Cookie) Record {
	r := Record{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: ParseSameSite(c.SameSite),
		StoreID:  c.StoreID,
		HostOnly: c.HostOnly,
	}
	if r.Path == "" {
		r.Path = "/"
	}
	if c.ExpirationDate != nil {
		exp := *c.ExpirationDate
		r.ExpirationDate = &exp
	}
	return r
}

// ToStore is the inverse of FromStore.
func (r Record) ToStore() store.Cookie {
	c := store.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		Secure:   r.Secure,
		HTTPOnly: r.HTTPOnly,
		SameSite: string(r.SameSite),
		StoreID:  r.StoreID,
		HostOnly: r.HostOnly,
		Session:  r.ExpirationDate == nil,
	}
	if r.ExpirationDate != nil {
		exp := *r.ExpirationDate
		c.ExpirationDate = &exp
	}
	return c
}

type identity struct {
	name, domain string
}

func (r Record) identity() identity {
	return identity{r.Name, r.Domain}
}
