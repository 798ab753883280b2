package cookies

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

// ImportPayload is an export file being imported. Domain, when set, names
// the host the cookies were taken from.
type ImportPayload struct {
	Timestamp string    `json:"timestamp,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	Cookies   []Record  `json:"cookies"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// UnmarshalJSON rejects a cookies field that is present but not an array.
// An absent or null cookies field leaves Cookies nil.
func (p *ImportPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp string          `json:"timestamp"`
		Domain    string          `json:"domain"`
		Cookies   json.RawMessage `json:"cookies"`
		Metadata  *Metadata       `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ImportPayload{Timestamp: raw.Timestamp, Domain: raw.Domain, Metadata: raw.Metadata}

	trimmed := bytes.TrimSpace(raw.Cookies)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '[' {
		return ErrMalformedPayload
	}
	cookies := []Record{}
	if err := json.Unmarshal(trimmed, &cookies); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.Cookies = cookies
	return nil
}

// DecodeImportPayload parses an export file. Anything that is not a JSON
// object with a cookies array is reported as ErrMalformedPayload.
func DecodeImportPayload(data []byte) (*ImportPayload, error) {
	var p *ImportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p == nil || p.Cookies == nil {
		return nil, ErrMalformedPayload
	}
	return p, nil
}

// ImportResult describes a completed import.
type ImportResult struct {
	Imported int
	Failed   int
	Message  string
}

// ProgressFunc is called after each record is applied. err is the
// record's failure, if any.
type ProgressFunc func(done, total int, name string, err error)

// Importer applies import payloads to a store.
type Importer struct {
	store store.Store
	log   logger.Logger
}

// NewImporter returns an Importer writing to s.
func NewImporter(s store.Store, l logger.Logger) *Importer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Importer{store: s, log: l}
}

// Import applies every cookie in p to the store.
func (im *Importer) Import(ctx context.Context, p *ImportPayload) (*ImportResult, error) {
	return im.ImportWithProgress(ctx, p, nil)
}

// ImportWithProgress is Import with a progress callback.
//
// The payload is validated first: it must carry a cookies list, there must
// be an active tab, and a declared payload domain must equal the tab's
// hostname exactly. Each record is then set on its own; a failed record is
// logged and counted and does not stop the rest. Nothing is rolled back.
func (im *Importer) ImportWithProgress(ctx context.Context, p *ImportPayload, progress ProgressFunc) (*ImportResult, error) {
	if p == nil || p.Cookies == nil {
		return nil, fmt.Errorf("import: %w", ErrMalformedPayload)
	}
	u, err := im.store.ActiveTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if u == nil || u.Hostname() == "" {
		return nil, fmt.Errorf("import: %w", ErrNoActiveTab)
	}
	current := u.Hostname()
	if p.Domain != "" && p.Domain != current {
		return nil, fmt.Errorf("import: %w", &DomainMismatchError{Payload: p.Domain, Current: current})
	}

	res := &ImportResult{}
	total := len(p.Cookies)
	for i, r := range p.Cookies {
		err := im.store.Set(ctx, setDetails(r, current))
		if err != nil {
			im.log.Warning("failed to set cookie %q for %s: %v", r.Name, r.Domain, err)
			res.Failed++
		} else {
			res.Imported++
		}
		if progress != nil {
			progress(i+1, total, r.Name, err)
		}
	}
	if res.Imported == 0 {
		return nil, fmt.Errorf("import: %w", ErrImportFailed)
	}

	res.Message = "imported " + countCookies(res.Imported)
	if res.Failed > 0 {
		res.Message += fmt.Sprintf(", %d failed", res.Failed)
	}
	im.log.Info("imported %s into %s (%d failed)", countCookies(res.Imported), current, res.Failed)
	return res, nil
}

// setDetails turns a record into a set descriptor. Defaults are filled
// here: path "/", sameSite Lax. The URL scheme follows the secure flag and
// the host is the record's domain, or the current host when it has none.
// A zero expirationDate is treated as absent and yields a session cookie.
func setDetails(r Record, currentHost string) store.SetDetails {
	path := r.Path
	if path == "" {
		path = "/"
	}
	sameSite := r.SameSite
	if sameSite == "" {
		sameSite = SameSiteLax
	}
	host := r.Domain
	if host == "" {
		host = currentHost
	}
	scheme := "http"
	if r.Secure {
		scheme = "https"
	}
	d := store.SetDetails{
		URL:      (&url.URL{Scheme: scheme, Host: host, Path: path}).String(),
		Name:     r.Name,
		Value:    r.Value,
		Path:     path,
		Secure:   r.Secure,
		HTTPOnly: r.HTTPOnly,
		SameSite: string(sameSite),
	}
	if r.ExpirationDate != nil && *r.ExpirationDate != 0 {
		exp := *r.ExpirationDate
		d.ExpirationDate = &exp
	}
	return d
}
