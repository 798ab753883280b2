package store

import (
	"context"
	"net/url"
	"sync"
)

// Memory is an in-memory Store. It records every query and set attempt so
// tests can assert on adapter traffic, and can be told to fail.
type Memory struct {
	mu      sync.Mutex
	tab     *url.URL
	cookies []Cookie

	queries []Filter
	sets    []SetDetails

	// GetErr, when set, is returned by every GetAll call.
	GetErr error
	// SetErr, when set, is consulted before each Set; a non-nil result
	// rejects that cookie.
	SetErr func(SetDetails) error
}

// NewMemory creates a Memory store whose active tab is tab (empty for none)
// and which initially holds cookies.
func NewMemory(tab string, cookies ...Cookie) *Memory {
	m := &Memory{cookies: append([]Cookie(nil), cookies...)}
	if tab != "" {
		u, err := url.Parse(tab)
		if err == nil {
			m.tab = u
		}
	}
	return m
}

// ActiveTab returns the tab URL given to NewMemory.
func (m *Memory) ActiveTab(context.Context) (*url.URL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tab == nil {
		return nil, nil
	}
	u := *m.tab
	return &u, nil
}

// GetAll returns the stored cookies matching f.
func (m *Memory) GetAll(ctx context.Context, f Filter) ([]Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, f)
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []Cookie
	for _, c := range m.cookies {
		if MatchesDomain(c.Domain, f.Domain) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Set upserts the cookie described by d.
func (m *Memory) Set(ctx context.Context, d SetDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, d)
	if m.SetErr != nil {
		if err := m.SetErr(d); err != nil {
			return err
		}
	}
	t, err := Resolve(d)
	if err != nil {
		return err
	}
	c := Cookie{
		Name:           d.Name,
		Value:          d.Value,
		Domain:         t.Domain,
		Path:           t.Path,
		Secure:         d.Secure,
		HTTPOnly:       d.HTTPOnly,
		HostOnly:       t.HostOnly,
		SameSite:       d.SameSite,
		ExpirationDate: d.ExpirationDate,
		Session:        d.ExpirationDate == nil,
	}
	for i, old := range m.cookies {
		if old.Name == c.Name && old.Domain == c.Domain && old.Path == c.Path {
			m.cookies[i] = c
			return nil
		}
	}
	m.cookies = append(m.cookies, c)
	return nil
}

// Cookies returns a copy of the stored cookies.
func (m *Memory) Cookies() []Cookie {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Cookie(nil), m.cookies...)
}

// Queries returns the filters of every GetAll call so far.
func (m *Memory) Queries() []Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Filter(nil), m.queries...)
}

// SetAttempts returns every descriptor passed to Set so far, including
// rejected ones.
func (m *Memory) SetAttempts() []SetDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SetDetails(nil), m.sets...)
}

var _ Store = (*Memory)(nil)
