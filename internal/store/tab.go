package store

import (
	"context"
	"errors"
	"net/url"
)

// StaticTab is a TabLocator with a fixed URL. File-backed stores have no
// tabs, so the "active tab" is configured by the user.
type StaticTab struct {
	URL *url.URL
}

// NewStaticTab parses raw into a StaticTab. An empty raw yields a locator
// that reports no active tab.
func NewStaticTab(raw string) (StaticTab, error) {
	if raw == "" {
		return StaticTab{}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return StaticTab{}, err
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return StaticTab{}, errors.New("active tab url must include scheme and host")
	}
	return StaticTab{URL: u}, nil
}

// ActiveTab returns the configured URL, or nil when none was configured.
func (t StaticTab) ActiveTab(context.Context) (*url.URL, error) {
	if t.URL == nil {
		return nil, nil
	}
	u := *t.URL
	return &u, nil
}
