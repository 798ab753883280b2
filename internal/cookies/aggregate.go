package cookies

import (
	"context"
	"fmt"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

// Fetcher aggregates cookies from a store.
type Fetcher struct {
	store store.Store
	log   logger.Logger
}

// NewFetcher returns a Fetcher reading from s.
func NewFetcher(s store.Store, l logger.Logger) *Fetcher {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Fetcher{store: s, log: l}
}

// Fetch returns cookies for the active tab's domain when scoped is true,
// or every cookie in the store otherwise.
//
// A scoped fetch queries the store once per domain variant and merges the
// results so that no two records share a name and domain. The returned
// slice is never nil.
func (f *Fetcher) Fetch(ctx context.Context, scoped bool) ([]Record, error) {
	if !scoped {
		cookies, err := f.store.GetAll(ctx, store.Filter{})
		if err != nil {
			return nil, fmt.Errorf("fetch cookies: %w", err)
		}
		out := make([]Record, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, FromStore(c))
		}
		f.log.Debug("fetched %d cookies from all domains", len(out))
		return out, nil
	}

	u, err := f.store.ActiveTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch cookies: %w", err)
	}
	if u == nil || u.Hostname() == "" {
		return nil, ErrNoActiveTab
	}

	var all []Record
	for _, domain := range DomainVariants(u.Hostname()) {
		cookies, err := f.store.GetAll(ctx, store.Filter{Domain: domain})
		if err != nil {
			return nil, fmt.Errorf("fetch cookies: %w", err)
		}
		for _, c := range cookies {
			all = append(all, FromStore(c))
		}
	}
	out := dedupe(all)
	f.log.Debug("fetched %d cookies for %s", len(out), u.Hostname())
	return out, nil
}

// dedupe keeps one record per identity. The last record seen wins but
// takes the position of the first.
func dedupe(records []Record) []Record {
	index := make(map[identity]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.identity()]; ok {
			out[i] = r
			continue
		}
		index[r.identity()] = len(out)
		out = append(out, r)
	}
	return out
}
