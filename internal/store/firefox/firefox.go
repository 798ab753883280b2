// Package firefox implements a cookie store over a Firefox profile's
// cookies.sqlite database.
//
// Reads go through a snapshot copy so they never contend with a running
// browser. Writes go to the live database and are visible to Firefox the
// next time it starts; a running Firefox keeps its in-memory jar.
package firefox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

// Store is a cookie store backed by a moz_cookies table.
type Store struct {
	store.TabLocator

	path string
	log  logger.Logger
	now  func() time.Time
}

// New returns a Store over the cookies.sqlite file at path.
func New(path string, tab store.TabLocator, l logger.Logger) *Store {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if tab == nil {
		tab = store.StaticTab{}
	}
	return &Store{TabLocator: tab, path: path, log: l, now: time.Now}
}

// Path returns the cookie database this store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// GetAll returns the unexpired cookies matching f from a snapshot of the
// database.
func (s *Store) GetAll(ctx context.Context, f store.Filter) ([]store.Cookie, error) {
	snap, cleanup, err := store.Snapshot(s.path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?immutable=1", snap))
	if err != nil {
		return nil, fmt.Errorf("cannot open firefox cookie database: %w", err)
	}
	defer db.Close()

	where, args := hostWhereClause(f.Domain)
	args = append(args, s.now().Unix())
	rows, err := db.QueryContext(ctx, `
        SELECT name, value, host, path, expiry, isSecure, isHttpOnly, sameSite,
               creationTime, originAttributes
        FROM moz_cookies
        WHERE (`+where+`) AND (expiry <= 0 OR expiry > ?)
        ORDER BY id ASC
    `, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query firefox cookies: %w", err)
	}
	defer rows.Close()

	var cookies []store.Cookie
	for rows.Next() {
		var (
			name, value, host, path string
			originAttributes        string
			expiry, creation        int64
			secure, httpOnly        sql.NullInt64
			sameSite                sql.NullInt64
		)
		if err := rows.Scan(&name, &value, &host, &path, &expiry, &secure, &httpOnly,
			&sameSite, &creation, &originAttributes); err != nil {
			return nil, fmt.Errorf("failed to scan firefox cookie row: %w", err)
		}
		// LIKE is case-insensitive and treats _ as a wildcard
		if !store.MatchesDomain(host, f.Domain) {
			continue
		}
		if path == "" {
			path = "/"
		}
		c := store.Cookie{
			Name:         name,
			Value:        value,
			Domain:       host,
			Path:         path,
			Secure:       secure.Valid && secure.Int64 == 1,
			HTTPOnly:     httpOnly.Valid && httpOnly.Int64 == 1,
			HostOnly:     !strings.HasPrefix(host, "."),
			SameSite:     sameSiteName(sameSite.Int64),
			StoreID:      storeID(originAttributes),
			Session:      expiry <= 0,
			CreationTime: time.UnixMicro(creation).UTC(),
		}
		if expiry > 0 {
			exp := float64(expiry)
			c.ExpirationDate = &exp
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate firefox cookie rows: %w", err)
	}
	return cookies, nil
}

// Set upserts the cookie described by d into the live database. An
// existing row with the same name, host and path in the default container
// is replaced.
func (s *Store) Set(ctx context.Context, d store.SetDetails) error {
	t, err := store.Resolve(d)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", s.path))
	if err != nil {
		return fmt.Errorf("cannot open firefox cookie database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM moz_cookies WHERE name = ? AND host = ? AND path = ? AND originAttributes = ''`,
		d.Name, t.Domain, t.Path); err != nil {
		return fmt.Errorf("failed to replace firefox cookie: %w", err)
	}

	var expiry int64
	if d.ExpirationDate != nil {
		expiry = int64(*d.ExpirationDate)
	}
	now := s.now().UnixMicro()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO moz_cookies
            (originAttributes, name, value, host, path, expiry, lastAccessed,
             creationTime, isSecure, isHttpOnly, sameSite)
        VALUES ('', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, d.Value, t.Domain, t.Path, expiry, now, now,
		boolInt(d.Secure), boolInt(d.HTTPOnly), sameSiteValue(d.SameSite)); err != nil {
		return fmt.Errorf("failed to insert firefox cookie: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit firefox cookie: %w", err)
	}
	s.log.Debug("firefox: set cookie %q for %s%s", d.Name, t.Domain, t.Path)
	return nil
}

// hostWhereClause narrows the query to hosts that may match domain. The
// result is refined with store.MatchesDomain.
func hostWhereClause(domain string) (string, []any) {
	domain = store.NormalizeHost(domain)
	if domain == "" {
		return "1=1", nil
	}
	return "host = ? OR host = ? OR host LIKE ?", []any{domain, "." + domain, "%." + domain}
}

func sameSiteName(v int64) string {
	switch v {
	case 1:
		return "lax"
	case 2:
		return "strict"
	default:
		return "no_restriction"
	}
}

func sameSiteValue(s string) int {
	switch strings.ToLower(s) {
	case "lax":
		return 1
	case "strict":
		return 2
	default:
		return 0
	}
}

// storeID maps originAttributes to the WebExtension cookie store id:
// "firefox-default" for the default jar, "firefox-container-N" for
// containers.
func storeID(originAttributes string) string {
	const key = "userContextId="
	for _, attr := range strings.Split(strings.TrimPrefix(originAttributes, "^"), "&") {
		if id, ok := strings.CutPrefix(attr, key); ok && id != "" && id != "0" {
			return "firefox-container-" + id
		}
	}
	return "firefox-default"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ store.Store = (*Store)(nil)
