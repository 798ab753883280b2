// Package chromium implements a read-only cookie store over a Chromium
// profile's Cookies database. Encrypted values are decrypted on Linux and
// macOS with the browser's Safe Storage password; cookies that cannot be
// decrypted are skipped. Use the cdp store to read or write a running
// browser's full jar.
package chromium

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

// ErrReadOnly is returned by Set.
var ErrReadOnly = errors.New("chromium cookie database is read-only")

// epochOffsetSeconds is the number of seconds between the Windows NT epoch
// (1601-01-01 00:00:00 UTC) and the Unix epoch.
const epochOffsetSeconds int64 = 11_644_473_600

// toUnix converts a Chromium timestamp (microseconds since 1601-01-01) to
// Unix seconds.
func toUnix(usec int64) int64 {
	return (usec / 1_000_000) - epochOffsetSeconds
}

func fromUnix(sec int64) int64 {
	return (sec + epochOffsetSeconds) * 1_000_000
}

// Store reads cookies from a copy of a Chromium Cookies database.
type Store struct {
	store.TabLocator

	path string
	dec  *decrypter
	log  logger.Logger
	now  func() time.Time
}

// New returns a Store over the Cookies file at path. password is the
// browser's Safe Storage password; when empty it is read from the OS
// keyring the first time an encrypted value is seen.
func New(path, password string, tab store.TabLocator, l logger.Logger) *Store {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if tab == nil {
		tab = store.StaticTab{}
	}
	return &Store{
		TabLocator: tab,
		path:       path,
		dec:        newDecrypter(path, password, defaultGOOS),
		log:        l,
		now:        time.Now,
	}
}

// GetAll returns the unexpired cookies matching f.
func (s *Store) GetAll(ctx context.Context, f store.Filter) ([]store.Cookie, error) {
	snap, cleanup, err := store.Snapshot(s.path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?immutable=1", snap))
	if err != nil {
		return nil, fmt.Errorf("cannot open chromium cookie database: %w", err)
	}
	defer db.Close()

	var metaVersion int64
	// older databases and test fixtures have no meta table
	_ = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&metaVersion)

	rows, err := db.QueryContext(ctx, `
        SELECT name, value, encrypted_value, host_key, path, expires_utc, is_secure, is_httponly,
               samesite, is_persistent, creation_utc, priority
        FROM cookies
        WHERE is_persistent = 0 OR expires_utc > ?
        ORDER BY creation_utc ASC
    `, fromUnix(s.now().Unix()))
	if err != nil {
		return nil, fmt.Errorf("failed to query chromium cookies: %w", err)
	}
	defer rows.Close()

	var (
		cookies []store.Cookie
		skipped int
		lastErr error
	)
	for rows.Next() {
		var (
			name, value, host, path      string
			encValue                     []byte
			expires, creation            int64
			secure, httpOnly, persistent int
			sameSite, priority           int
		)
		if err := rows.Scan(&name, &value, &encValue, &host, &path, &expires, &secure, &httpOnly,
			&sameSite, &persistent, &creation, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan chromium cookie row: %w", err)
		}
		if !store.MatchesDomain(host, f.Domain) {
			continue
		}
		if value == "" && len(encValue) > 0 {
			v, err := s.dec.Decrypt(encValue, metaVersion)
			if err != nil {
				skipped++
				lastErr = err
				continue
			}
			value = v
		}
		c := store.Cookie{
			Name:         name,
			Value:        value,
			Domain:       host,
			Path:         path,
			Secure:       secure != 0,
			HTTPOnly:     httpOnly != 0,
			HostOnly:     !strings.HasPrefix(host, "."),
			SameSite:     sameSiteName(sameSite),
			StoreID:      "0",
			Session:      persistent == 0,
			CreationTime: time.Unix(toUnix(creation), 0).UTC(),
			Priority:     priorityName(priority),
		}
		if persistent != 0 {
			exp := float64(toUnix(expires))
			c.ExpirationDate = &exp
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chromium cookie rows: %w", err)
	}
	if skipped > 0 {
		s.log.Warning("chromium: skipped %d encrypted cookies: %v", skipped, lastErr)
	}
	return cookies, nil
}

// Set always fails; Chromium rewrites its database from memory on exit.
func (s *Store) Set(context.Context, store.SetDetails) error {
	return ErrReadOnly
}

func sameSiteName(v int) string {
	switch v {
	case 0:
		return "no_restriction"
	case 1:
		return "lax"
	case 2:
		return "strict"
	default:
		return "unspecified"
	}
}

func priorityName(v int) string {
	switch v {
	case 0:
		return "Low"
	case 2:
		return "High"
	default:
		return "Medium"
	}
}

var _ store.Store = (*Store)(nil)
