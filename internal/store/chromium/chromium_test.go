package chromium

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

type chromeRow struct {
	Name       string
	Value      string
	HostKey    string
	Path       string
	ExpiresUTC int64
	Secure     int
	HTTPOnly   int
	SameSite   int
	Persistent int
	Encrypted  []byte
}

func createChromeFixture(t *testing.T, rows []chromeRow) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "Cookies")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE cookies (
        creation_utc INTEGER NOT NULL,
        host_key TEXT NOT NULL,
        name TEXT NOT NULL,
        value TEXT NOT NULL,
        encrypted_value BLOB DEFAULT '',
        path TEXT NOT NULL,
        expires_utc INTEGER NOT NULL,
        is_secure INTEGER NOT NULL,
        is_httponly INTEGER NOT NULL,
        samesite INTEGER NOT NULL DEFAULT -1,
        is_persistent INTEGER NOT NULL DEFAULT 1,
        priority INTEGER NOT NULL DEFAULT 1
    )`)
	if err != nil {
		t.Fatalf("failed to create cookies table: %v", err)
	}
	for i, r := range rows {
		_, err := db.Exec(`INSERT INTO cookies
            (creation_utc, host_key, name, value, encrypted_value, path, expires_utc, is_secure, is_httponly, samesite, is_persistent)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fromUnix(1700000000)+int64(i), r.HostKey, r.Name, r.Value, r.Encrypted, r.Path, r.ExpiresUTC,
			r.Secure, r.HTTPOnly, r.SameSite, r.Persistent)
		if err != nil {
			t.Fatalf("failed to insert row: %v", err)
		}
	}
	return dbPath
}

func TestGetAll(t *testing.T) {
	future := fromUnix(time.Now().Add(24 * time.Hour).Unix())
	past := fromUnix(time.Now().Add(-time.Hour).Unix())
	dbPath := createChromeFixture(t, []chromeRow{
		{"sid", "abc", ".example.com", "/", future, 1, 1, 1, 1, nil},
		{"sess", "s", "app.example.com", "/", 0, 0, 0, -1, 0, nil},
		{"enc", "", ".example.com", "/", future, 0, 0, 0, 1, encryptV10(t, "peanuts", "secret-v10")},
		{"bad", "", ".example.com", "/", future, 0, 0, 0, 1, []byte("v10garbage")},
		{"old", "o", ".example.com", "/", past, 0, 0, 0, 1, nil},
		{"other", "x", "other.org", "/", future, 0, 0, 0, 1, nil},
	})
	stubKeyring(t, "", errors.New("no keyring"))
	l := logger.NewMockLogger()
	s := New(dbPath, "", nil, l)
	s.dec = newDecrypter(dbPath, "", "linux")

	cookies, err := s.GetAll(context.Background(), store.Filter{Domain: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cookies) != 3 {
		t.Fatalf("expected 3 cookies, got %d: %+v", len(cookies), cookies)
	}
	sid := cookies[0]
	if sid.Name != "sid" || !sid.Secure || !sid.HTTPOnly || sid.HostOnly || sid.SameSite != "lax" {
		t.Errorf("unexpected sid: %+v", sid)
	}
	if sid.ExpirationDate == nil || int64(*sid.ExpirationDate) != toUnix(future) {
		t.Errorf("unexpected expiry %v", sid.ExpirationDate)
	}
	sess := cookies[1]
	if !sess.Session || sess.ExpirationDate != nil || !sess.HostOnly || sess.SameSite != "unspecified" {
		t.Errorf("unexpected sess: %+v", sess)
	}
	if enc := cookies[2]; enc.Name != "enc" || enc.Value != "secret-v10" {
		t.Errorf("unexpected decrypted cookie: %+v", enc)
	}
	if len(l.WarningCalls) != 1 {
		t.Errorf("expected one warning for the undecryptable cookie, got %v", l.WarningCalls)
	}
	for _, line := range l.Lines() {
		if strings.Contains(line, "secret-v10") {
			t.Errorf("cookie value logged: %s", line)
		}
	}
}

func TestSet_ReadOnly(t *testing.T) {
	s := New(createChromeFixture(t, nil), "", nil, nil)
	err := s.Set(context.Background(), store.SetDetails{URL: "https://example.com/", Name: "a"})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestTimestampConversion(t *testing.T) {
	if got := toUnix(fromUnix(1700000000)); got != 1700000000 {
		t.Errorf("round trip gave %d", got)
	}
	if got := toUnix(13_344_473_600_000_000); got != 1_700_000_000 {
		t.Errorf("toUnix = %d", got)
	}
}
