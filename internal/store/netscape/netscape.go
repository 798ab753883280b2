// Package netscape implements a cookie store backed by a Netscape-format
// cookie text file, the format read and written by curl, wget and yt-dlp.
package netscape

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

const (
	header         = "# Netscape HTTP Cookie File"
	httpOnlyPrefix = "#HttpOnly_"
)

// Store reads and writes cookies in a single Netscape cookie file.
// Concurrent Set calls on one Store are serialized; the file is replaced
// atomically on every write.
type Store struct {
	store.TabLocator

	fs   afero.Fs
	path string
	log  logger.Logger
	now  func() time.Time

	mu sync.Mutex
}

// New returns a Store for the cookie file at path on fs. A missing file is
// treated as an empty jar and created on the first Set.
func New(fs afero.Fs, path string, tab store.TabLocator, l logger.Logger) *Store {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if tab == nil {
		tab = store.StaticTab{}
	}
	return &Store{
		TabLocator: tab,
		fs:         fs,
		path:       path,
		log:        l,
		now:        time.Now,
	}
}

// GetAll returns the unexpired cookies in the file matching f.
func (s *Store) GetAll(ctx context.Context, f store.Filter) ([]store.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []store.Cookie
	for _, c := range all {
		if expired(c, now) {
			continue
		}
		if !store.MatchesDomain(c.Domain, f.Domain) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Set upserts the cookie described by d and rewrites the file.
func (s *Store) Set(ctx context.Context, d store.SetDetails) error {
	t, err := store.Resolve(d)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	c := store.Cookie{
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
	replaced := false
	for i, old := range all {
		if old.Name == c.Name && old.Domain == c.Domain && old.Path == c.Path {
			all[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, c)
	}
	return s.save(all)
}

func (s *Store) load() ([]store.Cookie, error) {
	f, err := s.fs.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open cookie file: %w", err)
	}
	defer f.Close()
	return s.parse(f)
}

// parse reads Netscape lines from r. Lines starting with # are comments,
// except #HttpOnly_ which marks the cookie HttpOnly. Malformed lines are
// skipped with a warning.
func (s *Store) parse(r io.Reader) ([]store.Cookie, error) {
	var cookies []store.Cookie
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = line[len(httpOnlyPrefix):]
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			s.log.Warning("netscape: skipping malformed line %d in %s", lineNo, s.path)
			continue
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			s.log.Warning("netscape: skipping line %d with invalid expiry %q", lineNo, fields[4])
			continue
		}

		c := store.Cookie{
			Domain:   fields[0],
			HostOnly: !strings.EqualFold(fields[1], "TRUE"),
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HTTPOnly: httpOnly,
			Session:  expiry <= 0,
		}
		if expiry > 0 {
			exp := float64(expiry)
			c.ExpirationDate = &exp
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	return cookies, nil
}

// Write encodes cookies as a Netscape cookie file, header included.
func Write(w io.Writer, cookies []store.Cookie) error {
	var buf bytes.Buffer
	buf.WriteString(header + "\n\n")
	for _, c := range cookies {
		writeLine(&buf, c)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (s *Store) save(cookies []store.Cookie) error {
	var buf bytes.Buffer
	Write(&buf, cookies)

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("cannot create cookie directory: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, dir, ".cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("cannot write cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("cannot write cookie file: %w", err)
	}
	if err := s.fs.Chmod(tmpName, 0600); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("cannot set cookie file permissions: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("cannot replace cookie file: %w", err)
	}
	return nil
}

func writeLine(w io.Writer, c store.Cookie) {
	prefix := ""
	if c.HTTPOnly {
		prefix = httpOnlyPrefix
	}
	var expiry int64
	if c.ExpirationDate != nil {
		expiry = int64(*c.ExpirationDate)
	}
	fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
		prefix, c.Domain, boolField(!c.HostOnly), c.Path, boolField(c.Secure),
		expiry, c.Name, c.Value)
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func expired(c store.Cookie, now time.Time) bool {
	if c.ExpirationDate == nil {
		return false
	}
	return time.Unix(int64(*c.ExpirationDate), 0).Before(now)
}

var _ store.Store = (*Store)(nil)
