// Package cdp implements a cookie store that talks to a running Chromium
// browser over the Chrome DevTools Protocol. The browser must be started
// with --remote-debugging-port.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

// readLimit bounds a single protocol message. A full cookie jar dump can be
// several megabytes.
const readLimit = 64 << 20

// Store is a cookie store backed by a live browser.
type Store struct {
	endpoint string
	client   *http.Client
	log      logger.Logger

	nextID atomic.Int64
}

// New returns a Store for the DevTools HTTP endpoint, e.g.
// "http://127.0.0.1:9222".
func New(endpoint string, client *http.Client, l logger.Logger) *Store {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Store{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		log:      l,
	}
}

// target is an entry of /json/list.
type target struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type versionInfo struct {
	Browser              string `json:"Browser"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ActiveTab returns the URL of the first page target, which Chromium lists
// in most-recently-focused order. Pages without an http(s) URL, such as
// the new tab page, are reported as no active tab.
func (s *Store) ActiveTab(ctx context.Context) (*url.URL, error) {
	var targets []target
	if err := s.getJSON(ctx, "/json/list", &targets); err != nil {
		return nil, err
	}
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		u, err := url.Parse(t.URL)
		if err != nil || u.Hostname() == "" {
			return nil, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, nil
		}
		return u, nil
	}
	return nil, nil
}

// Version reports the browser product string.
func (s *Store) Version(ctx context.Context) (string, error) {
	var v versionInfo
	if err := s.getJSON(ctx, "/json/version", &v); err != nil {
		return "", err
	}
	return v.Browser, nil
}

// GetAll returns the browser's cookies matching f.
func (s *Store) GetAll(ctx context.Context, f store.Filter) ([]store.Cookie, error) {
	var res struct {
		Cookies []cookie `json:"cookies"`
	}
	if err := s.call(ctx, "Storage.getCookies", struct{}{}, &res); err != nil {
		return nil, err
	}
	var out []store.Cookie
	for _, c := range res.Cookies {
		if !store.MatchesDomain(c.Domain, f.Domain) {
			continue
		}
		out = append(out, c.toStore())
	}
	s.log.Debug("cdp: %d of %d cookies matched %q", len(out), len(res.Cookies), f.Domain)
	return out, nil
}

// Set writes one cookie. Host-only cookies are set by URL; domain cookies
// by their dotted domain.
func (s *Store) Set(ctx context.Context, d store.SetDetails) error {
	t, err := store.Resolve(d)
	if err != nil {
		return err
	}
	p := cookieParam{
		Name:     d.Name,
		Value:    d.Value,
		Path:     t.Path,
		Secure:   d.Secure,
		HTTPOnly: d.HTTPOnly,
		SameSite: protocolSameSite(d.SameSite),
	}
	if t.HostOnly {
		u, _ := url.Parse(d.URL)
		p.URL = u.Scheme + "://" + u.Host + t.Path
	} else {
		p.Domain = t.Domain
	}
	if d.ExpirationDate != nil {
		p.Expires = *d.ExpirationDate
	}
	params := struct {
		Cookies []cookieParam `json:"cookies"`
	}{Cookies: []cookieParam{p}}
	return s.call(ctx, "Storage.setCookies", params, nil)
}

func (s *Store) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach browser at %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("browser returned %s for %s", resp.Status, path)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, readLimit))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid response from %s: %w", path, err)
	}
	return nil
}

type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// call opens a browser-level session, issues one command and waits for its
// reply. Events that arrive in between are ignored.
func (s *Store) call(ctx context.Context, method string, params, result any) error {
	var v versionInfo
	if err := s.getJSON(ctx, "/json/version", &v); err != nil {
		return err
	}
	if v.WebSocketDebuggerURL == "" {
		return errors.New("browser did not report a websocket debugger url")
	}

	conn, _, err := websocket.Dial(ctx, v.WebSocketDebuggerURL, nil)
	if err != nil {
		return fmt.Errorf("cannot open devtools session: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(readLimit)

	id := s.nextID.Add(1)
	data, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			return fmt.Errorf("%s: invalid reply: %w", method, err)
		}
		if resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: invalid result: %w", method, err)
		}
		return nil
	}
}

var _ store.Store = (*Store)(nil)
