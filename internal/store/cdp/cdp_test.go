package cdp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"

	"github.com/cookieport/cookieport/internal/store"
)

// fakeBrowser serves the DevTools HTTP endpoints and a browser websocket
// that understands Storage.getCookies and Storage.setCookies.
type fakeBrowser struct {
	srv *httptest.Server

	mu      sync.Mutex
	targets []target
	cookies []cookie
	set     []cookieParam
	failSet string
}

func newFakeBrowser(t *testing.T) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{}
	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", func(w http.ResponseWriter, r *http.Request) {
		wsURL := "ws" + strings.TrimPrefix(fb.srv.URL, "http") + "/devtools/browser/test"
		json.NewEncoder(w).Encode(versionInfo{Browser: "Chrome/130.0", WebSocketDebuggerURL: wsURL})
	})
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		json.NewEncoder(w).Encode(fb.targets)
	})
	mux.HandleFunc("/devtools/browser/test", fb.serveWS)
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBrowser) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req struct {
			ID     int64           `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		// an unrelated event first, which the client must skip
		conn.Write(ctx, websocket.MessageText, []byte(`{"method":"Target.targetCreated","params":{}}`))

		var reply any
		switch req.Method {
		case "Storage.getCookies":
			fb.mu.Lock()
			reply = map[string]any{"id": req.ID, "result": map[string]any{"cookies": fb.cookies}}
			fb.mu.Unlock()
		case "Storage.setCookies":
			var p struct {
				Cookies []cookieParam `json:"cookies"`
			}
			json.Unmarshal(req.Params, &p)
			fb.mu.Lock()
			fb.set = append(fb.set, p.Cookies...)
			fail := fb.failSet
			fb.mu.Unlock()
			if fail != "" {
				reply = map[string]any{"id": req.ID, "error": map[string]any{"code": -32000, "message": fail}}
			} else {
				reply = map[string]any{"id": req.ID, "result": map[string]any{}}
			}
		default:
			reply = map[string]any{"id": req.ID, "error": map[string]any{"code": -32601, "message": "not found"}}
		}
		out, _ := json.Marshal(reply)
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return
		}
	}
}

func (fb *fakeBrowser) setTargets(targets ...target) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.targets = targets
}

func TestActiveTab(t *testing.T) {
	fb := newFakeBrowser(t)
	s := New(fb.srv.URL, nil, nil)
	ctx := context.Background()

	fb.setTargets(
		target{ID: "1", Type: "service_worker", URL: "https://sw.example.com/"},
		target{ID: "2", Type: "page", URL: "https://app.example.com/inbox"},
		target{ID: "3", Type: "page", URL: "https://other.org/"},
	)
	u, err := s.ActiveTab(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if u == nil || u.Hostname() != "app.example.com" {
		t.Fatalf("unexpected active tab %v", u)
	}

	fb.setTargets(target{ID: "1", Type: "page", URL: "chrome://newtab/"})
	if u, err := s.ActiveTab(ctx); err != nil || u != nil {
		t.Fatalf("expected no active tab, got %v, %v", u, err)
	}

	fb.setTargets()
	if u, err := s.ActiveTab(ctx); err != nil || u != nil {
		t.Fatalf("expected no active tab, got %v, %v", u, err)
	}
}

func TestGetAll(t *testing.T) {
	fb := newFakeBrowser(t)
	fb.cookies = []cookie{
		{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Expires: 4102444800, Secure: true, HTTPOnly: true, SameSite: "Lax", Priority: "Medium"},
		{Name: "lang", Value: "en", Domain: "app.example.com", Path: "/", Expires: -1, Session: true},
		{Name: "other", Value: "x", Domain: "other.org", Path: "/", Session: true},
	}
	s := New(fb.srv.URL, nil, nil)

	got, err := s.GetAll(context.Background(), store.Filter{Domain: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(got))
	}
	sid := got[0]
	if sid.HostOnly || sid.SameSite != "lax" || sid.ExpirationDate == nil || sid.StoreID != "0" {
		t.Errorf("unexpected sid: %+v", sid)
	}
	lang := got[1]
	if !lang.HostOnly || lang.SameSite != "unspecified" || lang.ExpirationDate != nil || !lang.Session {
		t.Errorf("unexpected lang: %+v", lang)
	}
}

func TestSet(t *testing.T) {
	fb := newFakeBrowser(t)
	s := New(fb.srv.URL, nil, nil)
	ctx := context.Background()
	exp := 4102444800.0

	if err := s.Set(ctx, store.SetDetails{URL: "https://example.com/app", Name: "a", Value: "1", Secure: true, SameSite: "no_restriction"}); err != nil {
		t.Fatalf("host-only set: %v", err)
	}
	if err := s.Set(ctx, store.SetDetails{URL: "http://.example.com/", Name: "b", Value: "2", SameSite: "Lax", ExpirationDate: &exp}); err != nil {
		t.Fatalf("domain set: %v", err)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.set) != 2 {
		t.Fatalf("expected 2 setCookies calls, got %d", len(fb.set))
	}
	a := fb.set[0]
	if a.URL != "https://example.com/app" || a.Domain != "" || a.Path != "/app" || a.SameSite != "None" {
		t.Errorf("unexpected host-only param %+v", a)
	}
	b := fb.set[1]
	if b.URL != "" || b.Domain != ".example.com" || b.SameSite != "Lax" || b.Expires != exp {
		t.Errorf("unexpected domain param %+v", b)
	}
}

func TestSet_ProtocolError(t *testing.T) {
	fb := newFakeBrowser(t)
	fb.failSet = "Invalid cookie fields"
	s := New(fb.srv.URL, nil, nil)

	err := s.Set(context.Background(), store.SetDetails{URL: "https://example.com/", Name: "a"})
	if err == nil || !strings.Contains(err.Error(), "Invalid cookie fields") {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestSet_InvalidDescriptorNeverReachesBrowser(t *testing.T) {
	fb := newFakeBrowser(t)
	s := New(fb.srv.URL, nil, nil)
	if err := s.Set(context.Background(), store.SetDetails{URL: "https://.co.uk/", Name: "a"}); err == nil {
		t.Fatal("expected public suffix error")
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.set) != 0 {
		t.Fatalf("expected no browser traffic, got %d", len(fb.set))
	}
}

func TestUnreachableBrowser(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	s := New(srv.URL, nil, nil)
	if _, err := s.GetAll(context.Background(), store.Filter{}); err == nil {
		t.Fatal("expected error for unreachable browser")
	}
}

func TestVersion(t *testing.T) {
	fb := newFakeBrowser(t)
	v, err := New(fb.srv.URL+"/", nil, nil).Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "Chrome/130.0" {
		t.Errorf("unexpected version %q", v)
	}
}

func TestSameSiteMapping(t *testing.T) {
	for in, want := range map[string]string{"Strict": "strict", "Lax": "lax", "None": "no_restriction", "": "unspecified"} {
		if got := extensionSameSite(in); got != want {
			t.Errorf("extensionSameSite(%q) = %q, want %q", in, got, want)
		}
	}
	for in, want := range map[string]string{"STRICT": "Strict", "lax": "Lax", "no_restriction": "None", "none": "None", "unspecified": ""} {
		if got := protocolSameSite(in); got != want {
			t.Errorf("protocolSameSite(%q) = %q, want %q", in, got, want)
		}
	}
}
