package nativehost

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/router"
	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

type memSaver struct{}

func (memSaver) Save(_ context.Context, name string, _ []byte) (string, error) {
	return "/downloads/" + name, nil
}

func newTestRouter(m *store.Memory) *router.Router {
	now := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return router.New(
		cookies.NewFetcher(m, nil),
		cookies.NewExporter(memSaver{}, now, nil),
		cookies.NewImporter(m, nil),
		nil,
	)
}

type reply struct {
	ID      int              `json:"id"`
	Success bool             `json:"success"`
	Cookies []cookies.Record `json:"cookies"`
	Message string           `json:"message"`
	Error   string           `json:"error"`
}

func input(t *testing.T, msgs ...string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		if err := WriteMessage(&buf, []byte(m)); err != nil {
			t.Fatalf("Failed to write message: %v", err)
		}
	}
	return &buf
}

func readReplies(t *testing.T, r io.Reader) map[int]reply {
	t.Helper()
	out := map[int]reply{}
	for {
		data, err := ReadMessage(r)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		var rep reply
		if err := json.Unmarshal(data, &rep); err != nil {
			t.Fatalf("Failed to unmarshal response %s: %v", data, err)
		}
		if _, dup := out[rep.ID]; dup {
			t.Fatalf("duplicate response for id %d", rep.ID)
		}
		out[rep.ID] = rep
	}
}

func TestHostRun(t *testing.T) {
	m := store.NewMemory("https://www.example.com/",
		store.Cookie{Name: "sid", Value: "secret", Domain: ".example.com", Path: "/"},
		store.Cookie{Name: "other", Value: "x", Domain: "other.org", Path: "/"},
	)
	in := input(t,
		`{"id":1,"action":"getAllCookies","currentDomainOnly":true}`,
		`{"id":2,"action":"export","cookies":[{"name":"a","value":"1","domain":"example.com","path":"/"}]}`,
		`{"id":3,"action":"import","cookies":{"domain":"www.example.com","cookies":[{"name":"n","value":"v","domain":"www.example.com"}]}}`,
		`{"id":4,"action":"launchRockets"}`,
	)
	var out bytes.Buffer
	log := logger.NewMockLogger()
	host := newHost(newTestRouter(m), in, &out, log)

	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	replies := readReplies(t, &out)
	if len(replies) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(replies))
	}
	if r := replies[1]; !r.Success || len(r.Cookies) != 1 || r.Cookies[0].Name != "sid" {
		t.Errorf("unexpected fetch reply %+v", r)
	}
	if r := replies[2]; !r.Success || r.Message != "exported 1 cookie" {
		t.Errorf("unexpected export reply %+v", r)
	}
	if r := replies[3]; !r.Success || r.Message != "imported 1 cookie" {
		t.Errorf("unexpected import reply %+v", r)
	}
	if r := replies[4]; r.Success || r.Error != "unknown action: launchRockets" {
		t.Errorf("unexpected unknown-action reply %+v", r)
	}
	for _, line := range log.Lines() {
		if strings.Contains(line, "secret") {
			t.Errorf("cookie value leaked into log: %q", line)
		}
	}
}

// largeImport builds an import request over the outbound message limit.
func largeImport(t *testing.T, id, n int) []byte {
	t.Helper()
	recs := make([]cookies.Record, n)
	pad := strings.Repeat("v", 200)
	for i := range recs {
		recs[i] = cookies.Record{Name: "c" + strconv.Itoa(i), Value: pad, Domain: "www.example.com", Path: "/"}
	}
	body, err := json.Marshal(map[string]any{
		"id":      id,
		"action":  "import",
		"cookies": map[string]any{"domain": "www.example.com", "cookies": recs},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(body) <= MaxMessageSize {
		t.Fatalf("import is only %d bytes", len(body))
	}
	return body
}

func TestHostLargeImport(t *testing.T) {
	m := store.NewMemory("https://www.example.com/")
	body := largeImport(t, 7, 6000)
	in := bytes.NewBuffer(binary.LittleEndian.AppendUint32(nil, uint32(len(body))))
	in.Write(body)

	var out bytes.Buffer
	host := newHost(newTestRouter(m), in, &out, nil)
	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	replies := readReplies(t, &out)
	if r, ok := replies[7]; !ok || !r.Success || r.Message != "imported 6000 cookies" {
		t.Fatalf("unexpected replies %+v", replies)
	}
	if got := len(m.Cookies()); got != 6000 {
		t.Errorf("expected 6000 cookies set, got %d", got)
	}
}

func TestHostOversizedMessageGetsErrorReply(t *testing.T) {
	m := store.NewMemory("https://www.example.com/")
	body := largeImport(t, 7, 6000)
	in := bytes.NewBuffer(binary.LittleEndian.AppendUint32(nil, uint32(len(body))))
	in.Write(body)
	in.Write(input(t, `{"id":8,"action":"fetch-all","scopeToCurrentDomain":false}`).Bytes())

	var out bytes.Buffer
	log := logger.NewMockLogger()
	host := newHost(newTestRouter(m), in, &out, log)
	host.maxIn = MaxMessageSize
	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}
	replies := readReplies(t, &out)
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %+v", replies)
	}
	if r := replies[0]; r.Success || !strings.HasPrefix(r.Error, "message too large") {
		t.Errorf("unexpected oversized reply %+v", r)
	}
	if r := replies[8]; !r.Success {
		t.Errorf("host stopped answering after an oversized message: %+v", r)
	}
	if len(m.Cookies()) != 0 {
		t.Errorf("oversized import was applied")
	}
	if len(log.WarningCalls) != 1 {
		t.Errorf("expected one warning, got %v", log.WarningCalls)
	}
}

func TestHostInvalidJSON(t *testing.T) {
	var out bytes.Buffer
	host := newHost(newTestRouter(store.NewMemory("")), input(t, `{not json`), &out, nil)
	if err := host.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	replies := readReplies(t, &out)
	r, ok := replies[0]
	if !ok || r.Success || !strings.HasPrefix(r.Error, "invalid request") {
		t.Errorf("unexpected reply %+v", replies)
	}
}

func TestHostEOFHandling(t *testing.T) {
	host := newHost(newTestRouter(store.NewMemory("")), &bytes.Buffer{}, io.Discard, nil)
	if err := host.Run(context.Background()); err != nil {
		t.Errorf("Run() on empty input = %v, want nil", err)
	}
}

func TestHostTruncatedInput(t *testing.T) {
	in := bytes.NewBuffer([]byte{10, 0, 0, 0, '{'})
	host := newHost(newTestRouter(store.NewMemory("")), in, io.Discard, nil)
	if err := host.Run(context.Background()); err == nil {
		t.Error("expected error for truncated message")
	}
}

// gatedDispatcher holds the fetch response until the export has been
// answered, forcing out-of-order replies.
type gatedDispatcher struct {
	exportDone chan struct{}
}

func (g *gatedDispatcher) Dispatch(_ context.Context, req router.Request) <-chan router.Response {
	ch := make(chan router.Response, 1)
	go func() {
		defer close(ch)
		switch req.(type) {
		case *router.FetchAllRequest:
			<-g.exportDone
			ch <- router.Response{Success: true, Cookies: []cookies.Record{}}
		default:
			ch <- router.Response{Success: true, Message: "done"}
		}
	}()
	return ch
}

// notifyWriter closes done after the first write.
type notifyWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	done chan struct{}
	once sync.Once
}

func (w *notifyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.buf.Write(p)
	w.once.Do(func() { close(w.done) })
	return n, err
}

func TestHostOutOfOrderResponses(t *testing.T) {
	done := make(chan struct{})
	out := &notifyWriter{done: done}
	in := input(t,
		`{"id":1,"action":"fetch-all"}`,
		`{"id":2,"action":"export","cookies":[]}`,
	)
	host := newHost(&gatedDispatcher{exportDone: done}, in, out, nil)

	errc := make(chan error, 1)
	go func() { errc <- host.Run(context.Background()) }()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}

	first, err := ReadMessage(&out.buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(first), `{"id":2,`) {
		t.Errorf("expected export reply first, got %s", first)
	}
	second, err := ReadMessage(&out.buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(second), `{"id":1,`) {
		t.Errorf("expected fetch reply second, got %s", second)
	}
}

func TestHostConcurrentWritesDoNotInterleave(t *testing.T) {
	m := store.NewMemory("https://example.com/", store.Cookie{Name: "a", Value: "1", Domain: "example.com", Path: "/"})
	var msgs []string
	for i := 1; i <= 50; i++ {
		msgs = append(msgs, `{"id":`+strconv.Itoa(i)+`,"action":"fetch-all","scopeToCurrentDomain":false}`)
	}
	var out bytes.Buffer
	host := newHost(newTestRouter(m), input(t, msgs...), &out, nil)
	if err := host.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(readReplies(t, &out)); got != 50 {
		t.Errorf("expected 50 well-formed replies, got %d", got)
	}
}
