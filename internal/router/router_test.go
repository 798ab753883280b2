package router

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/pkg/logger"
)

type memSaver struct {
	saved map[string][]byte
}

func (s *memSaver) Save(_ context.Context, name string, data []byte) (string, error) {
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[name] = data
	return "/mem/" + name, nil
}

func newTestRouter(m *store.Memory) (*Router, *memSaver) {
	saver := &memSaver{}
	now := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return New(
		cookies.NewFetcher(m, nil),
		cookies.NewExporter(saver, now, nil),
		cookies.NewImporter(m, nil),
		nil,
	), saver
}

func TestHandle_FetchAll(t *testing.T) {
	m := store.NewMemory("https://example.com/", store.Cookie{Name: "a", Value: "1", Domain: "example.com"})
	r, _ := newTestRouter(m)

	resp := r.Handle(context.Background(), &FetchAllRequest{ScopeToCurrentDomain: true})
	if !resp.Success || len(resp.Cookies) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandle_FetchAllEmptyWritesArray(t *testing.T) {
	r, _ := newTestRouter(store.NewMemory("https://example.com/"))
	resp := r.Handle(context.Background(), &FetchAllRequest{ScopeToCurrentDomain: true})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"success":true,"cookies":[]}` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestHandle_NoActiveTabIsFailure(t *testing.T) {
	r, _ := newTestRouter(store.NewMemory(""))
	resp := r.Handle(context.Background(), &FetchAllRequest{ScopeToCurrentDomain: true})
	if resp.Success || resp.Error != cookies.ErrNoActiveTab.Error() {
		t.Fatalf("unexpected response %+v", resp)
	}
	data, _ := json.Marshal(resp)
	if string(data) != `{"success":false,"error":"cannot resolve the active tab url"}` {
		t.Errorf("unexpected json %s", data)
	}
}

func TestHandle_Export(t *testing.T) {
	r, saver := newTestRouter(store.NewMemory(""))
	resp := r.Handle(context.Background(), &ExportRequest{Cookies: []cookies.Record{{Name: "a"}, {Name: "b"}}})
	if !resp.Success || resp.Message != "exported 2 cookies" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, ok := saver.saved["cookies_2024-01-02T03-04-05-000Z.json"]; !ok {
		t.Errorf("unexpected saved files %v", saver.saved)
	}
	data, _ := json.Marshal(resp)
	if string(data) != `{"success":true,"message":"exported 2 cookies"}` {
		t.Errorf("unexpected json %s", data)
	}

	resp = r.Handle(context.Background(), &ExportRequest{})
	if resp.Success || !strings.Contains(resp.Error, cookies.ErrInvalidInput.Error()) {
		t.Errorf("expected invalid input failure, got %+v", resp)
	}
}

func TestHandle_Import(t *testing.T) {
	m := store.NewMemory("https://example.com/")
	r, _ := newTestRouter(m)
	var calls int
	resp := r.Handle(context.Background(), &ImportRequest{
		Payload:  &cookies.ImportPayload{Domain: "example.com", Cookies: []cookies.Record{{Name: "a", Value: "1"}}},
		Progress: func(done, total int, name string, err error) { calls++ },
	})
	if !resp.Success || resp.Message != "imported 1 cookie" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if calls != 1 {
		t.Errorf("expected progress callback, got %d calls", calls)
	}

	resp = r.Handle(context.Background(), &ImportRequest{})
	if resp.Success || !strings.Contains(resp.Error, cookies.ErrMalformedPayload.Error()) {
		t.Errorf("expected malformed payload failure, got %+v", resp)
	}
}

func TestHandleJSON_UnknownActionGetsExplicitFailure(t *testing.T) {
	l := logger.NewMockLogger()
	m := store.NewMemory("https://example.com/")
	r := New(cookies.NewFetcher(m, nil), nil, nil, l)
	resp := r.HandleJSON(context.Background(), []byte(`{"action":"nuke"}`))
	if resp.Success || resp.Error != "unknown action: nuke" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(l.WarningCalls) != 1 {
		t.Errorf("expected one warning, got %v", l.WarningCalls)
	}
}

func TestHandleJSON_RoundTrip(t *testing.T) {
	m := store.NewMemory("https://example.com/", store.Cookie{Name: "a", Value: "1", Domain: ".example.com"})
	r, _ := newTestRouter(m)
	resp := r.HandleJSON(context.Background(), []byte(`{"action":"fetch-all","scopeToCurrentDomain":false}`))
	if !resp.Success || len(resp.Cookies) != 1 || resp.Cookies[0].Domain != ".example.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

type panickyFetcher struct{}

func (panickyFetcher) Fetch(context.Context, bool) ([]cookies.Record, error) {
	panic("store exploded")
}

type blockingFetcher struct {
	release chan struct{}
}

func (b blockingFetcher) Fetch(ctx context.Context, _ bool) ([]cookies.Record, error) {
	select {
	case <-b.release:
		return []cookies.Record{{Name: "late"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestHandle_RecoversPanic(t *testing.T) {
	l := logger.NewMockLogger()
	r := New(panickyFetcher{}, nil, nil, l)
	resp := r.Handle(context.Background(), &FetchAllRequest{})
	if resp.Success || !strings.Contains(resp.Error, "store exploded") {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(l.ErrorCalls) != 1 {
		t.Errorf("expected one error log, got %d", len(l.ErrorCalls))
	}
}

func TestDispatch_RepliesExactlyOnce(t *testing.T) {
	release := make(chan struct{})
	r := New(blockingFetcher{release: release}, nil, nil, nil)

	ch := r.Dispatch(context.Background(), &FetchAllRequest{})
	select {
	case <-ch:
		t.Fatal("reply arrived before the operation settled")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	resp, ok := <-ch
	if !ok || !resp.Success || resp.Cookies[0].Name != "late" {
		t.Fatalf("unexpected response %+v (ok=%v)", resp, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel delivered a second response")
	}
}

func TestDispatch_PanicStillReplies(t *testing.T) {
	r := New(panickyFetcher{}, nil, nil, nil)
	select {
	case resp := <-r.Dispatch(context.Background(), &FetchAllRequest{}):
		if resp.Success {
			t.Fatalf("expected failure, got %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("no response after panic")
	}
}

func TestDispatch_ContextCancel(t *testing.T) {
	r := New(blockingFetcher{release: make(chan struct{})}, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Dispatch(ctx, &FetchAllRequest{})
	cancel()
	resp := <-ch
	if resp.Success || !strings.Contains(resp.Error, context.Canceled.Error()) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandle_NilRequest(t *testing.T) {
	r := New(nil, nil, nil, nil)
	resp := r.Handle(context.Background(), nil)
	if resp.Success || !errors.Is(&UnknownActionError{}, ErrUnknownAction) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestResponse_UnmarshalFromWire(t *testing.T) {
	var resp Response
	if err := json.Unmarshal([]byte(`{"success":true,"cookies":[{"name":"a","sameSite":"lax"}]}`), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Cookies) != 1 || resp.Cookies[0].SameSite != cookies.SameSiteLax {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDo_KeepsErrorValue(t *testing.T) {
	r, _ := newTestRouter(store.NewMemory(""))
	_, err := r.Do(context.Background(), &FetchAllRequest{ScopeToCurrentDomain: true})
	if !errors.Is(err, cookies.ErrNoActiveTab) {
		t.Fatalf("expected ErrNoActiveTab, got %v", err)
	}

	_, err = New(panickyFetcher{}, nil, nil, nil).Do(context.Background(), &FetchAllRequest{})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
}

func TestNewExportRequest(t *testing.T) {
	req, err := NewExportRequest(json.RawMessage(`[{"name":"a","value":"1"}]`))
	if err != nil || len(req.Cookies) != 1 {
		t.Fatalf("unexpected %+v, %v", req, err)
	}
	req, err = NewExportRequest(json.RawMessage(`{"name":"a"}`))
	if err != nil || req.Cookies != nil {
		t.Fatalf("expected nil cookies for a non-array, got %+v, %v", req, err)
	}
	if _, err := NewExportRequest(json.RawMessage(`[{"name":5}]`)); !errors.Is(err, cookies.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if req := NewImportRequest(json.RawMessage(`"nope"`)); req.Payload != nil {
		t.Fatalf("expected nil payload, got %+v", req.Payload)
	}
}
