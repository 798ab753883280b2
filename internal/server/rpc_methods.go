package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/google/uuid"

	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/router"
	"github.com/cookieport/cookieport/pkg/logger"
)

// JSON-RPC error codes for cookie operations.
const (
	codeStoreError     = jrpc2.Code(-32000)
	codeNoActiveTab    = jrpc2.Code(-32001)
	codeDomainMismatch = jrpc2.Code(-32002)
	codeImportFailed   = jrpc2.Code(-32003)
	codeInvalidParams  = jrpc2.Code(-32602)
)

// Handler runs router requests.
type Handler interface {
	Do(ctx context.Context, req router.Request) (router.Response, error)
}

// Versioner reports the browser product string of a live store.
type Versioner interface {
	Version(ctx context.Context) (string, error)
}

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret  string // bearer token; empty rejects every call
	Version string
	Commit  string
	// Browser, when set, is asked for the browser version by
	// system.getVersion.
	Browser Versioner
}

// RPCServer holds the method table and the HTTP bridge to it.
type RPCServer struct {
	methods  handler.Map
	bridge   jhttp.Bridge
	router   Handler
	notifier *RPCNotifier
	log      logger.Logger

	secret  string
	version string
	commit  string
	browser Versioner
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Browser string `json:"browser,omitempty"`
}

// FetchAllParams is the input for cookies.fetchAll. An absent scope means
// the active tab only.
type FetchAllParams struct {
	ScopeToCurrentDomain *bool `json:"scopeToCurrentDomain,omitempty"`
}

// FetchAllResult is the response for cookies.fetchAll.
type FetchAllResult struct {
	Cookies []cookies.Record `json:"cookies"`
}

// ExportParams is the input for cookies.export.
type ExportParams struct {
	Cookies json.RawMessage `json:"cookies"`
}

// ImportParams is the input for cookies.import: a previously exported
// payload.
type ImportParams struct {
	Payload json.RawMessage `json:"payload"`
}

// MessageResult is the response for cookies.export and cookies.import.
type MessageResult struct {
	Message string `json:"message"`
}

type requestIDKey struct{}

// RequestID returns the id assigned to the RPC call running in ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRPCServer creates the method table and its HTTP bridge.
func NewRPCServer(cfg *RPCConfig, h Handler, l logger.Logger) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rs := &RPCServer{
		router:   h,
		notifier: NewRPCNotifier(l),
		log:      l,
		secret:   cfg.Secret,
		version:  cfg.Version,
		commit:   cfg.Commit,
		browser:  cfg.Browser,
	}

	rs.methods = handler.Map{
		"system.getVersion": rs.traced("system.getVersion", handler.New(rs.systemGetVersion)),
		"cookies.fetchAll":  rs.traced("cookies.fetchAll", handler.New(rs.cookiesFetchAll)),
		"cookies.export":    rs.traced("cookies.export", handler.New(rs.cookiesExport)),
		"cookies.import":    rs.traced("cookies.import", handler.New(rs.cookiesImport)),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// traced gives every call a request id and logs failures under it. A
// call over HTTP reuses the exchange's X-Request-Id. Calls on a WebSocket
// share one exchange, so each gets its own id, logged against the session.
func (rs *RPCServer) traced(method string, h jrpc2.Handler) jrpc2.Handler {
	return func(ctx context.Context, req *jrpc2.Request) (any, error) {
		id := httpRequestID(ctx)
		if id == "" || pushEnabled(ctx) {
			session := id
			id = uuid.NewString()
			if session != "" {
				rs.log.Debug("rpc %s: websocket session %s", id, session)
			}
		}
		ctx = context.WithValue(ctx, requestIDKey{}, id)
		rs.log.Debug("rpc %s: %s", id, method)
		res, err := h(ctx, req)
		if err != nil {
			rs.log.Warning("rpc %s: %s failed: %v", id, method, err)
		}
		return res, err
	}
}

func (rs *RPCServer) systemGetVersion(ctx context.Context) (*VersionResult, error) {
	res := &VersionResult{Version: rs.version, Commit: rs.commit}
	if rs.browser != nil {
		b, err := rs.browser.Version(ctx)
		if err != nil {
			rs.log.Warning("rpc %s: browser version: %v", RequestID(ctx), err)
		}
		res.Browser = b
	}
	return res, nil
}

func (rs *RPCServer) cookiesFetchAll(ctx context.Context, p *FetchAllParams) (*FetchAllResult, error) {
	req := &router.FetchAllRequest{ScopeToCurrentDomain: true}
	if p != nil && p.ScopeToCurrentDomain != nil {
		req.ScopeToCurrentDomain = *p.ScopeToCurrentDomain
	}
	resp, err := rs.router.Do(ctx, req)
	if err != nil {
		return nil, rpcError(err)
	}
	out := resp.Cookies
	if out == nil {
		out = []cookies.Record{}
	}
	return &FetchAllResult{Cookies: out}, nil
}

func (rs *RPCServer) cookiesExport(ctx context.Context, p *ExportParams) (*MessageResult, error) {
	var raw json.RawMessage
	if p != nil {
		raw = p.Cookies
	}
	req, err := router.NewExportRequest(raw)
	if err != nil {
		return nil, rpcError(err)
	}
	resp, err := rs.router.Do(ctx, req)
	if err != nil {
		return nil, rpcError(err)
	}
	return &MessageResult{Message: resp.Message}, nil
}

func (rs *RPCServer) cookiesImport(ctx context.Context, p *ImportParams) (*MessageResult, error) {
	var raw json.RawMessage
	if p != nil {
		raw = p.Payload
	}
	req := router.NewImportRequest(raw)
	if pushEnabled(ctx) {
		srv := jrpc2.ServerFromContext(ctx)
		id := RequestID(ctx)
		req.Progress = func(done, total int, name string, err error) {
			n := ImportProgressNotification{RequestID: id, Done: done, Total: total, Name: name, OK: err == nil}
			if nerr := srv.Notify(ctx, "cookies.importProgress", n); nerr != nil {
				rs.log.Debug("rpc %s: progress push failed: %v", id, nerr)
			}
		}
	}
	resp, err := rs.router.Do(ctx, req)
	if err != nil {
		return nil, rpcError(err)
	}
	rs.notifier.Broadcast("cookies.imported", &ImportedNotification{Message: resp.Message})
	return &MessageResult{Message: resp.Message}, nil
}

// rpcError maps operation errors to JSON-RPC error codes.
func rpcError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := codeStoreError
	switch {
	case errors.Is(err, cookies.ErrInvalidInput), errors.Is(err, cookies.ErrMalformedPayload):
		code = codeInvalidParams
	case errors.Is(err, cookies.ErrNoActiveTab):
		code = codeNoActiveTab
	case errors.Is(err, cookies.ErrDomainMismatch):
		code = codeDomainMismatch
	case errors.Is(err, cookies.ErrImportFailed):
		code = codeImportFailed
	}
	return &jrpc2.Error{Code: code, Message: err.Error()}
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
