// Package server exposes the cookie router as a JSON-RPC 2.0 service over
// HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/creachadair/jrpc2/jhttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/cookieport/cookieport/pkg/logger"
)

// Server serves the RPC endpoints on one TCP address.
type Server struct {
	addr string
	rpc  *RPCServer
	log  logger.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// NewServer returns a Server for addr, e.g. "127.0.0.1:8729".
func NewServer(addr string, rpc *RPCServer, l logger.Logger) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{addr: addr, rpc: rpc, log: l}
}

// Handler returns the HTTP routes:
//
//	POST /jsonrpc     JSON-RPC over HTTP
//	GET  /jsonrpc/ws  JSON-RPC over WebSocket, with server pushes
//	GET  /healthz     liveness, no auth
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withRequestID)
	r.Handle("/jsonrpc", s.rpc.requireToken(&s.rpc.bridge)).Methods(http.MethodPost)
	r.Handle("/jsonrpc/ws", s.rpc.requireToken(http.HandlerFunc(s.rpc.serveWS))).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	return r
}

type httpIDKey struct{}

// withRequestID tags every HTTP exchange with an X-Request-Id and stores
// it in the request context for the RPC layer.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.log.Debug("http %s: %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), httpIDKey{}, id)))
	})
}

// httpRequestID returns the X-Request-Id of the HTTP exchange that carried
// the call in ctx, if any.
func httpRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(httpIDKey{}).(string); ok {
		return id
	}
	if r := jhttp.HTTPRequest(ctx); r != nil {
		id, _ := r.Context().Value(httpIDKey{}).(string)
		return id
	}
	return ""
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start listens on the configured address and serves until ctx is
// canceled.
func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is canceled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := s.srv
	s.mu.Unlock()

	s.log.Info("rpc: listening on %s", l.Addr())

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address once serving, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the HTTP server and the RPC bridge.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.srv.Shutdown(shutdownCtx)
	if err != nil {
		s.log.Warning("rpc: error shutting down: %v", err)
	}
	s.rpc.Close()
	s.srv = nil
	return err
}
