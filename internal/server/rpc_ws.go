package server

import (
	"context"
	"errors"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"

	"github.com/cookieport/cookieport/common"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

type pushKey struct{}

// pushEnabled reports whether the call arrived on a connection that
// accepts server pushes.
func pushEnabled(ctx context.Context) bool {
	ok, _ := ctx.Value(pushKey{}).(bool)
	return ok
}

// serveWS runs one jrpc2 server per WebSocket connection until the peer
// goes away.
func (rs *RPCServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{
		// extension origins never match the host; requireToken guards this route
		InsecureSkipVerify: true,
	})
	if err != nil {
		rs.log.Warning("rpc: websocket accept: %v", err)
		return
	}
	conn.SetReadLimit(common.MaxMessageSize)

	ctx := r.Context()
	srv := jrpc2.NewServer(rs.methods, &jrpc2.ServerOptions{
		AllowPush: true,
		NewContext: func() context.Context {
			return context.WithValue(ctx, pushKey{}, true)
		},
	})
	srv.Start(&wsChannel{conn: conn, ctx: ctx})
	rs.notifier.Register(srv)
	defer rs.notifier.Unregister(srv)

	if err := srv.Wait(); err != nil && !isClosed(err) {
		rs.log.Warning("rpc: websocket session ended: %v", err)
	}
}

func isClosed(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	s := cws.CloseStatus(err)
	return s == cws.StatusNormalClosure || s == cws.StatusGoingAway
}
