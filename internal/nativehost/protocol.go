// Package nativehost implements the browser native messaging host. Messages
// on stdin and stdout are a 4-byte little-endian length prefix followed by
// a JSON payload.
package nativehost

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cookieport/cookieport/common"
	"github.com/cookieport/cookieport/internal/router"
)

// MaxMessageSize limits host-to-browser messages.
const MaxMessageSize = common.MaxMessageSize

// MaxInboundMessageSize limits browser-to-host messages. Browsers send up
// to 64 MiB to a native host.
const MaxInboundMessageSize = 64 << 20

// ErrMessageTooLarge is returned for an inbound message over the limit.
// Its body has been consumed, so the stream stays in sync.
var ErrMessageTooLarge = errors.New("message too large")

// envelope is the part of an incoming message the host itself reads. The
// rest of the message is the router request.
type envelope struct {
	ID json.RawMessage `json:"id,omitempty"`
}

// ReadMessage reads one length-prefixed message from r.
func ReadMessage(r io.Reader) ([]byte, error) {
	return readMessage(r, MaxInboundMessageSize)
}

func readMessage(r io.Reader, limit int) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if int64(length) > int64(limit) {
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, length, limit)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMessage writes msg to w with its length prefix.
func WriteMessage(w io.Writer, msg []byte) error {
	if len(msg) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(msg), MaxMessageSize)
	}
	var buf bytes.Buffer
	buf.Grow(4 + len(msg))
	binary.Write(&buf, binary.LittleEndian, uint32(len(msg)))
	buf.Write(msg)
	_, err := w.Write(buf.Bytes())
	return err
}

// parseID extracts the correlation id of a message. Messages without an id
// get 0.
func parseID(data []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if len(env.ID) == 0 || string(env.ID) == "null" {
		return json.RawMessage("0"), nil
	}
	return env.ID, nil
}

// MakeResponse encodes resp with id prepended, e.g.
// {"id":3,"success":true,"cookies":[...]}.
func MakeResponse(id json.RawMessage, resp router.Response) ([]byte, error) {
	if len(id) == 0 {
		id = json.RawMessage("0")
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(id)+6)
	out = append(out, `{"id":`...)
	out = append(out, id...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

// MakeErrorResponse encodes a failure response for id.
func MakeErrorResponse(id json.RawMessage, err error) []byte {
	b, _ := MakeResponse(id, router.Failure(err))
	return b
}
