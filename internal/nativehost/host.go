package nativehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cookieport/cookieport/internal/router"
	"github.com/cookieport/cookieport/pkg/logger"
)

// Dispatcher runs one router request asynchronously.
type Dispatcher interface {
	Dispatch(ctx context.Context, req router.Request) <-chan router.Response
}

// Host bridges a browser extension to the cookie router.
type Host struct {
	router Dispatcher
	stdin  io.Reader
	stdout io.Writer
	log    logger.Logger
	maxIn  int

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewHost creates a host that talks over os.Stdin and os.Stdout. The
// browser owns stdout, so l should write to stderr or a file.
func NewHost(d Dispatcher, l logger.Logger) *Host {
	return newHost(d, os.Stdin, os.Stdout, l)
}

func newHost(d Dispatcher, in io.Reader, out io.Writer, l logger.Logger) *Host {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Host{router: d, stdin: in, stdout: out, log: l, maxIn: MaxInboundMessageSize}
}

// Run reads messages until stdin is closed. Every message is handled on
// its own goroutine and answered exactly once, possibly out of order.
// Run waits for outstanding responses before returning.
func (h *Host) Run(ctx context.Context) error {
	defer h.wg.Wait()
	for {
		err := h.processOneMessage(ctx)
		if err == io.EOF {
			h.log.Debug("nativehost: stdin closed")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (h *Host) processOneMessage(ctx context.Context) error {
	data, err := readMessage(h.stdin, h.maxIn)
	if errors.Is(err, ErrMessageTooLarge) {
		h.log.Warning("nativehost: %v", err)
		return h.write(MakeErrorResponse(nil, err))
	}
	if err != nil {
		return err
	}

	id, err := parseID(data)
	if err != nil {
		h.log.Warning("nativehost: invalid message: %v", err)
		return h.write(MakeErrorResponse(nil, fmt.Errorf("invalid request: %w", err)))
	}

	req, err := router.DecodeRequest(data)
	if err != nil {
		h.log.Warning("nativehost: request %s: %v", id, err)
		return h.write(MakeErrorResponse(id, err))
	}

	h.log.Debug("nativehost: request %s: %s", id, req.Action())
	ch := h.router.Dispatch(ctx, req)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		resp, ok := <-ch
		if !ok {
			resp = router.Failure(fmt.Errorf("no response for %s", req.Action()))
		}
		out, err := MakeResponse(id, resp)
		if err != nil {
			out = MakeErrorResponse(id, err)
		} else if len(out) > MaxMessageSize {
			h.log.Warning("nativehost: response %s is %d bytes, over the %d limit", id, len(out), MaxMessageSize)
			out = MakeErrorResponse(id, fmt.Errorf("response too large: %d bytes", len(out)))
		}
		if err := h.write(out); err != nil {
			h.log.Error("nativehost: cannot write response %s: %v", id, err)
		}
	}()
	return nil
}

// write sends one message. Responses from concurrent requests never
// interleave.
func (h *Host) write(msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return WriteMessage(h.stdout, msg)
}
