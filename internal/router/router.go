// Package router dispatches typed requests to the cookie operations and
// turns every outcome into exactly one Response.
package router

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/pkg/logger"
)

// Fetcher lists cookies.
type Fetcher interface {
	Fetch(ctx context.Context, scoped bool) ([]cookies.Record, error)
}

// Exporter writes export files.
type Exporter interface {
	Export(ctx context.Context, records []cookies.Record) (*cookies.ExportResult, error)
}

// Importer applies import payloads.
type Importer interface {
	ImportWithProgress(ctx context.Context, p *cookies.ImportPayload, progress cookies.ProgressFunc) (*cookies.ImportResult, error)
}

// Router owns one instance of each operation.
type Router struct {
	fetcher  Fetcher
	exporter Exporter
	importer Importer
	log      logger.Logger
}

// New returns a Router.
func New(f Fetcher, e Exporter, i Importer, l logger.Logger) *Router {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Router{fetcher: f, exporter: e, importer: i, log: l}
}

// Handle runs req to completion and returns its response. Operation errors
// and panics become failure responses.
func (r *Router) Handle(ctx context.Context, req Request) Response {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return Failure(err)
	}
	return resp
}

// Do is Handle for callers that need the error value itself. On error the
// response is the zero Response.
func (r *Router) Do(ctx context.Context, req Request) (resp Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("router: panic handling %s: %v\n%s", actionOf(req), v, debug.Stack())
			resp, err = Response{}, fmt.Errorf("%w: %v", ErrInternal, v)
		}
	}()

	r.log.Debug("router: handling %s", actionOf(req))
	resp, err = r.handle(ctx, req)
	if err != nil {
		r.log.Error("router: %s failed: %v", actionOf(req), err)
		return Response{}, err
	}
	return resp, nil
}

func (r *Router) handle(ctx context.Context, req Request) (Response, error) {
	switch req := req.(type) {
	case *FetchAllRequest:
		records, err := r.fetcher.Fetch(ctx, req.ScopeToCurrentDomain)
		if err != nil {
			return Response{}, err
		}
		if records == nil {
			records = []cookies.Record{}
		}
		return Response{Success: true, Cookies: records}, nil

	case *ExportRequest:
		res, err := r.exporter.Export(ctx, req.Cookies)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Message: res.Message}, nil

	case *ImportRequest:
		res, err := r.importer.ImportWithProgress(ctx, req.Payload, req.Progress)
		if err != nil {
			return Response{}, err
		}
		return Response{Success: true, Message: res.Message}, nil

	case nil:
		return Response{}, &UnknownActionError{}

	default:
		return Response{}, &UnknownActionError{Action: string(req.Action())}
	}
}

// HandleJSON decodes a wire request and handles it. Decode failures,
// including unknown actions, are failure responses.
func (r *Router) HandleJSON(ctx context.Context, data []byte) Response {
	req, err := DecodeRequest(data)
	if err != nil {
		r.log.Warning("router: %v", err)
		return Failure(err)
	}
	return r.Handle(ctx, req)
}

// Dispatch handles req on its own goroutine. The returned channel receives
// exactly one response and is then closed.
func (r *Router) Dispatch(ctx context.Context, req Request) <-chan Response {
	ch := make(chan Response, 1)
	go func() {
		defer close(ch)
		ch <- r.Handle(ctx, req)
	}()
	return ch
}

func actionOf(req Request) Action {
	if req == nil {
		return ""
	}
	return req.Action()
}
