package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cookieport/cookieport/internal/cookies"
)

// Action is the wire tag selecting an operation.
type Action string

const (
	ActionFetchAll Action = "fetch-all"
	ActionExport   Action = "export"
	ActionImport   Action = "import"
)

// legacyActions maps the tags sent by older popup builds.
var legacyActions = map[string]Action{
	"getAllCookies": ActionFetchAll,
	"exportCookies": ActionExport,
	"importCookies": ActionImport,
}

// ErrUnknownAction is matched by *UnknownActionError.
var ErrUnknownAction = errors.New("unknown action")

// ErrInternal wraps a recovered panic.
var ErrInternal = errors.New("internal error")

// UnknownActionError reports a request whose action tag is not recognized.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownAction, e.Action)
}

func (e *UnknownActionError) Is(target error) bool {
	return target == ErrUnknownAction
}

// Request is one of *FetchAllRequest, *ExportRequest or *ImportRequest.
type Request interface {
	Action() Action
	request()
}

// FetchAllRequest lists cookies for the active tab, or for every domain
// when ScopeToCurrentDomain is false.
type FetchAllRequest struct {
	ScopeToCurrentDomain bool
}

// ExportRequest saves Cookies to an export file. A nil Cookies is invalid
// input.
type ExportRequest struct {
	Cookies []cookies.Record
}

// ImportRequest applies an export file. A nil Payload is a malformed
// payload.
type ImportRequest struct {
	Payload *cookies.ImportPayload
	// Progress, when set, is told about every applied record.
	Progress cookies.ProgressFunc
}

func (*FetchAllRequest) Action() Action { return ActionFetchAll }
func (*ExportRequest) Action() Action   { return ActionExport }
func (*ImportRequest) Action() Action   { return ActionImport }

func (*FetchAllRequest) request() {}
func (*ExportRequest) request()   {}
func (*ImportRequest) request()   {}

// wireRequest is the JSON shape shared by every action.
type wireRequest struct {
	Action               string          `json:"action"`
	ScopeToCurrentDomain *bool           `json:"scopeToCurrentDomain"`
	CurrentDomainOnly    *bool           `json:"currentDomainOnly"`
	Cookies              json.RawMessage `json:"cookies"`
}

// DecodeRequest parses a JSON request. An unrecognized action yields
// *UnknownActionError.
//
// Shape problems in the cookies field are not decode errors: they leave
// the request's cookies nil so the operation reports them.
func DecodeRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return w.decode()
}

func (w *wireRequest) decode() (Request, error) {
	action := Action(w.Action)
	if legacy, ok := legacyActions[w.Action]; ok {
		action = legacy
	}

	switch action {
	case ActionFetchAll:
		scoped := true
		if w.ScopeToCurrentDomain != nil {
			scoped = *w.ScopeToCurrentDomain
		} else if w.CurrentDomainOnly != nil {
			scoped = *w.CurrentDomainOnly
		}
		return &FetchAllRequest{ScopeToCurrentDomain: scoped}, nil

	case ActionExport:
		return NewExportRequest(w.Cookies)

	case ActionImport:
		return NewImportRequest(w.Cookies), nil

	default:
		return nil, &UnknownActionError{Action: w.Action}
	}
}

// NewExportRequest builds an export request from the raw cookies field.
// Anything but a JSON array leaves Cookies nil; an array holding a
// malformed record is invalid input.
func NewExportRequest(raw json.RawMessage) (*ExportRequest, error) {
	req := &ExportRequest{}
	if isArray(raw) {
		records := []cookies.Record{}
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", cookies.ErrInvalidInput, err)
		}
		req.Cookies = records
	}
	return req, nil
}

// NewImportRequest builds an import request from a raw payload. A payload
// that does not decode leaves Payload nil.
func NewImportRequest(raw json.RawMessage) *ImportRequest {
	req := &ImportRequest{}
	if len(raw) > 0 {
		if p, err := cookies.DecodeImportPayload(raw); err == nil {
			req.Payload = p
		}
	}
	return req
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
