package cookies

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveTab is returned when a domain-scoped operation cannot
	// resolve the active tab's URL.
	ErrNoActiveTab = errors.New("cannot resolve the active tab url")
	// ErrInvalidInput is returned by Export when it is not given a list of
	// cookies.
	ErrInvalidInput = errors.New("cookies must be a list")
	// ErrMalformedPayload is returned by Import when the payload is absent
	// or its cookies field is not a list.
	ErrMalformedPayload = errors.New("invalid cookie file format")
	// ErrDomainMismatch is matched by *DomainMismatchError.
	ErrDomainMismatch = errors.New("cookie domain mismatch")
	// ErrImportFailed is returned by Import when no cookie could be set.
	ErrImportFailed = errors.New("no cookies were imported")
)

// DomainMismatchError reports an import payload declaring a domain other
// than the active tab's hostname.
type DomainMismatchError struct {
	Payload string
	Current string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("%s (%s != %s)", ErrDomainMismatch, e.Payload, e.Current)
}

func (e *DomainMismatchError) Is(target error) bool {
	return target == ErrDomainMismatch
}
