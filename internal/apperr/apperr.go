// Package apperr defines the typed failures shared by the transport, domain and
// configuration layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can tell configuration, network and
// semantic failures apart.
type Kind string

const (
	// KindUnknown is reported for errors that did not originate in this module.
	KindUnknown Kind = "unknown"
	// KindConfig means a required setting or credential is missing or invalid.
	KindConfig Kind = "config"
	// KindTransport means the request never produced an HTTP response.
	KindTransport Kind = "transport"
	// KindStatus means the remote service answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindDecode means a 2xx response body could not be decoded.
	KindDecode Kind = "decode"
	// KindPrecondition means the operation was rejected before any remote call.
	KindPrecondition Kind = "precondition"
)

// Error is a failure annotated with the operation that produced it.
type Error struct {
	Op     string
	Kind   Kind
	Err    error
	Detail string

	// StatusCode is set for KindStatus failures.
	StatusCode int
}

// New creates an Error of the given kind.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Newf creates an Error of the given kind from a formatted message.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
