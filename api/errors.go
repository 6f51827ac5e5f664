// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error classification for hioload-echo.
// Errors are classified by blast radius: process-fatal kinds stop the
// service, connection-scoped kinds only cost the affected connection.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrPeerClosed      = errors.New("peer closed connection")
	ErrWouldBlock      = errors.New("operation would block")
	ErrClosed          = errors.New("use of closed descriptor")
	ErrNotSupported    = errors.New("operation not supported")
	ErrAlreadyRunning  = errors.New("server already running")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorKind classifies an Error by what it takes down with it.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindSetup covers socket, bind, listen and registry creation.
	KindSetup
	// KindPoll is a failure of the readiness wait itself.
	KindPoll
	// KindAccept is a failed accept on an otherwise healthy listener.
	KindAccept
	// KindConnection is a read, write or registration failure on one connection.
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindPoll:
		return "poll"
	case KindAccept:
		return "accept"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind must terminate the service.
func (k ErrorKind) Fatal() bool {
	return k == KindSetup || k == KindPoll
}

// Error represents a structured error with kind, operation and context.
type Error struct {
	Kind    ErrorKind
	Op      string
	Err     error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Err:     err,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// SetupError wraps err as a KindSetup error for operation op.
func SetupError(op string, err error) *Error { return NewError(KindSetup, op, err) }

// AcceptError wraps err as a KindAccept error.
func AcceptError(err error) *Error { return NewError(KindAccept, "accept", err) }

// ConnectionError wraps err as a KindConnection error for operation op.
func ConnectionError(op string, err error) *Error { return NewError(KindConnection, op, err) }

// PollError wraps err as a KindPoll error.
func PollError(err error) *Error { return NewError(KindPoll, "wait", err) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err must stop the service.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}
