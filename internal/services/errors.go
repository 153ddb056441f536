// Package services defines the use-cases for todo lists and items.
// This file centralizes the service-level error taxonomy so that failures are
// classified once, here, and translated into HTTP status codes by the handler
// layer.
//
// Every *Error carries a client-safe message and, for storage failures, the
// underlying cause. The cause is reachable through errors.Unwrap for
// server-side logging and must never be echoed to clients.
package services

import "errors"

// Kind classifies a service failure.
type Kind int

const (
	// KindDB covers any storage-layer failure: connectivity, constraint
	// violations, malformed queries.
	KindDB Kind = iota + 1
	// KindPoolUnavailable means no connection could be acquired; the
	// operation was not attempted.
	KindPoolUnavailable
	// KindBadRequest is invalid client input detected before storage.
	KindBadRequest
)

// String returns a stable lowercase name, used as a log field.
func (k Kind) String() string {
	switch k {
	case KindDB:
		return "db_error"
	case KindPoolUnavailable:
		return "pool_unavailable"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every service method.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// Error returns the client-safe message only.
func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// Input validation errors.
var (
	// ErrEmptyTitle is returned when a list title is blank after trimming.
	ErrEmptyTitle = errors.New("title is required")
)

// DBError wraps a storage failure.
func DBError(cause error) error {
	return &Error{Kind: KindDB, Msg: "database error", Cause: cause}
}

// PoolError wraps a failure to acquire a pooled connection.
func PoolError(cause error) error {
	return &Error{Kind: KindPoolUnavailable, Msg: "database unavailable", Cause: cause}
}

// BadRequest wraps an input validation failure; cause's text is safe to
// show to clients.
func BadRequest(cause error) error {
	return &Error{Kind: KindBadRequest, Msg: cause.Error(), Cause: cause}
}

// KindOf returns the Kind of err, or 0 when err is not a service *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
