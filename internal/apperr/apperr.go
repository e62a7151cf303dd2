// Package apperr defines the reason codes returned by every caller-facing operation.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable reason code safe to expose to API clients.
type Kind string

const (
	KindNotFound                   Kind = "NOT_FOUND"
	KindInvalidInput               Kind = "INVALID_INPUT"
	KindConflictBlocked            Kind = "CONFLICT_BLOCKED"
	KindExternalServiceUnavailable Kind = "EXTERNAL_SERVICE_UNAVAILABLE"
	KindSessionInvalid             Kind = "SESSION_INVALID"
	KindInternal                   Kind = "INTERNAL"
)

// Error carries a Kind, a client-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, nil, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, nil, format, args...)
}

func ConflictBlocked(format string, args ...any) *Error {
	return newf(KindConflictBlocked, nil, format, args...)
}

func SessionInvalid(format string, args ...any) *Error {
	return newf(KindSessionInvalid, nil, format, args...)
}

func Unavailable(cause error, format string, args ...any) *Error {
	return newf(KindExternalServiceUnavailable, cause, format, args...)
}

// Internal hides cause from clients; Message should stay generic.
func Internal(cause error, format string, args ...any) *Error {
	return newf(KindInternal, cause, format, args...)
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
