// Package apperr defines the error kinds surfaced by the services and how
// they map onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to its response code. Conflict stays 400 to keep
// "User already exists" a plain bad request for existing clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// ForbiddenCause wraps a policy error so callers can still inspect it with errors.As.
func ForbiddenCause(msg string, cause error) error {
	return &Error{Kind: KindForbidden, Message: msg, Err: cause}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps an unexpected failure. The message shown to clients is always "Server error".
func Internal(err error) error {
	return &Error{Kind: KindInternal, Message: "Server error", Err: err}
}

// KindOf returns the kind of err; errors not produced by this package are Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Server error"
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
