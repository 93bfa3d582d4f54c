package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of transport.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindRateLimited:     http.StatusTooManyRequests,
	KindValidation:      http.StatusBadRequest,
	KindUnavailable:     http.StatusServiceUnavailable,
	KindInternal:        http.StatusInternalServerError,
}

// Status returns the HTTP status for k.
func (k Kind) Status() int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a typed, user-facing failure. Code is the stable machine-readable
// identifier (e.g. "cannot_follow"), Message the human-readable description.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so sentinel values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Conflict(code, message string) *Error { return New(KindConflict, code, message) }

func Unauthenticated(code, message string) *Error { return New(KindUnauthenticated, code, message) }

func Forbidden(code, message string) *Error { return New(KindForbidden, code, message) }

func RateLimited(code, message string) *Error { return New(KindRateLimited, code, message) }

func Unavailable(code, message string) *Error { return New(KindUnavailable, code, message) }

// Validation builds a validation failure; fields maps field name to message.
func Validation(code, message string, fields map[string]string) *Error {
	e := New(KindValidation, code, message)
	e.Fields = fields
	return e
}

// Internal wraps an unexpected backend failure. op names the failed operation.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: op + " failed", Err: err}
}

// KindOf reports the Kind of err, defaulting to KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, wrapping untyped errors as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("request", err)
}
