package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure so the route layer can pick a status code
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindNotFound
	KindConflict
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// Error carries a user-safe message and an optional wrapped cause
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

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// ErrUnauthorized is returned for every authentication failure so callers
// cannot tell a bad password from an unknown email or a bad token.
var ErrUnauthorized = newError(KindAuthentication, "invalid credentials")

func Forbidden(msg string) *Error  { return newError(KindAuthorization, msg) }
func Validation(msg string) *Error { return newError(KindValidation, msg) }
func NotFound(msg string) *Error   { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error   { return newError(KindConflict, msg) }

// Configuration wraps a missing or invalid setting.
func Configuration(msg string) *Error { return newError(KindConfiguration, msg) }

// Internal wraps an unexpected error. Its message never reaches the client.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that is safe to send to a client.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	switch e.Kind {
	case KindInternal, KindConfiguration:
		return "internal server error"
	}
	return e.Message
}
