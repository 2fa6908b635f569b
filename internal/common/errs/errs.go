// Package errs defines the error kinds shared by the claim, policy and
// workflow services. Each kind is a sentinel; concrete errors carry a
// descriptive message and unwrap to their kind so callers can use errors.Is.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrConfiguration = errors.New("configuration error")
)

// Error is a kind plus a message meant for the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error    { return &Error{Kind: ErrValidation, Message: msg} }
func NotFound(msg string) error      { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error      { return &Error{Kind: ErrConflict, Message: msg} }
func Forbidden(msg string) error     { return &Error{Kind: ErrForbidden, Message: msg} }
func Configuration(msg string) error { return &Error{Kind: ErrConfiguration, Message: msg} }

// StatusCode maps an error kind to the HTTP status used by the controllers.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing text. Errors outside the taxonomy are
// reported generically so driver details do not leak.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
