// Package apperr defines the error taxonomy every pipeline stage reports
// with. An Error carries the HTTP status it translates to; the server's
// error handler is the single place that turns one into a response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an internal cause for logging. The cause is never
// rendered to clients.
func (e *Error) WithCause(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, cause: err}
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Something went wrong!", cause: err}
}

// From extracts an *Error from err, wrapping anything unrecognized as a 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
