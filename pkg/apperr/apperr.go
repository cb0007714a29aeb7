// Package apperr defines the application error type shared by services and handlers.
// Every expected failure carries a stable name and an HTTP status classification.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a classified application failure.
type Error struct {
	Name    string
	Message string
	Status  int
	Details any
	Err     error
}

// New creates an Error with the given name, status, and message.
func New(name string, status int, message string) *Error {
	return &Error{Name: name, Status: status, Message: message}
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

// Is matches any *Error with the same Name.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Name == e.Name
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// WithDetails returns a copy of e carrying details for the response body.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// StatusCode exposes the HTTP status for StatusOf.
func (e *Error) StatusCode() int {
	return e.Status
}

func BadRequest(name, message string) *Error {
	return New(name, http.StatusBadRequest, message)
}

func Unauthorized(name, message string) *Error {
	return New(name, http.StatusUnauthorized, message)
}

func Forbidden(name, message string) *Error {
	return New(name, http.StatusForbidden, message)
}

func NotFound(name, message string) *Error {
	return New(name, http.StatusNotFound, message)
}

func Conflict(name, message string) *Error {
	return New(name, http.StatusConflict, message)
}

// Internal wraps an unexpected error as a 500 failure.
func Internal(err error) *Error {
	return &Error{
		Name:    "InternalServerError",
		Message: "Internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// StatusOf returns the HTTP status for err.
// Errors exposing StatusCode() int anywhere in the chain decide their own status;
// everything else is a 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s > 0 {
			return s
		}
	}
	return http.StatusInternalServerError
}

// NameOf returns the classification name for err.
func NameOf(err error) string {
	var named interface{ ErrorName() string }
	if errors.As(err, &named) {
		return named.ErrorName()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Name
	}
	return http.StatusText(StatusOf(err))
}

// MessageOf returns the client-facing message for err.
// Internal failures never expose their cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var public interface{ PublicMessage() string }
	if errors.As(err, &public) {
		return public.PublicMessage()
	}
	if StatusOf(err) < http.StatusInternalServerError {
		return err.Error()
	}
	return "Internal server error"
}

// DetailsOf returns the details attached to the first *Error in the chain.
func DetailsOf(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
