// Package apperr defines the error taxonomy shared by the services and the
// HTTP layer. Every error a caller should react to carries a Code; anything
// without one is treated as internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for callers and transport mapping.
type Code string

const (
	CodeInternal         Code = "INTERNAL"
	CodeNotFound         Code = "NOT_FOUND"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeSlugExhausted    Code = "SLUG_EXHAUSTED"
	CodeConflict         Code = "CONFLICT"
	CodeRateLimited      Code = "RATE_LIMITED"
)

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case CodeSlugExhausted:
		return http.StatusServiceUnavailable
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded application error with an optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap returns a coded error that keeps cause reachable via errors.Is/As.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error     { return New(CodeNotFound, msg) }
func Unauthorized(msg string) error { return New(CodeUnauthenticated, msg) }
func Forbidden(msg string) error    { return New(CodeForbidden, msg) }
func Validation(msg string) error   { return New(CodeValidationFailed, msg) }
func Conflict(msg string) error     { return New(CodeConflict, msg) }

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Message returns the user-facing message of a coded error. Uncoded errors
// get a generic message so driver details never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
