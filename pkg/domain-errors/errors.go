// Package domainerrors defines the coded error type shared by services,
// selectors and the HTTP boundary.
//
// Services raise *Error values; transports map Code to a status and render
// Message to the caller. Wrapped causes stay available to errors.Is/As but are
// never rendered.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeApplication: a business rule was violated. Message is user facing.
	CodeApplication Code = "application_error"
	// CodePermissionViolation: role or ownership check failed.
	CodePermissionViolation Code = "permission_denied"

	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// PermissionViolationMessage is the fixed message of every permission failure.
const PermissionViolationMessage = "You do not have permission to perform this action."

// Error is the common base of every domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports equality on code and message so tests can use errors.Is against
// a freshly constructed value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a domain error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// NotFound is shorthand for New(CodeNotFound, msg).
func NotFound(msg string) *Error {
	return New(CodeNotFound, msg)
}

// Application is shorthand for New(CodeApplication, msg).
func Application(msg string) *Error {
	return New(CodeApplication, msg)
}

// Applicationf is Application with a formatted message.
func Applicationf(format string, args ...any) *Error {
	return Newf(CodeApplication, format, args...)
}

// PermissionViolation returns the standard permission failure.
func PermissionViolation() *Error {
	return New(CodePermissionViolation, PermissionViolationMessage)
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the first *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
