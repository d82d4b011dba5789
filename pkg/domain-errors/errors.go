// Package domainerrors defines the coded error type shared by all domain
// services. Services attach a Code so transport layers can translate errors
// into HTTP responses without string matching, and callers can branch on
// HasCode without depending on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport translation and caller branching.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodePartialWrite       Code = "partial_write"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. The wrapped cause, if any, is preserved for
// errors.Is/As chains but never exposed in transport responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is is shorthand for HasCode, matching the call sites that read better as a
// predicate ("if dErrors.Is(err, dErrors.CodeBadRequest)").
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// GetCode returns the outermost code carried by err, or CodeInternal if err is
// not a coded error.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
