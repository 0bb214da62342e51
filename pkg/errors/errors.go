// Package errors provides structured error types for the mammosim engine.
//
// The simulation core never recovers silently from invalid input: bad
// geometry, out-of-frame projections, out-of-range profile indices, and
// degenerate ROI denominators are all surfaced to the caller with a
// machine-readable code. The presentation layer decides how to report them.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: input validation failures (geometry, beam, phantom)
//   - PROJECTION_*: ray sampling failures
//   - INDEX_*, DIVIDE_*: analysis failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGeometry, "SID %.0f must be < SDD %.0f", sid, sdd)
//	if errors.Is(err, errors.ErrCodeInvalidGeometry) {
//	    // Handle geometry error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "saving %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the simulation error taxonomy.
const (
	// Input validation errors
	ErrCodeInvalidGeometry Code = "INVALID_GEOMETRY"
	ErrCodeInvalidParam    Code = "INVALID_PARAM"
	ErrCodeInvalidPhantom  Code = "INVALID_PHANTOM"

	// Projection errors
	ErrCodeProjectionOutOfFrame Code = "PROJECTION_OUT_OF_FRAME"

	// Analysis errors
	ErrCodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"
	ErrCodeDivideByZero    Code = "DIVIDE_BY_ZERO"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
