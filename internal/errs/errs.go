package errs

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies why a scenario step failed.
type Code string

const (
	ElementNotFound      Code = "element_not_found"
	AssertionFailed      Code = "assertion_failed"
	InvalidConfiguration Code = "invalid_configuration"
	UnexpectedStatus     Code = "unexpected_status"
	Timeout              Code = "timeout"
	Unavailable          Code = "unavailable"
	Internal             Code = "internal"
)

// Error is a coded harness error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
// Context deadline errors that were never coded report Timeout.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return Internal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the outermost coded message, or the raw error text
// when nothing in the chain is coded.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return err.Error()
}

// ExitCode maps an error code to a process exit status for the CLI.
func ExitCode(code Code) int {
	switch code {
	case InvalidConfiguration:
		return 2
	case Unavailable:
		return 3
	default:
		return 1
	}
}

// AssertionError describes an observed value that did not match expectations.
type AssertionError struct {
	What     string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %v, got %v", e.What, e.Expected, e.Actual)
}

// Assertion returns an AssertionFailed error carrying an AssertionError.
func Assertion(what string, expected, actual any) error {
	ae := &AssertionError{What: what, Expected: expected, Actual: actual}
	return &Error{
		Code: AssertionFailed,
		Err:  ae,
	}
}

// AsAssertion extracts the AssertionError from err's chain.
func AsAssertion(err error) (*AssertionError, bool) {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
