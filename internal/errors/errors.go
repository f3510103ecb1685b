package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the structured error type for vaultindex.
type Error struct {
	// Code is the unique error code (e.g., "ERR_202_FILE_READ").
	Code string

	// Message is the human-readable error message.
	Message string

	// Severity distinguishes run-aborting errors from per-file failures.
	Severity Severity

	// Path is the vault-relative file the error belongs to, if any.
	Path string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel values
// constructed via New(code, ...).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithPath attaches a vault-relative file path to the error.
// Returns the error for chaining.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// New creates an Error with the given code and message.
// Severity is derived from the code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates an Error with a formatted message.
func Newf(code string, cause error, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), cause)
}

// Wrap creates an Error from an existing error. The wrapped error's
// message becomes the Error message. Returns nil for a nil error.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IsFatal reports whether the error should abort the whole run.
// Non-structured errors are treated as fatal: they come from places
// that did not classify the failure as a per-file one.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ve *Error
	if stderrors.As(err, &ve) {
		return ve.Severity == SeverityFatal
	}
	return true
}

// GetCode extracts the error code, unwrapping as needed. Returns empty
// string for non-structured errors.
func GetCode(err error) string {
	var ve *Error
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
