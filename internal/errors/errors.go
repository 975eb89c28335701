package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig          = "CONFIG"
	ErrTimeout         = "TIMEOUT"
	ErrNetwork         = "NETWORK"
	ErrAuth            = "AUTH"
	ErrRejected        = "REJECTED"
	ErrInvalidResponse = "INVALID_RESPONSE"
	ErrTheme           = "THEME"
	ErrNotFound        = "NOT_FOUND"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrNetwork code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrNetwork,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message and cause on a single line, for log panes where
// the multi-line form would not fit.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, firstLine(e.Cause.Error()))
}

func firstLine(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "✗ ")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost structured Error in the chain,
// or "" when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var vmErr *Error
	if errors.As(err, &vmErr) {
		return vmErr.Code
	}
	return ""
}

// IsTransient reports whether err is a fetch failure worth retrying on the
// next tick. Auth and config failures need the user to act first.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrTimeout, ErrNetwork, ErrRejected, ErrInvalidResponse:
		return true
	default:
		return false
	}
}

// Short formats any error for a single-line pane.
func Short(err error) string {
	if err == nil {
		return ""
	}
	var vmErr *Error
	if errors.As(err, &vmErr) {
		return vmErr.Short()
	}
	return firstLine(err.Error())
}
