// Package errors provides structured error types for hostflow.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Error codes for hostflow operations.
const (
	// Argument / configuration errors (detected before any session I/O)
	CodeInvalidArgument = "ARG_001" // Malformed or out-of-range value
	CodeMissingField    = "ARG_002" // Required field absent
	CodeUnknownAction   = "ARG_003" // Unrecognized action kind

	// Timing errors
	CodeTimeout       = "TIME_001" // Bounded wait exceeded its deadline
	CodeBatchDeadline = "TIME_002" // Batch-level deadline elapsed

	// Screen errors
	CodeAssertionFailed  = "SCREEN_001" // Expected screen content absent
	CodeNavigationFailed = "SCREEN_002" // Target screen not reached

	// Session errors
	CodeSessionConnect = "SESSION_001" // Connect failed
	CodeSessionSend    = "SESSION_002" // SendKeys failed
	CodeSessionRead    = "SESSION_003" // Screen read failed

	// IO errors
	CodeIOWrite = "IO_001" // Artifact or ledger write failed
)

// FlowError is the structured error type for hostflow operations.
type FlowError struct {
	Code    string         `json:"code"`              // Error code (e.g., "TIME_001")
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Context (step_index, row_key, etc.)
	Cause   error          `json:"-"`                 // Wrapped error (not serialized)
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *FlowError) WithDetail(key string, value any) *FlowError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error.
func (e *FlowError) WithCause(err error) *FlowError {
	e.Cause = err
	return e
}

// MarshalJSON implements json.Marshaler with cause error message.
func (e *FlowError) MarshalJSON() ([]byte, error) {
	type alias FlowError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// New creates a new FlowError.
func New(code, message string) *FlowError {
	return &FlowError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new FlowError with formatted message.
func Newf(code, format string, args ...any) *FlowError {
	return &FlowError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a FlowError.
func Wrap(code, message string, err error) *FlowError {
	return &FlowError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted FlowError.
func Wrapf(code string, err error, format string, args ...any) *FlowError {
	return &FlowError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// --- Argument Errors ---

// InvalidArgument creates an error for a malformed or out-of-range value.
func InvalidArgument(field, reason string) *FlowError {
	return Newf(CodeInvalidArgument, "invalid value for %s: %s", field, reason).
		WithDetail("field", field)
}

// MissingField creates an error for an absent required field.
func MissingField(action, field string) *FlowError {
	return Newf(CodeMissingField, "%s requires field: %s", action, field).
		WithDetail("action", action).
		WithDetail("field", field)
}

// UnknownAction creates an error for an unrecognized action kind.
func UnknownAction(kind string) *FlowError {
	return Newf(CodeUnknownAction, "unknown action kind: %q", kind).
		WithDetail("action", kind)
}

// --- Timing Errors ---

// Timeout creates an error for a bounded wait that exceeded its deadline.
func Timeout(message string, elapsed time.Duration) *FlowError {
	return Newf(CodeTimeout, "%s after %dms", message, elapsed.Milliseconds()).
		WithDetail("elapsed_ms", elapsed.Milliseconds())
}

// BatchDeadline creates an error for a row abandoned at the batch deadline.
func BatchDeadline(rowKey string, deadline time.Duration) *FlowError {
	return Newf(CodeBatchDeadline, "workflow exceeded %s batch deadline", deadline).
		WithDetail("row_key", rowKey).
		WithDetail("deadline_ms", deadline.Milliseconds())
}

// --- Screen Errors ---

// AssertionFailed creates an error for expected screen content being absent.
// The screen dump is expected to be pre-bounded by the caller.
func AssertionFailed(message, screenDump string) *FlowError {
	return New(CodeAssertionFailed, message).
		WithDetail("screen_dump", screenDump)
}

// NavigationFailed creates an error for a target screen not being reached.
// The screen dump is expected to be pre-bounded by the caller.
func NavigationFailed(target, screenDump string) *FlowError {
	return Newf(CodeNavigationFailed, "failed to reach %s", target).
		WithDetail("target", target).
		WithDetail("screen_dump", screenDump)
}

// --- Classification helpers ---

// codeOf extracts the FlowError code from an error chain, or "".
func codeOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsInvalidArgument reports whether err is an argument/configuration error.
func IsInvalidArgument(err error) bool {
	switch codeOf(err) {
	case CodeInvalidArgument, CodeMissingField, CodeUnknownAction:
		return true
	}
	return false
}

// IsTimeout reports whether err is a timeout (gate acquire or batch deadline).
func IsTimeout(err error) bool {
	switch codeOf(err) {
	case CodeTimeout, CodeBatchDeadline:
		return true
	}
	return false
}

// IsAssertionFailure reports whether err is an assertion failure.
func IsAssertionFailure(err error) bool {
	return codeOf(err) == CodeAssertionFailed
}

// IsNavigationFailure reports whether err is a navigation failure.
func IsNavigationFailure(err error) bool {
	return codeOf(err) == CodeNavigationFailed
}

// IsSessionError reports whether err came from session I/O.
func IsSessionError(err error) bool {
	switch codeOf(err) {
	case CodeSessionConnect, CodeSessionSend, CodeSessionRead:
		return true
	}
	return false
}

// Kind returns a short human-readable kind name for an error, used in
// one-line result summaries.
func Kind(err error) string {
	if err == nil {
		return "unknown"
	}
	switch codeOf(err) {
	case CodeInvalidArgument, CodeMissingField, CodeUnknownAction:
		return "InvalidArgument"
	case CodeTimeout, CodeBatchDeadline:
		return "Timeout"
	case CodeAssertionFailed:
		return "AssertionFailure"
	case CodeNavigationFailed:
		return "NavigationFailure"
	case CodeSessionConnect, CodeSessionSend, CodeSessionRead:
		return "SessionError"
	case CodeIOWrite:
		return "IOError"
	}
	return "SessionError"
}
