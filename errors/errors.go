package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the retry loop may recover from this error.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Code extracts the ErrorCode from err, or "" if err is not an AppError.
func Code(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// --- Common Error Constructors ---

// ResolutionFailed creates a new AppError for a call site that could not
// be bound to a callable.
func ResolutionFailed(callable string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeResolutionFailed, Message: fmt.Sprintf("failed to bind a callable for %s", callable),
		Retryable: false, Cause: cause,
		Details: map[string]any{"callable": callable},
	}
}

// InvalidCall creates a new AppError for a retry handle request whose
// frame could not be located on the stack.
func InvalidCall() *AppError {
	return &AppError{
		Code: ErrCodeInvalidCall, Message: "invalid call: requesting frame not found on the stack",
		Retryable: false,
	}
}

// NoCandidate creates a new AppError when no callable matches the call
// site's name and argument count.
func NoCandidate(name string, argCount int) *AppError {
	return &AppError{
		Code: ErrCodeNoCandidate, Message: fmt.Sprintf("no callable named %q accepts %d argument(s)", name, argCount),
		Retryable: false,
		Details:   map[string]any{"name": name, "arg_count": argCount},
	}
}

// ArgumentMismatch creates a new AppError for arguments that cannot be
// passed to the bound callable.
func ArgumentMismatch(callable string, position int, reason string) *AppError {
	return &AppError{
		Code: ErrCodeArgumentMismatch, Message: fmt.Sprintf("argument %d of %s: %s", position, callable, reason),
		Retryable: true,
		Details:   map[string]any{"callable": callable, "position": position},
	}
}

// HandlerFailure creates a new AppError recording a panicking failure
// handler. It is logged and kept as a side channel, never propagated.
func HandlerFailure(callable string, recovered any) *AppError {
	return &AppError{
		Code: ErrCodeHandlerFailure, Message: fmt.Sprintf("failure handler of %s panicked: %v", callable, recovered),
		Retryable: false,
		Details:   map[string]any{"callable": callable},
	}
}

// NotRunnable creates a new AppError for a run request on a context that
// cannot be driven.
func NotRunnable(description string) *AppError {
	return &AppError{
		Code: ErrCodeNotRunnable, Message: fmt.Sprintf("cannot run: %s", description),
		Retryable: false,
	}
}
