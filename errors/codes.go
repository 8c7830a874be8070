package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resolution errors. These are permanent: the call site cannot be bound
// to a callable, so re-invoking will not help.
const (
	// ErrCodeResolutionFailed indicates no callable could be bound to the
	// requesting call site.
	ErrCodeResolutionFailed ErrorCode = "RESOLUTION_FAILED"
	// ErrCodeInvalidCall indicates the requesting frame could not be
	// located on the call stack.
	ErrCodeInvalidCall ErrorCode = "INVALID_CALL"
	// ErrCodeNoCandidate indicates no registered variant or declared
	// method matched the call site's name and argument count.
	ErrCodeNoCandidate ErrorCode = "NO_CANDIDATE"
)

// Invocation errors.
const (
	// ErrCodeArgumentMismatch indicates the current arguments cannot be
	// passed to the bound callable's parameters.
	ErrCodeArgumentMismatch ErrorCode = "ARGUMENT_MISMATCH"
	// ErrCodeHandlerFailure indicates a caller-supplied failure handler
	// panicked. Contained, never propagated.
	ErrCodeHandlerFailure ErrorCode = "HANDLER_FAILURE"
	// ErrCodeNotRunnable indicates a run was requested on a context that
	// cannot be driven (the Invalid sentinel).
	ErrCodeNotRunnable ErrorCode = "NOT_RUNNABLE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeResolutionFailed: false,
	ErrCodeInvalidCall:      false,
	ErrCodeNoCandidate:      false,
	ErrCodeArgumentMismatch: true,
	ErrCodeHandlerFailure:   false,
	ErrCodeNotRunnable:      false,
}

// IsRetryableCode returns true if the error code indicates a condition
// the retry loop may recover from on a later attempt.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
