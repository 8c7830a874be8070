// Package errors provides structured error handling for the rerun engine.
// It implements coded error types with retryable detection so callers can
// distinguish resolution problems (permanent) from invocation problems
// (potentially recoverable).
package errors
