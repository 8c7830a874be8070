package rerun

import (
	"fmt"
	"time"

	"github.com/kbukum/rerun/errors"
	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/observe"
	"github.com/kbukum/rerun/resolve"
)

// Handler is called after every failed attempt. It may inspect the
// failure and mutate the context's arguments for the next attempt.
// A panicking handler is contained: the panic is logged, recorded on
// the context, and the retry loop continues undisturbed.
type Handler func(r *Retry, err error)

// Retry is the retry context of one call site. It is created and
// driven by its Store and must stay on the store's goroutine.
type Retry struct {
	store *Store

	id          string
	key         string
	function    string
	description string
	calledLine  int

	callable *resolve.Callable
	target   any
	args     []any

	limit   int
	handler Handler

	status   Status
	attempts int
	hasMore  bool
	results  []any
	lastErr  error

	handlerFailures []error
}

// Run drives the retry loop when called on a fresh context and reports
// whether the caller should return the context's outcome instead of
// executing its body.
//
// The three answers, by activation:
//   - original call, fresh context: the loop runs to completion here,
//     Run returns true, and the caller reads Result/Err;
//   - attempt activation (the engine re-invoked the function): Run
//     returns false so the body executes;
//   - invalid sentinel: Run returns false and the body executes
//     unretried.
//
// When every attempt failed with an error, Run still returns true and
// Err carries the last error unchanged. When the last attempt
// panicked, Run re-panics with the original panic value after the
// context is evicted.
func (r *Retry) Run() bool {
	switch r.status {
	case StatusInvalid:
		r.store.log.Warn("run requested on an invalid context", logger.Fields(
			logger.FieldStatus, r.status.String(),
		))
		return false
	case StatusRunning:
		return false
	case StatusSucceeded, StatusExhausted:
		return true
	}
	r.drive()
	return true
}

func (r *Retry) drive() {
	r.status = StatusRunning
	r.store.pushActive(r)
	defer func() {
		r.store.popActive()
		r.store.evict(r.key)
	}()

	total := r.limit + 1
	r.store.observer.OnStart(r.callable.Name(), r.key, r.limit)

	for r.attempts = 1; r.attempts <= total; r.attempts++ {
		r.hasMore = r.attempts < total

		start := time.Now()
		results, err := r.callable.Call(r.args)
		r.store.observer.OnAttempt(observe.Attempt{
			Callable: r.callable.Name(),
			Site:     r.key,
			Number:   r.attempts,
			Limit:    r.limit,
			Duration: time.Since(start),
			Err:      err,
		})

		if err == nil {
			r.results = results
			r.lastErr = nil
			r.status = StatusSucceeded
			r.store.observer.OnSuccess(r.callable.Name(), r.key, r.attempts)
			return
		}

		r.lastErr = err
		r.onFailure(err)
		if !r.hasMore {
			break
		}
	}

	r.attempts = total
	r.status = StatusExhausted
	r.store.observer.OnExhausted(r.callable.Name(), r.key, r.attempts, r.lastErr)

	var pe *resolve.PanicError
	if errors.As(r.lastErr, &pe) {
		panic(pe.Value)
	}
}

func (r *Retry) onFailure(err error) {
	if r.store.logFailures {
		file, line := r.callable.Location()
		r.store.log.Error("attempt failed", logger.Fields(
			logger.FieldCallable, r.description,
			logger.FieldCallSite, r.key,
			logger.FieldContextID, r.id,
			logger.FieldFile, file,
			logger.FieldLine, line,
			logger.FieldAttempt, r.attempts,
			logger.FieldLimit, r.limit,
			logger.FieldErrorType, fmt.Sprintf("%T", err),
			logger.FieldError, err.Error(),
		))
	}

	if r.handler == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			hf := errors.HandlerFailure(r.callable.Name(), rec)
			r.handlerFailures = append(r.handlerFailures, hf)
			r.store.log.Error("failure handler panicked", logger.ErrorFields(r.callable.Name(), hf))
			r.store.observer.OnHandlerFailure(r.callable.Name(), hf)
		}
	}()
	r.handler(r, err)
}

// UpdateArguments overwrites the context's arguments positionally,
// leaving any tail beyond the given values untouched. The next attempt
// sees the updated values.
func (r *Retry) UpdateArguments(args ...any) {
	for i := 0; i < len(args) && i < len(r.args); i++ {
		r.args[i] = args[i]
	}
}

// SetRetryLimit sets the number of re-invocations after the first
// failure. It only applies to a context that has not started running;
// afterwards it is a no-op, so the prologue of an attempt activation
// cannot move the budget mid-loop.
func (r *Retry) SetRetryLimit(limit int) {
	if r.status != StatusRunnable || limit < 0 {
		return
	}
	r.limit = limit
}

// SetHandler installs the failure handler. Like SetRetryLimit it is a
// no-op once the context is running.
func (r *Retry) SetHandler(h Handler) {
	if r.status != StatusRunnable {
		return
	}
	r.handler = h
}

// Result returns the first non-error result of the successful attempt,
// driving the loop first if the context has not run yet. It returns
// nil for a failed or result-less callable.
func (r *Retry) Result() any {
	if r.status == StatusRunnable {
		r.Run()
	}
	if len(r.results) == 0 {
		return nil
	}
	return r.results[0]
}

// Results returns all non-error results of the successful attempt.
func (r *Retry) Results() []any {
	return r.results
}

// Err returns the error of the last failed attempt, nil after success.
func (r *Retry) Err() error {
	return r.lastErr
}

// Status returns the context's lifecycle state.
func (r *Retry) Status() Status { return r.status }

// Succeeded reports whether an attempt succeeded.
func (r *Retry) Succeeded() bool { return r.status == StatusSucceeded }

// Runnable reports whether the context can still be driven.
func (r *Retry) Runnable() bool { return r.status == StatusRunnable }

// HasMoreAttempts reports whether the current attempt is not the last
// one. Handlers use it to decide whether mutating arguments is still
// worthwhile.
func (r *Retry) HasMoreAttempts() bool { return r.hasMore }

// Attempts returns the number of attempts driven so far.
func (r *Retry) Attempts() int { return r.attempts }

// Description returns the human-readable call-site provenance, for
// example "pkg.(*Client).Pull is called on pkg.main(main.go:24)".
func (r *Retry) Description() string { return r.description }

// Key returns the call-site key the context is stored under.
func (r *Retry) Key() string { return r.key }

// Target returns the receiver the callable is bound to, nil for
// registered package-level functions.
func (r *Retry) Target() any { return r.target }

// Arguments returns a copy of the current argument values.
func (r *Retry) Arguments() []any {
	return append([]any(nil), r.args...)
}

// CalledLine returns the line number of the nearest caller of the
// retried function, 0 when unknown.
func (r *Retry) CalledLine() int { return r.calledLine }

// ID returns the context's unique id, used for log and metric
// correlation.
func (r *Retry) ID() string { return r.id }

// HandlerFailures returns the contained panics of the failure handler,
// in attempt order.
func (r *Retry) HandlerFailures() []error {
	return append([]error(nil), r.handlerFailures...)
}
