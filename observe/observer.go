package observe

import "time"

// Attempt describes one completed attempt of a retry context.
type Attempt struct {
	// Callable is the bare name of the retried callable.
	Callable string
	// Site is the call-site key the context is stored under.
	Site string
	// Number is the 1-based attempt number.
	Number int
	// Limit is the retry limit in force when the attempt ran.
	Limit int
	// Duration is the wall-clock time the attempt took.
	Duration time.Duration
	// Err is nil when the attempt succeeded.
	Err error
}

// Observer receives retry lifecycle events. Implementations must be
// safe for concurrent use when contexts from multiple stores share one
// observer.
type Observer interface {
	// OnStart fires when the engine begins driving a context.
	OnStart(callable, site string, limit int)
	// OnAttempt fires after every attempt, successful or not.
	OnAttempt(a Attempt)
	// OnSuccess fires when an attempt succeeds and the loop ends.
	OnSuccess(callable, site string, attempts int)
	// OnExhausted fires when the retry budget runs out.
	OnExhausted(callable, site string, attempts int, err error)
	// OnHandlerFailure fires when a failure handler panics.
	OnHandlerFailure(callable string, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnStart(string, string, int)            {}
func (NopObserver) OnAttempt(Attempt)                      {}
func (NopObserver) OnSuccess(string, string, int)          {}
func (NopObserver) OnExhausted(string, string, int, error) {}
func (NopObserver) OnHandlerFailure(string, error)         {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnStart(callable, site string, limit int) {
	for _, o := range m {
		o.OnStart(callable, site, limit)
	}
}

func (m MultiObserver) OnAttempt(a Attempt) {
	for _, o := range m {
		o.OnAttempt(a)
	}
}

func (m MultiObserver) OnSuccess(callable, site string, attempts int) {
	for _, o := range m {
		o.OnSuccess(callable, site, attempts)
	}
}

func (m MultiObserver) OnExhausted(callable, site string, attempts int, err error) {
	for _, o := range m {
		o.OnExhausted(callable, site, attempts, err)
	}
}

func (m MultiObserver) OnHandlerFailure(callable string, err error) {
	for _, o := range m {
		o.OnHandlerFailure(callable, err)
	}
}
