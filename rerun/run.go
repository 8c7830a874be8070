package rerun

// RunOptions configures the explicit retry loop.
type RunOptions struct {
	// Limit is the number of re-invocations after the first failure.
	Limit int
	// Handler is called after each failed attempt.
	Handler func(attempt int, err error)
}

// RunOption is a functional option for Run and RunFunc.
type RunOption func(*RunOptions)

// WithLimit sets the retry limit. Negative values mean zero retries.
func WithLimit(limit int) RunOption {
	return func(o *RunOptions) { o.Limit = limit }
}

// WithRunHandler sets the per-failure handler.
func WithRunHandler(fn func(attempt int, err error)) RunOption {
	return func(o *RunOptions) { o.Handler = fn }
}

// Run retries an explicitly supplied callable: fn is invoked up to
// limit+1 times until it returns a nil error. No stack inspection, no
// backoff, no cancellation; the engine owns no scheduling. On
// exhaustion the last error is returned unchanged.
func Run[T any](fn func() (T, error), opts ...RunOption) (T, error) {
	var zero T

	o := RunOptions{Limit: 3}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Limit < 0 {
		o.Limit = 0
	}

	var lastErr error
	total := o.Limit + 1
	for attempt := 1; attempt <= total; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if o.Handler != nil {
			o.Handler(attempt, err)
		}
	}
	return zero, lastErr
}

// RunFunc is Run for callables that return only an error.
func RunFunc(fn func() error, opts ...RunOption) error {
	_, err := Run(func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
	return err
}
