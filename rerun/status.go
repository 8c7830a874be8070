package rerun

// Status is the lifecycle state of a retry context.
type Status int

const (
	// StatusRunnable marks a fresh context that has not been driven yet.
	StatusRunnable Status = iota
	// StatusRunning marks a context currently driving attempts.
	StatusRunning
	// StatusSucceeded marks a context whose last attempt succeeded.
	StatusSucceeded
	// StatusExhausted marks a context that ran out of retry budget.
	StatusExhausted
	// StatusInvalid marks the sentinel returned when no context could
	// be built for a call site. It never drives anything.
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusRunnable:
		return "runnable"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusExhausted:
		return "exhausted"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}
