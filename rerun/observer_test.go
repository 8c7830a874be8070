package rerun_test

import (
	"testing"

	"github.com/kbukum/rerun/observe"
	"github.com/kbukum/rerun/rerun"
)

type recordingObserver struct {
	starts          int
	attempts        []observe.Attempt
	successes       int
	successAttempts int
	exhausted       int
	handlerFailures int
}

func (r *recordingObserver) OnStart(callable, site string, limit int) { r.starts++ }
func (r *recordingObserver) OnAttempt(a observe.Attempt)              { r.attempts = append(r.attempts, a) }

func (r *recordingObserver) OnSuccess(callable, site string, attempts int) {
	r.successes++
	r.successAttempts = attempts
}

func (r *recordingObserver) OnExhausted(callable, site string, attempts int, err error) {
	r.exhausted++
}

func (r *recordingObserver) OnHandlerFailure(callable string, err error) {
	r.handlerFailures++
}

func TestStore_ObserverLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	s := quietStore(t, rerun.WithRetryLimit(3), rerun.WithObserver(obs))
	f := &flaky{store: s, failures: 2}

	if _, err := f.Fetch(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.starts != 1 {
		t.Errorf("expected 1 start, got %d", obs.starts)
	}
	if len(obs.attempts) != 3 {
		t.Fatalf("expected 3 attempt events, got %d", len(obs.attempts))
	}
	for i, a := range obs.attempts {
		if a.Number != i+1 {
			t.Errorf("attempt %d: unexpected number %d", i, a.Number)
		}
		if a.Callable != "Fetch" {
			t.Errorf("attempt %d: unexpected callable %q", i, a.Callable)
		}
	}
	if obs.attempts[0].Err == nil || obs.attempts[2].Err != nil {
		t.Error("attempt errors recorded wrong")
	}
	if obs.successes != 1 || obs.successAttempts != 3 {
		t.Errorf("unexpected success reporting: %d runs, %d attempts", obs.successes, obs.successAttempts)
	}
	if obs.exhausted != 0 {
		t.Errorf("expected no exhaustion, got %d", obs.exhausted)
	}
}

func TestStore_ObserverExhaustion(t *testing.T) {
	obs := &recordingObserver{}
	s := quietStore(t, rerun.WithRetryLimit(1), rerun.WithObserver(obs))
	b := &brokenHandler{store: s}

	if err := b.Work(); err == nil {
		t.Fatal("expected exhaustion")
	}
	if obs.exhausted != 1 {
		t.Errorf("expected 1 exhaustion event, got %d", obs.exhausted)
	}
	if obs.handlerFailures != 2 {
		t.Errorf("expected 2 handler-failure events, got %d", obs.handlerFailures)
	}
	if len(obs.attempts) != 2 {
		t.Errorf("expected 2 attempt events, got %d", len(obs.attempts))
	}
}
