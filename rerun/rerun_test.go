package rerun_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/rerun/errors"
	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/rerun"
)

func quietStore(t *testing.T, opts ...rerun.Option) *rerun.Store {
	t.Helper()
	return rerun.NewStore(append([]rerun.Option{rerun.WithLogger(logger.Nop())}, opts...)...)
}

// flaky fails its first `failures` body executions, then succeeds.
type flaky struct {
	store    *rerun.Store
	failures int

	calls int
	ids   []string
}

func (f *flaky) Fetch(n int) (int, error) {
	r := f.store.Current(f, n)
	f.ids = append(f.ids, r.ID())
	if r.Run() {
		v, _ := r.Result().(int)
		return v, r.Err()
	}
	f.calls++
	if f.calls <= f.failures {
		return 0, fmt.Errorf("transient %d", f.calls)
	}
	return n * 2, nil
}

func TestStore_FirstAttemptSucceeds(t *testing.T) {
	s := quietStore(t)
	f := &flaky{store: s}

	v, err := f.Fetch(21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 body execution, got %d", f.calls)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store after the run, got %d contexts", s.Len())
	}
}

func TestStore_RecoversAfterFailures(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(3))
	f := &flaky{store: s, failures: 2}

	v, err := f.Fetch(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 20 {
		t.Errorf("expected 20, got %d", v)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 body executions, got %d", f.calls)
	}
}

func TestStore_BoundedRetries(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(2))
	f := &flaky{store: s, failures: 1 << 30}

	_, err := f.Fetch(1)
	if err == nil {
		t.Fatal("expected the last attempt's error")
	}
	// limit 2: first attempt plus two retries, nothing more.
	if f.calls != 3 {
		t.Errorf("expected 3 body executions, got %d", f.calls)
	}
	// The original error crosses the boundary unchanged.
	if err.Error() != "transient 3" {
		t.Errorf("unexpected error %q", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected eviction after exhaustion, got %d contexts", s.Len())
	}
}

func TestStore_FreshContextAfterExhaustion(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(1))
	f := &flaky{store: s, failures: 1 << 30}

	if _, err := f.Fetch(1); err == nil {
		t.Fatal("expected exhaustion")
	}
	if _, err := f.Fetch(1); err == nil {
		t.Fatal("expected exhaustion again")
	}
	// Each top-level call drives its own context: 2 attempts per call.
	if f.calls != 4 {
		t.Errorf("expected 4 body executions, got %d", f.calls)
	}
	// ids[0] is the first call's context, ids[len-1] belongs to the
	// second; the second run must not reuse the evicted context.
	if f.ids[0] == f.ids[len(f.ids)-1] {
		t.Error("expected a fresh context for the second top-level call")
	}
}

// doubleLookup asks for its context twice in one activation.
type doubleLookup struct {
	store    *rerun.Store
	mismatch bool
	calls    int
}

func (d *doubleLookup) Work() error {
	r1 := d.store.Current(d)
	r2 := d.store.Current(d)
	if r1 != r2 {
		d.mismatch = true
	}
	if r1.Run() {
		return r1.Err()
	}
	d.calls++
	if d.calls == 1 {
		return fmt.Errorf("once")
	}
	return nil
}

func TestStore_IdempotentLookup(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(2))
	d := &doubleLookup{store: s}

	if err := d.Work(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.mismatch {
		t.Error("expected identical context instances within one activation")
	}
	if d.calls != 2 {
		t.Errorf("expected 2 body executions, got %d", d.calls)
	}
}

// nest recurses through engine-driven attempts; every depth gets its
// own call-site key and its own retry budget.
type nest struct {
	store *rerun.Store
	fails map[int]int
	calls map[int]int
	keys  map[int]string
}

func (n *nest) Descend(depth int) (int, error) {
	r := n.store.Current(n, depth)
	if r.Run() {
		v, _ := r.Result().(int)
		return v, r.Err()
	}
	n.keys[depth] = r.Key()
	n.calls[depth]++
	if n.calls[depth] <= n.fails[depth] {
		return 0, fmt.Errorf("depth %d failing", depth)
	}
	if depth == 0 {
		return 1, nil
	}
	v, err := n.Descend(depth - 1)
	return v + 1, err
}

func TestStore_RecursiveDisambiguation(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(2))
	n := &nest{
		store: s,
		fails: map[int]int{2: 1, 1: 1, 0: 1},
		calls: map[int]int{},
		keys:  map[int]string{},
	}

	v, err := n.Descend(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 3 {
		t.Errorf("expected 3, got %d", v)
	}
	for depth := 0; depth <= 2; depth++ {
		if n.calls[depth] != 2 {
			t.Errorf("depth %d: expected 2 body executions, got %d", depth, n.calls[depth])
		}
	}
	if n.keys[0] == n.keys[1] || n.keys[1] == n.keys[2] || n.keys[0] == n.keys[2] {
		t.Errorf("expected distinct keys per depth, got %v", n.keys)
	}
	for depth := 0; depth <= 1; depth++ {
		if !strings.HasPrefix(n.keys[depth], n.keys[2]) {
			t.Errorf("depth %d key %q must extend the top-level key %q", depth, n.keys[depth], n.keys[2])
		}
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d contexts", s.Len())
	}
}

// adjuster repairs its own arguments from the failure handler.
type adjuster struct {
	store *rerun.Store
	seen  []int
}

func (a *adjuster) Probe(n int, tag string) (string, error) {
	r := a.store.Current(a, n, tag)
	r.SetHandler(func(rt *rerun.Retry, err error) {
		if rt.HasMoreAttempts() {
			rt.UpdateArguments(100)
		}
	})
	if r.Run() {
		v, _ := r.Result().(string)
		return v, r.Err()
	}
	a.seen = append(a.seen, n)
	if n != 100 {
		return "", fmt.Errorf("need %d, have %d", 100, n)
	}
	return fmt.Sprintf("%d:%s", n, tag), nil
}

func TestStore_HandlerUpdatesArguments(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(2))
	a := &adjuster{store: s}

	v, err := a.Probe(5, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The mutated head is visible on the next attempt, the tail is
	// untouched.
	if v != "100:x" {
		t.Errorf("expected \"100:x\", got %q", v)
	}
	if len(a.seen) != 2 || a.seen[0] != 5 || a.seen[1] != 100 {
		t.Errorf("unexpected attempt arguments %v", a.seen)
	}
}

// limitBumper tries to shrink its own budget mid-run.
type limitBumper struct {
	store *rerun.Store
	calls int
}

func (l *limitBumper) Work() error {
	r := l.store.Current(l)
	r.SetRetryLimit(3)
	r.SetHandler(func(rt *rerun.Retry, err error) {
		rt.SetRetryLimit(0)
	})
	if r.Run() {
		return r.Err()
	}
	l.calls++
	return fmt.Errorf("always failing")
}

func TestStore_RetryLimitFrozenWhileRunning(t *testing.T) {
	s := quietStore(t)
	l := &limitBumper{store: s}

	if err := l.Work(); err == nil {
		t.Fatal("expected exhaustion")
	}
	// SetRetryLimit(3) from the fresh prologue applies; the handler's
	// SetRetryLimit(0) on the running context is a no-op.
	if l.calls != 4 {
		t.Errorf("expected 4 body executions, got %d", l.calls)
	}
}

// panicky always panics; exhaustion re-raises the original value.
type panicky struct {
	store *rerun.Store
	calls int
}

func (p *panicky) Explode() error {
	r := p.store.Current(p)
	if r.Run() {
		return r.Err()
	}
	p.calls++
	panic(fmt.Sprintf("boom %d", p.calls))
}

func TestStore_PanicExhaustionRepanics(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(1))
	p := &panicky{store: s}

	defer func() {
		rec := recover()
		if rec != "boom 2" {
			t.Errorf("expected the last panic value, got %v", rec)
		}
		if p.calls != 2 {
			t.Errorf("expected 2 body executions, got %d", p.calls)
		}
		if s.Len() != 0 {
			t.Errorf("expected eviction before the re-panic, got %d contexts", s.Len())
		}
	}()
	_ = p.Explode()
	t.Error("expected a panic to reach the caller")
}

// brokenHandler panics inside the failure handler.
type brokenHandler struct {
	store    *rerun.Store
	calls    int
	captured []error
}

func (b *brokenHandler) Work() error {
	r := b.store.Current(b)
	r.SetHandler(func(rt *rerun.Retry, err error) {
		panic("handler bug")
	})
	if r.Run() {
		b.captured = r.HandlerFailures()
		return r.Err()
	}
	b.calls++
	return fmt.Errorf("attempt %d", b.calls)
}

func TestStore_HandlerPanicContained(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(2))
	b := &brokenHandler{store: s}

	err := b.Work()
	if err == nil || err.Error() != "attempt 3" {
		t.Fatalf("expected the original attempt error, got %v", err)
	}
	// The handler panicked on every failure without disturbing the loop.
	if b.calls != 3 {
		t.Errorf("expected 3 body executions, got %d", b.calls)
	}
	if len(b.captured) != 3 {
		t.Fatalf("expected 3 recorded handler failures, got %d", len(b.captured))
	}
	for _, hf := range b.captured {
		if errors.Code(hf) != errors.ErrCodeHandlerFailure {
			t.Errorf("unexpected code %q", errors.Code(hf))
		}
	}
}

func TestStore_InvalidSentinelForClosures(t *testing.T) {
	s := quietStore(t)

	var r *rerun.Retry
	func() {
		r = s.Current(nil)
	}()

	if r == nil {
		t.Fatal("expected the invalid sentinel, got nil")
	}
	if r.Status() != rerun.StatusInvalid {
		t.Errorf("expected invalid status, got %v", r.Status())
	}
	if r.Run() {
		t.Error("the invalid sentinel must never drive")
	}
	if s.Len() != 0 {
		t.Errorf("the sentinel must not be stored, got %d contexts", s.Len())
	}
}

type hidden struct {
	store *rerun.Store
}

func (h *hidden) probe() *rerun.Retry {
	return h.store.Current(h)
}

func TestStore_InvalidSentinelForUnexportedMethods(t *testing.T) {
	s := quietStore(t)
	h := &hidden{store: s}

	r := h.probe()
	if r.Status() != rerun.StatusInvalid {
		t.Errorf("expected invalid status for an unexported method, got %v", r.Status())
	}
}

func TestStore_InvalidSentinelIsShared(t *testing.T) {
	s := quietStore(t)
	h := &hidden{store: s}

	if h.probe() != h.probe() {
		t.Error("expected one shared sentinel per store")
	}
}

var (
	regStore *rerun.Store
	regCalls int
)

func PullSnapshot(addr string) (string, error) {
	r := regStore.Current(nil, addr)
	if r.Run() {
		v, _ := r.Result().(string)
		return v, r.Err()
	}
	regCalls++
	if regCalls < 3 {
		return "", fmt.Errorf("unreachable")
	}
	return "snapshot@" + addr, nil
}

func TestStore_RegisteredFunction(t *testing.T) {
	s := quietStore(t, rerun.WithRetryLimit(3))
	if err := s.Register("PullSnapshot", PullSnapshot); err != nil {
		t.Fatalf("Register: %v", err)
	}
	regStore, regCalls = s, 0

	v, err := PullSnapshot("10.0.0.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "snapshot@10.0.0.7" {
		t.Errorf("unexpected result %q", v)
	}
	if regCalls != 3 {
		t.Errorf("expected 3 body executions, got %d", regCalls)
	}
}

func TestStore_RegisterRejectsNonFunc(t *testing.T) {
	s := quietStore(t)
	if err := s.Register("x", 42); err == nil {
		t.Fatal("expected an error for a non-func variant")
	}
}

func TestStore_UnregisteredFunctionGetsSentinel(t *testing.T) {
	s := quietStore(t)
	regStore, regCalls = s, 0

	// Without registration the resolver has no candidates; the body
	// runs unretried and the error passes straight through.
	_, err := PullSnapshot("10.0.0.7")
	if err == nil || err.Error() != "unreachable" {
		t.Errorf("expected the body's own error, got %v", err)
	}
	if regCalls != 1 {
		t.Errorf("expected exactly 1 body execution, got %d", regCalls)
	}
}

func TestStore_ContextMetadata(t *testing.T) {
	s := quietStore(t)
	g := &inspect{store: s}

	// The context is evicted when the run ends, but the handle stays
	// readable.
	r := g.Grab(7)

	if !strings.Contains(r.Description(), "Grab is called on") {
		t.Errorf("unexpected description %q", r.Description())
	}
	if !strings.Contains(r.Key(), "Grab") {
		t.Errorf("unexpected key %q", r.Key())
	}
	if r.Target() != g {
		t.Error("expected the receiver as target")
	}
	if got := r.Arguments(); len(got) != 1 || got[0].(int) != 7 {
		t.Errorf("unexpected arguments %v", got)
	}
	if r.CalledLine() == 0 {
		t.Error("expected a recorded caller line")
	}
	if r.ID() == "" {
		t.Error("expected a context id")
	}
	if !r.Succeeded() {
		t.Error("expected a succeeded context")
	}
}

type inspect struct {
	store *rerun.Store
}

func (i *inspect) Grab(n int) *rerun.Retry {
	r := i.store.Current(i, n)
	if r.Run() {
		return r
	}
	return r
}

func TestDefault_Singleton(t *testing.T) {
	if rerun.Default() != rerun.Default() {
		t.Error("expected one process-wide store")
	}
}
