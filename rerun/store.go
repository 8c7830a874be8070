package rerun

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/rerun/callsite"
	"github.com/kbukum/rerun/config"
	"github.com/kbukum/rerun/errors"
	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/observe"
	"github.com/kbukum/rerun/resolve"
)

// The engine's own frames on a captured stack: this package, which
// drives the loop, and the resolve package, which performs the
// reflective re-invocation.
var (
	enginePrefix  = reflect.TypeOf(Store{}).PkgPath() + "."
	resolvePrefix = reflect.TypeOf(resolve.Callable{}).PkgPath() + "."
)

// Store is a registry of live retry contexts keyed by call site. A
// Store is owned by exactly one goroutine; concurrent programs create
// one per worker.
type Store struct {
	cfg      *config.Config
	log      *logger.Logger
	observer observe.Observer

	defaultLimit int
	logFailures  bool

	limitOverride *int
	logOverride   *bool

	locator  *callsite.Locator
	contexts map[string]*Retry
	funcs    map[string][]*resolve.Callable

	// active is the stack of contexts currently driving attempts,
	// innermost last. It resolves re-entrant lookups from engine-driven
	// activations back to their driving context.
	active []*Retry

	invalid *Retry
}

// NewStore creates a store. Without options it uses config.Default,
// the global logger, and no observer.
func NewStore(opts ...Option) *Store {
	s := &Store{
		contexts: make(map[string]*Retry),
		funcs:    make(map[string][]*resolve.Callable),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if s.log == nil {
		s.log = logger.GetGlobalLogger().WithComponent("rerun")
	}
	if s.observer == nil {
		s.observer = observe.NopObserver{}
	}

	s.defaultLimit = s.cfg.DefaultRetryLimit
	if s.limitOverride != nil {
		s.defaultLimit = *s.limitOverride
	}
	s.logFailures = s.cfg.LogFailures
	if s.logOverride != nil {
		s.logFailures = *s.logOverride
	}

	s.locator = &callsite.Locator{
		EntrySuffix:    ".(*Store).Current",
		EnginePrefixes: []string{enginePrefix, resolvePrefix},
	}
	s.invalid = &Retry{
		store:       s,
		id:          uuid.NewString(),
		status:      StatusInvalid,
		description: "unresolvable call site",
	}
	return s
}

// Current returns the retry context of the calling function's call
// site, creating it on first sight. Within one engine-driven attempt
// the lookup returns the driving context itself, so the prologue of a
// re-invoked function observes the running loop instead of opening a
// new one.
//
// target is the receiver whose exported method is being retried; pass
// nil from a package-level function registered with Register. When no
// context can be built the shared invalid sentinel is returned, never
// nil: its Run reports false and the body executes unretried.
func (s *Store) Current(target any, args ...any) *Retry {
	frames := callsite.Stack()
	idx, ok := s.locator.Locate(frames)
	if !ok {
		s.log.Warn("requesting frame not found on the stack")
		return s.invalid
	}

	if r := s.driving(frames, idx); r != nil {
		return r
	}

	key := s.locator.Key(frames, idx)
	if r, ok := s.contexts[key]; ok {
		return r
	}

	r, err := s.newContext(frames, idx, key, target, args)
	if err != nil {
		s.log.Warn("cannot build retry context", logger.MergeWithError(logger.Fields(
			logger.FieldCallSite, key,
		), err))
		return s.invalid
	}
	s.contexts[key] = r
	return r
}

// RunCurrent is Current followed by Run, for the one-line prologue:
//
//	if r, done := store.RunCurrent(c, n); done {
//		return r.Result().(int), r.Err()
//	}
func (s *Store) RunCurrent(target any, args ...any) (*Retry, bool) {
	r := s.Current(target, args...)
	return r, r.Run()
}

// Register installs package-level function variants under a bare name.
// Overload selection between variants sharing a name happens at lookup
// time, against the live argument values.
func (s *Store) Register(name string, fns ...any) error {
	for _, fn := range fns {
		c, err := resolve.NewCallable(name, reflect.ValueOf(fn))
		if err != nil {
			return err
		}
		s.funcs[name] = append(s.funcs[name], c)
	}
	return nil
}

// Len returns the number of live contexts in the store.
func (s *Store) Len() int { return len(s.contexts) }

// driving resolves a lookup from an engine-driven activation back to
// the context driving it: the user frame must match the innermost
// active context's function and sit directly on engine machinery.
func (s *Store) driving(frames []callsite.Frame, idx int) *Retry {
	if len(s.active) == 0 {
		return nil
	}
	top := s.active[len(s.active)-1]
	if frames[idx].Function != top.function {
		return nil
	}
	for i := idx + 1; i < len(frames); i++ {
		if !s.locator.Internal(frames[i].Function) {
			return nil
		}
		if strings.HasPrefix(frames[i].Function, enginePrefix) {
			return top
		}
	}
	return nil
}

func (s *Store) newContext(frames []callsite.Frame, idx int, key string, target any, args []any) (*Retry, error) {
	name, ok := callableName(frames[idx].Function)
	if !ok {
		return nil, errors.ResolutionFailed(frames[idx].Function,
			fmt.Errorf("anonymous functions cannot be rebound"))
	}

	var c *resolve.Callable
	var err error
	if target != nil {
		c, err = resolve.TargetMethod(target, name, args)
	} else {
		c, err = resolve.Best(name, s.funcs[name], args)
	}
	if err != nil {
		return nil, err
	}

	desc, calledLine := s.locator.Describe(frames, idx)
	return &Retry{
		store:       s,
		id:          uuid.NewString(),
		key:         key,
		function:    frames[idx].Function,
		description: desc,
		calledLine:  calledLine,
		callable:    c,
		target:      target,
		args:        append([]any(nil), args...),
		limit:       s.defaultLimit,
		status:      StatusRunnable,
		hasMore:     true,
	}, nil
}

func (s *Store) pushActive(r *Retry) {
	s.active = append(s.active, r)
}

func (s *Store) popActive() {
	s.active = s.active[:len(s.active)-1]
}

func (s *Store) evict(key string) {
	delete(s.contexts, key)
}

// callableName extracts the bare method or function name from a fully
// qualified frame name. Method values ("-fm") and instantiated
// generics ("[...]") are stripped; anonymous functions ("func1") are
// unresolvable.
func callableName(function string) (string, bool) {
	name := function
	if i := strings.LastIndex(name, ")."); i >= 0 {
		name = name[i+2:]
	} else if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	if name == "" || isAnonymous(name) {
		return "", false
	}
	return name, true
}

func isAnonymous(name string) bool {
	if !strings.HasPrefix(name, "func") {
		return false
	}
	rest := name[len("func"):]
	if rest == "" {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// --- default store ---

var (
	defaultOnce  sync.Once
	defaultStore *Store
)

// Default returns the process-wide store, created on first use from
// the loaded configuration. It is intended for single-goroutine
// programs; everything that applies to a Store applies to it.
func Default() *Store {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("falling back to default configuration", logger.Fields(
				logger.FieldError, err.Error(),
			))
			cfg = config.Default()
		}
		log := logger.New(&cfg.Logging, cfg.Logging.ServiceName)
		defaultStore = NewStore(WithConfig(cfg), WithLogger(log.WithComponent("rerun")))
	})
	return defaultStore
}

// Current calls Current on the default store.
func Current(target any, args ...any) *Retry {
	return Default().Current(target, args...)
}

// RunCurrent calls RunCurrent on the default store.
func RunCurrent(target any, args ...any) (*Retry, bool) {
	return Default().RunCurrent(target, args...)
}

// Register calls Register on the default store.
func Register(name string, fns ...any) error {
	return Default().Register(name, fns...)
}
