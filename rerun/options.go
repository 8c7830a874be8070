package rerun

import (
	"github.com/kbukum/rerun/config"
	"github.com/kbukum/rerun/logger"
	"github.com/kbukum/rerun/observe"
)

// Option configures a Store.
type Option func(*Store)

// WithConfig sets the engine configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Store) { s.cfg = cfg }
}

// WithRetryLimit overrides the default retry limit new contexts are
// created with, regardless of configuration.
func WithRetryLimit(limit int) Option {
	return func(s *Store) { s.limitOverride = &limit }
}

// WithLogger sets the store's logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver sets the observer the store reports lifecycle events
// through.
func WithObserver(o observe.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithFailureLogging toggles per-attempt failure diagnostics,
// regardless of configuration.
func WithFailureLogging(enabled bool) Option {
	return func(s *Store) { s.logOverride = &enabled }
}
