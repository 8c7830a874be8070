// Package config loads and validates configuration for the rerun engine.
//
// Configuration is read once, merged from three sources in order of
// precedence: explicit yaml file, environment variables with the RERUN_
// prefix, and a .env file. The engine consumes two resolved values — the
// default retry limit and the failure-logging toggle — plus the logger
// configuration.
//
//	cfg, err := config.Load()
//	store := rerun.NewStore(rerun.WithConfig(cfg))
package config
