package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DefaultRetryLimit != 3 {
		t.Errorf("expected default retry limit 3, got %d", cfg.DefaultRetryLimit)
	}
	if !cfg.LogFailures {
		t.Error("expected failure logging enabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_NoSources(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultRetryLimit != 3 {
		t.Errorf("expected 3, got %d", cfg.DefaultRetryLimit)
	}
	if !cfg.LogFailures {
		t.Error("expected failure logging on")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RERUN_DEFAULT_RETRY_LIMIT", "7")
	t.Setenv("RERUN_LOG_FAILURES", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultRetryLimit != 7 {
		t.Errorf("expected 7, got %d", cfg.DefaultRetryLimit)
	}
	if cfg.LogFailures {
		t.Error("expected failure logging off")
	}
}

func TestLoad_ExplicitZeroLimit(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RERUN_DEFAULT_RETRY_LIMIT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultRetryLimit != 0 {
		t.Errorf("explicit zero must survive, got %d", cfg.DefaultRetryLimit)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)

	yml := []byte("default_retry_limit: 5\nlog_failures: false\nlogging:\n  level: debug\n")
	path := filepath.Join(dir, "rerun.yml")
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultRetryLimit != 5 {
		t.Errorf("expected 5, got %d", cfg.DefaultRetryLimit)
	}
	if cfg.LogFailures {
		t.Error("expected failure logging off")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := chdirTemp(t)

	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("RERUN_DEFAULT_RETRY_LIMIT=9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv mutates the process environment; keep it out of other tests.
	t.Cleanup(func() { os.Unsetenv("RERUN_DEFAULT_RETRY_LIMIT") })

	cfg, err := Load(WithEnvFile(envFile))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultRetryLimit != 9 {
		t.Errorf("expected 9, got %d", cfg.DefaultRetryLimit)
	}
}

func TestLoad_InvalidLimit(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RERUN_DEFAULT_RETRY_LIMIT", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error for negative limit")
	}
	if !strings.Contains(err.Error(), "DefaultRetryLimit") {
		t.Errorf("expected field name in error, got %v", err)
	}
}

func TestValidate_LoggingPropagates(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "shout"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error from logging validation")
	}
}

// chdirTemp moves the test into an empty directory so stray rerun.yml or
// .env files in the repo cannot leak into Load.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
	return dir
}
