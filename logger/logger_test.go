package logger

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format console, got %s", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output stderr, got %s", cfg.Output)
	}
	if cfg.ServiceName != "rerun" {
		t.Errorf("expected service name rerun, got %s", cfg.ServiceName)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps enabled")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("attempt", 2, "limit", 3)
	if m["attempt"] != 2 || m["limit"] != 3 {
		t.Errorf("unexpected map: %v", m)
	}

	// Odd trailing value is dropped, non-string keys are skipped.
	m = Fields("a", 1, 2, "b", "dangling")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf strings.Builder
	zl := zerolog.New(&buf)
	l := &Logger{logger: zl}

	l.Error("attempt failed", Fields(FieldAttempt, 1, FieldLimit, 3))

	var event map[string]any
	if err := json.Unmarshal([]byte(buf.String()), &event); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if event["message"] != "attempt failed" {
		t.Errorf("expected message, got %v", event["message"])
	}
	if event[FieldAttempt] != float64(1) {
		t.Errorf("expected attempt=1, got %v", event[FieldAttempt])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf strings.Builder
	l := &Logger{logger: zerolog.New(&buf).Level(zerolog.ErrorLevel)}

	l.Debug("hidden")
	l.Info("hidden too")
	if buf.Len() != 0 {
		t.Errorf("expected no output below error level, got %q", buf.String())
	}

	l.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("expected error output")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped") // must not panic, must not write anywhere
}

func TestWithComponent(t *testing.T) {
	var buf strings.Builder
	l := &Logger{logger: zerolog.New(&buf)}

	l.WithComponent("store").Info("hello")
	if !strings.Contains(buf.String(), `"component":"store"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected lazily created global logger")
	}

	custom := Nop()
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected the logger that was set")
	}
}
