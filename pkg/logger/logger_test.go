package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{"Debug", "debug", slog.LevelDebug},
		{"Upper case", "DEBUG", slog.LevelDebug},
		{"Info", "info", slog.LevelInfo},
		{"Warn", "warn", slog.LevelWarn},
		{"Warning alias", "warning", slog.LevelWarn},
		{"Error", "error", slog.LevelError},
		{"Unknown falls back to info", "chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText("info", &buf)
	if logger == nil {
		t.Fatal("Expected text logger to be created")
	}

	logger.Info("generation complete", "generation", 3)
	output := buf.String()
	if !strings.Contains(output, "generation complete") {
		t.Errorf("Expected log output to contain 'generation complete', got: %s", output)
	}
	if !strings.Contains(output, "generation=3") {
		t.Errorf("Expected key=value pair in text output, got: %s", output)
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		logFunc  func(string, ...any)
		logMsg   string
		expected bool
	}{
		{"Debug when debug level", "debug", Debug, "debug message", true},
		{"Info when debug level", "debug", Info, "info message", true},
		{"Debug when info level", "info", Debug, "debug message", false},
		{"Info when info level", "info", Info, "info message", true},
		{"Warn when info level", "info", Warn, "warn message", true},
		{"Info when error level", "error", Info, "info message", false},
		{"Error when info level", "info", Error, "error message", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(New(tt.logLevel, &buf))

			tt.logFunc(tt.logMsg)
			output := buf.String()

			if tt.expected && !strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output to contain '%s', got: %s", tt.logMsg, output)
			}
			if !tt.expected && strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output NOT to contain '%s', but it did: %s", tt.logMsg, output)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	Info("run completed", "run_id", "run-1", "best_fitness", 42)

	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log output: %v", err)
	}
	if logEntry["msg"] != "run completed" {
		t.Errorf("Expected msg 'run completed', got '%v'", logEntry["msg"])
	}
	if logEntry["run_id"] != "run-1" {
		t.Errorf("Expected run_id 'run-1', got '%v'", logEntry["run_id"])
	}
	if logEntry["best_fitness"] != float64(42) {
		t.Errorf("Expected best_fitness 42, got '%v'", logEntry["best_fitness"])
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	With("run_id", "run-7", "worker", 2).Info("worker joined")

	output := buf.String()
	for _, want := range []string{"run_id", "run-7", "worker"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected log output to contain %q, got: %s", want, output)
		}
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected discard logger to drop error records")
	}
	l.Error("dropped")
}
