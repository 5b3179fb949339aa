package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
)

func TestLoadRunSpecTSP(t *testing.T) {
	spec, err := LoadRunSpec("../../config/tsp.yaml")
	if err != nil {
		t.Fatalf("Failed to load run spec: %v", err)
	}

	if spec.Problem.Name != "tsp" {
		t.Errorf("Expected problem 'tsp', got '%s'", spec.Problem.Name)
	}
	if spec.Problem.Size != 50 {
		t.Errorf("Expected size 50, got %d", spec.Problem.Size)
	}
	if spec.Evolution.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", spec.Evolution.Workers)
	}
	if spec.Evolution.Scheduler != "slots" {
		t.Errorf("Expected scheduler 'slots', got '%s'", spec.Evolution.Scheduler)
	}
	if !spec.Stop.Enabled() {
		t.Fatal("Expected stop conditions to be enabled")
	}

	flags, err := spec.EvolutionFlags(true)
	if err != nil {
		t.Fatalf("EvolutionFlags failed: %v", err)
	}
	want := evolution.FlagRecombination | evolution.FlagMutation | evolution.FlagKeepLastGeneration |
		evolution.FlagAbortRequirement | evolution.FlagVerboseHigh
	if flags != want {
		t.Errorf("Expected flags %s, got %s", want, flags)
	}
	if spec.SchedulerKind() != evolution.SchedulerSlots {
		t.Errorf("Expected slots scheduler, got %s", spec.SchedulerKind())
	}
}

func TestLoadRunSpecOnemaxGreedy(t *testing.T) {
	spec, err := LoadRunSpec("../../config/onemax.yaml")
	if err != nil {
		t.Fatalf("Failed to load run spec: %v", err)
	}
	if spec.Stop.TargetFitness == nil || *spec.Stop.TargetFitness != 256 {
		t.Errorf("Expected target fitness 256, got %v", spec.Stop.TargetFitness)
	}

	cfg, err := spec.EvolutionConfig(false)
	if err != nil {
		t.Fatalf("EvolutionConfig failed: %v", err)
	}
	if cfg.Strategy() != evolution.StrategyGreedy {
		t.Errorf("Expected greedy strategy, got %s", cfg.Strategy())
	}
	if cfg.PopulationSize() != 6 {
		t.Errorf("Expected population 3*workers = 6, got %d", cfg.PopulationSize())
	}
	if !cfg.SortMax() {
		t.Error("Expected sort max from the spec to win over the default")
	}
}

func TestLoadRunSpecMissingFile(t *testing.T) {
	if _, err := LoadRunSpec("does-not-exist.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadDaemonConfig(t *testing.T) {
	cfg, err := LoadDaemonConfig("../../config/evod.yaml")
	if err != nil {
		t.Fatalf("Failed to load daemon config: %v", err)
	}
	if cfg.GRPCAddr != ":50051" || cfg.HTTPAddr != ":8080" {
		t.Errorf("Unexpected addresses %s %s", cfg.GRPCAddr, cfg.HTTPAddr)
	}
	if cfg.MaxParallelRuns != 4 {
		t.Errorf("Expected 4 parallel runs, got %d", cfg.MaxParallelRuns)
	}
	if cfg.Callback.Backoff != "exponential" {
		t.Errorf("Expected exponential backoff, got %s", cfg.Callback.Backoff)
	}
}

func TestLoadDaemonConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evod.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadDaemonConfig(path)
	if err != nil {
		t.Fatalf("Failed to load daemon config: %v", err)
	}
	def := DefaultDaemonConfig()
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.HTTPAddr != def.HTTPAddr || cfg.MaxParallelRuns != def.MaxParallelRuns {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestDaemonConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log_level: loud\n"},
		{"bad log format", "log_format: xml\n"},
		{"no listeners", "grpc_addr: \"\"\nhttp_addr: \"\"\n"},
		{"zero parallel runs", "max_parallel_runs: 0\n"},
		{"bad backoff", "callback:\n  backoff: random\n"},
		{"negative retries", "callback:\n  max_retries: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDaemonConfigYAML([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("Expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}
