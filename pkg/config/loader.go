package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
)

// LoadRunSpec loads and parses a run spec file
func LoadRunSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run spec file %s: %w", path, err)
	}
	spec, err := ParseRunSpecYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run spec file %s: %w", path, err)
	}
	return spec, nil
}

// LoadDaemonConfig loads and parses a daemon configuration file
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read daemon config file %s: %w", path, err)
	}
	cfg, err := ParseDaemonConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse daemon config file %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults applied to a RunSpec for unset fields.
const (
	DefaultPopulationSize  = 100
	DefaultGenerationLimit = 100
	DefaultDeathPercentage = 0.5
)

// DefaultFlags is used when a non-greedy spec lists no flags.
var DefaultFlags = []string{"recombination", "mutation", "keep_last_generation"}

func applyRunSpecDefaults(s *RunSpec) {
	e := &s.Evolution
	if e.PopulationSize == 0 && e.Greedy == nil {
		e.PopulationSize = DefaultPopulationSize
	}
	if e.GenerationLimit == 0 {
		e.GenerationLimit = DefaultGenerationLimit
	}
	if e.DeathPercentage == 0 {
		e.DeathPercentage = DefaultDeathPercentage
	}
	if e.Workers == 0 {
		e.Workers = 1
	}
	if len(e.Flags) == 0 {
		if e.Greedy != nil {
			e.Flags = []string{"greedy"}
		} else {
			e.Flags = append([]string(nil), DefaultFlags...)
		}
	}
	e.Sort = strings.ToLower(strings.TrimSpace(e.Sort))
	s.Problem.Name = strings.ToLower(strings.TrimSpace(s.Problem.Name))
}

// validateRunSpec performs validation on the run spec
func validateRunSpec(s *RunSpec) error {
	if s.Problem.Name == "" {
		return fmt.Errorf("problem name cannot be empty")
	}
	if s.Problem.Size <= 0 {
		return fmt.Errorf("problem size must be positive, got %d", s.Problem.Size)
	}

	e := s.Evolution
	if e.Sort != "" && e.Sort != "min" && e.Sort != "max" {
		return fmt.Errorf("invalid sort: %s (must be min or max)", e.Sort)
	}
	if e.Verbosity < 0 || e.Verbosity > 3 {
		return fmt.Errorf("verbosity must be between 0 and 3, got %d", e.Verbosity)
	}
	if _, err := evolution.ParseSchedulerKind(e.Scheduler); err != nil {
		return err
	}
	if e.Greedy != nil && (e.Greedy.Size <= 0 || e.Greedy.Individuals <= 0) {
		return fmt.Errorf("greedy size and individuals must be positive, got %d and %d", e.Greedy.Size, e.Greedy.Individuals)
	}

	if s.Stop != nil {
		if err := validateStop(s.Stop); err != nil {
			return fmt.Errorf("stop validation failed: %w", err)
		}
	}

	if s.CallbackURL != "" {
		u, err := url.Parse(s.CallbackURL)
		if err != nil {
			return fmt.Errorf("invalid callback_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("callback_url must be an absolute http(s) url, got %s", s.CallbackURL)
		}
	}

	if _, err := s.EvolutionConfig(e.Sort == "max"); err != nil {
		return err
	}
	return nil
}

// validateStop validates the early-stop conditions
func validateStop(s *StopSpec) error {
	if s.NoImprovementGenerations < 0 {
		return fmt.Errorf("no_improvement_generations cannot be negative, got %d", s.NoImprovementGenerations)
	}
	if s.PlateauGenerations < 0 {
		return fmt.Errorf("plateau_generations cannot be negative, got %d", s.PlateauGenerations)
	}
	if s.FitnessTolerance < 0 {
		return fmt.Errorf("fitness_tolerance cannot be negative, got %d", s.FitnessTolerance)
	}
	if s.MinGenerations < 0 {
		return fmt.Errorf("min_generations cannot be negative, got %d", s.MinGenerations)
	}
	return nil
}

// DefaultDaemonConfig returns the daemon configuration used for unset fields.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		LogLevel:        "info",
		LogFormat:       "json",
		GRPCAddr:        ":50051",
		HTTPAddr:        ":8080",
		MaxParallelRuns: 4,
		QueueCapacity:   64,
		Callback: CallbackConfig{
			TimeoutMs:  5000,
			MaxRetries: 3,
			Backoff:    "exponential",
			BaseMs:     200,
			MaxMs:      5000,
		},
	}
}

// validateDaemonConfig performs validation on the daemon configuration
func validateDaemonConfig(cfg *DaemonConfig) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s (must be json or text)", cfg.LogFormat)
	}
	if cfg.GRPCAddr == "" && cfg.HTTPAddr == "" {
		return fmt.Errorf("at least one of grpc_addr and http_addr must be set")
	}
	if cfg.MaxParallelRuns <= 0 {
		return fmt.Errorf("max_parallel_runs must be positive, got %d", cfg.MaxParallelRuns)
	}
	if cfg.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity cannot be negative, got %d", cfg.QueueCapacity)
	}

	cb := cfg.Callback
	if cb.MaxRetries < 0 {
		return fmt.Errorf("callback max_retries cannot be negative, got %d", cb.MaxRetries)
	}
	validBackoffs := map[string]bool{
		"exponential": true,
		"linear":      true,
		"constant":    true,
	}
	if !validBackoffs[cb.Backoff] {
		return fmt.Errorf("invalid callback backoff type: %s (must be exponential, linear, or constant)", cb.Backoff)
	}
	if cb.BaseMs < 0 || cb.MaxMs < 0 || cb.TimeoutMs < 0 {
		return fmt.Errorf("callback timings cannot be negative")
	}
	return nil
}
