// Package improvement decides when an evolution run has stopped making
// progress. Strategies inspect the per-generation history of the best
// fitness and are turned into continuation predicates for the engine.
package improvement

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
)

// Step is the state of a run after one generation. Generation 0 is the
// initial population.
type Step struct {
	Generation   int   `json:"generation"`
	BestFitness  int64 `json:"best_fitness"`
	Improvements int   `json:"improvements"`
}

// History records one Step per generation. It is safe for concurrent use so
// a status endpoint can read it while the run appends.
type History struct {
	mu      sync.RWMutex
	steps   []Step
	sortMax bool
}

// NewHistory creates an empty history. sortMax selects whether higher
// fitness is better.
func NewHistory(sortMax bool) *History {
	return &History{sortMax: sortMax}
}

// Record appends the state of s. Recording the same generation twice
// replaces the earlier step.
func (h *History) Record(s evolution.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	step := Step{
		Generation:   s.Info.Generations,
		BestFitness:  s.BestFitness,
		Improvements: s.Info.Improvements,
	}
	if n := len(h.steps); n > 0 && h.steps[n-1].Generation == step.Generation {
		h.steps[n-1] = step
		return
	}
	h.steps = append(h.steps, step)
}

// Steps returns a copy of the recorded steps.
func (h *History) Steps() []Step {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Step, len(h.steps))
	copy(out, h.steps)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.steps)
}

// Last returns the latest step.
func (h *History) Last() (Step, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.steps) == 0 {
		return Step{}, false
	}
	return h.steps[len(h.steps)-1], true
}

func (h *History) better(a, b int64) bool {
	if h.sortMax {
		return a > b
	}
	return a < b
}

// ConvergenceStrategy defines how to detect convergence
type ConvergenceStrategy interface {
	// CheckConvergence reports whether the run has converged and why.
	CheckConvergence(h *History) (bool, string)
	Name() string
}

// ConvergenceConfig holds the stop conditions of a run. Zero values disable
// the corresponding strategy.
type ConvergenceConfig struct {
	// TargetFitness stops the run once the best fitness reaches it.
	TargetFitness *int64
	// NoImprovementGenerations is the number of generations without a new
	// best fitness before stopping.
	NoImprovementGenerations int
	// PlateauGenerations is the number of trailing generations whose best
	// fitness stays within FitnessTolerance before stopping.
	PlateauGenerations int
	FitnessTolerance   int64
	// MinGenerations must complete before any strategy may stop the run.
	MinGenerations int
}

// TargetStrategy converges when the best fitness reaches the target.
type TargetStrategy struct {
	target int64
	min    int
}

func NewTargetStrategy(target int64, minGenerations int) *TargetStrategy {
	return &TargetStrategy{target: target, min: minGenerations}
}

func (s *TargetStrategy) Name() string {
	return "target_fitness"
}

func (s *TargetStrategy) CheckConvergence(h *History) (bool, string) {
	last, ok := h.Last()
	if !ok || last.Generation < s.min {
		return false, ""
	}
	if last.BestFitness == s.target || h.better(last.BestFitness, s.target) {
		return true, fmt.Sprintf("best fitness %d reached target %d", last.BestFitness, s.target)
	}
	return false, ""
}

// NoImprovementStrategy converges when the best fitness has not improved for
// N generations.
type NoImprovementStrategy struct {
	generations int
	min         int
}

func NewNoImprovementStrategy(generations, minGenerations int) *NoImprovementStrategy {
	return &NoImprovementStrategy{generations: generations, min: minGenerations}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(h *History) (bool, string) {
	steps := h.Steps()
	if len(steps) == 0 || steps[len(steps)-1].Generation < s.min {
		return false, ""
	}

	bestAt := 0
	for i, step := range steps {
		if h.better(step.BestFitness, steps[bestAt].BestFitness) {
			bestAt = i
		}
	}
	since := steps[len(steps)-1].Generation - steps[bestAt].Generation
	if since >= s.generations {
		return true, fmt.Sprintf("no improvement for %d generations (best %d at generation %d)",
			since, steps[bestAt].BestFitness, steps[bestAt].Generation)
	}
	return false, ""
}

// PlateauStrategy converges when the best fitness of the last N generations
// spans no more than the tolerance.
type PlateauStrategy struct {
	generations int
	tolerance   int64
	min         int
}

func NewPlateauStrategy(generations int, tolerance int64, minGenerations int) *PlateauStrategy {
	return &PlateauStrategy{generations: generations, tolerance: tolerance, min: minGenerations}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(h *History) (bool, string) {
	steps := h.Steps()
	if len(steps) < s.generations || steps[len(steps)-1].Generation < s.min {
		return false, ""
	}

	recent := steps[len(steps)-s.generations:]
	lo, hi := recent[0].BestFitness, recent[0].BestFitness
	for _, step := range recent[1:] {
		lo = min(lo, step.BestFitness)
		hi = max(hi, step.BestFitness)
	}
	if hi-lo <= s.tolerance {
		return true, fmt.Sprintf("best fitness plateaued for %d generations (range %d)", s.generations, hi-lo)
	}
	return false, ""
}

// CombinedStrategy converges as soon as any of its strategies does.
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy builds the strategies enabled in config. It returns
// nil when config enables none.
func NewCombinedStrategy(config ConvergenceConfig) *CombinedStrategy {
	var strategies []ConvergenceStrategy
	if config.TargetFitness != nil {
		strategies = append(strategies, NewTargetStrategy(*config.TargetFitness, config.MinGenerations))
	}
	if config.NoImprovementGenerations > 0 {
		strategies = append(strategies, NewNoImprovementStrategy(config.NoImprovementGenerations, config.MinGenerations))
	}
	if config.PlateauGenerations > 0 {
		strategies = append(strategies, NewPlateauStrategy(config.PlateauGenerations, config.FitnessTolerance, config.MinGenerations))
	}
	if len(strategies) == 0 {
		return nil
	}
	return &CombinedStrategy{strategies: strategies}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(h *History) (bool, string) {
	if s == nil {
		return false, ""
	}
	for _, strategy := range s.strategies {
		if converged, reason := strategy.CheckConvergence(h); converged {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), reason)
		}
	}
	return false, ""
}

// AddStrategy adds a custom strategy to the combined strategy
func (s *CombinedStrategy) AddStrategy(strategy ConvergenceStrategy) {
	s.strategies = append(s.strategies, strategy)
}

// Tracker couples a history with a strategy. Progress records every
// generation and Continue is the engine's continuation predicate.
type Tracker struct {
	history  *History
	strategy ConvergenceStrategy
	log      *slog.Logger

	mu     sync.Mutex
	reason string
}

func NewTracker(history *History, strategy ConvergenceStrategy, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{history: history, strategy: strategy, log: log}
}

// Progress records s. Pass it to evolution.WithProgress.
func (t *Tracker) Progress(s evolution.Snapshot) {
	t.history.Record(s)
}

// Continue returns false once the strategy reports convergence. Pass it to
// evolution.WithContinue.
func (t *Tracker) Continue(s evolution.Snapshot) bool {
	if t.strategy == nil {
		return true
	}
	converged, reason := t.strategy.CheckConvergence(t.history)
	if !converged {
		return true
	}
	t.mu.Lock()
	t.reason = reason
	t.mu.Unlock()
	t.log.Info("convergence detected",
		"generation", s.Info.Generations,
		"best_fitness", s.BestFitness,
		"reason", reason)
	return false
}

// Reason returns why the run stopped early, or "" if it did not.
func (t *Tracker) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

func (t *Tracker) History() *History {
	return t.history
}
