// Package runner resolves run specs to problems and executes them on the
// evolution engine.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems/onemax"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems/tsp"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
)

// ErrUnknownProblem is returned for a problem name with no registered
// factory.
var ErrUnknownProblem = errors.New("unknown problem")

// Outcome is the type-erased result of solving a problem.
type Outcome struct {
	Best        any
	BestFitness int64
	Info        evolution.RunInfo
}

// Problem is a configured problem instance ready to run on an engine.
type Problem interface {
	// SortMax reports whether higher fitness is better for this problem.
	SortMax() bool
	Solve(ctx context.Context, cfg evolution.Config, opts ...evolution.Option) (Outcome, error)
}

// Factory creates a problem instance for spec. workers is the number of
// engine workers the instance must support.
type Factory func(spec config.ProblemSpec, workers int) (Problem, error)

// Solver adapts typed operators to Problem. Describe renders the best
// candidate; it defaults to the candidate itself.
type Solver[T any] struct {
	Operators evolution.Operators[T]
	Maximise  bool
	Describe  func(T) any
}

func (s *Solver[T]) SortMax() bool {
	return s.Maximise
}

func (s *Solver[T]) Solve(ctx context.Context, cfg evolution.Config, opts ...evolution.Option) (Outcome, error) {
	best, info, err := evolution.Evolve(ctx, cfg, s.Operators, opts...)
	out := Outcome{BestFitness: best.Fitness, Info: info}
	if s.Describe != nil {
		out.Best = s.Describe(best.Value)
	} else {
		out.Best = best.Value
	}
	return out, err
}

// Registry maps problem names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in problems.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("tsp", newTSP)
	r.Register("onemax", newOneMax)
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered problem names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return f, nil
}

func newTSP(spec config.ProblemSpec, workers int) (Problem, error) {
	p, err := tsp.NewProblem(spec.Size, spec.Seed)
	if err != nil {
		return nil, err
	}
	return &Solver[tsp.Route]{
		Operators: tsp.NewOperators(p, workers),
		Describe:  func(r tsp.Route) any { return p.Describe(r) },
	}, nil
}

func newOneMax(spec config.ProblemSpec, workers int) (Problem, error) {
	ops, err := onemax.New(spec.Size)
	if err != nil {
		return nil, err
	}
	return &Solver[onemax.Bits]{
		Operators: ops,
		Maximise:  true,
		Describe:  func(b onemax.Bits) any { return b.String() },
	}, nil
}
