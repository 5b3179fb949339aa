package runner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems/tsp"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSpec(t *testing.T, yaml string) *config.RunSpec {
	t.Helper()
	spec, err := config.ParseRunSpecYAMLString(yaml)
	require.NoError(t, err)
	return spec
}

func TestDefaultRegistryNames(t *testing.T) {
	assert.Equal(t, []string{"onemax", "tsp"}, DefaultRegistry().Names())
}

func TestLookupUnknownProblem(t *testing.T) {
	_, err := DefaultRegistry().Lookup("knapsack")
	assert.True(t, errors.Is(err, ErrUnknownProblem))
}

func TestRunUnknownProblem(t *testing.T) {
	spec := parseSpec(t, "problem: {name: knapsack, size: 10}\n")
	_, err := DefaultRegistry().Run(context.Background(), spec, Options{Logger: logger.Discard()})
	assert.True(t, errors.Is(err, ErrUnknownProblem))
}

func TestRunInvalidProblemSize(t *testing.T) {
	spec := parseSpec(t, "problem: {name: tsp, size: 1}\n")
	_, err := DefaultRegistry().Run(context.Background(), spec, Options{Logger: logger.Discard()})
	assert.Error(t, err)
}

func TestRunTSP(t *testing.T) {
	spec := parseSpec(t, `
problem: {name: tsp, size: 20, seed: 3}
evolution:
  population_size: 40
  generation_limit: 25
  mutation_probability: 0.2
  workers: 2
  seed: 11
  scheduler: spawn
`)
	var calls int
	res, err := DefaultRegistry().Run(context.Background(), spec, Options{
		Logger:   logger.Discard(),
		Progress: func(evolution.Snapshot) { calls++ },
	})
	require.NoError(t, err)

	assert.Equal(t, "tsp", res.Problem)
	assert.Equal(t, 25, res.Generations)
	assert.Equal(t, 26, calls)
	require.Len(t, res.History, 26)
	assert.Empty(t, res.StopReason)
	assert.Equal(t, res.BestFitness, res.History[25].BestFitness)
	for i := 1; i < len(res.History); i++ {
		assert.LessOrEqual(t, res.History[i].BestFitness, res.History[i-1].BestFitness, "kept survivors can not lose the best route")
	}

	var tour tsp.Tour
	require.NoError(t, json.Unmarshal(res.Best, &tour))
	assert.Len(t, tour.Cities, 20)
	assert.Equal(t, res.BestFitness, tour.Length)
}

func TestRunOneMaxStopsAtTarget(t *testing.T) {
	spec := parseSpec(t, `
problem: {name: onemax, size: 24}
evolution:
  workers: 2
  flags: [greedy]
  greedy: {size: 6, individuals: 4}
  generation_limit: 5000
  seed: 9
stop:
  target_fitness: 24
`)
	res, err := DefaultRegistry().Run(context.Background(), spec, Options{Logger: logger.Discard()})
	require.NoError(t, err)

	assert.Equal(t, int64(24), res.BestFitness)
	assert.Less(t, res.Generations, 5000)
	assert.Contains(t, res.StopReason, "target_fitness")

	var bits string
	require.NoError(t, json.Unmarshal(res.Best, &bits))
	assert.Equal(t, strings.Repeat("1", 24), bits)
}

func TestRunCancelledReturnsPartialResult(t *testing.T) {
	spec := parseSpec(t, `
problem: {name: onemax, size: 64}
evolution:
  population_size: 20
  generation_limit: 100000
  seed: 1
`)
	ctx, cancel := context.WithCancel(context.Background())
	res, err := DefaultRegistry().Run(ctx, spec, Options{
		Logger: logger.Discard(),
		Progress: func(s evolution.Snapshot) {
			if s.Info.Generations == 5 {
				cancel()
			}
		},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 5, res.Generations)
	assert.Len(t, res.History, 6)
}

func TestRegisterCustomProblem(t *testing.T) {
	r := NewRegistry()
	r.Register("count", func(spec config.ProblemSpec, workers int) (Problem, error) {
		return &Solver[int]{
			Maximise: true,
			Operators: evolution.Funcs[int]{
				CreateFunc:    func(w *evolution.Worker) int { return w.Rand().Intn(spec.Size) },
				CloneFunc:     func(dst, src int, w *evolution.Worker) int { return src },
				MutateFunc:    func(iv *evolution.Individual[int], w *evolution.Worker) { iv.Value++ },
				EvaluateFunc:  func(iv *evolution.Individual[int], w *evolution.Worker) int64 { return int64(iv.Value) },
				RecombineFunc: func(a, b, dst *evolution.Individual[int], w *evolution.Worker) { dst.Value = max(a.Value, b.Value) },
			},
		}, nil
	})

	spec := parseSpec(t, "problem: {name: count, size: 10}\nevolution:\n  generation_limit: 5\n  mutation_probability: 1\n")
	res, err := r.Run(context.Background(), spec, Options{Logger: logger.Discard()})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Generations)
	assert.Equal(t, "count", res.Problem)
	assert.GreaterOrEqual(t, res.BestFitness, int64(5))
	var best int
	require.NoError(t, json.Unmarshal(res.Best, &best))
	assert.Equal(t, res.BestFitness, int64(best))
}
