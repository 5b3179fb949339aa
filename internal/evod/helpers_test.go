package evod

import (
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/runner"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
)

const quickSpecYAML = `
problem: {name: onemax, size: 16, seed: 1}
evolution:
  population_size: 10
  generation_limit: 20
  seed: 2
`

// endlessSpecYAML runs until it is cancelled.
const endlessSpecYAML = `
problem: {name: onemax, size: 64, seed: 1}
evolution:
  population_size: 20
  generation_limit: 100000000
  seed: 2
`

type testDaemon struct {
	store    *RunStore
	executor *RunExecutor
	exporter *metrics.Exporter
	registry *runner.Registry
}

func newTestDaemon(t *testing.T, maxParallel, queue int) *testDaemon {
	t.Helper()
	store := NewRunStore()
	exporter := metrics.NewExporter()
	registry := runner.DefaultRegistry()
	notifier := NewNotifier(config.CallbackConfig{
		TimeoutMs:  1000,
		MaxRetries: 2,
		Backoff:    "constant",
		BaseMs:     1,
	}, logger.Discard())
	executor := NewRunExecutor(store, registry, exporter, notifier, ExecutorConfig{
		MaxParallelRuns: maxParallel,
		QueueCapacity:   queue,
		Logger:          logger.Discard(),
	})
	t.Cleanup(executor.Shutdown)
	return &testDaemon{store: store, executor: executor, exporter: exporter, registry: registry}
}

func mustSpec(t *testing.T, yamlText string) *config.RunSpec {
	t.Helper()
	spec, err := config.ParseRunSpecYAMLString(yamlText)
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	return spec
}

// waitFor polls the store until cond holds for the run or the deadline
// passes.
func waitFor(t *testing.T, store *RunStore, runID string, cond func(models.Run) bool) models.Run {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := store.Get(runID)
		if !ok {
			t.Fatalf("run %s not found", runID)
		}
		if cond(run) {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	run, _ := store.Get(runID)
	t.Fatalf("timed out waiting for run %s, last state %+v", runID, run)
	return run
}

func terminal(run models.Run) bool {
	return run.Status.Terminal()
}

func running(run models.Run) bool {
	return run.Status == models.RunStatusRunning
}
