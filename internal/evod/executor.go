package evod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/runner"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"github.com/alitto/pond"
)

// ErrQueueFull is returned by Start when the executor cannot accept more
// runs.
var ErrQueueFull = errors.New("run queue is full")

// ExecutorConfig bounds the executor's pool.
type ExecutorConfig struct {
	MaxParallelRuns int
	QueueCapacity   int
	Logger          *slog.Logger
}

// RunExecutor runs queued specs on a bounded worker pool and handles per-run
// cancellation.
type RunExecutor struct {
	store    *RunStore
	registry *runner.Registry
	exporter *metrics.Exporter
	notifier *Notifier
	pool     *pond.WorkerPool
	log      *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRunExecutor creates an executor. exporter and notifier may be nil.
func NewRunExecutor(store *RunStore, registry *runner.Registry, exporter *metrics.Exporter, notifier *Notifier, cfg ExecutorConfig) *RunExecutor {
	if cfg.MaxParallelRuns < 1 {
		cfg.MaxParallelRuns = 1
	}
	if cfg.QueueCapacity < 0 {
		cfg.QueueCapacity = 0
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Default
	}
	return &RunExecutor{
		store:    store,
		registry: registry,
		exporter: exporter,
		notifier: notifier,
		pool:     pond.New(cfg.MaxParallelRuns, cfg.QueueCapacity),
		log:      log,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Start queues a pending run. Starting a queued or running run is a no-op.
func (e *RunExecutor) Start(runID string) (models.Run, error) {
	if runID == "" {
		return models.Run{}, ErrRunIDMissing
	}

	run, ok := e.store.Get(runID)
	if !ok {
		return models.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if run.Status.Terminal() {
		return models.Run{}, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if _, queued := e.cancels[runID]; queued {
		e.mu.Unlock()
		cancel()
		return run, nil
	}
	e.cancels[runID] = cancel
	e.mu.Unlock()

	if !e.pool.TrySubmit(func() { e.execute(ctx, runID) }) {
		e.mu.Lock()
		delete(e.cancels, runID)
		e.mu.Unlock()
		cancel()
		return models.Run{}, fmt.Errorf("%w: %d runs waiting", ErrQueueFull, e.pool.WaitingTasks())
	}

	e.log.Info("run queued", "run_id", runID)
	return run, nil
}

// Stop cancels a run and marks it cancelled. A queued run never starts.
func (e *RunExecutor) Stop(runID string) (models.Run, error) {
	if runID == "" {
		return models.Run{}, ErrRunIDMissing
	}

	run, err := e.store.SetStatus(runID, models.RunStatusCancelled, "")

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return run, err
}

// Active returns the number of runs queued or executing.
func (e *RunExecutor) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cancels)
}

// Shutdown cancels every run and waits for the pool and pending
// notifications to drain.
func (e *RunExecutor) Shutdown() {
	e.mu.Lock()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	e.pool.StopAndWait()
	if e.notifier != nil {
		e.notifier.Wait()
	}
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) execute(ctx context.Context, runID string) {
	defer e.cleanup(runID)
	log := e.log.With("run_id", runID)

	if ctx.Err() != nil {
		log.Info("run cancelled before start")
		if _, err := e.store.SetStatus(runID, models.RunStatusCancelled, ""); err != nil && !errors.Is(err, ErrRunTerminal) {
			log.Error("failed to set cancelled status", "error", err)
		}
		e.finish(runID)
		return
	}

	spec, ok := e.store.Spec(runID)
	if !ok {
		log.Error("run not found")
		return
	}
	if _, err := e.store.SetStatus(runID, models.RunStatusRunning, ""); err != nil {
		log.Warn("run not started", "error", err)
		e.finish(runID)
		return
	}
	if e.exporter != nil {
		e.exporter.RunStarted(runID)
	}

	collector := metrics.NewCollector()
	collector.Start()
	if err := e.store.SetCollector(runID, collector); err != nil {
		log.Error("failed to store collector", "error", err)
	}
	labels := metrics.RunLabels(runID)

	progress := func(s evolution.Snapshot) {
		metrics.RecordGeneration(collector, s, time.Now(), labels)
		if e.exporter != nil {
			e.exporter.Observe(runID, s)
		}
		if err := e.store.SetProgress(runID, models.RunProgress{
			Generation:      s.Info.Generations,
			GenerationLimit: spec.Evolution.GenerationLimit,
			BestFitness:     s.BestFitness,
			Improvements:    s.Info.TotalImprovements,
		}); err != nil {
			log.Error("failed to set progress", "error", err)
		}
	}

	res, runErr := e.registry.Run(ctx, spec, runner.Options{Logger: log, Progress: progress})
	collector.Stop()

	if res != nil {
		runMetrics := metrics.ConvertToRunMetrics(collector, labels)
		if runMetrics != nil {
			runMetrics.StopReason = res.StopReason
		}
		if err := e.store.SetResult(runID, runMetrics, res.Best); err != nil {
			log.Error("failed to set result", "error", err)
		}
	}

	var err error
	switch {
	case runErr == nil:
		_, err = e.store.SetStatus(runID, models.RunStatusCompleted, "")
	case ctx.Err() != nil:
		_, err = e.store.SetStatus(runID, models.RunStatusCancelled, "")
	default:
		log.Error("run failed", "error", runErr)
		_, err = e.store.SetStatus(runID, models.RunStatusFailed, runErr.Error())
	}
	if err != nil && !errors.Is(err, ErrRunTerminal) {
		log.Error("failed to set final status", "error", err)
	}

	final := e.finish(runID)
	if e.exporter != nil {
		e.exporter.RunFinished(runID, string(final.Status))
	}
	log.Info("run finished", "status", final.Status, "duration", final.Duration)
}

// finish hands the final state of a run to the notifier.
func (e *RunExecutor) finish(runID string) models.Run {
	final, _ := e.store.Get(runID)
	if e.notifier != nil {
		e.notifier.Notify(final)
	}
	return final
}
