package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/internal/improvement"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

// Result summarises a finished run.
type Result struct {
	Problem           string             `json:"problem"`
	BestFitness       int64              `json:"best_fitness"`
	Generations       int                `json:"generations"`
	TotalImprovements int                `json:"total_improvements"`
	StopReason        string             `json:"stop_reason,omitempty"`
	History           []improvement.Step `json:"history"`
	Best              json.RawMessage    `json:"best"`
	DurationMs        int64              `json:"duration_ms"`
}

// Options customises Run.
type Options struct {
	Logger *slog.Logger
	// Progress is called on the engine goroutine after the initial fill
	// and after every generation.
	Progress func(evolution.Snapshot)
	// StatusOutput receives per-slot status lines at verbosity 1 and 3.
	StatusOutput io.Writer
}

// Run executes spec with the problems of r. When the context is cancelled
// Run returns the partial result together with the context error.
func (r *Registry) Run(ctx context.Context, spec *config.RunSpec, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default
	}

	factory, err := r.Lookup(spec.Problem.Name)
	if err != nil {
		return nil, err
	}
	problem, err := factory(spec.Problem, spec.Evolution.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create problem %s: %w", spec.Problem.Name, err)
	}
	cfg, err := spec.EvolutionConfig(problem.SortMax())
	if err != nil {
		return nil, err
	}

	tracker := improvement.NewTracker(improvement.NewHistory(cfg.SortMax()), stopStrategy(spec.Stop), log)
	engineOpts := []evolution.Option{
		evolution.WithLogger(log),
		evolution.WithScheduler(spec.SchedulerKind()),
		evolution.WithContinue(tracker.Continue),
		evolution.WithProgress(func(s evolution.Snapshot) {
			tracker.Progress(s)
			if opts.Progress != nil {
				opts.Progress(s)
			}
		}),
	}
	if opts.StatusOutput != nil {
		engineOpts = append(engineOpts, evolution.WithStatusOutput(opts.StatusOutput))
	}

	log.Info("run started",
		"problem", spec.Problem.Name,
		"size", spec.Problem.Size,
		"strategy", cfg.Strategy().String(),
		"population_size", cfg.PopulationSize(),
		"workers", cfg.Workers(),
		"generation_limit", cfg.GenerationLimit())

	start := time.Now()
	out, runErr := problem.Solve(ctx, cfg, engineOpts...)
	if runErr != nil && out.Info.Generations == 0 && tracker.History().Len() == 0 {
		return nil, runErr
	}

	best, err := json.Marshal(out.Best)
	if err != nil {
		return nil, fmt.Errorf("failed to encode best candidate: %w", err)
	}
	res := &Result{
		Problem:           spec.Problem.Name,
		BestFitness:       out.BestFitness,
		Generations:       out.Info.Generations,
		TotalImprovements: out.Info.TotalImprovements,
		StopReason:        tracker.Reason(),
		History:           tracker.History().Steps(),
		Best:              best,
		DurationMs:        time.Since(start).Milliseconds(),
	}

	log.Info("run finished",
		"problem", res.Problem,
		"best_fitness", res.BestFitness,
		"generations", res.Generations,
		"stop_reason", res.StopReason,
		"duration_ms", res.DurationMs,
		"error", runErr)
	return res, runErr
}

func stopStrategy(s *config.StopSpec) improvement.ConvergenceStrategy {
	if !s.Enabled() {
		return nil
	}
	return improvement.NewCombinedStrategy(improvement.ConvergenceConfig{
		TargetFitness:            s.TargetFitness,
		NoImprovementGenerations: s.NoImprovementGenerations,
		PlateauGenerations:       s.PlateauGenerations,
		FitnessTolerance:         s.FitnessTolerance,
		MinGenerations:           s.MinGenerations,
	})
}
