package evolution

import (
	"io"
	"log/slog"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

// RunInfo reports the progress of an engine.
type RunInfo struct {
	// Improvements counted during the last completed generation, or during
	// the initial fill before the first generation.
	Improvements int
	// TotalImprovements counted since construction.
	TotalImprovements int
	// Generations completed so far.
	Generations int
}

// Snapshot is the view of an engine handed to continuation predicates and
// progress callbacks.
type Snapshot struct {
	Info        RunInfo
	BestFitness int64
	Config      Config
}

// Option customises an engine.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	scheduler SchedulerKind
	cont      func(Snapshot) bool
	progress  func(Snapshot)
	status    io.Writer
}

func defaultOptions() options {
	return options{
		logger:    logger.Default,
		scheduler: SchedulerAuto,
	}
}

// WithLogger sets the logger for lifecycle and generation records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScheduler selects the job scheduler.
func WithScheduler(kind SchedulerKind) Option {
	return func(o *options) { o.scheduler = kind }
}

// WithContinue sets the continuation predicate. It takes precedence over an
// operator set implementing Continuer.
func WithContinue(fn func(Snapshot) bool) Option {
	return func(o *options) { o.cont = fn }
}

// WithProgress registers a callback invoked on the controller after the
// initial fill and after every generation.
func WithProgress(fn func(Snapshot)) Option {
	return func(o *options) { o.progress = fn }
}

// WithStatusOutput sets where per-slot status lines go when a per-slot
// verbosity flag is set. The default is standard error.
func WithStatusOutput(w io.Writer) Option {
	return func(o *options) { o.status = w }
}
