// Package evolution implements a generic evolutionary-computation engine.
//
// The engine owns a population of candidates of type T and advances it one
// generation at a time with one of three strategies: recombination (with
// optional mutation), mutation only, or per-worker greedy hill climbing.
// Problem logic is supplied through Operators; the engine only partitions
// the population across workers, synchronises generation boundaries and
// keeps the population ordered best first.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unsafe"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("evolution engine is closed")

// Engine evolves a population of T. An Engine is driven by a single
// goroutine; the workers it starts never touch it outside Run and New.
type Engine[T any] struct {
	cfg      Config
	ops      Operators[T]
	log      *slog.Logger
	pop      *population[T]
	workers  []*Worker
	tasks    []*task[T]
	sched    Scheduler
	cont     func() bool
	progress func(Snapshot)
	status   *statusPrinter

	// parents is the size of the parent pool [0, parents) and offspring
	// the slots rewritten every generation. Both are fixed per run.
	parents   int
	offspring Range
	oneToOne  bool
	genRanges []Range
	genBound  bool

	info   RunInfo
	phase  string
	closed bool
}

// task is the unit of work of one worker during one phase. improvements is
// written only by the worker that owns the task.
type task[T any] struct {
	worker       *Worker
	rng          Range
	improvements int
}

// New validates the configuration, allocates the population and fills it
// with evaluated candidates. Unless the strategy is greedy the population is
// sorted before New returns.
func New[T any](cfg Config, ops Operators[T], opts ...Option) (*Engine[T], error) {
	if !cfg.built {
		return nil, fmt.Errorf("%w: config must be created by ConfigBuilder.Build", ErrInvalidConfig)
	}
	if ops == nil {
		return nil, fmt.Errorf("%w: operators are required", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Default
	}

	e := &Engine[T]{
		cfg:      cfg,
		ops:      ops,
		log:      o.logger.With("component", "evolution"),
		progress: o.progress,
		status:   newStatusPrinter(cfg.flags, o.status),
	}

	if cfg.flags.Has(FlagAbortRequirement) {
		if o.cont != nil {
			fn := o.cont
			e.cont = func() bool { return fn(e.Snapshot()) }
		} else if c, ok := ops.(Continuer[T]); ok {
			e.cont = func() bool { return c.Continue(e) }
		}
		if e.cont == nil {
			return nil, fmt.Errorf("%w: abort requirement set without a continuation predicate", ErrInvalidConfig)
		}
	}

	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.workers = make([]*Worker, cfg.workers)
	e.tasks = make([]*task[T], cfg.workers)
	for i := range e.workers {
		e.workers[i] = NewWorker(i, seed)
		e.tasks[i] = &task[T]{worker: e.workers[i]}
	}

	e.pop = newPopulation[T](cfg.populationSize, cfg.Multiplier())
	e.layout()
	e.sched = NewScheduler(o.scheduler, cfg.workers)

	e.log.Debug("engine created",
		"strategy", cfg.Strategy().String(),
		"population_size", cfg.populationSize,
		"capacity", e.pop.capacity(),
		"workers", cfg.workers,
		"flags", cfg.flags.String(),
		"seed", seed)

	e.fill()
	return e, nil
}

func (e *Engine[T]) layout() {
	if e.cfg.Strategy() == StrategyGreedy {
		e.genRanges = greedyRanges(e.cfg.workers)
		return
	}
	if e.cfg.KeepsLastGeneration() {
		e.parents = e.cfg.survivors
		e.offspring = Range{Start: e.cfg.survivors, End: e.cfg.populationSize}
	} else {
		e.parents = e.cfg.populationSize
		e.offspring = Range{Start: e.cfg.populationSize, End: 2 * e.cfg.populationSize}
	}
	e.oneToOne = e.offspring.Len() == e.parents
	e.genRanges = Partition(e.offspring, e.cfg.workers)
}

// fill creates and evaluates the initial population.
func (e *Engine[T]) fill() {
	e.phase = "init"
	if e.cfg.Strategy() == StrategyGreedy {
		e.bind(e.greedyFill, greedyRanges(e.cfg.workers))
	} else {
		e.bind(e.randomFill, Partition(Range{Start: 0, End: e.pop.capacity()}, e.cfg.workers))
	}

	n := e.runJobs()
	if e.cfg.Strategy() == StrategyGreedy {
		e.broadcastBest()
	} else {
		e.sortCurrent()
	}
	e.status.finish()

	e.info.Improvements = n
	e.info.TotalImprovements += n
	e.log.Debug("population initialised",
		"improvements", n,
		"best_fitness", e.Best().Fitness)
	e.report()
}

// bind assigns ranges[i] to worker i and binds fn as every worker's job.
func (e *Engine[T]) bind(fn func(*task[T]), ranges []Range) {
	jobs := make([]func(), len(e.tasks))
	for i, t := range e.tasks {
		t.rng = ranges[i]
		jobs[i] = func() { fn(t) }
	}
	e.sched.Bind(jobs)
}

// runJobs runs the bound jobs to completion and returns the summed
// improvement counters.
func (e *Engine[T]) runJobs() int {
	for _, t := range e.tasks {
		t.improvements = 0
	}
	e.sched.Run()
	n := 0
	for _, t := range e.tasks {
		n += t.improvements
	}
	return n
}

// Run advances generations until the generation limit is reached, the
// continuation predicate (with FlagAbortRequirement) returns false, or ctx
// is done. Cancellation is observed between generations only. Run returns
// the best individual, which stays valid until Close; calling Run again
// resumes from the current generation.
func (e *Engine[T]) Run(ctx context.Context) (*Individual[T], error) {
	if e.closed {
		return nil, ErrClosed
	}
	if !e.genBound {
		e.phase = "gen"
		e.bind(e.generationFunc(), e.genRanges)
		e.genBound = true
	}
	defer e.status.finish()

	for e.info.Generations < e.cfg.generationLimit {
		if err := ctx.Err(); err != nil {
			return e.Best(), err
		}
		if e.cont != nil && !e.cont() {
			e.log.Debug("continuation predicate stopped the run", "generation", e.info.Generations)
			break
		}
		e.step(ctx)
	}
	return e.Best(), nil
}

// step runs one generation.
func (e *Engine[T]) step(ctx context.Context) {
	n := e.runJobs()

	if e.cfg.Strategy() == StrategyGreedy {
		e.broadcastBest()
	} else {
		if !e.cfg.KeepsLastGeneration() {
			e.pop.swap()
		}
		e.sortCurrent()
	}

	e.info.Improvements = n
	e.info.TotalImprovements += n
	e.info.Generations++

	level := slog.LevelDebug
	if e.cfg.flags.Has(FlagVerboseHigh) {
		level = slog.LevelInfo
	}
	e.log.Log(ctx, level, "generation complete",
		"generation", e.info.Generations,
		"improvements", n,
		"best_fitness", e.Best().Fitness)
	e.report()
}

func (e *Engine[T]) sortCurrent() {
	sortIndividuals(e.pop.current(), e.cfg.Better, e.cfg.minQuicksort)
}

func (e *Engine[T]) report() {
	if e.progress != nil {
		e.progress(e.Snapshot())
	}
}

// Best returns slot 0 of the current generation.
func (e *Engine[T]) Best() *Individual[T] {
	return e.pop.at(0)
}

// Info returns the run progress.
func (e *Engine[T]) Info() RunInfo {
	return e.info
}

// Config returns the configuration the engine was built with.
func (e *Engine[T]) Config() Config {
	return e.cfg
}

// Snapshot returns the progress view handed to predicates and callbacks.
func (e *Engine[T]) Snapshot() Snapshot {
	return Snapshot{
		Info:        e.info,
		BestFitness: e.Best().Fitness,
		Config:      e.cfg,
	}
}

// Population returns the current generation ordered best first (in greedy
// mode: the worker triples). The individuals must not be modified.
func (e *Engine[T]) Population() []*Individual[T] {
	return slices.Clone(e.pop.current())
}

// Close stops the workers and destroys every candidate except the best one.
// Close is idempotent.
func (e *Engine[T]) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.sched.Close()

	best := e.Best()
	w := e.workers[0]
	var zero T
	for _, iv := range e.pop.slots {
		if iv == best {
			continue
		}
		e.ops.Destroy(iv.Value, w)
		iv.Value = zero
	}
	e.log.Debug("engine closed", "generations", e.info.Generations, "best_fitness", best.Fitness)
}

// Inspection describes the layout of an engine.
type Inspection struct {
	Strategy        Strategy
	Flags           Flag
	PopulationSize  int
	Capacity        int
	Deaths          int
	Survivors       int
	Workers         int
	GenerationLimit int
	Parents         int
	Offspring       Range
	Ranges          []Range
	Info            RunInfo
	BestFitness     int64
}

// Inspect logs and returns the engine layout.
func (e *Engine[T]) Inspect() Inspection {
	in := Inspection{
		Strategy:        e.cfg.Strategy(),
		Flags:           e.cfg.flags,
		PopulationSize:  e.cfg.populationSize,
		Capacity:        e.pop.capacity(),
		Deaths:          e.cfg.deaths,
		Survivors:       e.cfg.survivors,
		Workers:         e.cfg.workers,
		GenerationLimit: e.cfg.generationLimit,
		Parents:         e.parents,
		Offspring:       e.offspring,
		Ranges:          slices.Clone(e.genRanges),
		Info:            e.info,
		BestFitness:     e.Best().Fitness,
	}
	ranges := make([]string, len(in.Ranges))
	for i, r := range in.Ranges {
		ranges[i] = r.String()
	}
	e.log.Info("evolution engine",
		"strategy", in.Strategy.String(),
		"flags", in.Flags.String(),
		"population_size", in.PopulationSize,
		"capacity", in.Capacity,
		"deaths", in.Deaths,
		"survivors", in.Survivors,
		"workers", in.Workers,
		"generation_limit", in.GenerationLimit,
		"offspring", in.Offspring.String(),
		"ranges", ranges,
		"generations", in.Info.Generations,
		"best_fitness", in.BestFitness)
	return in
}

// EstimateSize returns the approximate number of bytes an engine built from
// cfg occupies when each candidate owns valueBytes of memory.
func EstimateSize[T any](cfg Config, valueBytes int) int {
	var iv Individual[T]
	var slot *Individual[T]
	perSlot := int(unsafe.Sizeof(iv)) + int(unsafe.Sizeof(slot)) + valueBytes
	perWorker := int(unsafe.Sizeof(task[T]{})) + int(unsafe.Sizeof(Worker{}))
	return int(unsafe.Sizeof(Engine[T]{})) + cfg.Capacity()*perSlot + cfg.Workers()*perWorker
}

// Evolve builds an engine, runs it and closes it, returning a copy of the
// best individual.
func Evolve[T any](ctx context.Context, cfg Config, ops Operators[T], opts ...Option) (Individual[T], RunInfo, error) {
	e, err := New(cfg, ops, opts...)
	if err != nil {
		return Individual[T]{}, RunInfo{}, err
	}
	defer e.Close()

	best, err := e.Run(ctx)
	return *best, e.Info(), err
}
