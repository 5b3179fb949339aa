package evolution

import (
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/evolution-core/internal/workers"
	"github.com/sourcegraph/conc/pool"
)

// SchedulerKind selects how per-worker jobs are executed.
type SchedulerKind int

const (
	// SchedulerAuto uses SchedulerSerial for one worker and SchedulerSlots
	// otherwise.
	SchedulerAuto SchedulerKind = iota
	// SchedulerSerial runs the jobs one after another on the caller.
	SchedulerSerial
	// SchedulerSlots runs every job on its own long-lived worker goroutine
	// that is reused across generations.
	SchedulerSlots
	// SchedulerSpawn starts fresh goroutines for every phase.
	SchedulerSpawn
)

func (k SchedulerKind) String() string {
	switch k {
	case SchedulerAuto:
		return "auto"
	case SchedulerSerial:
		return "serial"
	case SchedulerSlots:
		return "slots"
	case SchedulerSpawn:
		return "spawn"
	default:
		return fmt.Sprintf("scheduler(%d)", int(k))
	}
}

// ParseSchedulerKind maps a scheduler name to its kind. The empty string is
// SchedulerAuto.
func ParseSchedulerKind(name string) (SchedulerKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return SchedulerAuto, nil
	case "serial":
		return SchedulerSerial, nil
	case "slots":
		return SchedulerSlots, nil
	case "spawn":
		return SchedulerSpawn, nil
	default:
		return SchedulerAuto, fmt.Errorf("unknown scheduler %q", name)
	}
}

// Scheduler runs one job per worker and blocks until all of them returned.
// Bind replaces the job set; Run executes the bound jobs once.
type Scheduler interface {
	Bind(jobs []func())
	Run()
	Close()
}

// NewScheduler creates a scheduler of kind for n workers.
func NewScheduler(kind SchedulerKind, n int) Scheduler {
	if kind == SchedulerAuto {
		if n <= 1 {
			kind = SchedulerSerial
		} else {
			kind = SchedulerSlots
		}
	}
	switch kind {
	case SchedulerSerial:
		return &serialScheduler{}
	case SchedulerSpawn:
		return &spawnScheduler{}
	default:
		return &slotScheduler{pool: workers.NewPool(n)}
	}
}

type serialScheduler struct {
	jobs []func()
}

func (s *serialScheduler) Bind(jobs []func()) { s.jobs = jobs }

func (s *serialScheduler) Run() {
	for _, job := range s.jobs {
		job()
	}
}

func (s *serialScheduler) Close() {}

// slotScheduler submits newly bound jobs to the slots and reruns them on
// every later Run.
type slotScheduler struct {
	pool  *workers.Pool
	jobs  []func()
	fresh bool
}

func (s *slotScheduler) Bind(jobs []func()) {
	if len(jobs) > s.pool.Size() {
		panic(fmt.Sprintf("evolution: %d jobs bound to %d worker slots", len(jobs), s.pool.Size()))
	}
	s.jobs = jobs
	s.fresh = true
}

func (s *slotScheduler) Run() {
	for i, job := range s.jobs {
		slot := s.pool.Slot(i)
		if s.fresh {
			slot.Submit(job)
		} else {
			slot.Rerun()
		}
	}
	s.fresh = false
	s.pool.JoinAll()
}

func (s *slotScheduler) Close() {
	s.pool.Close()
}

// spawnScheduler starts one goroutine per job on every Run.
type spawnScheduler struct {
	jobs []func()
}

func (s *spawnScheduler) Bind(jobs []func()) { s.jobs = jobs }

func (s *spawnScheduler) Run() {
	p := pool.New().WithMaxGoroutines(max(len(s.jobs), 1))
	for _, job := range s.jobs {
		p.Go(job)
	}
	p.Wait()
}

func (s *spawnScheduler) Close() {}
