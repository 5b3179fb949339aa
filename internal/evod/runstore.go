// Package evod implements the evolution daemon: an in-memory run store, an
// executor that runs specs on a bounded pool, and the gRPC and HTTP APIs in
// front of them.
package evod

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
	ErrRunExists    = errors.New("run already exists")

	errMetricsUnavailable = errors.New("metrics not available")
)

type runRecord struct {
	run       models.Run
	spec      *config.RunSpec
	collector *metrics.Collector
}

// RunStore keeps every run submitted to the daemon. Accessors return copies
// so callers never share state with the executor.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*runRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*runRecord),
	}
}

// Create registers a pending run for spec. An empty runID is replaced by a
// generated one.
func (s *RunStore) Create(runID string, spec *config.RunSpec) (models.Run, error) {
	if spec == nil {
		return models.Run{}, fmt.Errorf("%w: spec is required", config.ErrInvalidSpec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return models.Run{}, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	rec := &runRecord{
		run: models.Run{
			ID:          runID,
			Status:      models.RunStatusPending,
			Problem:     spec.Problem.Name,
			CreatedAt:   time.Now().UTC(),
			CallbackURL: spec.CallbackURL,
			Progress: models.RunProgress{
				GenerationLimit: spec.Evolution.GenerationLimit,
			},
		},
		spec: spec,
	}
	s.runs[runID] = rec
	return rec.run, nil
}

func (s *RunStore) Get(runID string) (models.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return models.Run{}, false
	}
	return rec.run, true
}

// Spec returns the prepared spec the run was created with.
func (s *RunStore) Spec(runID string) (*config.RunSpec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.spec, true
}

// List returns up to limit runs, newest first, skipping offset runs. An
// empty status matches every run.
func (s *RunStore) List(limit, offset int, status models.RunStatus) []models.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]models.Run, 0, len(s.runs))
	for _, rec := range s.runs {
		if status != "" && rec.run.Status != status {
			continue
		}
		all = append(all, rec.run)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []models.Run{}
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// SetStatus moves a run to status. Terminal runs never change again.
func (s *RunStore) SetStatus(runID string, status models.RunStatus, errMsg string) (models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return models.Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.run.Status.Terminal() {
		return rec.run, fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.run.Status)
	}

	rec.run.Status = status
	if errMsg != "" {
		rec.run.Error = errMsg
	}

	now := time.Now().UTC()
	switch {
	case status == models.RunStatusRunning:
		if rec.run.StartTime.IsZero() {
			rec.run.StartTime = now
		}
	case status.Terminal():
		rec.run.EndTime = now
		if !rec.run.StartTime.IsZero() {
			rec.run.Duration = now.Sub(rec.run.StartTime)
		}
	}
	return rec.run, nil
}

func (s *RunStore) SetProgress(runID string, progress models.RunProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.run.Progress = progress
	return nil
}

// SetResult stores the summary and best candidate of a finished run.
func (s *RunStore) SetResult(runID string, runMetrics *models.RunMetrics, best json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.run.Metrics = runMetrics
	rec.run.Best = best
	return nil
}

func (s *RunStore) SetCollector(runID string, collector *metrics.Collector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.collector = collector
	return nil
}

// Collector returns the time series collector of a run that has started.
func (s *RunStore) Collector(runID string) (*metrics.Collector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok || rec.collector == nil {
		return nil, false
	}
	return rec.collector, true
}
