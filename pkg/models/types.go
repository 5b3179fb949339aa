package models

import (
	"encoding/json"
	"time"
)

// RunStatus represents the status of an evolution run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether a run in status s can no longer change.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// Run represents an evolution run
type Run struct {
	ID          string            `json:"id"`
	Status      RunStatus         `json:"status"`
	Problem     string            `json:"problem"`
	CreatedAt   time.Time         `json:"created_at"`
	StartTime   time.Time         `json:"start_time,omitempty"`
	EndTime     time.Time         `json:"end_time,omitempty"`
	Duration    time.Duration     `json:"duration,omitempty"`
	Progress    RunProgress       `json:"progress"`
	Metrics     *RunMetrics       `json:"metrics,omitempty"`
	Best        json.RawMessage   `json:"best,omitempty"`
	Error       string            `json:"error,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// RunProgress is the live state of a run, updated after every generation
type RunProgress struct {
	Generation      int   `json:"generation"`
	GenerationLimit int   `json:"generation_limit"`
	BestFitness     int64 `json:"best_fitness"`
	Improvements    int   `json:"improvements"`
}

// RunMetrics contains aggregated metrics for a finished run
type RunMetrics struct {
	Generations       int          `json:"generations"`
	BestFitness       int64        `json:"best_fitness"`
	InitialFitness    int64        `json:"initial_fitness"`
	TotalImprovements int          `json:"total_improvements"`
	StopReason        string       `json:"stop_reason,omitempty"`
	Improvements      *Aggregation `json:"improvements,omitempty"`
	GenerationsPerSec float64      `json:"generations_per_sec"`
}

// MetricPoint represents a single metric data point
type MetricPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// MetricsSummary represents a summary of collected metrics
type MetricsSummary struct {
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Duration     time.Duration           `json:"duration"`
	Metrics      map[string][]float64    `json:"metrics"` // metric name -> values
	Aggregations map[string]*Aggregation `json:"aggregations,omitempty"`
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count  int64   `json:"count"`
	Sum    float64 `json:"sum"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}
