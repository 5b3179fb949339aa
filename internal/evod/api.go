package evod

import (
	"encoding/json"
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
)

// createRunRequest is the body of a create call on either API. The spec is
// given either as a JSON object or as YAML text.
type createRunRequest struct {
	RunID    string          `json:"run_id,omitempty"`
	Spec     json.RawMessage `json:"spec,omitempty"`
	SpecYAML string          `json:"spec_yaml,omitempty"`
	// Start queues the run right after creating it.
	Start bool `json:"start,omitempty"`
}

func (r *createRunRequest) parseSpec() (*config.RunSpec, error) {
	switch {
	case r.SpecYAML != "":
		return config.ParseRunSpecYAMLString(r.SpecYAML)
	case len(r.Spec) > 0 && string(r.Spec) != "null":
		return config.ParseRunSpecJSON(r.Spec)
	default:
		return nil, fmt.Errorf("%w: spec or spec_yaml is required", config.ErrInvalidSpec)
	}
}

// createRun registers the run of req and queues it when requested.
func createRun(store *RunStore, executor *RunExecutor, req *createRunRequest) (models.Run, error) {
	spec, err := req.parseSpec()
	if err != nil {
		return models.Run{}, err
	}
	run, err := store.Create(req.RunID, spec)
	if err != nil {
		return models.Run{}, err
	}
	if req.Start {
		if run, err = executor.Start(run.ID); err != nil {
			return models.Run{}, err
		}
	}
	return run, nil
}

type runMetricsResponse struct {
	RunID      string                           `json:"run_id"`
	Status     models.RunStatus                 `json:"status"`
	Metrics    *models.RunMetrics               `json:"metrics,omitempty"`
	TimeSeries map[string][]*models.MetricPoint `json:"time_series,omitempty"`
}

// runMetrics returns the summary of a finished run together with its
// per-generation series. Runs that are still executing only have series.
func runMetrics(store *RunStore, runID string) (*runMetricsResponse, error) {
	run, ok := store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	resp := &runMetricsResponse{RunID: run.ID, Status: run.Status, Metrics: run.Metrics}
	if collector, ok := store.Collector(runID); ok {
		labels := metrics.RunLabels(runID)
		resp.TimeSeries = make(map[string][]*models.MetricPoint)
		for _, name := range []string{metrics.MetricBestFitness, metrics.MetricImprovements} {
			if points := collector.GetTimeSeries(name, labels); points != nil {
				resp.TimeSeries[name] = points
			}
		}
	}
	if resp.Metrics == nil && len(resp.TimeSeries) == 0 {
		return nil, errMetricsUnavailable
	}
	return resp, nil
}
