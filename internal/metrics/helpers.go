package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
)

// Metric names recorded for every generation.
const (
	MetricBestFitness  = "best_fitness"
	MetricImprovements = "improvements"
)

// RunLabels returns the labels identifying a run.
func RunLabels(runID string) map[string]string {
	return map[string]string{"run_id": runID}
}

// RecordGeneration records the state of s at timestamp.
func RecordGeneration(c *Collector, s evolution.Snapshot, timestamp time.Time, labels map[string]string) {
	c.Record(MetricBestFitness, float64(s.BestFitness), timestamp, labels)
	c.Record(MetricImprovements, float64(s.Info.Improvements), timestamp, labels)
}

// ConvertToRunMetrics summarises the recorded series of a run. The first
// best fitness point is the initial population.
func ConvertToRunMetrics(c *Collector, labels map[string]string) *models.RunMetrics {
	best := c.GetTimeSeries(MetricBestFitness, labels)
	if len(best) == 0 {
		return nil
	}

	rm := &models.RunMetrics{
		Generations:    len(best) - 1,
		InitialFitness: int64(best[0].Value),
		BestFitness:    int64(best[len(best)-1].Value),
	}

	// generation 0 counts the improvements of the initial fill
	if improvements := c.GetTimeSeries(MetricImprovements, labels); len(improvements) > 1 {
		total := 0.0
		for _, p := range improvements[1:] {
			total += p.Value
		}
		rm.TotalImprovements = int(total)
		rm.Improvements = calculateAggregation(improvements[1:])
	}

	if elapsed := best[len(best)-1].Timestamp.Sub(best[0].Timestamp).Seconds(); elapsed > 0 {
		rm.GenerationsPerSec = float64(rm.Generations) / elapsed
	}
	return rm
}
