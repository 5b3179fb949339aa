package metrics

import (
	"net/http"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter publishes live run state as Prometheus metrics on its own
// registry.
type Exporter struct {
	registry     *prometheus.Registry
	bestFitness  *prometheus.GaugeVec
	generation   *prometheus.GaugeVec
	generations  prometheus.Counter
	improvements prometheus.Counter
	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	activeRuns   prometheus.Gauge
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evolution_best_fitness",
			Help: "Best fitness of the current generation.",
		}, []string{"run_id"}),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evolution_generation",
			Help: "Generations completed by a run.",
		}, []string{"run_id"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evolution_generations_total",
			Help: "Generations completed across all runs.",
		}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evolution_improvements_total",
			Help: "Offspring that beat their parents across all runs.",
		}),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evolution_runs_started_total",
			Help: "Runs started.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolution_runs_finished_total",
			Help: "Runs finished by final status.",
		}, []string{"status"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evolution_active_runs",
			Help: "Runs currently executing.",
		}),
	}
	e.registry.MustRegister(e.bestFitness, e.generation, e.generations, e.improvements,
		e.runsStarted, e.runsFinished, e.activeRuns)
	return e
}

// Registry returns the registry the exporter's collectors are registered on.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) RunStarted(runID string) {
	e.runsStarted.Inc()
	e.activeRuns.Inc()
}

// Observe records the state of run runID after a generation. Generation 0
// only sets the gauges.
func (e *Exporter) Observe(runID string, s evolution.Snapshot) {
	labels := prometheus.Labels{"run_id": runID}
	e.bestFitness.With(labels).Set(float64(s.BestFitness))
	e.generation.With(labels).Set(float64(s.Info.Generations))
	if s.Info.Generations > 0 {
		e.generations.Inc()
		e.improvements.Add(float64(s.Info.Improvements))
	}
}

// RunFinished counts the run under status and drops its per-run series.
func (e *Exporter) RunFinished(runID, status string) {
	e.activeRuns.Dec()
	e.runsFinished.WithLabelValues(status).Inc()
	labels := prometheus.Labels{"run_id": runID}
	e.bestFitness.Delete(labels)
	e.generation.Delete(labels)
}
