package evod

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
)

func TestExecutorRunsToCompletion(t *testing.T) {
	d := newTestDaemon(t, 2, 4)
	run, err := d.store.Create("", mustSpec(t, quickSpecYAML))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := d.executor.Start(run.ID); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	final := waitFor(t, d.store, run.ID, terminal)

	if final.Status != models.RunStatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.Error)
	}
	if final.Progress.Generation != 20 {
		t.Errorf("expected 20 generations of progress, got %d", final.Progress.Generation)
	}
	if final.Metrics == nil {
		t.Fatal("expected run metrics")
	}
	if final.Metrics.Generations != 20 {
		t.Errorf("expected 20 generations in metrics, got %d", final.Metrics.Generations)
	}
	if final.Metrics.BestFitness != final.Progress.BestFitness {
		t.Errorf("metrics best %d differs from progress best %d", final.Metrics.BestFitness, final.Progress.BestFitness)
	}
	if final.Metrics.BestFitness < final.Metrics.InitialFitness {
		t.Errorf("best fitness %d fell below the initial %d", final.Metrics.BestFitness, final.Metrics.InitialFitness)
	}

	var best string
	if err := json.Unmarshal(final.Best, &best); err != nil {
		t.Fatalf("expected the best bit string as JSON, got %s: %v", final.Best, err)
	}
	if len(best) != 16 || strings.Count(best, "1") != int(final.Metrics.BestFitness) {
		t.Errorf("best %q does not match fitness %d", best, final.Metrics.BestFitness)
	}

	collector, ok := d.store.Collector(run.ID)
	if !ok {
		t.Fatal("expected a collector")
	}
	if n := len(collector.GetTimeSeries(metrics.MetricBestFitness, metrics.RunLabels(run.ID))); n != 21 {
		t.Errorf("expected 21 best fitness points, got %d", n)
	}
}

func TestExecutorStartErrors(t *testing.T) {
	d := newTestDaemon(t, 1, 1)

	if _, err := d.executor.Start(""); !errors.Is(err, ErrRunIDMissing) {
		t.Errorf("expected ErrRunIDMissing, got %v", err)
	}
	if _, err := d.executor.Start("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}

	run, _ := d.store.Create("", mustSpec(t, quickSpecYAML))
	d.executor.Start(run.ID)
	waitFor(t, d.store, run.ID, terminal)

	if _, err := d.executor.Start(run.ID); !errors.Is(err, ErrRunTerminal) {
		t.Errorf("expected ErrRunTerminal, got %v", err)
	}
	if _, err := d.executor.Stop(run.ID); !errors.Is(err, ErrRunTerminal) {
		t.Errorf("expected ErrRunTerminal when stopping a finished run, got %v", err)
	}
}

func TestExecutorStopRunningRun(t *testing.T) {
	d := newTestDaemon(t, 1, 1)
	run, _ := d.store.Create("", mustSpec(t, endlessSpecYAML))

	if _, err := d.executor.Start(run.ID); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	waitFor(t, d.store, run.ID, func(r models.Run) bool {
		return r.Status == models.RunStatusRunning && r.Progress.Generation > 0
	})

	stopped, err := d.executor.Stop(run.ID)
	if err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if stopped.Status != models.RunStatusCancelled {
		t.Errorf("expected cancelled, got %s", stopped.Status)
	}

	// the executor releases the run once the engine observes the cancellation
	deadline := time.Now().Add(10 * time.Second)
	for d.executor.Active() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.executor.Active() != 0 {
		t.Fatal("expected the cancelled run to leave the executor")
	}

	final, _ := d.store.Get(run.ID)
	if final.Status != models.RunStatusCancelled {
		t.Errorf("expected cancelled to stick, got %s", final.Status)
	}
	if final.Metrics == nil || final.Metrics.Generations == 0 {
		t.Errorf("expected partial metrics for the cancelled run, got %+v", final.Metrics)
	}
}

func TestExecutorQueueFull(t *testing.T) {
	d := newTestDaemon(t, 1, 1)
	spec := mustSpec(t, endlessSpecYAML)
	a, _ := d.store.Create("a", spec)
	b, _ := d.store.Create("b", spec)
	c, _ := d.store.Create("c", spec)

	if _, err := d.executor.Start(a.ID); err != nil {
		t.Fatalf("Start a error: %v", err)
	}
	waitFor(t, d.store, a.ID, running)

	if _, err := d.executor.Start(b.ID); err != nil {
		t.Fatalf("Start b error: %v", err)
	}
	if again, err := d.executor.Start(b.ID); err != nil || again.Status != models.RunStatusPending {
		t.Errorf("expected restarting a queued run to be a no-op, got %+v, %v", again, err)
	}
	if _, err := d.executor.Start(c.ID); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if d.executor.Active() != 2 {
		t.Errorf("expected 2 active runs, got %d", d.executor.Active())
	}

	d.executor.Stop(b.ID)
	d.executor.Stop(a.ID)
	for _, id := range []string{a.ID, b.ID} {
		if final := waitFor(t, d.store, id, terminal); final.Status != models.RunStatusCancelled {
			t.Errorf("expected run %s cancelled, got %s", id, final.Status)
		}
	}
	if got, _ := d.store.Get(b.ID); !got.StartTime.IsZero() {
		t.Error("expected the queued run never to start")
	}
}

func TestExecutorUnknownProblemFails(t *testing.T) {
	d := newTestDaemon(t, 1, 1)
	run, _ := d.store.Create("", mustSpec(t, "problem: {name: knapsack, size: 4}\n"))

	d.executor.Start(run.ID)
	final := waitFor(t, d.store, run.ID, terminal)
	if final.Status != models.RunStatusFailed {
		t.Fatalf("expected failed, got %s", final.Status)
	}
	if !strings.Contains(final.Error, "unknown problem") {
		t.Errorf("expected unknown problem error, got %q", final.Error)
	}
	if final.Metrics != nil {
		t.Errorf("expected no metrics for a run that never evolved, got %+v", final.Metrics)
	}
}

func TestExecutorNotifiesCallback(t *testing.T) {
	received := make(chan NotificationPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload NotificationPayload
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if !strings.HasSuffix(r.URL.Path, "/"+payload.RunID) {
			t.Errorf("expected run id in callback path, got %s", r.URL.Path)
		}
		received <- payload
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := newTestDaemon(t, 1, 1)
	spec := mustSpec(t, quickSpecYAML+"callback_url: "+server.URL+"/hooks/{run_id}\n")
	run, _ := d.store.Create("", spec)
	d.executor.Start(run.ID)

	select {
	case payload := <-received:
		if payload.RunID != run.ID {
			t.Errorf("expected run id %s, got %s", run.ID, payload.RunID)
		}
		if payload.Status != models.RunStatusCompleted {
			t.Errorf("expected completed, got %s", payload.Status)
		}
		if payload.Metrics == nil || len(payload.Best) == 0 {
			t.Errorf("expected metrics and best in the payload, got %+v", payload)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the callback")
	}
}

func TestExecutorExportsPrometheusMetrics(t *testing.T) {
	d := newTestDaemon(t, 1, 1)
	run, _ := d.store.Create("", mustSpec(t, quickSpecYAML))
	d.executor.Start(run.ID)
	waitFor(t, d.store, run.ID, terminal)

	// the exporter is updated after the final status is stored
	deadline := time.Now().Add(5 * time.Second)
	var body string
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		d.exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		body = rec.Body.String()
		if strings.Contains(body, `evolution_runs_finished_total{status="completed"} 1`) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, want := range []string{
		`evolution_runs_finished_total{status="completed"} 1`,
		"evolution_generations_total 20",
		"evolution_runs_started_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}
