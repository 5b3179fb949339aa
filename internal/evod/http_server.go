package evod

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/runner"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	executor *RunExecutor
	registry *runner.Registry
	log      *slog.Logger

	eventInterval time.Duration
}

// NewHTTPServer builds the HTTP API. When exporter is not nil its registry
// is served on /metrics.
func NewHTTPServer(store *RunStore, executor *RunExecutor, registry *runner.Registry, exporter *metrics.Exporter, log *slog.Logger) *HTTPServer {
	if log == nil {
		log = logger.Default
	}
	s := &HTTPServer{
		mux:           http.NewServeMux(),
		store:         store,
		executor:      executor,
		registry:      registry,
		log:           log,
		eventInterval: DefaultEventInterval,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/problems", s.handleProblems)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	if exporter != nil {
		s.mux.Handle("/metrics", exporter.Handler())
	}

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"active_runs": s.executor.Active(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"problems": s.registry.Names()})
}

// handleRuns handles /v1/runs endpoint
func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunByID handles /v1/runs/{id} and the actions below it
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	routes := []struct {
		suffix  string
		method  string
		handler func(http.ResponseWriter, *http.Request, string)
	}{
		{":start", http.MethodPost, s.handleStartRun},
		{":stop", http.MethodPost, s.handleStopRun},
		{"/metrics", http.MethodGet, s.handleGetRunMetrics},
		{"/events", http.MethodGet, s.handleRunEvents},
		{"/export", http.MethodGet, s.handleExportRun},
	}
	for _, route := range routes {
		if runID, ok := strings.CutSuffix(path, route.suffix); ok {
			if r.Method != route.method {
				s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			route.handler(w, r, runID)
			return
		}
	}

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetRun(w, r, path)
}

// handleCreateRun handles POST /v1/runs
func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	run, err := createRun(s.store, s.executor, &req)
	if err != nil {
		s.writeDaemonError(w, err)
		return
	}

	s.log.Info("run created (HTTP)", "run_id", run.ID, "problem", run.Problem, "started", req.Start)
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": run})
}

// handleListRuns handles GET /v1/runs with pagination and filtering
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = utils.Clamp(parsed, 1, maxListLimit)
		}
	}
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = max(parsed, 0)
		}
	}
	status := models.RunStatus(strings.ToLower(r.URL.Query().Get("status")))

	runs := s.store.List(limit, offset, status)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(runs),
		},
	})
}

// handleGetRun handles GET /v1/runs/{id}
func (s *HTTPServer) handleGetRun(w http.ResponseWriter, _ *http.Request, runID string) {
	run, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": run})
}

// handleStartRun handles POST /v1/runs/{id}:start
func (s *HTTPServer) handleStartRun(w http.ResponseWriter, _ *http.Request, runID string) {
	run, err := s.executor.Start(runID)
	if err != nil {
		s.writeDaemonError(w, err)
		return
	}
	s.log.Info("run started (HTTP)", "run_id", runID)
	s.writeJSON(w, http.StatusAccepted, map[string]any{"run": run})
}

// handleStopRun handles POST /v1/runs/{id}:stop
func (s *HTTPServer) handleStopRun(w http.ResponseWriter, _ *http.Request, runID string) {
	run, err := s.executor.Stop(runID)
	if err != nil {
		s.writeDaemonError(w, err)
		return
	}
	s.log.Info("run cancelled (HTTP)", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{"run": run})
}

// handleGetRunMetrics handles GET /v1/runs/{id}/metrics
func (s *HTTPServer) handleGetRunMetrics(w http.ResponseWriter, _ *http.Request, runID string) {
	resp, err := runMetrics(s.store, runID)
	if err != nil {
		s.writeDaemonError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleExportRun handles GET /v1/runs/{id}/export: the run, the spec it
// was created with and its metrics in one document.
func (s *HTTPServer) handleExportRun(w http.ResponseWriter, _ *http.Request, runID string) {
	run, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	export := map[string]any{"run": run}
	if spec, ok := s.store.Spec(runID); ok {
		export["spec"] = spec
	}
	if resp, err := runMetrics(s.store, runID); err == nil {
		export["time_series"] = resp.TimeSeries
	}
	s.writeJSON(w, http.StatusOK, export)
}

// handleRunEvents handles GET /v1/runs/{id}/events as a server-sent event
// stream of status changes and per-generation progress.
func (s *HTTPServer) handleRunEvents(w http.ResponseWriter, r *http.Request, runID string) {
	run, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	interval := s.eventInterval
	if intervalStr := r.URL.Query().Get("interval_ms"); intervalStr != "" {
		if intervalMs, err := strconv.ParseInt(intervalStr, 10, 64); err == nil && intervalMs > 0 {
			interval = time.Duration(intervalMs) * time.Millisecond
		}
	}

	flush := func() {
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}

	s.sendSSEEvent(w, "status", run)
	if run.Status.Terminal() {
		s.sendSSEEvent(w, "complete", map[string]any{"status": run.Status})
		flush()
		return
	}
	flush()
	previous := run

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			run, ok := s.store.Get(runID)
			if !ok {
				s.sendSSEEvent(w, "error", map[string]any{"error": "run not found"})
				flush()
				return
			}
			if run.Progress != previous.Progress {
				s.sendSSEEvent(w, "progress", run.Progress)
			}
			if run.Status != previous.Status {
				s.sendSSEEvent(w, "status", run)
				if run.Status.Terminal() {
					s.sendSSEEvent(w, "complete", map[string]any{"status": run.Status})
					flush()
					return
				}
			}
			flush()
			previous = run
		}
	}
}

func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.log.Error("failed to marshal SSE event data", "error", err)
		return
	}
	if _, err := w.Write([]byte("event: " + eventType + "\ndata: " + string(jsonData) + "\n\n")); err != nil {
		s.log.Error("failed to write SSE event", "error", err)
	}
}

// writeDaemonError maps daemon errors to HTTP status codes.
func (s *HTTPServer) writeDaemonError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrInvalidSpec), errors.Is(err, ErrRunIDMissing):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRunExists), errors.Is(err, ErrRunTerminal):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errMetricsUnavailable):
		s.writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrQueueFull):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}
