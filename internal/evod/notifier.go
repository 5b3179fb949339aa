package evod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// NotificationPayload represents the JSON payload sent to the callback URL
type NotificationPayload struct {
	RunID     string             `json:"run_id"`
	Status    models.RunStatus   `json:"status"`
	Problem   string             `json:"problem"`
	CreatedAt time.Time          `json:"created_at"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Error     string             `json:"error,omitempty"`
	Metrics   *models.RunMetrics `json:"metrics,omitempty"`
	Best      json.RawMessage    `json:"best,omitempty"`
	Timestamp int64              `json:"timestamp"` // when the notification was sent
}

// Notifier posts run completion notifications to callback URLs.
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	backoff    utils.BackoffStrategy
	log        *slog.Logger

	wg sync.WaitGroup
}

// NewNotifier creates a notifier from the daemon's callback settings.
func NewNotifier(cfg config.CallbackConfig, log *slog.Logger) *Notifier {
	if log == nil {
		log = logger.Default
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    utils.BackoffFromConfig(cfg.Backoff, cfg.BaseMs, cfg.MaxMs),
		log:        log,
	}
}

// Notify sends the final state of run to its callback URL in the
// background. Runs without a callback URL are ignored.
func (n *Notifier) Notify(run models.Run) {
	if run.CallbackURL == "" {
		return
	}
	finalURL := strings.ReplaceAll(run.CallbackURL, "{run_id}", run.ID)
	payload := NotificationPayload{
		RunID:     run.ID,
		Status:    run.Status,
		Problem:   run.Problem,
		CreatedAt: run.CreatedAt,
		StartTime: run.StartTime,
		EndTime:   run.EndTime,
		Error:     run.Error,
		Metrics:   run.Metrics,
		Best:      run.Best,
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.Send(context.Background(), finalURL, payload); err != nil {
			n.log.Error("failed to send notification after retries",
				"callback_url", finalURL,
				"run_id", payload.RunID,
				"status", payload.Status,
				"max_retries", n.maxRetries,
				"error", err)
		}
	}()
}

// Wait blocks until every pending notification has been delivered or has
// given up.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Send posts payload to callbackURL, retrying failed attempts with backoff.
func (n *Notifier) Send(ctx context.Context, callbackURL string, payload NotificationPayload) error {
	return utils.Retry(ctx, n.maxRetries, n.backoff, func(attempt int) error {
		payload.Timestamp = time.Now().UTC().UnixMilli()
		err := n.post(ctx, callbackURL, payload)
		if err != nil {
			n.log.Warn("notification attempt failed",
				"callback_url", callbackURL,
				"run_id", payload.RunID,
				"attempt", attempt+1,
				"error", err)
			return err
		}
		n.log.Info("notification sent successfully",
			"run_id", payload.RunID,
			"status", payload.Status,
			"attempt", attempt+1)
		return nil
	})
}

func (n *Notifier) post(ctx context.Context, callbackURL string, payload NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "evolution-core/1.0")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, respBody)
}
