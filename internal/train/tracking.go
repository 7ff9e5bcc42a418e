package train

import (
	"context"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/logging"
)

const trackingTimeout = 5 * time.Second

// Tracker reports training runs to an experiment tracking service. It is
// best effort: tracking failures are logged and never fail the run, and the
// tracker silently disables itself when no API key is configured.
type Tracker struct {
	client  *resty.Client
	cfg     config.Tracking
	runID   string
	enabled bool
}

type runStartRequest struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	Entity    string         `json:"entity,omitempty"`
	Name      string         `json:"name,omitempty"`
	Params    map[string]any `json:"params"`
	Timestamp int64          `json:"timestamp"`
}

type runFinishRequest struct {
	Success   bool  `json:"success"`
	Timestamp int64 `json:"timestamp"`
}

// NewTracker builds a tracker for one run. Tracking stays off unless it is
// enabled in settings, an endpoint is configured and the API key environment
// variable is set.
func NewTracker(cfg config.Tracking, runID string) *Tracker {
	t := &Tracker{cfg: cfg, runID: runID}
	if !cfg.Enabled || cfg.Endpoint == "" {
		return t
	}
	apiKey := os.Getenv(config.TrackingAPIKeyEnv)
	if apiKey == "" {
		logging.S().Warnw("tracking enabled but no API key set, disabling",
			"env", config.TrackingAPIKeyEnv)
		return t
	}
	t.enabled = true
	t.client = resty.New().
		SetTimeout(trackingTimeout).
		SetBaseURL(cfg.Endpoint).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return t
}

// Enabled reports whether run events will be sent anywhere.
func (t *Tracker) Enabled() bool { return t.enabled }

// Start reports the beginning of a run with its merged parameters.
func (t *Tracker) Start(ctx context.Context, params map[string]any) {
	if !t.enabled {
		return
	}
	body := runStartRequest{
		ID:        t.runID,
		Project:   t.cfg.Project,
		Entity:    t.cfg.Entity,
		Name:      t.cfg.Name,
		Params:    params,
		Timestamp: time.Now().Unix(),
	}
	resp, err := t.client.R().SetContext(ctx).SetBody(body).Post("/api/runs")
	if err != nil {
		logging.S().Warnw("failed to report run start", "error", err)
		return
	}
	if resp.IsError() {
		logging.S().Warnw("tracking service rejected run start",
			"status", resp.Status(), "body", resp.String())
	}
}

// Finish reports the outcome of a run.
func (t *Tracker) Finish(ctx context.Context, success bool) {
	if !t.enabled {
		return
	}
	body := runFinishRequest{Success: success, Timestamp: time.Now().Unix()}
	resp, err := t.client.R().SetContext(ctx).SetBody(body).Post("/api/runs/" + t.runID + "/finish")
	if err != nil {
		logging.S().Warnw("failed to report run finish", "error", err)
		return
	}
	if resp.IsError() {
		logging.S().Warnw("tracking service rejected run finish",
			"status", resp.Status(), "body", resp.String())
	}
}
