package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/resilience"
)

const clientNameUrgent = "urgent-alert"

// AlerterConfig holds dependencies for the urgent alert notifier.
type AlerterConfig struct {
	Config

	// Client overrides the resilient HTTP client (optional).
	Client *resilience.Client

	// Registry receives the client's health (optional).
	Registry *resilience.Registry

	// Logger for alert delivery.
	Logger zerolog.Logger
}

// Alerter posts urgent help reports without blocking the caller.
type Alerter struct {
	baseURL string
	timeout time.Duration
	client  *resilience.Client
	logger  zerolog.Logger

	wg sync.WaitGroup
}

// NewAlerter creates an urgent alert notifier.
func NewAlerter(cfg AlerterConfig) *Alerter {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := cfg.Client
	if client == nil {
		clientCfg := resilience.DefaultClientConfig(clientNameUrgent)
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		client = resilience.NewClient(clientCfg)
	}

	return &Alerter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: timeout,
		client:  client,
		logger:  cfg.Logger,
	}
}

// Notify sends report in the background. The outcome is only logged.
func (a *Alerter) Notify(_ context.Context, report mapdata.UrgentReportRequest) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		id, err := a.send(ctx, report)
		if err != nil {
			a.logger.Error().
				Err(err).
				Str("current_location", report.CurrentLocation).
				Msg("error sending urgent alert")
			return
		}
		a.logger.Info().
			Str("report_id", id).
			Str("destination", report.Destination).
			Msg("urgent alert sent")
	}()
}

// Wait blocks until every pending alert has been delivered or has failed.
func (a *Alerter) Wait() {
	a.wg.Wait()
}

type reportResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (a *Alerter) send(ctx context.Context, report mapdata.UrgentReportRequest) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+PathReportUrgent, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reporting urgent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &StatusError{Op: "report_urgent", StatusCode: resp.StatusCode}
	}

	var out reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding report response: %w", err)
	}
	return out.ID, nil
}
