package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/resilience"
	"github.com/saferoute/saferoute/internal/telemetry"
)

// Notifier delivers one urgent report to responders.
type Notifier interface {
	Notify(ctx context.Context, report *mapdata.UrgentReport) error
}

// WebhookError is a non-2xx answer from the responder webhook.
type WebhookError struct {
	StatusCode int
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("responder webhook returned status %d", e.StatusCode)
}

// WebhookNotifier posts reports to a responder webhook through a resilient
// client.
type WebhookNotifier struct {
	url    string
	client *resilience.Client
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string, client *resilience.Client) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: client}
}

// Notify posts the report as JSON.
func (n *WebhookNotifier) Notify(ctx context.Context, report *mapdata.UrgentReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", report.ID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling responder webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &WebhookError{StatusCode: resp.StatusCode}
	}
	return nil
}

// LogNotifier only logs reports. Used when no webhook is configured.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the report.
func (n LogNotifier) Notify(_ context.Context, report *mapdata.UrgentReport) error {
	event := n.Logger.Warn().
		Str("report_id", report.ID).
		Str("current_location", report.CurrentLocation).
		Str("destination", report.Destination)
	if report.Coords != nil {
		event = event.Float64("lat", report.Coords.Lat).Float64("lng", report.Coords.Lng)
	}
	event.Msg("urgent report (no responder webhook configured)")
	return nil
}

// DispatchMetrics tracks dispatch statistics.
type DispatchMetrics struct {
	Dispatched atomic.Int64
	Duplicates atomic.Int64
	Failed     atomic.Int64
}

// DispatcherConfig holds dependencies for a Dispatcher.
type DispatcherConfig struct {
	Notifier   Notifier
	Timeout    time.Duration
	DedupeSize int
	Logger     zerolog.Logger
}

// Dispatcher forwards reports to the notifier at most once per report ID,
// within its dedupe window.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   zerolog.Logger
	seen     *recentIDs
	metrics  *DispatchMetrics
	counter  metric.Int64Counter
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	defaults := DefaultConfig()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}
	size := cfg.DedupeSize
	if size <= 0 {
		size = defaults.DedupeSize
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: cfg.Logger}
	}

	counter, _ := telemetry.Meter("saferoute/worker").Int64Counter(
		"worker.reports.dispatched",
		metric.WithDescription("Urgent reports handled by outcome"),
	)

	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   cfg.Logger,
		seen:     newRecentIDs(size),
		metrics:  &DispatchMetrics{},
		counter:  counter,
	}
}

// Metrics returns the live dispatch counters.
func (d *Dispatcher) Metrics() *DispatchMetrics {
	return d.metrics
}

// Dispatch forwards report unless it was already forwarded. A failed
// delivery is forgotten so a redelivery can try again.
func (d *Dispatcher) Dispatch(ctx context.Context, report *mapdata.UrgentReport) error {
	if !d.seen.add(report.ID) {
		d.metrics.Duplicates.Add(1)
		d.record(ctx, "duplicate")
		d.logger.Debug().Str("report_id", report.ID).Msg("duplicate report skipped")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.notifier.Notify(ctx, report); err != nil {
		d.seen.remove(report.ID)
		d.metrics.Failed.Add(1)
		d.record(ctx, "failed")
		return fmt.Errorf("dispatching report %s: %w", report.ID, err)
	}

	d.metrics.Dispatched.Add(1)
	d.record(ctx, "dispatched")
	d.logger.Info().
		Str("report_id", report.ID).
		Dur("duration", time.Since(start)).
		Msg("urgent report dispatched")
	return nil
}

func (d *Dispatcher) record(ctx context.Context, outcome string) {
	if d.counter != nil {
		d.counter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// recentIDs is a bounded set that forgets the oldest ID first. IDs live in
// a fixed ring; set maps each ID to its slot.
type recentIDs struct {
	mu   sync.Mutex
	ring []string
	next int
	set  map[string]int
}

func newRecentIDs(size int) *recentIDs {
	return &recentIDs{ring: make([]string, size), set: make(map[string]int, size)}
}

// add reports whether id was not already present.
func (r *recentIDs) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[id]; ok {
		return false
	}
	// A slot emptied by remove may hold a stale ID.
	if old := r.ring[r.next]; old != "" && r.set[old] == r.next {
		delete(r.set, old)
	}
	r.ring[r.next] = id
	r.set[id] = r.next
	r.next = (r.next + 1) % len(r.ring)
	return true
}

func (r *recentIDs) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.set[id]
	if !ok {
		return
	}
	delete(r.set, id)
	r.ring[slot] = ""
}
