// Package persistence round-trips the asset snapshot to the map-data server.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/saferoute/saferoute/internal/asset"
	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/resilience"
	"github.com/saferoute/saferoute/internal/telemetry"
)

// Endpoint paths on the map-data server.
const (
	PathGetMapData    = "/api/get_map_data"
	PathSaveMapData   = "/api/save_map_data"
	PathReportUrgent  = "/api/report_urgent"
	clientNameMapData = "map-data"
)

// ErrClosed is returned by operations on a closed gateway.
var ErrClosed = errors.New("gateway closed")

// StatusError is a non-2xx response from the map-data server.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Stats counts gateway outcomes. Save failures only surface here and in logs.
type Stats struct {
	SavesQueued    int64
	SavesCoalesced int64
	SavesSent      int64
	SavesFailed    int64
	Loads          int64
	LoadsFailed    int64
	LastError      string
	LastSavedAt    time.Time
}

// GatewayConfig holds dependencies for the gateway.
type GatewayConfig struct {
	Config

	// Client overrides the resilient HTTP client (optional).
	Client *resilience.Client

	// Registry receives the client's health (optional).
	Registry *resilience.Registry

	// Logger for gateway operations.
	Logger zerolog.Logger
}

// Gateway saves and loads snapshots. Saves are fire-and-forget: a single
// worker sends them one at a time, and a save queued while another is
// pending replaces it, so an older snapshot is never sent after a newer one.
type Gateway struct {
	baseURL string
	timeout time.Duration
	client  *resilience.Client
	logger  zerolog.Logger
	tracer  trace.Tracer

	saveCounter metric.Int64Counter

	mu       sync.Mutex
	pending  *asset.Snapshot
	inFlight bool
	closed   bool
	waiters  []chan struct{}
	stats    Stats

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewGateway creates a gateway and starts its save worker.
func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	client := cfg.Client
	if client == nil {
		clientCfg := resilience.DefaultClientConfig(clientNameMapData)
		clientCfg.MaxRetries = cfg.MaxRetries
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		client = resilience.NewClient(clientCfg)
	}

	saveCounter, _ := telemetry.Meter("saferoute/persistence").Int64Counter(
		"mapdata.saves",
		metric.WithDescription("Snapshot saves by outcome"),
	)

	g := &Gateway{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     timeout,
		client:      client,
		logger:      cfg.Logger,
		tracer:      telemetry.Tracer("saferoute/persistence"),
		saveCounter: saveCounter,
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	go g.run()
	return g
}

// Save queues snap for sending and returns immediately.
func (g *Gateway) Save(_ context.Context, snap asset.Snapshot) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.logger.Warn().Msg("save dropped, gateway closed")
		return
	}
	if g.pending != nil {
		g.stats.SavesCoalesced++
	}
	cpy := snap.Clone()
	g.pending = &cpy
	g.stats.SavesQueued++
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every queued save has been sent (or has failed).
func (g *Gateway) Flush(ctx context.Context) error {
	g.mu.Lock()
	if g.pending == nil && !g.inFlight {
		g.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load fetches the stored snapshot. Absent fields come back nil.
func (g *Gateway) Load(ctx context.Context) (*asset.Snapshot, error) {
	ctx, span := g.tracer.Start(ctx, "persistence.Load")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	snap, err := g.load(ctx)

	g.mu.Lock()
	g.stats.Loads++
	if err != nil {
		g.stats.LoadsFailed++
		g.stats.LastError = err.Error()
	}
	g.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error().Err(err).Msg("error loading map data")
		return nil, err
	}
	return snap, nil
}

func (g *Gateway) load(ctx context.Context) (*asset.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+PathGetMapData, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building load request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loading map data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: "load", StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading map data: %w", err)
	}

	doc, err := mapdata.DecodeDocument(body)
	if err != nil {
		return nil, err
	}
	snap := doc.Snapshot()
	return &snap, nil
}

// Reload waits for queued saves to land, then loads. Queuing the empty
// snapshot with Save and then calling Reload resets the remote map.
func (g *Gateway) Reload(ctx context.Context) (*asset.Snapshot, error) {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	if err := g.Flush(ctx); err != nil {
		return nil, err
	}
	return g.Load(ctx)
}

// Stats returns a copy of the gateway counters.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Close sends any queued save and stops the worker.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()
		close(g.stop)
	})
	<-g.done
}

func (g *Gateway) run() {
	defer close(g.done)
	for {
		select {
		case <-g.wake:
			g.drain()
		case <-g.stop:
			g.drain()
			return
		}
	}
}

// drain sends pending snapshots until none is left.
func (g *Gateway) drain() {
	for {
		g.mu.Lock()
		snap := g.pending
		g.pending = nil
		if snap == nil {
			g.inFlight = false
			waiters := g.waiters
			g.waiters = nil
			g.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		g.inFlight = true
		g.mu.Unlock()

		g.send(*snap)
	}
}

func (g *Gateway) send(snap asset.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	ctx, span := g.tracer.Start(ctx, "persistence.Save")
	defer span.End()

	span.SetAttributes(
		attribute.Int("snapshot.cctv", len(snap.CCTV)),
		attribute.Int("snapshot.criminal", len(snap.Criminal)),
		attribute.Int("snapshot.safe", len(snap.Safe)),
	)

	err := g.post(ctx, snap)

	g.mu.Lock()
	if err != nil {
		g.stats.SavesFailed++
		g.stats.LastError = err.Error()
	} else {
		g.stats.SavesSent++
		g.stats.LastSavedAt = time.Now()
	}
	g.mu.Unlock()

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error().Err(err).Msg("error saving map data")
	} else {
		g.logger.Debug().
			Int("cctv", len(snap.CCTV)).
			Int("criminal", len(snap.Criminal)).
			Int("safe", len(snap.Safe)).
			Msg("map data saved successfully")
	}
	if g.saveCounter != nil {
		g.saveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (g *Gateway) post(ctx context.Context, snap asset.Snapshot) error {
	body, err := json.Marshal(mapdata.FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+PathSaveMapData, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("saving map data: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "save", StatusCode: resp.StatusCode}
	}
	return nil
}
