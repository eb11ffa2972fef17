package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/mapdata"
	"github.com/saferoute/saferoute/internal/resilience"
)

type recordingNotifier struct {
	mu      sync.Mutex
	reports []*mapdata.UrgentReport
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, report *mapdata.UrgentReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reports = append(n.reports, report)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reports)
}

func testReport(id string) *mapdata.UrgentReport {
	return &mapdata.UrgentReport{
		ID:              id,
		CurrentLocation: "DJ Sanghvi College",
		Destination:     "Juhu Police Station",
		Coords:          &mapdata.ReportLocation{Name: "DJ Sanghvi College", Lat: 19.1071, Lng: 72.8368},
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testClient() *resilience.Client {
	breaker := resilience.DefaultBreakerConfig("responder")
	breaker.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	return resilience.NewClient(resilience.ClientConfig{
		Name:            "responder",
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Breaker:         &breaker,
	})
}

func TestDispatcher_ForwardsOncePerID(t *testing.T) {
	notifier := &recordingNotifier{}
	d := NewDispatcher(DispatcherConfig{Notifier: notifier, Logger: zerolog.Nop()})

	require.NoError(t, d.Dispatch(context.Background(), testReport("rep_1")))
	require.NoError(t, d.Dispatch(context.Background(), testReport("rep_1")))
	require.NoError(t, d.Dispatch(context.Background(), testReport("rep_2")))

	assert.Equal(t, 2, notifier.count())
	assert.Equal(t, int64(2), d.Metrics().Dispatched.Load())
	assert.Equal(t, int64(1), d.Metrics().Duplicates.Load())
}

func TestDispatcher_FailureAllowsRetry(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("down")}
	d := NewDispatcher(DispatcherConfig{Notifier: notifier, Logger: zerolog.Nop()})

	err := d.Dispatch(context.Background(), testReport("rep_1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rep_1")
	assert.Equal(t, int64(1), d.Metrics().Failed.Load())

	notifier.err = nil
	require.NoError(t, d.Dispatch(context.Background(), testReport("rep_1")))
	assert.Equal(t, 1, notifier.count())
}

func TestDispatcher_DedupeWindowIsBounded(t *testing.T) {
	notifier := &recordingNotifier{}
	d := NewDispatcher(DispatcherConfig{Notifier: notifier, DedupeSize: 2, Logger: zerolog.Nop()})
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, testReport("a")))
	require.NoError(t, d.Dispatch(ctx, testReport("b")))
	require.NoError(t, d.Dispatch(ctx, testReport("c")))
	// "a" fell out of the window.
	require.NoError(t, d.Dispatch(ctx, testReport("a")))

	assert.Equal(t, 4, notifier.count())
}

func TestRecentIDs_LongRunStaysBounded(t *testing.T) {
	r := newRecentIDs(3)
	for i := range 10000 {
		assert.True(t, r.add(fmt.Sprintf("rep_%d", i)))
	}

	assert.Len(t, r.set, 3)
	assert.Len(t, r.ring, 3)
	assert.Equal(t, 3, cap(r.ring))
	assert.False(t, r.add("rep_9999"))
	assert.True(t, r.add("rep_9996"))
}

func TestRecentIDs_RemoveFreesSlot(t *testing.T) {
	r := newRecentIDs(3)
	require.True(t, r.add("a"))
	require.True(t, r.add("b"))
	r.remove("a")
	r.remove("missing")

	require.True(t, r.add("c"))
	require.True(t, r.add("d"))
	assert.Len(t, r.set, 3)

	// "b" is now the oldest live ID.
	require.True(t, r.add("e"))
	assert.True(t, r.add("b"))
	assert.False(t, r.add("d"))
	assert.False(t, r.add("e"))
}

func TestDispatcher_DefaultsToLogNotifier(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Logger: zerolog.Nop()})

	require.NoError(t, d.Dispatch(context.Background(), testReport("rep_1")))
	assert.Equal(t, int64(1), d.Metrics().Dispatched.Load())
}

func TestWebhookNotifier_PostsReport(t *testing.T) {
	var got mapdata.UrgentReport
	var key, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, testClient())
	require.NoError(t, n.Notify(context.Background(), testReport("rep_9")))

	assert.Equal(t, "rep_9", key)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "rep_9", got.ID)
	assert.Equal(t, "Juhu Police Station", got.Destination)
	require.NotNil(t, got.Coords)
	assert.InDelta(t, 19.1071, got.Coords.Lat, 1e-9)
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL, testClient()).Notify(context.Background(), testReport("rep_1"))

	var whErr *WebhookError
	require.ErrorAs(t, err, &whErr)
	assert.Equal(t, http.StatusBadRequest, whErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PUBSUB_PROJECT_ID", "saferoute-dev")
	t.Setenv("PUBSUB_SUBSCRIPTION", "")
	t.Setenv("RESPONDER_WEBHOOK_URL", "https://responders.example/hook")
	t.Setenv("DISPATCH_TIMEOUT", "5s")
	t.Setenv("DISPATCH_MAX_RETRIES", "1")

	cfg := ConfigFromEnv()

	assert.Equal(t, "saferoute-dev", cfg.ProjectID)
	assert.Equal(t, "urgent-reports-worker", cfg.SubscriptionName)
	assert.Equal(t, "https://responders.example/hook", cfg.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, uint64(1), cfg.MaxRetries)
}
