package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/saferoute/internal/resilience"
)

func TestRegistry_ClientRegistersItself(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("map-data")
	cfg.Registry = registry

	resilience.NewClient(cfg)

	assert.Equal(t, 1, registry.Len())
	h, ok := registry.Get("map-data")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateClosed, h.State)
	assert.Equal(t, "healthy", h.Status())
	assert.Nil(t, h.LastSuccessAt)
}

func TestRegistry_RecordsOutcomes(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	registry := resilience.NewRegistry()
	cfg := fastConfig("map-data")
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ok.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	h, _ := registry.Get("map-data")
	require.NotNil(t, h.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *h.LastSuccessAt, time.Second)

	registry.RecordFailure("map-data", assert.AnError)
	h, _ = registry.Get("map-data")
	require.NotNil(t, h.LastFailureAt)
	assert.Equal(t, assert.AnError.Error(), h.LastError)
}

func TestRegistry_UnknownNamesIgnored(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", assert.AnError)

	_, ok := registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_AllSortedAndUnregister(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"urgent-alert", "map-data"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		resilience.NewClient(cfg)
	}

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "map-data", all[0].Name)
	assert.Equal(t, "urgent-alert", all[1].Name)

	registry.Unregister("map-data")
	assert.Equal(t, 1, registry.Len())
}

func TestHealth_Status(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
	}{
		{gobreaker.StateClosed, "healthy"},
		{gobreaker.StateHalfOpen, "degraded"},
		{gobreaker.StateOpen, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, resilience.Health{State: tt.state}.Status())
		})
	}
}
