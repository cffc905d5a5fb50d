package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/api"
)

func TestMetricsRecord(t *testing.T) {
	m := api.NewMetrics()
	m.Record("GET /health", http.StatusOK, 2*time.Millisecond)
	m.Record("GET /health", http.StatusOK, 4*time.Millisecond)
	m.Record("GET /health", http.StatusInternalServerError, 6*time.Millisecond)
	m.Record("POST /api/v1/auth/login", http.StatusUnauthorized, time.Millisecond)
	m.Record("", http.StatusNotFound, time.Millisecond)

	snap := m.Snapshot(90 * time.Second)
	require.Equal(t, float64(90), snap.UptimeSeconds)
	require.Equal(t, int64(5), snap.TotalRequests)
	require.Equal(t, int64(1), snap.TotalErrors)
	require.Len(t, snap.Routes, 3)

	// Busiest route first.
	health := snap.Routes[0]
	require.Equal(t, "GET /health", health.Route)
	require.Equal(t, int64(3), health.Count)
	require.Equal(t, int64(1), health.Errors)
	require.InDelta(t, 4.0, health.AvgMS, 0.01)
	require.InDelta(t, 6.0, health.MaxMS, 0.01)
	require.InDelta(t, 1.0/3.0, health.ErrorRate, 0.001)

	// A 401 is not a server error.
	for _, r := range snap.Routes {
		if r.Route == "POST /api/v1/auth/login" {
			require.Zero(t, r.Errors)
		}
		if r.Route == "unmatched" {
			require.Equal(t, int64(1), r.Count)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)

	for range 3 {
		status, _ := a.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, raw := a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)

	var snap api.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	require.GreaterOrEqual(t, snap.TotalRequests, int64(3))

	var found bool
	for _, r := range snap.Routes {
		if r.Route == "GET /health" {
			found = true
			require.GreaterOrEqual(t, r.Count, int64(3))
			require.Zero(t, r.Errors)
		}
	}
	require.True(t, found, "expected a GET /health route entry")
}
