package api

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// Metrics counts requests per route pattern. Patterns come from the mux,
// so the key space stays bounded no matter what paths clients probe.
type Metrics struct {
	mu     sync.RWMutex
	routes map[string]*routeStats
}

type routeStats struct {
	Count    int64
	Errors   int64
	totalDur time.Duration
	maxDur   time.Duration
}

// RouteSnapshot is the exported per-route view.
type RouteSnapshot struct {
	Route     string  `json:"route"`
	Count     int64   `json:"count"`
	Errors    int64   `json:"errors"`
	AvgMS     float64 `json:"avg_ms"`
	MaxMS     float64 `json:"max_ms"`
	ErrorRate float64 `json:"error_rate"`
}

// Snapshot is the /metrics response body.
type Snapshot struct {
	UptimeSeconds float64         `json:"uptime_seconds"`
	TotalRequests int64           `json:"total_requests"`
	TotalErrors   int64           `json:"total_errors"`
	Routes        []RouteSnapshot `json:"routes"`
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{routes: make(map[string]*routeStats)}
}

// Record counts one finished request. Status codes of 500 and up count
// as errors; 4xx responses are the client's problem, not ours.
func (m *Metrics) Record(route string, status int, dur time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.routes[route]
	if !ok {
		st = &routeStats{}
		m.routes[route] = st
	}
	st.Count++
	if status >= 500 {
		st.Errors++
	}
	st.totalDur += dur
	if dur > st.maxDur {
		st.maxDur = dur
	}
}

// Snapshot returns the current counters, routes sorted by request count.
func (m *Metrics) Snapshot(uptime time.Duration) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: uptime.Seconds(),
		Routes:        make([]RouteSnapshot, 0, len(m.routes)),
	}
	for route, st := range m.routes {
		rs := RouteSnapshot{
			Route:  route,
			Count:  st.Count,
			Errors: st.Errors,
			MaxMS:  float64(st.maxDur) / float64(time.Millisecond),
		}
		if st.Count > 0 {
			rs.AvgMS = float64(st.totalDur) / float64(st.Count) / float64(time.Millisecond)
			rs.ErrorRate = float64(st.Errors) / float64(st.Count)
		}
		snap.TotalRequests += st.Count
		snap.TotalErrors += st.Errors
		snap.Routes = append(snap.Routes, rs)
	}
	sort.Slice(snap.Routes, func(i, j int) bool {
		if snap.Routes[i].Count != snap.Routes[j].Count {
			return snap.Routes[i].Count > snap.Routes[j].Count
		}
		return snap.Routes[i].Route < snap.Routes[j].Route
	})
	return snap
}

// withMetrics records every finished request.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.Record(r.Pattern, rec.status, time.Since(start))
	})
}

// handleMetrics serves the counter snapshot.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot(s.uptime()))
}
