// Package api serves the REST interface. Routes split into three groups:
// /api/v1/auth for credentials, /api/v1/admin for management, and
// /api/v1/my for worker self-service. Handlers stay thin: decode, call a
// service, map the error kind to a status code. All tenancy and
// permission decisions live in the services and the auth middleware.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shiftcrew/shiftcrew/internal/announce"
	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/attendance"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/evaluation"
	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/task"
	"github.com/shiftcrew/shiftcrew/internal/telemetry"
)

// Config carries the listen address and CORS origins.
type Config struct {
	Addr        string
	CORSOrigins []string
}

// Services bundles everything the handlers call. All fields are required
// except where noted.
type Services struct {
	Store       storage.Storage
	Auth        *auth.Service
	Orgs        *org.Service
	Templates   *checklist.TemplateService
	Instances   *checklist.Service
	Assignments *assignment.Service
	Schedules   *schedule.Service
	Attendance  *attendance.Service
	Announce    *announce.Service
	Tasks       *task.Service
	Evaluations *evaluation.Service
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	log     logrus.FieldLogger
	svc     Services
	metrics *Metrics

	httpServer *http.Server
	listener   net.Listener
	started    time.Time
	mu         sync.RWMutex
}

// NewServer wires a Server. It does not listen until Start.
func NewServer(cfg Config, log logrus.FieldLogger, svc Services) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{cfg: cfg, log: log, svc: svc, metrics: NewMetrics()}
}

// Handler builds the full route table. Exposed separately from Start so
// tests can drive it through httptest without a real listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.registerAuthRoutes(mux)
	s.registerOrgRoutes(mux)
	s.registerUserRoutes(mux)
	s.registerRoleRoutes(mux)
	s.registerChecklistRoutes(mux)
	s.registerAssignmentRoutes(mux)
	s.registerScheduleRoutes(mux)
	s.registerAttendanceRoutes(mux)
	s.registerAnnouncementRoutes(mux)
	s.registerTaskRoutes(mux)
	s.registerEvaluationRoutes(mux)
	s.registerDashboardRoutes(mux)
	s.registerMyRoutes(mux)

	var h http.Handler = mux
	h = s.withMetrics(h)
	h = s.withCORS(h)
	h = s.withRequestLog(h)
	h = telemetry.Middleware(h)
	return h
}

// Start listens and serves until ctx is cancelled, then drains with a
// five second grace period.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.started = time.Now()
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", listener.Addr().String()).Info("api server listening")
	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the bound address once Start has run.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

func (s *Server) uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}

// handleHealth reports liveness. The process is healthy as long as it
// can answer at all; readiness is the deeper check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": fmt.Sprintf("%.0fs", s.uptime().Seconds()),
	})
}

// handleReadiness pings the database and reports 503 until it answers.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
