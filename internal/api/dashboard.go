package api

import (
	"net/http"
	"time"

	"github.com/shiftcrew/shiftcrew/internal/auth"
)

func (s *Server) registerDashboardRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/dashboard", s.perm("dashboard:read", s.handleDashboard))
}

// handleDashboard returns the org-wide counts for one day, defaulting to
// today.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	day, err := queryDate(r, "date")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if day == nil {
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		day = &today
	}
	counts, err := s.svc.Store.DashboardCounts(r.Context(), a.OrgID(), *day)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
