package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerAttendanceRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/attendances", s.perm("schedules:read", s.handleListAttendances))
	mux.HandleFunc("GET /api/v1/admin/attendances/weekly-summary", s.perm("schedules:read", s.handleWeeklySummary))
	mux.HandleFunc("GET /api/v1/admin/attendances/overtime-alerts", s.perm("schedules:read", s.handleOvertimeAlerts))
	mux.HandleFunc("GET /api/v1/admin/attendances/{attendanceID}", s.perm("schedules:read", s.handleGetAttendance))
	mux.HandleFunc("PATCH /api/v1/admin/attendances/{attendanceID}/correct", s.perm("schedules:update", s.handleCorrectAttendance))
}

type correctionRequest struct {
	FieldName      string `json:"field_name"`
	CorrectedValue string `json:"corrected_value"`
	Reason         string `json:"reason"`
}

// attendanceDetail appends the correction trail to the base record.
type attendanceDetail struct {
	*types.Attendance
	Corrections []*types.AttendanceCorrection `json:"corrections"`
}

func (s *Server) attendanceFilterFromQuery(r *http.Request, a *auth.Actor) (storage.AttendanceFilter, error) {
	f := storage.AttendanceFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

	storeID, err := queryUUID(r, "store_id")
	if err != nil {
		return f, err
	}
	if storeID != nil {
		if err := s.checkStoreAccess(r, a, *storeID); err != nil {
			return f, err
		}
		f.StoreID = storeID
	}
	if f.UserID, err = queryUUID(r, "user_id"); err != nil {
		return f, err
	}
	if f.DateFrom, err = queryDate(r, "date_from"); err != nil {
		return f, err
	}
	if f.DateTo, err = queryDate(r, "date_to"); err != nil {
		return f, err
	}
	if f.DateFrom == nil && f.DateTo == nil {
		workDate, err := queryDate(r, "work_date")
		if err != nil {
			return f, err
		}
		if workDate != nil {
			f.DateFrom = workDate
			f.DateTo = workDate
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := types.AttendanceStatus(raw)
		if !st.IsValid() {
			return f, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest)
		}
		f.Status = st
	}
	return f, nil
}

func (s *Server) handleListAttendances(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f, err := s.attendanceFilterFromQuery(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	items, total, err := s.svc.Attendance.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

func (s *Server) handleGetAttendance(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "attendanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	att, err := s.svc.Attendance.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	corrections, err := s.svc.Attendance.Corrections(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceDetail{Attendance: att, Corrections: corrections})
}

func (s *Server) handleCorrectAttendance(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "attendanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req correctionRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if err := requireField(req.Reason, "reason"); err != nil {
		s.error(w, r, err)
		return
	}
	correction, err := s.svc.Attendance.Correct(r.Context(), a.OrgID(), id, req.FieldName, req.CorrectedValue, req.Reason, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, correction)
}

// weekOfFromQuery reads the optional week_of anchor date, defaulting to
// today so the dashboard widgets work without parameters.
func weekOfFromQuery(r *http.Request) (time.Time, error) {
	weekOf, err := queryDate(r, "week_of")
	if err != nil {
		return time.Time{}, err
	}
	if weekOf == nil {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return *weekOf, nil
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := queryUUID(r, "store_id")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if storeID != nil {
		if err := s.checkStoreAccess(r, a, *storeID); err != nil {
			s.error(w, r, err)
			return
		}
	}
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		s.error(w, r, err)
		return
	}
	weekOf, err := weekOfFromQuery(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	summaries, err := s.svc.Attendance.WeeklySummaries(r.Context(), a.OrgID(), storeID, userID, weekOf)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleOvertimeAlerts(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := queryUUID(r, "store_id")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if storeID != nil {
		if err := s.checkStoreAccess(r, a, *storeID); err != nil {
			s.error(w, r, err)
			return
		}
	}
	weekOf, err := weekOfFromQuery(r)
	if err != nil {
		s.error(w, r, err)
		return
	}
	alerts, err := s.svc.Attendance.OvertimeAlerts(r.Context(), a.OrgID(), storeID, weekOf)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}
