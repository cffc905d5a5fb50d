package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Schedule routes mirror the draft -> pending -> approved workflow. Reading
// and drafting only need schedules:read; approval and substitution carry
// their own codes so a role can draft without being able to sign off.
func (s *Server) registerScheduleRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/schedules", s.perm("schedules:read", s.handleListSchedules))
	mux.HandleFunc("POST /api/v1/admin/schedules", s.perm("schedules:read", s.handleCreateSchedule))
	mux.HandleFunc("POST /api/v1/admin/schedules/validate-overtime", s.perm("schedules:read", s.handleValidateOvertime))
	mux.HandleFunc("GET /api/v1/admin/schedules/{scheduleID}", s.perm("schedules:read", s.handleGetSchedule))
	mux.HandleFunc("PATCH /api/v1/admin/schedules/{scheduleID}", s.perm("schedules:read", s.handleUpdateSchedule))
	mux.HandleFunc("POST /api/v1/admin/schedules/{scheduleID}/submit", s.perm("schedules:read", s.handleSubmitSchedule))
	mux.HandleFunc("POST /api/v1/admin/schedules/{scheduleID}/approve", s.perm("schedules:create", s.handleApproveSchedule))
	mux.HandleFunc("POST /api/v1/admin/schedules/{scheduleID}/cancel", s.perm("schedules:read", s.handleCancelSchedule))
	mux.HandleFunc("PATCH /api/v1/admin/schedules/{scheduleID}/substitute", s.perm("schedules:update", s.handleSubstituteSchedule))
	mux.HandleFunc("GET /api/v1/admin/schedules/{scheduleID}/history", s.perm("schedules:read", s.handleScheduleHistory))
}

type scheduleCreateRequest struct {
	StoreID    uuid.UUID  `json:"store_id"`
	UserID     uuid.UUID  `json:"user_id"`
	ShiftID    *uuid.UUID `json:"shift_id"`
	PositionID *uuid.UUID `json:"position_id"`
	PresetID   *uuid.UUID `json:"preset_id"`
	WorkDate   string     `json:"work_date"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	Note       string     `json:"note"`
}

type scheduleUpdateRequest struct {
	ShiftID    *uuid.UUID `json:"shift_id"`
	PositionID *uuid.UUID `json:"position_id"`
	StartTime  *string    `json:"start_time"`
	EndTime    *string    `json:"end_time"`
	Note       *string    `json:"note"`
}

type substituteRequest struct {
	NewUserID uuid.UUID `json:"new_user_id"`
}

type overtimeCheckRequest struct {
	StoreID    uuid.UUID `json:"store_id"`
	UserID     uuid.UUID `json:"user_id"`
	WorkDate   string    `json:"work_date"`
	AddMinutes int       `json:"add_minutes"`
}

// scheduleFilterFromQuery accepts both a single work_date and a
// date_from/date_to range; the range wins when both are present.
func (s *Server) scheduleFilterFromQuery(r *http.Request, a *auth.Actor) (storage.ScheduleFilter, error) {
	f := storage.ScheduleFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

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
		st := types.ScheduleStatus(raw)
		if !st.IsValid() {
			return f, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest)
		}
		f.Status = st
	}
	return f, nil
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f, err := s.scheduleFilterFromQuery(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	items, total, err := s.svc.Schedules.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "scheduleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	sch, err := s.svc.Schedules.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req scheduleCreateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	workDate, err := parseDate(req.WorkDate)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, req.StoreID); err != nil {
		s.error(w, r, err)
		return
	}
	sch, err := s.svc.Schedules.Create(r.Context(), a.OrgID(), a.User.ID, schedule.CreateInput{
		StoreID:    req.StoreID,
		UserID:     req.UserID,
		ShiftID:    req.ShiftID,
		PositionID: req.PositionID,
		PresetID:   req.PresetID,
		WorkDate:   workDate,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Note:       req.Note,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sch)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "scheduleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req scheduleUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	sch, err := s.svc.Schedules.Update(r.Context(), a.OrgID(), id, schedule.UpdateInput{
		ShiftID:    req.ShiftID,
		PositionID: req.PositionID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Note:       req.Note,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) handleSubmitSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	s.transitionSchedule(w, r, a, s.svc.Schedules.Submit)
}

func (s *Server) handleApproveSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	s.transitionSchedule(w, r, a, s.svc.Schedules.Approve)
}

func (s *Server) handleCancelSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	s.transitionSchedule(w, r, a, s.svc.Schedules.Cancel)
}

// transitionSchedule factors the submit/approve/cancel handlers, which differ
// only in the service call.
func (s *Server) transitionSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor, fn func(ctx context.Context, orgID, id, actorID uuid.UUID) (*types.Schedule, error)) {
	id, err := pathUUID(r, "scheduleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	sch, err := fn(r.Context(), a.OrgID(), id, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) handleSubstituteSchedule(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "scheduleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req substituteRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	sch, err := s.svc.Schedules.Substitute(r.Context(), a.OrgID(), id, req.NewUserID, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) handleValidateOvertime(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req overtimeCheckRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	workDate, err := parseDate(req.WorkDate)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, req.StoreID); err != nil {
		s.error(w, r, err)
		return
	}
	check, err := s.svc.Schedules.ValidateOvertime(r.Context(), a.OrgID(), req.StoreID, req.UserID, workDate, req.AddMinutes)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleScheduleHistory(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "scheduleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	history, err := s.svc.Schedules.History(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
