package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerAssignmentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/work-assignments", s.level(types.LevelSupervisor, s.handleListAssignments))
	mux.HandleFunc("GET /api/v1/admin/work-assignments/recent-users", s.level(types.LevelSupervisor, s.handleRecentAssignmentUsers))
	mux.HandleFunc("GET /api/v1/admin/work-assignments/{assignmentID}", s.level(types.LevelSupervisor, s.handleGetAssignment))
	mux.HandleFunc("POST /api/v1/admin/work-assignments", s.level(types.LevelSupervisor, s.handleCreateAssignment))
	mux.HandleFunc("POST /api/v1/admin/work-assignments/bulk", s.level(types.LevelSupervisor, s.handleBulkCreateAssignments))
	mux.HandleFunc("DELETE /api/v1/admin/work-assignments/{assignmentID}", s.level(types.LevelSupervisor, s.handleDeleteAssignment))
}

type assignmentRequest struct {
	StoreID    uuid.UUID `json:"store_id"`
	ShiftID    uuid.UUID `json:"shift_id"`
	PositionID uuid.UUID `json:"position_id"`
	UserID     uuid.UUID `json:"user_id"`
	WorkDate   string    `json:"work_date"`
}

func (req assignmentRequest) toInput() (assignment.CreateInput, error) {
	workDate, err := parseDate(req.WorkDate)
	if err != nil {
		return assignment.CreateInput{}, err
	}
	return assignment.CreateInput{
		StoreID:    req.StoreID,
		ShiftID:    req.ShiftID,
		PositionID: req.PositionID,
		UserID:     req.UserID,
		WorkDate:   workDate,
	}, nil
}

type bulkAssignmentsRequest struct {
	Assignments []assignmentRequest `json:"assignments"`
}

func (s *Server) assignmentFilterFromQuery(r *http.Request, a *auth.Actor) (storage.AssignmentFilter, error) {
	f := storage.AssignmentFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

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
	if f.WorkDate, err = queryDate(r, "work_date"); err != nil {
		return f, err
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := types.AssignmentStatus(raw)
		if !st.IsValid() {
			return f, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest)
		}
		f.Status = st
	}
	return f, nil
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f, err := s.assignmentFilterFromQuery(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	items, total, err := s.svc.Assignments.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

// handleRecentAssignmentUsers suggests workers who held each shift/position
// pair recently, so the admin can repeat last week's roster in a click.
func (s *Server) handleRecentAssignmentUsers(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := queryUUID(r, "store_id")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if storeID == nil {
		s.error(w, r, fmt.Errorf("store_id is required: %w", apperr.ErrBadRequest))
		return
	}
	if err := s.checkStoreAccess(r, a, *storeID); err != nil {
		s.error(w, r, err)
		return
	}
	excludeDate, err := queryDate(r, "exclude_date")
	if err != nil {
		s.error(w, r, err)
		return
	}
	days := 14
	if r.URL.Query().Get("days") != "" {
		if days, err = queryInt(r, "days"); err != nil {
			s.error(w, r, err)
			return
		}
	}
	users, err := s.svc.Assignments.RecentUsers(r.Context(), a.OrgID(), *storeID, excludeDate, days)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "assignmentID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	wa, err := s.svc.Assignments.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wa)
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req assignmentRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, in.StoreID); err != nil {
		s.error(w, r, err)
		return
	}
	wa, err := s.svc.Assignments.Create(r.Context(), a.OrgID(), a.User.ID, in)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wa)
}

func (s *Server) handleBulkCreateAssignments(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req bulkAssignmentsRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if len(req.Assignments) == 0 {
		s.error(w, r, fmt.Errorf("assignments must not be empty: %w", apperr.ErrBadRequest))
		return
	}
	ins := make([]assignment.CreateInput, 0, len(req.Assignments))
	seen := make(map[uuid.UUID]struct{})
	for _, ar := range req.Assignments {
		in, err := ar.toInput()
		if err != nil {
			s.error(w, r, err)
			return
		}
		if _, ok := seen[in.StoreID]; !ok {
			if err := s.checkStoreAccess(r, a, in.StoreID); err != nil {
				s.error(w, r, err)
				return
			}
			seen[in.StoreID] = struct{}{}
		}
		ins = append(ins, in)
	}
	created, err := s.svc.Assignments.BulkCreate(r.Context(), a.OrgID(), a.User.ID, ins)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "assignmentID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Assignments.Delete(r.Context(), a.OrgID(), id); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
