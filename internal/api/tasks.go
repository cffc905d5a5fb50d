package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/task"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Task routes: supervisors can see the board, but only general managers
// shape it.
func (s *Server) registerTaskRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/tasks", s.level(types.LevelSupervisor, s.handleListTasks))
	mux.HandleFunc("GET /api/v1/admin/tasks/{taskID}", s.level(types.LevelSupervisor, s.handleGetTask))
	mux.HandleFunc("POST /api/v1/admin/tasks", s.level(types.LevelGeneralManager, s.handleCreateTask))
	mux.HandleFunc("PUT /api/v1/admin/tasks/{taskID}", s.level(types.LevelGeneralManager, s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/v1/admin/tasks/{taskID}", s.level(types.LevelGeneralManager, s.handleDeleteTask))
}

type taskRequest struct {
	StoreID     *uuid.UUID  `json:"store_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	DueDate     *time.Time  `json:"due_date"`
	Assignees   []uuid.UUID `json:"assignees"`
}

type taskUpdateRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Priority    *string      `json:"priority"`
	Status      *string      `json:"status"`
	DueDate     *time.Time   `json:"due_date"`
	Assignees   *[]uuid.UUID `json:"assignees"`
}

func taskPriority(raw string) (types.TaskPriority, error) {
	if raw == "" {
		return types.PriorityNormal, nil
	}
	p := types.TaskPriority(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q: %w", raw, apperr.ErrBadRequest)
	}
	return p, nil
}

func taskStatus(raw string) (types.TaskStatus, error) {
	st := types.TaskStatus(raw)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest)
	}
	return st, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f := storage.TaskFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

	var err error
	if f.Assignee, err = queryUUID(r, "assignee_id"); err != nil {
		s.error(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if f.Status, err = taskStatus(raw); err != nil {
			s.error(w, r, err)
			return
		}
	}
	items, total, err := s.svc.Tasks.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "taskID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req taskRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	priority, err := taskPriority(req.Priority)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if req.StoreID != nil {
		if err := s.checkStoreAccess(r, a, *req.StoreID); err != nil {
			s.error(w, r, err)
			return
		}
	}
	t, err := s.svc.Tasks.Create(r.Context(), a.OrgID(), a.User.ID, task.Input{
		StoreID:     req.StoreID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		Assignees:   req.Assignees,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "taskID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req taskUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	in := task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignees:   req.Assignees,
	}
	if req.Priority != nil {
		priority, err := taskPriority(*req.Priority)
		if err != nil {
			s.error(w, r, err)
			return
		}
		in.Priority = &priority
	}
	if req.Status != nil {
		status, err := taskStatus(*req.Status)
		if err != nil {
			s.error(w, r, err)
			return
		}
		in.Status = &status
	}
	t, err := s.svc.Tasks.Update(r.Context(), a.OrgID(), id, in)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "taskID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Tasks.Delete(r.Context(), a.OrgID(), id); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
