package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// The /my group is the worker surface. Every route only needs a valid
// token; ownership is enforced per record, so one worker can never read
// another's rows no matter what IDs they guess.
func (s *Server) registerMyRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/my/work-assignments", s.authed(s.handleMyAssignments))
	mux.HandleFunc("GET /api/v1/my/work-assignments/{assignmentID}", s.authed(s.handleMyAssignment))
	mux.HandleFunc("PATCH /api/v1/my/work-assignments/{assignmentID}/checklist/{itemIndex}", s.authed(s.handleMyAssignmentItem))

	mux.HandleFunc("GET /api/v1/my/checklist-instances", s.authed(s.handleMyInstances))
	mux.HandleFunc("GET /api/v1/my/checklist-instances/{instanceID}", s.authed(s.handleMyInstance))
	mux.HandleFunc("POST /api/v1/my/checklist-instances/{instanceID}/items/{itemIndex}/complete", s.authed(s.handleMyCompleteItem))
	mux.HandleFunc("DELETE /api/v1/my/checklist-instances/{instanceID}/items/{itemIndex}/complete", s.authed(s.handleMyUncompleteItem))

	mux.HandleFunc("GET /api/v1/my/notifications", s.authed(s.handleMyNotifications))
	mux.HandleFunc("GET /api/v1/my/notifications/unread-count", s.authed(s.handleMyUnreadCount))
	mux.HandleFunc("PATCH /api/v1/my/notifications/read-all", s.authed(s.handleMyReadAll))
	mux.HandleFunc("PATCH /api/v1/my/notifications/{notificationID}/read", s.authed(s.handleMyMarkRead))

	mux.HandleFunc("POST /api/v1/my/attendance/scan", s.authed(s.handleMyScan))
	mux.HandleFunc("GET /api/v1/my/attendance", s.authed(s.handleMyAttendance))
	mux.HandleFunc("GET /api/v1/my/attendance/today", s.authed(s.handleMyAttendanceToday))

	mux.HandleFunc("GET /api/v1/my/announcements", s.authed(s.handleMyAnnouncements))
	mux.HandleFunc("GET /api/v1/my/announcements/{announcementID}", s.authed(s.handleMyAnnouncement))

	mux.HandleFunc("GET /api/v1/my/additional-tasks", s.authed(s.handleMyTasks))
	mux.HandleFunc("GET /api/v1/my/additional-tasks/{taskID}", s.authed(s.handleMyTask))
	mux.HandleFunc("PATCH /api/v1/my/additional-tasks/{taskID}/complete", s.authed(s.handleMyCompleteTask))
}

type evidenceRequest struct {
	PhotoURL string          `json:"photo_url"`
	Note     string          `json:"note"`
	Location *types.Location `json:"location"`
	Timezone string          `json:"timezone"`
}

func (req evidenceRequest) toEvidence() checklist.Evidence {
	return checklist.Evidence{
		PhotoURL: req.PhotoURL,
		Note:     req.Note,
		Location: req.Location,
		Timezone: req.Timezone,
	}
}

type assignmentItemRequest struct {
	IsCompleted bool `json:"is_completed"`
	evidenceRequest
}

type scanRequest struct {
	QRCode   string `json:"qr_code"`
	Action   string `json:"action"`
	Timezone string `json:"timezone"`
}

func (s *Server) handleMyAssignments(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	workDate, err := queryDate(r, "work_date")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var status types.AssignmentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = types.AssignmentStatus(raw)
		if !status.IsValid() {
			s.error(w, r, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest))
			return
		}
	}
	items, _, err := s.svc.Assignments.ListMine(r.Context(), a.OrgID(), a.User.ID, workDate, status)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// myAssignment loads an assignment and rejects it unless it belongs to the
// caller. A foreign ID reads as not found, not forbidden.
func (s *Server) myAssignment(r *http.Request, a *auth.Actor) (*types.WorkAssignment, error) {
	id, err := pathUUID(r, "assignmentID")
	if err != nil {
		return nil, err
	}
	wa, err := s.svc.Assignments.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		return nil, err
	}
	if wa.UserID != a.User.ID {
		return nil, fmt.Errorf("assignment %s: %w", id, apperr.ErrNotFound)
	}
	return wa, nil
}

func (s *Server) handleMyAssignment(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	wa, err := s.myAssignment(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wa)
}

// handleMyAssignmentItem toggles one checklist item through the assignment.
// It funnels into the same completion log as the instance route; the two
// are different doors to one record.
func (s *Server) handleMyAssignmentItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	wa, err := s.myAssignment(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemIndex, err := pathInt(r, "itemIndex")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req assignmentItemRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	updated, err := s.svc.Assignments.CompleteItem(r.Context(), a.OrgID(), wa.ID, itemIndex, req.IsCompleted, a.User.ID, req.toEvidence())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleMyInstances(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f := storage.InstanceFilter{OrgID: a.OrgID(), UserID: &a.User.ID, Page: pageFromQuery(r)}

	var err error
	if f.WorkDate, err = queryDate(r, "work_date"); err != nil {
		s.error(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := types.InstanceStatus(raw)
		if !st.IsValid() {
			s.error(w, r, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest))
			return
		}
		f.Status = st
	}
	items, total, err := s.svc.Instances.List(r.Context(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

func (s *Server) myInstanceDetail(r *http.Request, a *auth.Actor) (*checklist.InstanceDetail, error) {
	id, err := pathUUID(r, "instanceID")
	if err != nil {
		return nil, err
	}
	detail, err := s.svc.Instances.Detail(r.Context(), a.OrgID(), id)
	if err != nil {
		return nil, err
	}
	if detail.Instance.UserID != a.User.ID {
		return nil, fmt.Errorf("checklist instance %s: %w", id, apperr.ErrNotFound)
	}
	return detail, nil
}

func (s *Server) handleMyInstance(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	detail, err := s.myInstanceDetail(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMyCompleteItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemIndex, err := pathInt(r, "itemIndex")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req evidenceRequest
	if err := decodeIfPresent(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	inst, err := s.svc.Instances.CompleteItem(r.Context(), a.OrgID(), id, itemIndex, a.User.ID, req.toEvidence())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleMyUncompleteItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemIndex, err := pathInt(r, "itemIndex")
	if err != nil {
		s.error(w, r, err)
		return
	}
	inst, err := s.svc.Instances.UncompleteItem(r.Context(), a.OrgID(), id, itemIndex, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleMyNotifications(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	p := pageFromQuery(r)
	items, total, err := s.svc.Store.ListNotifications(r.Context(), a.User.ID, p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, p))
}

func (s *Server) handleMyUnreadCount(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	count, err := s.svc.Store.CountUnreadNotifications(r.Context(), a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (s *Server) handleMyMarkRead(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "notificationID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Store.MarkNotificationRead(r.Context(), id, a.User.ID); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMyReadAll(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	if err := s.svc.Store.MarkAllNotificationsRead(r.Context(), a.User.ID); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMyScan(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	action := types.ScanAction(req.Action)
	if !action.IsValid() {
		s.error(w, r, fmt.Errorf("invalid action %q: %w", req.Action, apperr.ErrBadRequest))
		return
	}
	att, err := s.svc.Attendance.Scan(r.Context(), a.OrgID(), a.User.ID, req.QRCode, action, req.Timezone)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (s *Server) handleMyAttendance(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f := storage.AttendanceFilter{OrgID: a.OrgID(), UserID: &a.User.ID, Page: pageFromQuery(r)}

	var err error
	if f.DateFrom, err = queryDate(r, "date_from"); err != nil {
		s.error(w, r, err)
		return
	}
	if f.DateTo, err = queryDate(r, "date_to"); err != nil {
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

// handleMyAttendanceToday returns today's record, or a JSON null when the
// worker has not clocked in yet. Clients poll this to drive the scan button
// state.
func (s *Server) handleMyAttendanceToday(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	f := storage.AttendanceFilter{
		OrgID:    a.OrgID(),
		UserID:   &a.User.ID,
		DateFrom: &today,
		DateTo:   &today,
		Page:     storage.Page{Number: 1, PerPage: 1}.Normalize(),
	}
	items, _, err := s.svc.Attendance.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if len(items) == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("null\n"))
		return
	}
	writeJSON(w, http.StatusOK, items[0])
}

func (s *Server) handleMyAnnouncements(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	p := pageFromQuery(r)
	items, total, err := s.svc.Announce.ListForUser(r.Context(), a.OrgID(), a.User.ID, p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, p))
}

func (s *Server) handleMyAnnouncement(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "announcementID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	ann, err := s.svc.Announce.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	if ann.StoreID != nil {
		if err := s.checkStoreAccess(r, a, *ann.StoreID); err != nil {
			s.error(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var status types.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := taskStatus(raw)
		if err != nil {
			s.error(w, r, err)
			return
		}
		status = st
	}
	p := pageFromQuery(r)
	items, total, err := s.svc.Tasks.ListMine(r.Context(), a.OrgID(), a.User.ID, status, p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, p))
}

func (s *Server) handleMyTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
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
	assigned := false
	for _, uid := range t.Assignees {
		if uid == a.User.ID {
			assigned = true
			break
		}
	}
	if !assigned {
		s.error(w, r, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleMyCompleteTask(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "taskID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	t, err := s.svc.Tasks.CompleteMine(r.Context(), a.OrgID(), id, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
