package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/announce"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerAnnouncementRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/announcements", s.level(types.LevelSupervisor, s.handleListAnnouncements))
	mux.HandleFunc("POST /api/v1/admin/announcements", s.level(types.LevelSupervisor, s.handleCreateAnnouncement))
	mux.HandleFunc("GET /api/v1/admin/announcements/{announcementID}", s.level(types.LevelSupervisor, s.handleGetAnnouncement))
	mux.HandleFunc("PUT /api/v1/admin/announcements/{announcementID}", s.level(types.LevelSupervisor, s.handleUpdateAnnouncement))
	mux.HandleFunc("DELETE /api/v1/admin/announcements/{announcementID}", s.level(types.LevelSupervisor, s.handleDeleteAnnouncement))
}

type announcementRequest struct {
	StoreID *uuid.UUID `json:"store_id"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
}

type announcementUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
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
	p := pageFromQuery(r)
	items, total, err := s.svc.Announce.List(r.Context(), a.OrgID(), storeID, p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, p))
}

func (s *Server) handleGetAnnouncement(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
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
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req announcementRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if req.StoreID != nil {
		if err := s.checkStoreAccess(r, a, *req.StoreID); err != nil {
			s.error(w, r, err)
			return
		}
	}
	ann, err := s.svc.Announce.Create(r.Context(), a.OrgID(), a.User.ID, announce.Input{
		StoreID: req.StoreID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ann)
}

func (s *Server) handleUpdateAnnouncement(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "announcementID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req announcementUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	ann, err := s.svc.Announce.Update(r.Context(), a.OrgID(), id, announce.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ann)
}

func (s *Server) handleDeleteAnnouncement(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "announcementID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Announce.Delete(r.Context(), a.OrgID(), id); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
