package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/org"
)

func (s *Server) registerUserRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/users", s.perm("users:read", s.handleListUsers))
	mux.HandleFunc("POST /api/v1/admin/users", s.perm("users:create", s.handleCreateUser))
	mux.HandleFunc("GET /api/v1/admin/users/{userID}", s.perm("users:read", s.handleGetUser))
	mux.HandleFunc("PUT /api/v1/admin/users/{userID}", s.overUser("users:update", s.handleUpdateUser))
	mux.HandleFunc("PATCH /api/v1/admin/users/{userID}/active", s.overUser("users:update", s.handleToggleUserActive))
	mux.HandleFunc("DELETE /api/v1/admin/users/{userID}", s.overUser("users:delete", s.handleDeleteUser))

	mux.HandleFunc("GET /api/v1/admin/users/{userID}/stores", s.perm("users:read", s.handleListUserStores))
	mux.HandleFunc("POST /api/v1/admin/users/{userID}/stores/{storeID}", s.overUser("users:update", s.handleAssignUserStore))
	mux.HandleFunc("DELETE /api/v1/admin/users/{userID}/stores/{storeID}", s.overUser("users:update", s.handleRemoveUserStore))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	p := pageFromQuery(r)
	users, total, err := s.svc.Orgs.ListUsers(r.Context(), a.OrgID(), p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(users, total, p))
}

type userCreateRequest struct {
	RoleID   uuid.UUID `json:"role_id"`
	Username string    `json:"username"`
	Password string    `json:"password"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req userCreateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	u, err := s.svc.Orgs.CreateUser(r.Context(), a.OrgID(), org.UserInput{
		RoleID:   req.RoleID,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	}, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	u, err := s.svc.Orgs.GetUser(r.Context(), a.OrgID(), userID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type userUpdateRequest struct {
	RoleID   *uuid.UUID `json:"role_id"`
	Username *string    `json:"username"`
	FullName *string    `json:"full_name"`
	Email    *string    `json:"email"`
	IsActive *bool      `json:"is_active"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req userUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	u, err := s.svc.Orgs.UpdateUser(r.Context(), a.OrgID(), userID, org.UserUpdateInput{
		RoleID:   req.RoleID,
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		IsActive: req.IsActive,
	}, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleToggleUserActive(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	u, err := s.svc.Orgs.ToggleUserActive(r.Context(), a.OrgID(), userID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.DeleteUser(r.Context(), a.OrgID(), userID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUserStores(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	stores, err := s.svc.Orgs.ListUserStores(r.Context(), a.OrgID(), userID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

func (s *Server) handleAssignUserStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.AssignStore(r.Context(), a.OrgID(), userID, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveUserStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.RemoveStore(r.Context(), a.OrgID(), userID, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
