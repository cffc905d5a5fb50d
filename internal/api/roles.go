package api

import (
	"net/http"

	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/org"
)

func (s *Server) registerRoleRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/roles", s.perm("roles:read", s.handleListRoles))
	mux.HandleFunc("POST /api/v1/admin/roles", s.perm("roles:create", s.handleCreateRole))
	mux.HandleFunc("GET /api/v1/admin/roles/{roleID}", s.perm("roles:read", s.handleGetRole))
	mux.HandleFunc("PUT /api/v1/admin/roles/{roleID}", s.perm("roles:update", s.handleUpdateRole))
	mux.HandleFunc("DELETE /api/v1/admin/roles/{roleID}", s.perm("roles:delete", s.handleDeleteRole))

	mux.HandleFunc("GET /api/v1/admin/permissions", s.perm("roles:read", s.handlePermissionCatalog))
	mux.HandleFunc("GET /api/v1/admin/roles/{roleID}/permissions", s.perm("roles:read", s.handleGetRolePermissions))
	mux.HandleFunc("PUT /api/v1/admin/roles/{roleID}/permissions", s.perm("roles:update", s.handleSetRolePermissions))
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roles, err := s.svc.Orgs.ListRoles(r.Context(), a.OrgID())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

type roleRequest struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req roleRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	role, err := s.svc.Orgs.CreateRole(r.Context(), a.OrgID(), org.RoleInput{
		Name:  req.Name,
		Level: req.Level,
	}, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roleID, err := pathUUID(r, "roleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	role, err := s.svc.Orgs.GetRole(r.Context(), a.OrgID(), roleID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

type roleUpdateRequest struct {
	Name  *string `json:"name"`
	Level *int    `json:"level"`
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roleID, err := pathUUID(r, "roleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req roleUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	role, err := s.svc.Orgs.UpdateRole(r.Context(), a.OrgID(), roleID, org.RoleUpdateInput{
		Name:  req.Name,
		Level: req.Level,
	}, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roleID, err := pathUUID(r, "roleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.DeleteRole(r.Context(), a.OrgID(), roleID, a.Role.Level); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePermissionCatalog(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	perms, err := s.svc.Orgs.ListPermissionCatalog(r.Context())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (s *Server) handleGetRolePermissions(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roleID, err := pathUUID(r, "roleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	perms, err := s.svc.Orgs.GetRolePermissions(r.Context(), a.OrgID(), roleID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

type rolePermissionsRequest struct {
	Codes []string `json:"codes"`
}

func (s *Server) handleSetRolePermissions(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	roleID, err := pathUUID(r, "roleID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req rolePermissionsRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	perms, err := s.svc.Orgs.SetRolePermissions(r.Context(), a.OrgID(), roleID, req.Codes, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}
