package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerAuthRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/setup", s.handleSetup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", s.authed(s.handleMe))
	mux.HandleFunc("POST /api/v1/auth/change-password", s.authed(s.handleChangePassword))
}

type setupRequest struct {
	OrganizationName string `json:"organization_name"`
	StoreName        string `json:"store_name"`
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type setupResponse struct {
	Organization *types.Organization `json:"organization"`
	Store        *types.Store        `json:"store,omitempty"`
	Owner        *types.User         `json:"owner"`
	Roles        []*types.Role       `json:"roles"`
}

// handleSetup bootstraps the first organization. It only works on an
// empty database; after that, owners create everything through the
// admin routes.
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}

	existing, err := s.svc.Store.ListOrganizations(r.Context())
	if err != nil {
		s.error(w, r, fmt.Errorf("failed to list organizations: %w", err))
		return
	}
	if len(existing) > 0 {
		s.error(w, r, fmt.Errorf("setup already completed: %w", apperr.ErrForbidden))
		return
	}

	result, err := s.svc.Orgs.Bootstrap(r.Context(), org.BootstrapInput{
		OrgName:       req.OrganizationName,
		StoreName:     req.StoreName,
		OwnerUsername: req.Username,
		OwnerFullName: req.FullName,
		OwnerEmail:    req.Email,
		OwnerPassword: req.Password,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, setupResponse{
		Organization: result.Org,
		Store:        result.Store,
		Owner:        result.Owner,
		Roles:        result.Roles,
	})
}

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Organization string `json:"organization,omitempty"`
}

// handleLogin issues a token pair. The organization field selects the
// tenant by name; it may be omitted when only one organization exists.
// Failures read identically whether the organization, the username, or
// the password was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if err := requireField(req.Username, "username"); err != nil {
		s.error(w, r, err)
		return
	}

	orgID, err := s.resolveOrg(r, req.Organization)
	if err != nil {
		s.error(w, r, err)
		return
	}

	pair, err := s.svc.Auth.Login(r.Context(), orgID, req.Username, req.Password)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) resolveOrg(r *http.Request, name string) (uuid.UUID, error) {
	orgs, err := s.svc.Store.ListOrganizations(r.Context())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	if name == "" {
		if len(orgs) == 1 {
			return orgs[0].ID, nil
		}
		return uuid.Nil, fmt.Errorf("organization is required: %w", apperr.ErrBadRequest)
	}
	for _, o := range orgs {
		if o.Name == name {
			return o.ID, nil
		}
	}
	return uuid.Nil, fmt.Errorf("invalid username or password: %w", apperr.ErrUnauthorized)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	pair, err := s.svc.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User             *types.User `json:"user"`
	Role             *types.Role `json:"role"`
	OrganizationName string      `json:"organization_name"`
	Permissions      []string    `json:"permissions"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	o, err := s.svc.Orgs.GetOrganization(r.Context(), a.OrgID())
	if err != nil {
		s.error(w, r, err)
		return
	}
	codes := make([]string, 0, len(a.Permissions))
	for code := range a.Permissions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	writeJSON(w, http.StatusOK, meResponse{
		User:             a.User,
		Role:             a.Role,
		OrganizationName: o.Name,
		Permissions:      codes,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	err := s.svc.Auth.ChangePassword(r.Context(), a.OrgID(), a.User.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
