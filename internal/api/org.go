package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerOrgRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/organization", s.level(types.LevelSupervisor, s.handleGetOrganization))
	mux.HandleFunc("PUT /api/v1/admin/organization", s.perm("stores:update", s.handleUpdateOrganization))

	mux.HandleFunc("GET /api/v1/admin/stores", s.level(types.LevelSupervisor, s.handleListStores))
	mux.HandleFunc("POST /api/v1/admin/stores", s.perm("stores:create", s.handleCreateStore))
	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}", s.level(types.LevelSupervisor, s.handleGetStore))
	mux.HandleFunc("PUT /api/v1/admin/stores/{storeID}", s.perm("stores:update", s.handleUpdateStore))
	mux.HandleFunc("DELETE /api/v1/admin/stores/{storeID}", s.perm("stores:delete", s.handleDeleteStore))

	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/shifts", s.level(types.LevelSupervisor, s.handleListShifts))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/shifts", s.perm("stores:update", s.handleCreateShift))
	mux.HandleFunc("PUT /api/v1/admin/stores/{storeID}/shifts/{shiftID}", s.perm("stores:update", s.handleUpdateShift))
	mux.HandleFunc("DELETE /api/v1/admin/stores/{storeID}/shifts/{shiftID}", s.perm("stores:update", s.handleDeleteShift))

	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/positions", s.level(types.LevelSupervisor, s.handleListPositions))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/positions", s.perm("stores:update", s.handleCreatePosition))
	mux.HandleFunc("PUT /api/v1/admin/stores/{storeID}/positions/{positionID}", s.perm("stores:update", s.handleUpdatePosition))
	mux.HandleFunc("DELETE /api/v1/admin/stores/{storeID}/positions/{positionID}", s.perm("stores:update", s.handleDeletePosition))

	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/labor-law", s.level(types.LevelSupervisor, s.handleGetLaborLaw))
	mux.HandleFunc("PUT /api/v1/admin/stores/{storeID}/labor-law", s.level(types.LevelGeneralManager, s.handleSetLaborLaw))

	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/shift-presets", s.level(types.LevelSupervisor, s.handleListPresets))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/shift-presets", s.level(types.LevelGeneralManager, s.handleCreatePreset))
	mux.HandleFunc("DELETE /api/v1/admin/shift-presets/{presetID}", s.level(types.LevelGeneralManager, s.handleDeletePreset))

	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/qr-code", s.level(types.LevelGeneralManager, s.handleActiveQRCode))
	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/qr-codes", s.level(types.LevelGeneralManager, s.handleListQRCodes))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/qr-codes", s.level(types.LevelGeneralManager, s.handleCreateQRCode))
	mux.HandleFunc("POST /api/v1/admin/qr-codes/{qrID}/regenerate", s.level(types.LevelGeneralManager, s.handleRegenerateQRCode))
}

// checkStoreAccess enforces the actor's store memberships. Owners pass
// unconditionally; everyone else must be assigned to the store.
func (s *Server) checkStoreAccess(r *http.Request, a *auth.Actor, storeID uuid.UUID) error {
	return s.svc.Orgs.CheckStoreAccess(r.Context(), a.User.ID, a.Role.Level, storeID)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	o, err := s.svc.Orgs.GetOrganization(r.Context(), a.OrgID())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type orgUpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req orgUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	o, err := s.svc.Orgs.UpdateOrganization(r.Context(), a.OrgID(), org.OrgUpdateInput{
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	accessible, err := s.svc.Orgs.AccessibleStoreIDs(r.Context(), a.User.ID, a.Role.Level)
	if err != nil {
		s.error(w, r, err)
		return
	}
	stores, err := s.svc.Orgs.ListStores(r.Context(), a.OrgID(), accessible)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stores)
}

type storeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req storeRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	st, err := s.svc.Orgs.CreateStore(r.Context(), a.OrgID(), org.StoreInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	detail, err := s.svc.Orgs.GetStore(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type storeUpdateRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req storeUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	st, err := s.svc.Orgs.UpdateStore(r.Context(), a.OrgID(), storeID, org.StoreUpdateInput{
		Name:     req.Name,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStore(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.DeleteStore(r.Context(), a.OrgID(), storeID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shiftRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type shiftUpdateRequest struct {
	Name      *string `json:"name"`
	SortOrder *int    `json:"sort_order"`
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	shifts, err := s.svc.Orgs.ListShifts(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req shiftRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	shift, err := s.svc.Orgs.CreateShift(r.Context(), a.OrgID(), storeID, org.ShiftInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (s *Server) handleUpdateShift(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	shiftID, err := pathUUID(r, "shiftID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req shiftUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	shift, err := s.svc.Orgs.UpdateShift(r.Context(), a.OrgID(), storeID, shiftID, org.ShiftUpdateInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (s *Server) handleDeleteShift(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	shiftID, err := pathUUID(r, "shiftID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.DeleteShift(r.Context(), a.OrgID(), storeID, shiftID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	positions, err := s.svc.Orgs.ListPositions(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req shiftRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	pos, err := s.svc.Orgs.CreatePosition(r.Context(), a.OrgID(), storeID, org.ShiftInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pos)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	posID, err := pathUUID(r, "positionID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req shiftUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	pos, err := s.svc.Orgs.UpdatePosition(r.Context(), a.OrgID(), storeID, posID, org.ShiftUpdateInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	posID, err := pathUUID(r, "positionID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Orgs.DeletePosition(r.Context(), a.OrgID(), storeID, posID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetLaborLaw(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	policy, err := s.svc.Schedules.LaborPolicy(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

type laborLawRequest struct {
	Jurisdiction     string `json:"jurisdiction"`
	WeeklyCapMinutes *int   `json:"weekly_cap_minutes"`
}

func (s *Server) handleSetLaborLaw(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req laborLawRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	policy, err := s.svc.Schedules.SetLaborPolicy(r.Context(), a.OrgID(), storeID, req.Jurisdiction, req.WeeklyCapMinutes)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	presets, err := s.svc.Schedules.ListPresets(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

type presetRequest struct {
	Name      string     `json:"name"`
	ShiftID   *uuid.UUID `json:"shift_id"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	SortOrder int        `json:"sort_order"`
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req presetRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	preset, err := s.svc.Schedules.CreatePreset(r.Context(), a.OrgID(), storeID, schedule.PresetInput{
		Name:      req.Name,
		ShiftID:   req.ShiftID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	presetID, err := pathUUID(r, "presetID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Schedules.DeletePreset(r.Context(), a.OrgID(), presetID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActiveQRCode returns the store's single live code, 404 when the
// store has none.
func (s *Server) handleActiveQRCode(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	code, err := s.svc.Attendance.ActiveQRCode(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (s *Server) handleListQRCodes(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	codes, err := s.svc.Attendance.ListQRCodes(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}

type qrCreateRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

// handleCreateQRCode mints a fresh code and retires any active one. The
// body is optional; expires_at defaults to no expiry.
func (s *Server) handleCreateQRCode(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req qrCreateRequest
	if err := decodeIfPresent(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	code, err := s.svc.Attendance.CreateQRCode(r.Context(), a.OrgID(), storeID, a.User.ID, req.ExpiresAt)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

func (s *Server) handleRegenerateQRCode(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	qrID, err := pathUUID(r, "qrID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	code, err := s.svc.Attendance.RegenerateQRCode(r.Context(), a.OrgID(), qrID, a.User.ID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}
