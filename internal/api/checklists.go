package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerChecklistRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/checklist-templates", s.perm("checklists:read", s.handleListTemplates))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/checklist-templates", s.perm("checklists:create", s.handleCreateTemplate))
	mux.HandleFunc("GET /api/v1/admin/stores/{storeID}/checklist-templates/export", s.perm("checklists:read", s.handleExportTemplates))
	mux.HandleFunc("POST /api/v1/admin/stores/{storeID}/checklist-templates/import", s.perm("checklists:create", s.handleImportTemplates))
	mux.HandleFunc("GET /api/v1/admin/checklist-templates/{templateID}", s.perm("checklists:read", s.handleGetTemplate))
	mux.HandleFunc("PUT /api/v1/admin/checklist-templates/{templateID}", s.perm("checklists:update", s.handleUpdateTemplate))
	mux.HandleFunc("DELETE /api/v1/admin/checklist-templates/{templateID}", s.perm("checklists:delete", s.handleDeleteTemplate))

	mux.HandleFunc("POST /api/v1/admin/checklist-templates/{templateID}/items", s.perm("checklists:update", s.handleAddItem))
	mux.HandleFunc("POST /api/v1/admin/checklist-templates/{templateID}/items/bulk", s.perm("checklists:update", s.handleAddItems))
	mux.HandleFunc("PUT /api/v1/admin/checklist-templates/{templateID}/items/sort", s.perm("checklists:update", s.handleReorderItems))
	mux.HandleFunc("PUT /api/v1/admin/checklist-templates/{templateID}/items/{itemID}", s.perm("checklists:update", s.handleUpdateItem))
	mux.HandleFunc("DELETE /api/v1/admin/checklist-templates/{templateID}/items/{itemID}", s.perm("checklists:update", s.handleDeleteItem))

	mux.HandleFunc("GET /api/v1/admin/checklist-instances", s.perm("checklists:read", s.handleListInstances))
	mux.HandleFunc("GET /api/v1/admin/checklist-instances/completion-log", s.perm("checklists:read", s.handleCompletionLog))
	mux.HandleFunc("GET /api/v1/admin/checklist-instances/{instanceID}", s.perm("checklists:read", s.handleInstanceDetail))
	mux.HandleFunc("PUT /api/v1/admin/checklist-instances/{instanceID}/items/{itemIndex}/review", s.perm("checklists:read", s.handleReviewItem))
	mux.HandleFunc("DELETE /api/v1/admin/checklist-instances/{instanceID}/items/{itemIndex}/review", s.perm("checklists:read", s.handleUnreviewItem))
	mux.HandleFunc("POST /api/v1/admin/checklist-instances/{instanceID}/comments", s.perm("checklists:read", s.handleAddInstanceComment))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.checkStoreAccess(r, a, storeID); err != nil {
		s.error(w, r, err)
		return
	}
	templates, err := s.svc.Templates.ListForStore(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

type templateRequest struct {
	ShiftID    uuid.UUID `json:"shift_id"`
	PositionID uuid.UUID `json:"position_id"`
	Title      string    `json:"title"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req templateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	tpl, err := s.svc.Templates.Create(r.Context(), a.OrgID(), storeID, checklist.TemplateInput{
		ShiftID:    req.ShiftID,
		PositionID: req.PositionID,
		Title:      req.Title,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// handleExportTemplates writes the store's templates as a YAML document.
func (s *Server) handleExportTemplates(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	data, err := s.svc.Templates.ExportYAML(r.Context(), a.OrgID(), storeID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImportTemplates accepts a YAML document in the request body and
// creates the templates it describes.
func (s *Server) handleImportTemplates(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	storeID, err := pathUUID(r, "storeID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.error(w, r, fmt.Errorf("failed to read request body: %w", apperr.ErrBadRequest))
		return
	}
	result, err := s.svc.Templates.ImportYAML(r.Context(), a.OrgID(), storeID, data)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	tpl, err := s.svc.Templates.Get(r.Context(), a.OrgID(), templateID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req templateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	tpl, err := s.svc.Templates.Update(r.Context(), a.OrgID(), templateID, checklist.TemplateInput{
		ShiftID:    req.ShiftID,
		PositionID: req.PositionID,
		Title:      req.Title,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Templates.Delete(r.Context(), a.OrgID(), templateID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type itemRequest struct {
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	VerificationType types.VerificationType `json:"verification_type"`
	RecurrenceType   types.RecurrenceType   `json:"recurrence_type"`
	RecurrenceDays   []int                  `json:"recurrence_days"`
}

func (in itemRequest) toInput() checklist.ItemInput {
	return checklist.ItemInput{
		Title:            in.Title,
		Description:      in.Description,
		VerificationType: in.VerificationType,
		RecurrenceType:   in.RecurrenceType,
		RecurrenceDays:   in.RecurrenceDays,
	}
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req itemRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	item, err := s.svc.Templates.AddItem(r.Context(), a.OrgID(), templateID, req.toInput())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type bulkItemsRequest struct {
	Items []itemRequest `json:"items"`
}

func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req bulkItemsRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	ins := make([]checklist.ItemInput, len(req.Items))
	for i, it := range req.Items {
		ins[i] = it.toInput()
	}
	items, err := s.svc.Templates.AddItems(r.Context(), a.OrgID(), templateID, ins)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

type reorderRequest struct {
	OrderedIDs []uuid.UUID `json:"ordered_ids"`
}

func (s *Server) handleReorderItems(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Templates.ReorderItems(r.Context(), a.OrgID(), templateID, req.OrderedIDs); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req itemRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	item, err := s.svc.Templates.UpdateItem(r.Context(), a.OrgID(), templateID, itemID, req.toInput())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templateID, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Templates.DeleteItem(r.Context(), a.OrgID(), templateID, itemID); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// instanceFilterFromQuery builds the admin listing filter. A store_id
// filter is checked against the actor's memberships.
func (s *Server) instanceFilterFromQuery(r *http.Request, a *auth.Actor) (storage.InstanceFilter, error) {
	f := storage.InstanceFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

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
		status := types.InstanceStatus(raw)
		if !status.IsValid() {
			return f, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest)
		}
		f.Status = status
	}
	return f, nil
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f, err := s.instanceFilterFromQuery(r, a)
	if err != nil {
		s.error(w, r, err)
		return
	}
	instances, total, err := s.svc.Instances.List(r.Context(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(instances, total, f.Page))
}

func (s *Server) handleCompletionLog(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	p := pageFromQuery(r)
	entries, total, err := s.svc.Instances.CompletionLog(r.Context(), a.OrgID(), p)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(entries, total, p))
}

func (s *Server) handleInstanceDetail(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	instanceID, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	detail, err := s.svc.Instances.Detail(r.Context(), a.OrgID(), instanceID)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type reviewRequest struct {
	Result   types.ReviewResult `json:"result"`
	Comment  string             `json:"comment"`
	PhotoURL string             `json:"photo_url"`
}

func (s *Server) handleReviewItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	instanceID, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemIndex, err := pathInt(r, "itemIndex")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	review, err := s.svc.Instances.ReviewItem(r.Context(), a.OrgID(), instanceID, itemIndex, a.User.ID, req.Result, req.Comment, req.PhotoURL)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleUnreviewItem(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	instanceID, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	itemIndex, err := pathInt(r, "itemIndex")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Instances.UnreviewItem(r.Context(), a.OrgID(), instanceID, itemIndex); err != nil {
		s.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleAddInstanceComment(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	instanceID, err := pathUUID(r, "instanceID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req commentRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	comment, err := s.svc.Instances.AddComment(r.Context(), a.OrgID(), instanceID, a.User.ID, req.Body)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
