package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/evaluation"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (s *Server) registerEvaluationRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/evaluations/templates", s.level(types.LevelSupervisor, s.handleListEvalTemplates))
	mux.HandleFunc("POST /api/v1/admin/evaluations/templates", s.level(types.LevelGeneralManager, s.handleCreateEvalTemplate))
	mux.HandleFunc("GET /api/v1/admin/evaluations/templates/{templateID}", s.level(types.LevelSupervisor, s.handleGetEvalTemplate))
	mux.HandleFunc("PUT /api/v1/admin/evaluations/templates/{templateID}", s.level(types.LevelGeneralManager, s.handleUpdateEvalTemplate))
	mux.HandleFunc("DELETE /api/v1/admin/evaluations/templates/{templateID}", s.level(types.LevelGeneralManager, s.handleDeleteEvalTemplate))

	mux.HandleFunc("GET /api/v1/admin/evaluations", s.level(types.LevelSupervisor, s.handleListEvaluations))
	mux.HandleFunc("POST /api/v1/admin/evaluations", s.level(types.LevelSupervisor, s.handleCreateEvaluation))
	mux.HandleFunc("GET /api/v1/admin/evaluations/{evaluationID}", s.level(types.LevelSupervisor, s.handleGetEvaluation))
	mux.HandleFunc("PUT /api/v1/admin/evaluations/{evaluationID}/responses", s.level(types.LevelSupervisor, s.handleSaveEvalResponses))
	mux.HandleFunc("POST /api/v1/admin/evaluations/{evaluationID}/submit", s.level(types.LevelSupervisor, s.handleSubmitEvaluation))
}

type evalItemRequest struct {
	Title     string `json:"title"`
	ItemType  string `json:"item_type"`
	MaxScore  int    `json:"max_score"`
	SortOrder int    `json:"sort_order"`
}

type evalTemplateRequest struct {
	Name        string            `json:"name"`
	TargetLevel int               `json:"target_level"`
	EvalType    string            `json:"eval_type"`
	CycleWeeks  int               `json:"cycle_weeks"`
	Items       []evalItemRequest `json:"items"`
}

type evalTemplateUpdateRequest struct {
	Name        *string            `json:"name"`
	TargetLevel *int               `json:"target_level"`
	EvalType    *string            `json:"eval_type"`
	CycleWeeks  *int               `json:"cycle_weeks"`
	Items       *[]evalItemRequest `json:"items"`
}

type evalResponseRequest struct {
	ItemID uuid.UUID `json:"item_id"`
	Score  *int      `json:"score"`
	Text   string    `json:"text"`
}

type evaluationRequest struct {
	StoreID     *uuid.UUID            `json:"store_id"`
	EvaluateeID uuid.UUID             `json:"evaluatee_id"`
	TemplateID  uuid.UUID             `json:"template_id"`
	Responses   []evalResponseRequest `json:"responses"`
}

type saveResponsesRequest struct {
	Responses []evalResponseRequest `json:"responses"`
}

func evalItemInputs(reqs []evalItemRequest) ([]evaluation.TemplateItemInput, error) {
	items := make([]evaluation.TemplateItemInput, 0, len(reqs))
	for _, ir := range reqs {
		itemType := types.EvalItemType(ir.ItemType)
		if !itemType.IsValid() {
			return nil, fmt.Errorf("invalid item_type %q: %w", ir.ItemType, apperr.ErrBadRequest)
		}
		items = append(items, evaluation.TemplateItemInput{
			Title:     ir.Title,
			ItemType:  itemType,
			MaxScore:  ir.MaxScore,
			SortOrder: ir.SortOrder,
		})
	}
	return items, nil
}

func evalType(raw string) (types.EvalType, error) {
	if raw == "" {
		return types.EvalAdhoc, nil
	}
	t := types.EvalType(raw)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid eval_type %q: %w", raw, apperr.ErrBadRequest)
	}
	return t, nil
}

func evalResponseInputs(reqs []evalResponseRequest) []evaluation.ResponseInput {
	ins := make([]evaluation.ResponseInput, 0, len(reqs))
	for _, rr := range reqs {
		ins = append(ins, evaluation.ResponseInput{ItemID: rr.ItemID, Score: rr.Score, Text: rr.Text})
	}
	return ins
}

func (s *Server) handleListEvalTemplates(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	templates, err := s.svc.Evaluations.ListTemplates(r.Context(), a.OrgID())
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetEvalTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	tpl, err := s.svc.Evaluations.GetTemplate(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleCreateEvalTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req evalTemplateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	items, err := evalItemInputs(req.Items)
	if err != nil {
		s.error(w, r, err)
		return
	}
	et, err := evalType(req.EvalType)
	if err != nil {
		s.error(w, r, err)
		return
	}
	tpl, err := s.svc.Evaluations.CreateTemplate(r.Context(), a.OrgID(), evaluation.TemplateInput{
		Name:        req.Name,
		TargetLevel: req.TargetLevel,
		EvalType:    et,
		CycleWeeks:  req.CycleWeeks,
		Items:       items,
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleUpdateEvalTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req evalTemplateUpdateRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	in := evaluation.TemplateUpdateInput{
		Name:        req.Name,
		TargetLevel: req.TargetLevel,
		CycleWeeks:  req.CycleWeeks,
	}
	if req.EvalType != nil {
		et, err := evalType(*req.EvalType)
		if err != nil {
			s.error(w, r, err)
			return
		}
		in.EvalType = &et
	}
	if req.Items != nil {
		items, err := evalItemInputs(*req.Items)
		if err != nil {
			s.error(w, r, err)
			return
		}
		in.Items = &items
	}
	tpl, err := s.svc.Evaluations.UpdateTemplate(r.Context(), a.OrgID(), id, in)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleDeleteEvalTemplate(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "templateID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	if err := s.svc.Evaluations.DeleteTemplate(r.Context(), a.OrgID(), id); err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	f := storage.EvaluationFilter{OrgID: a.OrgID(), Page: pageFromQuery(r)}

	var err error
	if f.EvaluatorID, err = queryUUID(r, "evaluator_id"); err != nil {
		s.error(w, r, err)
		return
	}
	if f.EvaluateeID, err = queryUUID(r, "evaluatee_id"); err != nil {
		s.error(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := types.EvalStatus(raw)
		if !st.IsValid() {
			s.error(w, r, fmt.Errorf("invalid status %q: %w", raw, apperr.ErrBadRequest))
			return
		}
		f.Status = st
	}
	items, total, err := s.svc.Evaluations.List(r.Context(), a.OrgID(), f)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageOf(items, total, f.Page))
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "evaluationID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	ev, err := s.svc.Evaluations.Get(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvaluation(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	var req evaluationRequest
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
	ev, err := s.svc.Evaluations.Create(r.Context(), a.OrgID(), a.User.ID, evaluation.Input{
		StoreID:     req.StoreID,
		EvaluateeID: req.EvaluateeID,
		TemplateID:  req.TemplateID,
		Responses:   evalResponseInputs(req.Responses),
	})
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleSaveEvalResponses(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "evaluationID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	var req saveResponsesRequest
	if err := decode(r, &req); err != nil {
		s.error(w, r, err)
		return
	}
	ev, err := s.svc.Evaluations.SaveResponses(r.Context(), a.OrgID(), id, evalResponseInputs(req.Responses))
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
	id, err := pathUUID(r, "evaluationID")
	if err != nil {
		s.error(w, r, err)
		return
	}
	ev, err := s.svc.Evaluations.Submit(r.Context(), a.OrgID(), id)
	if err != nil {
		s.error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
