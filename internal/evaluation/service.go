// Package evaluation manages evaluation templates and the assessments
// written against them.
//
// Evaluations flow strictly downward: the evaluator's role must outrank
// the evaluatee's. An evaluation starts as a draft whose responses can
// be rewritten freely; submitting freezes it.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Service manages templates and evaluations.
type Service struct {
	store storage.Storage
	now   func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TemplateItemInput describes one question on a form.
type TemplateItemInput struct {
	Title     string
	ItemType  types.EvalItemType
	MaxScore  int
	SortOrder int
}

// TemplateInput describes a new evaluation form. EvalType defaults to
// adhoc; regular templates need a positive cycle length.
type TemplateInput struct {
	Name        string
	TargetLevel int
	EvalType    types.EvalType
	CycleWeeks  int
	Items       []TemplateItemInput
}

// CreateTemplate records a form and its items.
func (s *Service) CreateTemplate(ctx context.Context, orgID uuid.UUID, in TemplateInput) (*types.EvalTemplate, error) {
	tpl := &types.EvalTemplate{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           in.Name,
		TargetLevel:    in.TargetLevel,
		EvalType:       in.EvalType,
		CycleWeeks:     in.CycleWeeks,
		CreatedAt:      s.now(),
	}
	if tpl.EvalType == "" {
		tpl.EvalType = types.EvalAdhoc
	}
	if tpl.TargetLevel == 0 {
		tpl.TargetLevel = types.LevelStaff
	}
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}
	items, err := buildItems(tpl.ID, in.Items)
	if err != nil {
		return nil, err
	}
	tpl.Items = items

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateEvalTemplate(ctx, tpl); err != nil {
			return fmt.Errorf("failed to create eval template: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// TemplateUpdateInput carries partial edits; nil fields keep their
// value. A non-nil Items replaces the question set.
type TemplateUpdateInput struct {
	Name        *string
	TargetLevel *int
	EvalType    *types.EvalType
	CycleWeeks  *int
	Items       *[]TemplateItemInput
}

// UpdateTemplate edits a form. Existing evaluations keep their saved
// responses; item replacement only affects future ones.
func (s *Service) UpdateTemplate(ctx context.Context, orgID, id uuid.UUID, in TemplateUpdateInput) (*types.EvalTemplate, error) {
	tpl, err := s.guardTemplate(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		tpl.Name = *in.Name
	}
	if in.TargetLevel != nil {
		tpl.TargetLevel = *in.TargetLevel
	}
	if in.EvalType != nil {
		tpl.EvalType = *in.EvalType
	}
	if in.CycleWeeks != nil {
		tpl.CycleWeeks = *in.CycleWeeks
	}
	if err := validateTemplate(tpl); err != nil {
		return nil, err
	}

	var items []*types.EvalTemplateItem
	if in.Items != nil {
		items, err = buildItems(tpl.ID, *in.Items)
		if err != nil {
			return nil, err
		}
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateEvalTemplate(ctx, tpl); err != nil {
			return fmt.Errorf("failed to update eval template: %w", err)
		}
		if in.Items == nil {
			return nil
		}
		if err := tx.SetEvalTemplateItems(ctx, tpl.ID, items); err != nil {
			return fmt.Errorf("failed to replace template items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if in.Items != nil {
		tpl.Items = items
	}
	return tpl, nil
}

// DeleteTemplate removes a form. Evaluations that referenced it survive
// with the reference cleared.
func (s *Service) DeleteTemplate(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.guardTemplate(ctx, orgID, id); err != nil {
		return err
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteEvalTemplate(ctx, id); err != nil {
			return fmt.Errorf("failed to delete eval template: %w", err)
		}
		return nil
	})
}

// GetTemplate returns one form with its items.
func (s *Service) GetTemplate(ctx context.Context, orgID, id uuid.UUID) (*types.EvalTemplate, error) {
	return s.guardTemplate(ctx, orgID, id)
}

// ListTemplates returns the organization's forms ordered by name.
func (s *Service) ListTemplates(ctx context.Context, orgID uuid.UUID) ([]*types.EvalTemplate, error) {
	return s.store.ListEvalTemplates(ctx, orgID)
}

// ResponseInput is one answer keyed by template item.
type ResponseInput struct {
	ItemID uuid.UUID
	Score  *int
	Text   string
}

// Input describes a new evaluation.
type Input struct {
	StoreID     *uuid.UUID
	EvaluateeID uuid.UUID
	TemplateID  uuid.UUID
	Responses   []ResponseInput
}

// Create opens a draft evaluation. The evaluator's role must outrank
// the evaluatee's, and every response must match an item on the form.
func (s *Service) Create(ctx context.Context, orgID, evaluatorID uuid.UUID, in Input) (*types.Evaluation, error) {
	evaluator, err := s.guardUser(ctx, orgID, evaluatorID)
	if err != nil {
		return nil, err
	}
	evaluatee, err := s.guardUser(ctx, orgID, in.EvaluateeID)
	if err != nil {
		return nil, err
	}
	evaluatorRole, err := s.loadRole(ctx, evaluator.RoleID)
	if err != nil {
		return nil, err
	}
	evaluateeRole, err := s.loadRole(ctx, evaluatee.RoleID)
	if err != nil {
		return nil, err
	}
	if !auth.CanEvaluate(evaluatorRole, evaluateeRole) {
		return nil, fmt.Errorf("only higher roles can evaluate lower roles: %w", apperr.ErrForbidden)
	}

	if in.StoreID != nil {
		if err := s.guardStore(ctx, orgID, *in.StoreID); err != nil {
			return nil, err
		}
	}
	tpl, err := s.guardTemplate(ctx, orgID, in.TemplateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &types.Evaluation{
		ID:             uuid.New(),
		OrganizationID: orgID,
		StoreID:        in.StoreID,
		EvaluatorID:    evaluatorID,
		EvaluateeID:    in.EvaluateeID,
		TemplateID:     &tpl.ID,
		Status:         types.EvalDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	responses, err := s.buildResponses(e.ID, tpl, in.Responses, now)
	if err != nil {
		return nil, err
	}
	e.Responses = responses

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateEvaluation(ctx, e); err != nil {
			return fmt.Errorf("failed to create evaluation: %w", err)
		}
		if len(responses) == 0 {
			return nil
		}
		if err := tx.SaveEvalResponses(ctx, e.ID, responses); err != nil {
			return fmt.Errorf("failed to save responses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SaveResponses replaces a draft's answers wholesale.
func (s *Service) SaveResponses(ctx context.Context, orgID, evalID uuid.UUID, responses []ResponseInput) (*types.Evaluation, error) {
	e, err := s.guardEvaluation(ctx, orgID, evalID)
	if err != nil {
		return nil, err
	}
	if e.Status != types.EvalDraft {
		return nil, fmt.Errorf("cannot edit a submitted evaluation: %w", apperr.ErrBadRequest)
	}
	if e.TemplateID == nil {
		return nil, fmt.Errorf("evaluation has no template: %w", apperr.ErrBadRequest)
	}
	tpl, err := s.guardTemplate(ctx, orgID, *e.TemplateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows, err := s.buildResponses(e.ID, tpl, responses, now)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.SaveEvalResponses(ctx, e.ID, rows); err != nil {
			return fmt.Errorf("failed to save responses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.Responses = rows
	return e, nil
}

// Submit freezes a draft evaluation.
func (s *Service) Submit(ctx context.Context, orgID, evalID uuid.UUID) (*types.Evaluation, error) {
	e, err := s.guardEvaluation(ctx, orgID, evalID)
	if err != nil {
		return nil, err
	}
	if e.Status != types.EvalDraft {
		return nil, fmt.Errorf("only draft evaluations can be submitted: %w", apperr.ErrBadRequest)
	}
	now := s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateEvaluationStatus(ctx, e.ID, types.EvalSubmitted, now); err != nil {
			return fmt.Errorf("failed to submit evaluation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.Status = types.EvalSubmitted
	e.UpdatedAt = now
	return e, nil
}

// Get returns one evaluation with its responses.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.Evaluation, error) {
	return s.guardEvaluation(ctx, orgID, id)
}

// List returns the organization's evaluations narrowed by the filter.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f storage.EvaluationFilter) ([]*types.Evaluation, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("invalid evaluation status %q: %w", f.Status, apperr.ErrBadRequest)
	}
	f.OrgID = orgID
	return s.store.ListEvaluations(ctx, f)
}

func validateTemplate(tpl *types.EvalTemplate) error {
	if tpl.Name == "" {
		return fmt.Errorf("template name is required: %w", apperr.ErrBadRequest)
	}
	if !tpl.EvalType.IsValid() {
		return fmt.Errorf("invalid eval type %q: %w", tpl.EvalType, apperr.ErrBadRequest)
	}
	if tpl.EvalType == types.EvalRegular && tpl.CycleWeeks <= 0 {
		return fmt.Errorf("regular evaluations need a positive cycle length: %w", apperr.ErrBadRequest)
	}
	return nil
}

func buildItems(templateID uuid.UUID, inputs []TemplateItemInput) ([]*types.EvalTemplateItem, error) {
	items := make([]*types.EvalTemplateItem, 0, len(inputs))
	for i, in := range inputs {
		item := &types.EvalTemplateItem{
			ID:         uuid.New(),
			TemplateID: templateID,
			Title:      in.Title,
			ItemType:   in.ItemType,
			MaxScore:   in.MaxScore,
			SortOrder:  in.SortOrder,
		}
		item.SetDefaults()
		if item.Title == "" {
			return nil, fmt.Errorf("item %d: title is required: %w", i, apperr.ErrBadRequest)
		}
		if !item.ItemType.IsValid() {
			return nil, fmt.Errorf("item %d: invalid item type %q: %w", i, item.ItemType, apperr.ErrBadRequest)
		}
		if item.ItemType == types.EvalItemScore && item.MaxScore < 1 {
			return nil, fmt.Errorf("item %d: max score must be positive: %w", i, apperr.ErrBadRequest)
		}
		// Text answers carry no score scale.
		if item.ItemType == types.EvalItemText {
			item.MaxScore = 0
		}
		items = append(items, item)
	}
	return items, nil
}

// buildResponses checks each answer against the form and returns the
// rows to persist.
func (s *Service) buildResponses(evalID uuid.UUID, tpl *types.EvalTemplate, inputs []ResponseInput, now time.Time) ([]*types.EvalResponse, error) {
	byItem := make(map[uuid.UUID]*types.EvalTemplateItem, len(tpl.Items))
	for _, item := range tpl.Items {
		byItem[item.ID] = item
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	rows := make([]*types.EvalResponse, 0, len(inputs))
	for _, in := range inputs {
		item, ok := byItem[in.ItemID]
		if !ok {
			return nil, fmt.Errorf("item %s is not on the template: %w", in.ItemID, apperr.ErrBadRequest)
		}
		if seen[in.ItemID] {
			return nil, fmt.Errorf("duplicate response for item %s: %w", in.ItemID, apperr.ErrBadRequest)
		}
		seen[in.ItemID] = true

		r := &types.EvalResponse{
			ID:           uuid.New(),
			EvaluationID: evalID,
			ItemID:       in.ItemID,
			Score:        in.Score,
			Text:         in.Text,
			CreatedAt:    now,
		}
		if err := r.ValidateAgainst(item); err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// guardTemplate loads a template and verifies org ownership.
func (s *Service) guardTemplate(ctx context.Context, orgID, id uuid.UUID) (*types.EvalTemplate, error) {
	tpl, err := s.store.GetEvalTemplate(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("eval template %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load eval template: %w", err)
	}
	if tpl.OrganizationID != orgID {
		return nil, fmt.Errorf("eval template %s: %w", id, apperr.ErrForbidden)
	}
	return tpl, nil
}

// guardEvaluation loads an evaluation and verifies org ownership.
func (s *Service) guardEvaluation(ctx context.Context, orgID, id uuid.UUID) (*types.Evaluation, error) {
	e, err := s.store.GetEvaluation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("evaluation %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation: %w", err)
	}
	if e.OrganizationID != orgID {
		return nil, fmt.Errorf("evaluation %s: %w", id, apperr.ErrForbidden)
	}
	return e, nil
}

// guardUser verifies the user exists and belongs to the org.
func (s *Service) guardUser(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u.OrganizationID != orgID {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrForbidden)
	}
	return u, nil
}

// guardStore verifies the store exists and belongs to the organization.
func (s *Service) guardStore(ctx context.Context, orgID, storeID uuid.UUID) error {
	st, err := s.store.GetStore(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("store %s: %w", storeID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if st.OrganizationID != orgID {
		return fmt.Errorf("store %s: %w", storeID, apperr.ErrForbidden)
	}
	return nil
}

func (s *Service) loadRole(ctx context.Context, id uuid.UUID) (*types.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role, nil
}
