package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// TemplateService manages checklist templates and their items. Template
// edits never touch snapshots already frozen into assignments.
type TemplateService struct {
	store storage.Storage
	now   func() time.Time
}

// NewTemplateService returns a TemplateService backed by store.
func NewTemplateService(store storage.Storage) *TemplateService {
	return &TemplateService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TemplateInput is the create/update payload for a template.
type TemplateInput struct {
	ShiftID    uuid.UUID
	PositionID uuid.UUID
	Title      string
}

// ItemInput is the create/update payload for a template item.
type ItemInput struct {
	Title            string
	Description      string
	VerificationType types.VerificationType
	RecurrenceType   types.RecurrenceType
	RecurrenceDays   []int
}

// Create adds a template for a (store, shift, position) triple. The
// database's unique constraint on the triple is the only duplicate
// check; a second template for the same triple surfaces as Duplicate no
// matter how the requests race.
func (s *TemplateService) Create(ctx context.Context, orgID, storeID uuid.UUID, in TemplateInput) (*types.ChecklistTemplate, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, storeID, in.ShiftID, in.PositionID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("template title is required: %w", apperr.ErrBadRequest)
	}

	now := s.now()
	tpl := &types.ChecklistTemplate{
		ID:         uuid.New(),
		StoreID:    storeID,
		ShiftID:    in.ShiftID,
		PositionID: in.PositionID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateChecklistTemplate(ctx, tpl); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a template already exists for this shift and position: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return tpl, nil
}

// Get loads a template with its items.
func (s *TemplateService) Get(ctx context.Context, orgID, templateID uuid.UUID) (*types.ChecklistTemplate, error) {
	return s.guardTemplate(ctx, orgID, templateID)
}

// ListForStore returns all templates of one store.
func (s *TemplateService) ListForStore(ctx context.Context, orgID, storeID uuid.UUID) ([]*types.ChecklistTemplate, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	return s.store.ListChecklistTemplates(ctx, storeID)
}

// Update changes a template's title or moves it to another shift/position
// pair. Moving onto an occupied triple surfaces as Duplicate via the
// unique constraint.
func (s *TemplateService) Update(ctx context.Context, orgID, templateID uuid.UUID, in TemplateInput) (*types.ChecklistTemplate, error) {
	tpl, err := s.guardTemplate(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, tpl.StoreID, in.ShiftID, in.PositionID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("template title is required: %w", apperr.ErrBadRequest)
	}

	tpl.ShiftID = in.ShiftID
	tpl.PositionID = in.PositionID
	tpl.Title = title
	tpl.UpdatedAt = s.now()
	if err := s.store.UpdateChecklistTemplate(ctx, tpl); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a template already exists for this shift and position: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return tpl, nil
}

// Delete removes a template and, through the schema's cascade, its items.
// Snapshots frozen from it keep working; instances only hold a nullable
// back-reference.
func (s *TemplateService) Delete(ctx context.Context, orgID, templateID uuid.UUID) error {
	if _, err := s.guardTemplate(ctx, orgID, templateID); err != nil {
		return err
	}
	if err := s.store.DeleteChecklistTemplate(ctx, templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// AddItem appends one item to a template. SortOrder is assigned after the
// current last item.
func (s *TemplateService) AddItem(ctx context.Context, orgID, templateID uuid.UUID, in ItemInput) (*types.ChecklistTemplateItem, error) {
	items, err := s.AddItems(ctx, orgID, templateID, []ItemInput{in})
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// AddItems appends items in input order. All inputs are validated before
// the first write so a bad row cannot leave a partial batch behind.
func (s *TemplateService) AddItems(ctx context.Context, orgID, templateID uuid.UUID, ins []ItemInput) ([]*types.ChecklistTemplateItem, error) {
	tpl, err := s.guardTemplate(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if len(ins) == 0 {
		return nil, fmt.Errorf("no items given: %w", apperr.ErrBadRequest)
	}

	next := 0
	for _, existing := range tpl.Items {
		if existing.SortOrder >= next {
			next = existing.SortOrder + 1
		}
	}

	items := make([]*types.ChecklistTemplateItem, 0, len(ins))
	for _, in := range ins {
		item := &types.ChecklistTemplateItem{
			ID:               uuid.New(),
			TemplateID:       tpl.ID,
			Title:            strings.TrimSpace(in.Title),
			Description:      in.Description,
			VerificationType: in.VerificationType,
			RecurrenceType:   in.RecurrenceType,
			RecurrenceDays:   types.IntList(in.RecurrenceDays),
			SortOrder:        next,
			CreatedAt:        s.now(),
		}
		item.SetDefaults()
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
		}
		items = append(items, item)
		next++
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		for _, item := range items {
			if err := tx.AddChecklistItem(ctx, item); err != nil {
				return fmt.Errorf("failed to add item %q: %w", item.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem edits one item in place. SortOrder is not editable here;
// use ReorderItems.
func (s *TemplateService) UpdateItem(ctx context.Context, orgID, templateID, itemID uuid.UUID, in ItemInput) (*types.ChecklistTemplateItem, error) {
	tpl, err := s.guardTemplate(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	item, err := s.guardItem(ctx, tpl, itemID)
	if err != nil {
		return nil, err
	}

	item.Title = strings.TrimSpace(in.Title)
	item.Description = in.Description
	item.VerificationType = in.VerificationType
	item.RecurrenceType = in.RecurrenceType
	item.RecurrenceDays = types.IntList(in.RecurrenceDays)
	item.SetDefaults()
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}
	if err := s.store.UpdateChecklistItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

// DeleteItem removes one item.
func (s *TemplateService) DeleteItem(ctx context.Context, orgID, templateID, itemID uuid.UUID) error {
	tpl, err := s.guardTemplate(ctx, orgID, templateID)
	if err != nil {
		return err
	}
	if _, err := s.guardItem(ctx, tpl, itemID); err != nil {
		return err
	}
	if err := s.store.DeleteChecklistItem(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// ReorderItems re-sequences a template's items to match orderedIDs. The
// list must name every item of the template exactly once.
func (s *TemplateService) ReorderItems(ctx context.Context, orgID, templateID uuid.UUID, orderedIDs []uuid.UUID) error {
	tpl, err := s.guardTemplate(ctx, orgID, templateID)
	if err != nil {
		return err
	}

	have := make(map[uuid.UUID]bool, len(tpl.Items))
	for _, item := range tpl.Items {
		have[item.ID] = true
	}
	if len(orderedIDs) != len(tpl.Items) {
		return fmt.Errorf("reorder must list all %d items, got %d: %w", len(tpl.Items), len(orderedIDs), apperr.ErrBadRequest)
	}
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !have[id] {
			return fmt.Errorf("item %s does not belong to template: %w", id, apperr.ErrBadRequest)
		}
		if seen[id] {
			return fmt.Errorf("item %s listed twice: %w", id, apperr.ErrBadRequest)
		}
		seen[id] = true
	}

	if err := s.store.ReorderChecklistItems(ctx, templateID, orderedIDs); err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	return nil
}

// checkRefs verifies shift and position exist and belong to the store.
func (s *TemplateService) checkRefs(ctx context.Context, storeID, shiftID, positionID uuid.UUID) error {
	shift, err := s.store.GetShift(ctx, shiftID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("unknown shift %s: %w", shiftID, apperr.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.StoreID != storeID {
		return fmt.Errorf("shift %s belongs to a different store: %w", shiftID, apperr.ErrBadRequest)
	}

	pos, err := s.store.GetPosition(ctx, positionID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("unknown position %s: %w", positionID, apperr.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to load position: %w", err)
	}
	if pos.StoreID != storeID {
		return fmt.Errorf("position %s belongs to a different store: %w", positionID, apperr.ErrBadRequest)
	}
	return nil
}

// guardStore verifies the store exists and belongs to the organization.
func (s *TemplateService) guardStore(ctx context.Context, orgID, storeID uuid.UUID) error {
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

// guardTemplate loads a template (with items) and verifies tenancy
// through its store.
func (s *TemplateService) guardTemplate(ctx context.Context, orgID, templateID uuid.UUID) (*types.ChecklistTemplate, error) {
	tpl, err := s.store.GetChecklistTemplate(ctx, templateID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if err := s.guardStore(ctx, orgID, tpl.StoreID); err != nil {
		return nil, err
	}
	tpl.Items, err = s.store.ListChecklistItems(ctx, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template items: %w", err)
	}
	return tpl, nil
}

// guardItem finds itemID among a loaded template's items.
func (s *TemplateService) guardItem(_ context.Context, tpl *types.ChecklistTemplate, itemID uuid.UUID) (*types.ChecklistTemplateItem, error) {
	for _, item := range tpl.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", itemID, apperr.ErrNotFound)
}
