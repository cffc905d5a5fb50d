package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const templateCols = `id, store_id, shift_id, position_id, title, created_at, updated_at`

const templateItemCols = `id, template_id, title, description, verification_type,
	recurrence_type, recurrence_days, sort_order, created_at`

func (q *queries) CreateChecklistTemplate(ctx context.Context, tpl *types.ChecklistTemplate) error {
	return q.exec(ctx, "failed to insert checklist template",
		`INSERT INTO checklist_templates (`+templateCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tpl.ID, tpl.StoreID, tpl.ShiftID, tpl.PositionID, tpl.Title, tpl.CreatedAt, tpl.UpdatedAt)
}

func (q *queries) GetChecklistTemplate(ctx context.Context, id uuid.UUID) (*types.ChecklistTemplate, error) {
	var tpl types.ChecklistTemplate
	err := q.get(ctx, &tpl, "failed to get checklist template",
		`SELECT `+templateCols+` FROM checklist_templates WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

// FindChecklistTemplate resolves the unique template for a (store, shift,
// position) triple, or ErrNotFound when none is defined.
func (q *queries) FindChecklistTemplate(ctx context.Context, storeID, shiftID, positionID uuid.UUID) (*types.ChecklistTemplate, error) {
	var tpl types.ChecklistTemplate
	err := q.get(ctx, &tpl, "failed to find checklist template",
		`SELECT `+templateCols+` FROM checklist_templates
		 WHERE store_id = ? AND shift_id = ? AND position_id = ?`,
		storeID, shiftID, positionID)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (q *queries) ListChecklistTemplates(ctx context.Context, storeID uuid.UUID) ([]*types.ChecklistTemplate, error) {
	var tpls []*types.ChecklistTemplate
	err := q.list(ctx, &tpls, "failed to list checklist templates",
		`SELECT `+templateCols+` FROM checklist_templates WHERE store_id = ? ORDER BY title`, storeID)
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

func (q *queries) UpdateChecklistTemplate(ctx context.Context, tpl *types.ChecklistTemplate) error {
	return q.execAffecting(ctx, "failed to update checklist template",
		`UPDATE checklist_templates SET shift_id = ?, position_id = ?, title = ?, updated_at = ?
		 WHERE id = ?`,
		tpl.ShiftID, tpl.PositionID, tpl.Title, tpl.UpdatedAt, tpl.ID)
}

func (q *queries) DeleteChecklistTemplate(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete checklist template",
		`DELETE FROM checklist_templates WHERE id = ?`, id)
}

func (q *queries) AddChecklistItem(ctx context.Context, item *types.ChecklistTemplateItem) error {
	return q.exec(ctx, "failed to insert checklist item",
		`INSERT INTO checklist_template_items (`+templateItemCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.TemplateID, item.Title, item.Description, item.VerificationType,
		item.RecurrenceType, item.RecurrenceDays, item.SortOrder, item.CreatedAt)
}

func (q *queries) UpdateChecklistItem(ctx context.Context, item *types.ChecklistTemplateItem) error {
	return q.execAffecting(ctx, "failed to update checklist item",
		`UPDATE checklist_template_items SET title = ?, description = ?, verification_type = ?,
		 recurrence_type = ?, recurrence_days = ?, sort_order = ? WHERE id = ?`,
		item.Title, item.Description, item.VerificationType, item.RecurrenceType,
		item.RecurrenceDays, item.SortOrder, item.ID)
}

func (q *queries) DeleteChecklistItem(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete checklist item",
		`DELETE FROM checklist_template_items WHERE id = ?`, id)
}

func (q *queries) GetChecklistItem(ctx context.Context, id uuid.UUID) (*types.ChecklistTemplateItem, error) {
	var item types.ChecklistTemplateItem
	err := q.get(ctx, &item, "failed to get checklist item",
		`SELECT `+templateItemCols+` FROM checklist_template_items WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (q *queries) ListChecklistItems(ctx context.Context, templateID uuid.UUID) ([]*types.ChecklistTemplateItem, error) {
	var items []*types.ChecklistTemplateItem
	err := q.list(ctx, &items, "failed to list checklist items",
		`SELECT `+templateItemCols+` FROM checklist_template_items
		 WHERE template_id = ? ORDER BY sort_order, created_at`, templateID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReorderChecklistItems rewrites sort_order to match the given ID order.
// Every ID must belong to the template; an unknown ID fails the whole
// operation so callers can run it inside a transaction.
func (q *queries) ReorderChecklistItems(ctx context.Context, templateID uuid.UUID, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		res, err := q.ext.ExecContext(ctx,
			q.rebind(`UPDATE checklist_template_items SET sort_order = ? WHERE id = ? AND template_id = ?`),
			i, id, templateID)
		if err != nil {
			return wrapDBError("failed to reorder checklist items", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapDBError("failed to reorder checklist items", err)
		}
		if n == 0 {
			return fmt.Errorf("failed to reorder checklist items: item %s: %w", id, storage.ErrNotFound)
		}
	}
	return nil
}
