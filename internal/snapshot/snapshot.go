// Package snapshot freezes checklist templates into the point-in-time
// copies embedded in work assignments. Template edits after an assignment
// is created never reach it.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Builder resolves templates and freezes them for a work date.
type Builder struct {
	q storage.Queries
}

// NewBuilder returns a Builder reading through q.
func NewBuilder(q storage.Queries) *Builder {
	return &Builder{q: q}
}

// Build resolves the unique template for the (store, shift, position)
// triple and freezes the items that recur on workDate. Item indexes are
// re-sequenced to a contiguous 0-based run regardless of which items the
// recurrence filter dropped.
//
// Returns (nil, false, nil) when no template exists for the triple or no
// item applies on workDate; callers treat that as a rejected request, not
// an infrastructure failure.
func (b *Builder) Build(ctx context.Context, storeID, shiftID, positionID uuid.UUID, workDate time.Time) (*types.ChecklistSnapshot, bool, error) {
	tpl, err := b.q.FindChecklistTemplate(ctx, storeID, shiftID, positionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve checklist template: %w", err)
	}

	items, err := b.q.ListChecklistItems(ctx, tpl.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load checklist items: %w", err)
	}

	snap := Freeze(tpl, items, workDate, time.Now().UTC())
	if snap == nil {
		return nil, false, nil
	}
	return snap, true, nil
}

// Freeze builds a snapshot from an already-loaded template, stamped with
// at. Pure: the output depends only on the inputs, so the same (template,
// items, date) always freezes the same item set. Returns nil when no item
// applies on workDate.
func Freeze(tpl *types.ChecklistTemplate, items []*types.ChecklistTemplateItem, workDate, at time.Time) *types.ChecklistSnapshot {
	var frozen []types.SnapshotItem
	for _, item := range items {
		if !item.AppliesOn(workDate) {
			continue
		}
		frozen = append(frozen, types.SnapshotItem{
			ItemIndex:        len(frozen),
			TemplateItemID:   item.ID,
			Title:            item.Title,
			Description:      item.Description,
			VerificationType: item.VerificationType,
			SortOrder:        item.SortOrder,
		})
	}
	if len(frozen) == 0 {
		return nil
	}
	return &types.ChecklistSnapshot{
		TemplateID:   tpl.ID,
		TemplateName: tpl.Title,
		SnapshotAt:   at,
		Items:        frozen,
	}
}
