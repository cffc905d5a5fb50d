// Package checklist drives the checklist lifecycle: item completion
// against normalized completion rows, supervisor reviews, the merged
// instance detail view, and template management.
//
// Completion rows are the single source of truth. Completing an item is
// an idempotent upsert, uncompleting an explicit delete, and the embedded
// snapshot inside the parent work assignment is only a display projection
// rewritten from the rows in the same transaction. Progress counters are
// always recounted from the rows, never incremented in place.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// wallClockLayout is the display form stamped into snapshot projections.
// The worker's local time is authoritative for display and deliberately
// not normalized to UTC.
const wallClockLayout = "2006-01-02T15:04"

// fallbackZone matches the mobile clients' default region.
const fallbackZone = "America/Los_Angeles"

// Evidence carries the proof attached to a completion. Which fields are
// mandatory depends on the item's verification type.
type Evidence struct {
	PhotoURL string
	Note     string
	Location *types.Location
	Timezone string
}

// Service operates on checklist instances.
type Service struct {
	store storage.Storage
	now   func() time.Time
}

// NewService returns a Service backed by store.
func NewService(store storage.Storage) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CompleteItem records a completion for one item. Repeating the call
// refreshes the evidence and timestamp instead of failing, so clients can
// retry safely. The completion row, both progress counters, and the
// assignment's snapshot projection move in one transaction.
func (s *Service) CompleteItem(ctx context.Context, orgID, instanceID uuid.UUID, itemIndex int, actorID uuid.UUID, ev Evidence) (*types.ChecklistInstance, error) {
	inst, err := s.guardWorker(ctx, orgID, instanceID, actorID)
	if err != nil {
		return nil, err
	}
	item := snapshotItem(inst.Snapshot, itemIndex)
	if item == nil {
		return nil, fmt.Errorf("item index %d out of range: %w", itemIndex, apperr.ErrBadRequest)
	}
	if item.VerificationType.RequiresMedia() && ev.PhotoURL == "" {
		return nil, fmt.Errorf("item %q requires a photo or video URL: %w", item.Title, apperr.ErrBadRequest)
	}
	if item.VerificationType.RequiresNote() && ev.Note == "" {
		return nil, fmt.Errorf("item %q requires a note: %w", item.Title, apperr.ErrBadRequest)
	}

	comp := &types.ChecklistCompletion{
		ID:                uuid.New(),
		InstanceID:        inst.ID,
		ItemIndex:         itemIndex,
		UserID:            actorID,
		CompletedAt:       s.now(),
		CompletedTimezone: resolveZone(ev.Timezone),
		PhotoURL:          ev.PhotoURL,
		Note:              ev.Note,
		Location:          ev.Location,
	}
	if err := comp.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertCompletion(ctx, comp); err != nil {
			return fmt.Errorf("failed to record completion: %w", err)
		}
		return s.syncProgress(ctx, tx, inst)
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetChecklistInstance(ctx, inst.ID)
}

// UncompleteItem removes a completion. Unlike completing, this is not
// idempotent: deleting a completion that was never recorded is NotFound,
// so accidental double-reverts surface instead of passing silently.
func (s *Service) UncompleteItem(ctx context.Context, orgID, instanceID uuid.UUID, itemIndex int, actorID uuid.UUID) (*types.ChecklistInstance, error) {
	inst, err := s.guardWorker(ctx, orgID, instanceID, actorID)
	if err != nil {
		return nil, err
	}
	if snapshotItem(inst.Snapshot, itemIndex) == nil {
		return nil, fmt.Errorf("item index %d out of range: %w", itemIndex, apperr.ErrBadRequest)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteCompletion(ctx, inst.ID, itemIndex); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("item %d has no recorded completion: %w", itemIndex, apperr.ErrNotFound)
			}
			return fmt.Errorf("failed to delete completion: %w", err)
		}
		return s.syncProgress(ctx, tx, inst)
	})
	if err != nil {
		return nil, err
	}
	return s.store.GetChecklistInstance(ctx, inst.ID)
}

// syncProgress recounts completion rows and rewrites everything derived
// from them: both status/counter pairs and the assignment's embedded
// snapshot projection.
func (s *Service) syncProgress(ctx context.Context, tx storage.Tx, inst *types.ChecklistInstance) error {
	completions, err := tx.ListCompletions(ctx, inst.ID)
	if err != nil {
		return fmt.Errorf("failed to recount completions: %w", err)
	}

	count := len(completions)
	if err := tx.UpdateInstanceProgress(ctx, inst.ID, count, types.DeriveInstanceStatus(count, inst.TotalItems)); err != nil {
		return fmt.Errorf("failed to update instance progress: %w", err)
	}

	projected := projectSnapshot(inst.Snapshot, completions)
	status := types.DeriveAssignmentStatus(count, inst.TotalItems)
	if err := tx.UpdateAssignmentProgress(ctx, inst.WorkAssignmentID, projected, count, status); err != nil {
		return fmt.Errorf("failed to update assignment progress: %w", err)
	}
	return nil
}

// projectSnapshot returns a copy of the frozen snapshot with per-item
// completion state stamped in from the rows. Rows referencing indexes
// the snapshot does not carry are ignored.
func projectSnapshot(snap *types.ChecklistSnapshot, completions []*types.ChecklistCompletion) *types.ChecklistSnapshot {
	if snap == nil {
		return nil
	}
	byIndex := make(map[int]*types.ChecklistCompletion, len(completions))
	for _, c := range completions {
		byIndex[c.ItemIndex] = c
	}

	out := &types.ChecklistSnapshot{
		TemplateID:   snap.TemplateID,
		TemplateName: snap.TemplateName,
		SnapshotAt:   snap.SnapshotAt,
		Items:        make([]types.SnapshotItem, len(snap.Items)),
	}
	copy(out.Items, snap.Items)
	for i := range out.Items {
		c, ok := byIndex[out.Items[i].ItemIndex]
		if !ok {
			out.Items[i].IsCompleted = false
			out.Items[i].CompletedAt = nil
			out.Items[i].CompletedTz = nil
			continue
		}
		stamp, abbr := localStamp(c.CompletedAt, c.CompletedTimezone)
		out.Items[i].IsCompleted = true
		out.Items[i].CompletedAt = &stamp
		out.Items[i].CompletedTz = &abbr
	}
	return out
}

// resolveZone normalizes a client zone hint. Unknown or empty names fall
// back to the default region; a completion is never rejected over its
// zone.
func resolveZone(name string) string {
	if name != "" {
		if _, err := time.LoadLocation(name); err == nil {
			return name
		}
	}
	return fallbackZone
}

// localStamp renders a completion instant in the worker's zone as a
// wall-clock string plus zone abbreviation. Unknown zones degrade to UTC.
func localStamp(at time.Time, tz string) (string, string) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := at.In(loc)
	return local.Format(wallClockLayout), local.Format("MST")
}

// snapshotItem finds the snapshot item carrying the given index.
func snapshotItem(snap *types.ChecklistSnapshot, index int) *types.SnapshotItem {
	if snap == nil {
		return nil
	}
	for i := range snap.Items {
		if snap.Items[i].ItemIndex == index {
			return &snap.Items[i]
		}
	}
	return nil
}

// guardWorker loads an instance and enforces the mutation rules: the
// instance must exist, belong to the caller's organization, have a
// snapshot, and the actor must be the assigned worker.
func (s *Service) guardWorker(ctx context.Context, orgID, instanceID, actorID uuid.UUID) (*types.ChecklistInstance, error) {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.UserID != actorID {
		return nil, fmt.Errorf("only the assigned worker may update the checklist: %w", apperr.ErrForbidden)
	}
	if inst.Snapshot == nil || len(inst.Snapshot.Items) == 0 {
		return nil, fmt.Errorf("checklist instance %s has no snapshot: %w", instanceID, apperr.ErrBadRequest)
	}
	return inst, nil
}

// guardOrg loads an instance visible to the organization. A missing row
// is NotFound; a row owned by another tenant is Forbidden.
func (s *Service) guardOrg(ctx context.Context, orgID, instanceID uuid.UUID) (*types.ChecklistInstance, error) {
	inst, err := s.store.GetChecklistInstance(ctx, instanceID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checklist instance %s: %w", instanceID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checklist instance: %w", err)
	}
	if inst.OrganizationID != orgID {
		return nil, fmt.Errorf("checklist instance %s: %w", instanceID, apperr.ErrForbidden)
	}
	return inst, nil
}
