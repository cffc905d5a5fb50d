// Package assignment manages work assignments: daily (store, shift,
// position, worker) slots carrying a frozen checklist snapshot. Creating
// an assignment freezes the matching template, opens the 1:1 checklist
// instance, and queues the worker's notification, all in one transaction.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/snapshot"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// recentLookbackDays is the default window for roster suggestions.
const recentLookbackDays = 30

// Service coordinates assignment writes with snapshot freezing and the
// notification outbox.
type Service struct {
	store     storage.Storage
	snapshots *snapshot.Builder
	outbox    *notify.Outbox
	items     *checklist.Service
	now       func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage, snapshots *snapshot.Builder, outbox *notify.Outbox, items *checklist.Service) *Service {
	return &Service{
		store:     store,
		snapshots: snapshots,
		outbox:    outbox,
		items:     items,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput names the slot an assignment fills.
type CreateInput struct {
	StoreID    uuid.UUID
	ShiftID    uuid.UUID
	PositionID uuid.UUID
	UserID     uuid.UUID
	WorkDate   time.Time
}

// Prepared is a validated assignment with its instance, ready to insert.
// Callers that run their own transaction, like schedule approval, obtain
// one from Prepare and write it with InsertPrepared.
type Prepared struct {
	assignment *types.WorkAssignment
	instance   *types.ChecklistInstance
}

// Assignment returns the row InsertPrepared will write.
func (p *Prepared) Assignment() *types.WorkAssignment { return p.assignment }

// Create validates one slot, freezes its checklist, and writes the
// assignment, instance, and notification together. The unique constraint
// on (store, shift, position, user, date) is the only duplicate check;
// racing requests both reach the insert and exactly one wins.
func (s *Service) Create(ctx context.Context, orgID, assignedBy uuid.UUID, in CreateInput) (*types.WorkAssignment, error) {
	p, err := s.Prepare(ctx, orgID, assignedBy, in)
	if err != nil {
		return nil, err
	}
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		return s.InsertPrepared(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p.assignment, nil
}

// BulkCreate creates several assignments atomically: every slot is
// validated up front and all rows are written in one transaction, so a
// duplicate anywhere leaves nothing behind.
func (s *Service) BulkCreate(ctx context.Context, orgID, assignedBy uuid.UUID, ins []CreateInput) ([]*types.WorkAssignment, error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("no assignments given: %w", apperr.ErrBadRequest)
	}
	ps := make([]*Prepared, 0, len(ins))
	for _, in := range ins {
		p, err := s.Prepare(ctx, orgID, assignedBy, in)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	err := s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		for _, p := range ps {
			if err := s.InsertPrepared(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*types.WorkAssignment, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.assignment)
	}
	return out, nil
}

// Prepare runs every read-side check, freezes the checklist snapshot, and
// builds the rows to insert without writing anything.
func (s *Service) Prepare(ctx context.Context, orgID, assignedBy uuid.UUID, in CreateInput) (*Prepared, error) {
	if err := s.guardStore(ctx, orgID, in.StoreID); err != nil {
		return nil, err
	}
	if err := s.guardWorker(ctx, orgID, in.UserID); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in.StoreID, in.ShiftID, in.PositionID); err != nil {
		return nil, err
	}

	workDate := types.DateOnly(in.WorkDate)
	snap, ok, err := s.snapshots.Build(ctx, in.StoreID, in.ShiftID, in.PositionID, workDate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no checklist template exists for this shift and position: %w", apperr.ErrBadRequest)
	}

	now := s.now()
	asg := &types.WorkAssignment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		StoreID:        in.StoreID,
		ShiftID:        in.ShiftID,
		PositionID:     in.PositionID,
		UserID:         in.UserID,
		WorkDate:       workDate,
		Status:         types.AssignmentAssigned,
		Snapshot:       snap,
		TotalItems:     snap.TotalItems(),
		AssignedBy:     &assignedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	inst := &types.ChecklistInstance{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		TemplateID:       &snap.TemplateID,
		WorkAssignmentID: asg.ID,
		StoreID:          in.StoreID,
		UserID:           in.UserID,
		WorkDate:         workDate,
		Snapshot:         snap,
		TotalItems:       snap.TotalItems(),
		Status:           types.InstancePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return &Prepared{assignment: asg, instance: inst}, nil
}

// InsertPrepared writes one prepared assignment, its checklist instance,
// and the worker's notification inside tx.
func (s *Service) InsertPrepared(ctx context.Context, tx storage.Tx, p *Prepared) error {
	if err := tx.CreateWorkAssignment(ctx, p.assignment); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("an assignment for this worker, shift, and position already exists on %s: %w",
				p.assignment.WorkDate.Format("2006-01-02"), apperr.ErrDuplicate)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	if err := tx.CreateChecklistInstance(ctx, p.instance); err != nil {
		return fmt.Errorf("failed to create checklist instance: %w", err)
	}
	return s.outbox.Enqueue(ctx, tx, notify.Entry{
		OrgID:         p.assignment.OrganizationID,
		Recipients:    []uuid.UUID{p.assignment.UserID},
		Type:          types.NotifyWorkAssigned,
		Message:       fmt.Sprintf("New work assignment for %s", p.assignment.WorkDate.Format("2006-01-02")),
		ReferenceType: "work_assignment",
		ReferenceID:   &p.assignment.ID,
	})
}

// CompleteItem flips one checklist item on an assignment. The completion
// engine owns the write path; this resolves the assignment's instance and
// delegates, so the assignment route and the instance route cannot
// drift apart.
func (s *Service) CompleteItem(ctx context.Context, orgID, assignmentID uuid.UUID, itemIndex int, isCompleted bool, actorID uuid.UUID, ev checklist.Evidence) (*types.WorkAssignment, error) {
	inst, err := s.store.GetInstanceByAssignment(ctx, assignmentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("work assignment %s: %w", assignmentID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checklist instance: %w", err)
	}

	if isCompleted {
		_, err = s.items.CompleteItem(ctx, orgID, inst.ID, itemIndex, actorID, ev)
	} else {
		_, err = s.items.UncompleteItem(ctx, orgID, inst.ID, itemIndex, actorID)
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetWorkAssignment(ctx, assignmentID)
}

// Get loads one assignment visible to the organization.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.WorkAssignment, error) {
	asg, err := s.store.GetWorkAssignment(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("work assignment %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment: %w", err)
	}
	if asg.OrganizationID != orgID {
		return nil, fmt.Errorf("work assignment %s: %w", id, apperr.ErrForbidden)
	}
	return asg, nil
}

// List returns assignments matching the filter, scoped to the org.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f storage.AssignmentFilter) ([]*types.WorkAssignment, int, error) {
	f.OrgID = orgID
	return s.store.ListWorkAssignments(ctx, f)
}

// ListMine returns the caller's own assignments, optionally narrowed to a
// date or status. This backs the worker-facing app view.
func (s *Service) ListMine(ctx context.Context, orgID, userID uuid.UUID, workDate *time.Time, status types.AssignmentStatus) ([]*types.WorkAssignment, int, error) {
	f := storage.AssignmentFilter{
		OrgID:    orgID,
		UserID:   &userID,
		WorkDate: workDate,
		Status:   status,
	}
	return s.store.ListWorkAssignments(ctx, f)
}

// Delete removes an assignment; the schema cascades to its instance,
// completions, reviews, and comments.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.Get(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.store.DeleteWorkAssignment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// RecentUsers suggests workers for a roster screen: per (shift, position)
// combo, who was assigned most recently in the lookback window. Pass
// excludeDate (usually the date being edited) to drop combos already
// assigned that day.
func (s *Service) RecentUsers(ctx context.Context, orgID, storeID uuid.UUID, excludeDate *time.Time, days int) ([]*storage.RecentAssignmentUser, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = recentLookbackDays
	}
	since := types.DateOnly(s.now()).AddDate(0, 0, -days)
	return s.store.ListRecentAssignmentUsers(ctx, orgID, storeID, since, excludeDate)
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

// guardWorker verifies the assignee exists and belongs to the org.
func (s *Service) guardWorker(ctx context.Context, orgID, userID uuid.UUID) error {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u.OrganizationID != orgID {
		return fmt.Errorf("user %s: %w", userID, apperr.ErrForbidden)
	}
	return nil
}

// checkRefs verifies shift and position exist and belong to the store.
func (s *Service) checkRefs(ctx context.Context, storeID, shiftID, positionID uuid.UUID) error {
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
