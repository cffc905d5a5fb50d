// Package schedule runs the draft, pending, approved workflow that turns
// planned shifts into work assignments.
//
// A schedule starts as a loose proposal: shift, position, and times may be
// missing. Submission moves it to pending and pings managers. Approval
// demands a complete slot and materializes the work assignment through the
// assignment service inside the schedule's own transaction, so a failed
// assignment write leaves the schedule untouched. Every transition appends
// exactly one ScheduleApproval audit row.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Service drives schedule transitions and their side effects.
type Service struct {
	store       storage.Storage
	assignments *assignment.Service
	outbox      *notify.Outbox
	now         func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage, assignments *assignment.Service, outbox *notify.Outbox) *Service {
	return &Service{
		store:       store,
		assignments: assignments,
		outbox:      outbox,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a schedule proposal. PresetID, when set, fills
// shift and times the caller left blank.
type CreateInput struct {
	StoreID    uuid.UUID
	UserID     uuid.UUID
	ShiftID    *uuid.UUID
	PositionID *uuid.UUID
	PresetID   *uuid.UUID
	WorkDate   time.Time
	StartTime  string
	EndTime    string
	Note       string
}

// Create opens a draft schedule. The unique constraint on (user, store,
// date, shift) is the only duplicate check.
func (s *Service) Create(ctx context.Context, orgID, createdBy uuid.UUID, in CreateInput) (*types.Schedule, error) {
	if err := s.guardStore(ctx, orgID, in.StoreID); err != nil {
		return nil, err
	}
	if err := s.guardWorker(ctx, orgID, in.UserID); err != nil {
		return nil, err
	}

	if in.PresetID != nil {
		preset, err := s.store.GetShiftPreset(ctx, *in.PresetID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("shift preset %s: %w", *in.PresetID, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load shift preset: %w", err)
		}
		if preset.StoreID != in.StoreID {
			return nil, fmt.Errorf("shift preset %s belongs to a different store: %w", preset.ID, apperr.ErrBadRequest)
		}
		if in.ShiftID == nil {
			in.ShiftID = preset.ShiftID
		}
		if in.StartTime == "" {
			in.StartTime = preset.StartTime
		}
		if in.EndTime == "" {
			in.EndTime = preset.EndTime
		}
	}
	if in.ShiftID != nil {
		if err := s.checkShift(ctx, in.StoreID, *in.ShiftID); err != nil {
			return nil, err
		}
	}
	if in.PositionID != nil {
		if err := s.checkPosition(ctx, in.StoreID, *in.PositionID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	sch := &types.Schedule{
		ID:             uuid.New(),
		OrganizationID: orgID,
		StoreID:        in.StoreID,
		UserID:         in.UserID,
		ShiftID:        in.ShiftID,
		PositionID:     in.PositionID,
		WorkDate:       types.DateOnly(in.WorkDate),
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Note:           in.Note,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	sch.SetDefaults()
	if err := sch.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	err := s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateSchedule(ctx, sch); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("a schedule for this worker and shift already exists on %s: %w",
					sch.WorkDate.Format("2006-01-02"), apperr.ErrDuplicate)
			}
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// UpdateInput carries the editable fields; nil means keep the current
// value. Worker, store, and date are fixed at creation.
type UpdateInput struct {
	ShiftID    *uuid.UUID
	PositionID *uuid.UUID
	StartTime  *string
	EndTime    *string
	Note       *string
}

// Update edits a draft or pending schedule.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, in UpdateInput) (*types.Schedule, error) {
	sch, err := s.guardSchedule(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sch.Status != types.ScheduleDraft && sch.Status != types.SchedulePending {
		return nil, fmt.Errorf("cannot edit an approved or cancelled schedule: %w", apperr.ErrBadRequest)
	}

	changed := false
	if in.ShiftID != nil {
		if err := s.checkShift(ctx, sch.StoreID, *in.ShiftID); err != nil {
			return nil, err
		}
		sch.ShiftID = in.ShiftID
		changed = true
	}
	if in.PositionID != nil {
		if err := s.checkPosition(ctx, sch.StoreID, *in.PositionID); err != nil {
			return nil, err
		}
		sch.PositionID = in.PositionID
		changed = true
	}
	if in.StartTime != nil {
		sch.StartTime = *in.StartTime
		changed = true
	}
	if in.EndTime != nil {
		sch.EndTime = *in.EndTime
		changed = true
	}
	if in.Note != nil {
		sch.Note = *in.Note
		changed = true
	}
	if !changed {
		return sch, nil
	}
	if err := sch.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	sch.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateSchedule(ctx, sch); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("a schedule for this worker and shift already exists on %s: %w",
					sch.WorkDate.Format("2006-01-02"), apperr.ErrDuplicate)
			}
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Submit moves a draft to pending and asks managers for approval.
func (s *Service) Submit(ctx context.Context, orgID, id, actorID uuid.UUID) (*types.Schedule, error) {
	sch, err := s.guardSchedule(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sch.Status != types.ScheduleDraft {
		return nil, fmt.Errorf("only draft schedules can be submitted for approval: %w", apperr.ErrBadRequest)
	}

	managers, err := s.store.ListUserIDsWithMaxLevel(ctx, orgID, types.LevelGeneralManager)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approvers: %w", err)
	}

	sch.Status = types.SchedulePending
	sch.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateSchedule(ctx, sch); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		if err := s.audit(ctx, tx, sch.ID, types.ActionSubmit, actorID, ""); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    managers,
			Type:          types.NotifySchedule,
			Message:       fmt.Sprintf("Schedule for %s awaits approval", sch.WorkDate.Format("2006-01-02")),
			ReferenceType: "schedule",
			ReferenceID:   &sch.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Approve turns a pending schedule into a work assignment. The assignment,
// its checklist instance, the schedule update, the audit row, and the
// worker's notification all commit together; any failure rolls the whole
// transition back.
func (s *Service) Approve(ctx context.Context, orgID, id, approverID uuid.UUID) (*types.Schedule, error) {
	sch, err := s.guardSchedule(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sch.Status != types.SchedulePending {
		return nil, fmt.Errorf("only pending schedules can be approved: %w", apperr.ErrBadRequest)
	}
	if sch.ShiftID == nil || sch.PositionID == nil {
		return nil, fmt.Errorf("schedule needs a shift and position before approval: %w", apperr.ErrBadRequest)
	}

	p, err := s.assignments.Prepare(ctx, orgID, approverID, assignment.CreateInput{
		StoreID:    sch.StoreID,
		ShiftID:    *sch.ShiftID,
		PositionID: *sch.PositionID,
		UserID:     sch.UserID,
		WorkDate:   sch.WorkDate,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	asgID := p.Assignment().ID
	sch.Status = types.ScheduleApproved
	sch.ApprovedBy = &approverID
	sch.ApprovedAt = &now
	sch.WorkAssignmentID = &asgID
	sch.UpdatedAt = now
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := s.assignments.InsertPrepared(ctx, tx, p); err != nil {
			return err
		}
		if err := tx.UpdateSchedule(ctx, sch); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		if err := s.audit(ctx, tx, sch.ID, types.ActionApprove, approverID, ""); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    []uuid.UUID{sch.UserID},
			Type:          types.NotifySchedule,
			Message:       fmt.Sprintf("Your schedule for %s was approved", sch.WorkDate.Format("2006-01-02")),
			ReferenceType: "schedule",
			ReferenceID:   &sch.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Cancel withdraws a draft or pending schedule.
func (s *Service) Cancel(ctx context.Context, orgID, id, actorID uuid.UUID) (*types.Schedule, error) {
	sch, err := s.guardSchedule(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sch.Status != types.ScheduleDraft && sch.Status != types.SchedulePending {
		return nil, fmt.Errorf("only draft or pending schedules can be cancelled: %w", apperr.ErrBadRequest)
	}

	sch.Status = types.ScheduleCancelled
	sch.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateSchedule(ctx, sch); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		return s.audit(ctx, tx, sch.ID, types.ActionCancel, actorID, "")
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Substitute swaps the worker on an approved schedule and its linked
// assignment, then tells both workers.
func (s *Service) Substitute(ctx context.Context, orgID, id, newUserID, requestedBy uuid.UUID) (*types.Schedule, error) {
	sch, err := s.guardSchedule(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sch.Status != types.ScheduleApproved {
		return nil, fmt.Errorf("only approved schedules can be substituted: %w", apperr.ErrBadRequest)
	}
	if err := s.guardWorker(ctx, orgID, newUserID); err != nil {
		return nil, err
	}

	oldUserID := sch.UserID
	sch.UserID = newUserID
	sch.UpdatedAt = s.now()
	reason := fmt.Sprintf("substitute: %s -> %s", oldUserID, newUserID)
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateSchedule(ctx, sch); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return fmt.Errorf("the substitute already has a schedule for this slot: %w", apperr.ErrDuplicate)
			}
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		if sch.WorkAssignmentID != nil {
			if err := tx.UpdateAssignmentUser(ctx, *sch.WorkAssignmentID, newUserID); err != nil {
				if errors.Is(err, storage.ErrConflict) {
					return fmt.Errorf("the substitute already has an assignment for this slot: %w", apperr.ErrDuplicate)
				}
				return fmt.Errorf("failed to update assignment: %w", err)
			}
			inst, err := tx.GetInstanceByAssignment(ctx, *sch.WorkAssignmentID)
			if err != nil {
				return fmt.Errorf("failed to resolve checklist instance: %w", err)
			}
			if err := tx.UpdateInstanceUser(ctx, inst.ID, newUserID); err != nil {
				return fmt.Errorf("failed to update checklist instance: %w", err)
			}
		}
		if err := s.audit(ctx, tx, sch.ID, types.ActionSubstitute, requestedBy, reason); err != nil {
			return err
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    []uuid.UUID{oldUserID, newUserID},
			Type:          types.NotifySchedule,
			Message:       fmt.Sprintf("Schedule substitution recorded for %s", sch.WorkDate.Format("2006-01-02")),
			ReferenceType: "schedule",
			ReferenceID:   &sch.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Get loads one schedule visible to the organization.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.Schedule, error) {
	return s.guardSchedule(ctx, orgID, id)
}

// List returns schedules matching the filter, scoped to the org.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f storage.ScheduleFilter) ([]*types.Schedule, int, error) {
	f.OrgID = orgID
	return s.store.ListSchedules(ctx, f)
}

// History returns a schedule's transition audit trail, oldest first.
func (s *Service) History(ctx context.Context, orgID, id uuid.UUID) ([]*types.ScheduleApproval, error) {
	if _, err := s.guardSchedule(ctx, orgID, id); err != nil {
		return nil, err
	}
	return s.store.ListScheduleApprovals(ctx, id)
}

// audit appends the transition's approval row.
func (s *Service) audit(ctx context.Context, tx storage.Tx, scheduleID uuid.UUID, action types.ApprovalAction, actorID uuid.UUID, reason string) error {
	ap := &types.ScheduleApproval{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		Action:     action,
		UserID:     actorID,
		Reason:     reason,
		CreatedAt:  s.now(),
	}
	if err := tx.AddScheduleApproval(ctx, ap); err != nil {
		return fmt.Errorf("failed to record schedule %s: %w", action, err)
	}
	return nil
}

// guardSchedule loads a schedule and verifies tenant visibility.
func (s *Service) guardSchedule(ctx context.Context, orgID, id uuid.UUID) (*types.Schedule, error) {
	sch, err := s.store.GetSchedule(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("schedule %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if sch.OrganizationID != orgID {
		return nil, fmt.Errorf("schedule %s: %w", id, apperr.ErrForbidden)
	}
	return sch, nil
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

// guardWorker verifies the worker exists and belongs to the org.
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

// checkShift verifies the shift exists and belongs to the store.
func (s *Service) checkShift(ctx context.Context, storeID, shiftID uuid.UUID) error {
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
	return nil
}

// checkPosition verifies the position exists and belongs to the store.
func (s *Service) checkPosition(ctx context.Context, storeID, positionID uuid.UUID) error {
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
