// Package task manages additional tasks: one-off work assigned to
// specific users outside the recurring checklist cycle.
//
// Creating a task notifies its assignees; an assignee marking the task
// complete notifies whoever created it. Both notifications ride the
// outbox in the same transaction as the task write.
package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Service manages additional tasks and their assignee sets.
type Service struct {
	store  storage.Storage
	outbox *notify.Outbox
	now    func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage, outbox *notify.Outbox) *Service {
	return &Service{
		store:  store,
		outbox: outbox,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Input describes a new task. Priority defaults to normal when empty.
type Input struct {
	StoreID     *uuid.UUID
	Title       string
	Description string
	Priority    types.TaskPriority
	DueDate     *time.Time
	Assignees   []uuid.UUID
}

// Create records a task and notifies its assignees.
func (s *Service) Create(ctx context.Context, orgID, createdBy uuid.UUID, in Input) (*types.AdditionalTask, error) {
	if in.StoreID != nil {
		if err := s.guardStore(ctx, orgID, *in.StoreID); err != nil {
			return nil, err
		}
	}
	assignees, err := s.checkAssignees(ctx, orgID, in.Assignees)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &types.AdditionalTask{
		ID:             uuid.New(),
		OrganizationID: orgID,
		StoreID:        in.StoreID,
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		DueDate:        in.DueDate,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	t.SetDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateTask(ctx, t); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if len(assignees) == 0 {
			return nil
		}
		if err := tx.SetTaskAssignees(ctx, t.ID, assignees); err != nil {
			return fmt.Errorf("failed to assign task: %w", err)
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    assignees,
			Type:          types.NotifyAdditionalTask,
			Message:       fmt.Sprintf("New additional task: %s", t.Title),
			ReferenceType: "additional_task",
			ReferenceID:   &t.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees
	return t, nil
}

// UpdateInput carries partial edits; nil fields keep their value. A
// non-nil Assignees replaces the whole assignee set without re-notifying.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *types.TaskPriority
	Status      *types.TaskStatus
	DueDate     *time.Time
	Assignees   *[]uuid.UUID
}

// Update edits a task's fields or replaces its assignees.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, in UpdateInput) (*types.AdditionalTask, error) {
	t, err := s.guardTask(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	var assignees []uuid.UUID
	if in.Assignees != nil {
		assignees, err = s.checkAssignees(ctx, orgID, *in.Assignees)
		if err != nil {
			return nil, err
		}
	}

	t.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateTask(ctx, t); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if in.Assignees == nil {
			return nil
		}
		if err := tx.SetTaskAssignees(ctx, t.ID, assignees); err != nil {
			return fmt.Errorf("failed to reassign task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if in.Assignees != nil {
		t.Assignees = assignees
	}
	return t, nil
}

// Delete removes a task and its assignee rows.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.guardTask(ctx, orgID, id); err != nil {
		return err
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteTask(ctx, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}

// Get returns one task, assignees included, scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.AdditionalTask, error) {
	return s.guardTask(ctx, orgID, id)
}

// List returns the organization's tasks, newest first, narrowed by the
// filter's assignee and status.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f storage.TaskFilter) ([]*types.AdditionalTask, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("invalid task status %q: %w", f.Status, apperr.ErrBadRequest)
	}
	f.OrgID = orgID
	return s.store.ListTasks(ctx, f)
}

// ListMine returns the tasks assigned to one user.
func (s *Service) ListMine(ctx context.Context, orgID, userID uuid.UUID, status types.TaskStatus, page storage.Page) ([]*types.AdditionalTask, int, error) {
	return s.List(ctx, orgID, storage.TaskFilter{Assignee: &userID, Status: status, Page: page})
}

// CompleteMine marks a task completed on behalf of one of its assignees
// and notifies the creator. Completing an already-completed task is a
// no-op and does not notify again.
func (s *Service) CompleteMine(ctx context.Context, orgID, taskID, userID uuid.UUID) (*types.AdditionalTask, error) {
	t, err := s.guardTask(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(t.Assignees, userID) {
		return nil, fmt.Errorf("you are not an assignee of this task: %w", apperr.ErrForbidden)
	}
	if t.Status == types.TaskCompleted {
		return t, nil
	}

	t.Status = types.TaskCompleted
	t.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateTask(ctx, t); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    []uuid.UUID{t.CreatedBy},
			Type:          types.NotifyTaskCompleted,
			Message:       fmt.Sprintf("Additional task completed: %s", t.Title),
			ReferenceType: "additional_task",
			ReferenceID:   &t.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// checkAssignees dedups the requested assignees and verifies each one
// belongs to the organization. Duplicates would otherwise double up the
// queued notifications.
func (s *Service) checkAssignees(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.store.GetUser(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("assignee %s: %w", id, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load assignee: %w", err)
		}
		if u.OrganizationID != orgID {
			return nil, fmt.Errorf("assignee %s: %w", id, apperr.ErrForbidden)
		}
		out = append(out, id)
	}
	return out, nil
}

// guardTask loads a task and verifies org ownership.
func (s *Service) guardTask(ctx context.Context, orgID, id uuid.UUID) (*types.AdditionalTask, error) {
	t, err := s.store.GetTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if t.OrganizationID != orgID {
		return nil, fmt.Errorf("task %s: %w", id, apperr.ErrForbidden)
	}
	return t, nil
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
