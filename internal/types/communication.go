package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Announcement is a broadcast message. A nil StoreID targets the whole
// organization; otherwise only the store's members. Content is markdown.
type Announcement struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	StoreID        *uuid.UUID `json:"store_id,omitempty" db:"store_id"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	CreatedBy      uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Validate checks field constraints before persistence.
func (a *Announcement) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("announcement title is required")
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("announcement content is required")
	}
	return nil
}

// TaskPriority is the urgency of an additional task.
type TaskPriority string

const (
	PriorityNormal TaskPriority = "normal"
	PriorityUrgent TaskPriority = "urgent"
)

// IsValid reports whether the priority is a known value.
func (p TaskPriority) IsValid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

// TaskStatus is the additional-task progress state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// AdditionalTask is ad-hoc work outside the checklist system, assigned to
// one or more workers.
type AdditionalTask struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	OrganizationID uuid.UUID    `json:"organization_id" db:"organization_id"`
	StoreID        *uuid.UUID   `json:"store_id,omitempty" db:"store_id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description,omitempty" db:"description"`
	Priority       TaskPriority `json:"priority" db:"priority"`
	Status         TaskStatus   `json:"status" db:"status"`
	DueDate        *time.Time   `json:"due_date,omitempty" db:"due_date"`
	CreatedBy      uuid.UUID    `json:"created_by" db:"created_by"`
	Assignees      []uuid.UUID  `json:"assignees,omitempty" db:"-"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// SetDefaults fills zero-valued enum fields.
func (t *AdditionalTask) SetDefaults() {
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
}

// Validate checks field constraints before persistence.
func (t *AdditionalTask) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid task priority: %q", t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid task status: %q", t.Status)
	}
	return nil
}
