package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies what a notification is about; ReferenceType
// plus ReferenceID point at the triggering entity.
type NotificationType string

const (
	NotifyWorkAssigned   NotificationType = "work_assigned"
	NotifyAdditionalTask NotificationType = "additional_task"
	NotifyAnnouncement   NotificationType = "announcement"
	NotifyTaskCompleted  NotificationType = "task_completed"
	NotifySchedule       NotificationType = "schedule"
	NotifyAttendance     NotificationType = "attendance"
)

// IsValid reports whether the type is a known value.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotifyWorkAssigned, NotifyAdditionalTask, NotifyAnnouncement,
		NotifyTaskCompleted, NotifySchedule, NotifyAttendance:
		return true
	}
	return false
}

// Notification is one per-user inbox row, created by the outbox
// dispatcher, never directly by business transactions.
type Notification struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID uuid.UUID        `json:"organization_id" db:"organization_id"`
	UserID         uuid.UUID        `json:"user_id" db:"user_id"`
	Type           NotificationType `json:"type" db:"type"`
	Message        string           `json:"message" db:"message"`
	ReferenceType  string           `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID    *uuid.UUID       `json:"reference_id,omitempty" db:"reference_id"`
	IsRead         bool             `json:"is_read" db:"is_read"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// Validate checks field constraints before persistence.
func (n *Notification) Validate() error {
	if !n.Type.IsValid() {
		return fmt.Errorf("invalid notification type: %q", n.Type)
	}
	if n.Message == "" {
		return fmt.Errorf("notification message is required")
	}
	if len(n.Message) > 1000 {
		return fmt.Errorf("notification message too long: %d chars (max 1000)", len(n.Message))
	}
	return nil
}

// OutboxEntry is one pending fan-out written inside a business
// transaction. The dispatcher expands it into Notification rows and
// stamps DispatchedAt; failed attempts bump Attempts and are retried.
type OutboxEntry struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID uuid.UUID        `json:"organization_id" db:"organization_id"`
	Recipients     UUIDList         `json:"recipients" db:"recipients"`
	Type           NotificationType `json:"type" db:"type"`
	Message        string           `json:"message" db:"message"`
	ReferenceType  string           `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID    *uuid.UUID       `json:"reference_id,omitempty" db:"reference_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	DispatchedAt   *time.Time       `json:"dispatched_at,omitempty" db:"dispatched_at"`
	Attempts       int              `json:"attempts" db:"attempts"`
}
