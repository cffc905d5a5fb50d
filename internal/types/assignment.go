package types

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the work-assignment progress state.
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// IsValid reports whether the status is a known value.
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentAssigned, AssignmentInProgress, AssignmentCompleted:
		return true
	}
	return false
}

// DeriveAssignmentStatus maps completion counts to a status: 0 -> assigned,
// 0 < n < total -> in_progress, n == total -> completed. Counts are always
// recomputed from completion rows, never incremented, so the status can
// never drift from the truth.
func DeriveAssignmentStatus(completed, total int) AssignmentStatus {
	switch {
	case total > 0 && completed >= total:
		return AssignmentCompleted
	case completed > 0:
		return AssignmentInProgress
	default:
		return AssignmentAssigned
	}
}

// WorkAssignment binds one worker to one (store, shift, position, date)
// and carries the checklist snapshot plus denormalized progress counters.
// Unique per (store, shift, position, user, work_date).
type WorkAssignment struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	OrganizationID uuid.UUID          `json:"organization_id" db:"organization_id"`
	StoreID        uuid.UUID          `json:"store_id" db:"store_id"`
	ShiftID        uuid.UUID          `json:"shift_id" db:"shift_id"`
	PositionID     uuid.UUID          `json:"position_id" db:"position_id"`
	UserID         uuid.UUID          `json:"user_id" db:"user_id"`
	WorkDate       time.Time          `json:"work_date" db:"work_date"`
	Status         AssignmentStatus   `json:"status" db:"status"`
	Snapshot       *ChecklistSnapshot `json:"checklist_snapshot,omitempty" db:"-"`
	TotalItems     int                `json:"total_items" db:"total_items"`
	CompletedItems int                `json:"completed_items" db:"completed_items"`
	AssignedBy     *uuid.UUID         `json:"assigned_by,omitempty" db:"assigned_by"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// SetDefaults fills zero-valued fields for a fresh assignment.
func (a *WorkAssignment) SetDefaults() {
	if a.Status == "" {
		a.Status = AssignmentAssigned
	}
}
