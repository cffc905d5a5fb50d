package types

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the schedule workflow state.
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "draft"
	SchedulePending   ScheduleStatus = "pending"
	ScheduleApproved  ScheduleStatus = "approved"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// IsValid reports whether the status is a known value.
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleDraft, SchedulePending, ScheduleApproved, ScheduleCancelled:
		return true
	}
	return false
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateHHMM checks an "HH:MM" wall-clock string.
func ValidateHHMM(s string) error {
	if !hhmmRe.MatchString(s) {
		return fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return nil
}

// Schedule is a pre-assignment proposal. Drafts may omit shift/position
// detail; approval requires both and materializes exactly one
// WorkAssignment. Unique per (user, store, work_date, shift).
type Schedule struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	OrganizationID   uuid.UUID      `json:"organization_id" db:"organization_id"`
	StoreID          uuid.UUID      `json:"store_id" db:"store_id"`
	UserID           uuid.UUID      `json:"user_id" db:"user_id"`
	ShiftID          *uuid.UUID     `json:"shift_id,omitempty" db:"shift_id"`
	PositionID       *uuid.UUID     `json:"position_id,omitempty" db:"position_id"`
	WorkDate         time.Time      `json:"work_date" db:"work_date"`
	StartTime        string         `json:"start_time,omitempty" db:"start_time"`
	EndTime          string         `json:"end_time,omitempty" db:"end_time"`
	Status           ScheduleStatus `json:"status" db:"status"`
	Note             string         `json:"note,omitempty" db:"note"`
	CreatedBy        uuid.UUID      `json:"created_by" db:"created_by"`
	ApprovedBy       *uuid.UUID     `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt       *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	WorkAssignmentID *uuid.UUID     `json:"work_assignment_id,omitempty" db:"work_assignment_id"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// SetDefaults fills zero-valued fields for a fresh schedule.
func (s *Schedule) SetDefaults() {
	if s.Status == "" {
		s.Status = ScheduleDraft
	}
}

// Validate checks field constraints before persistence.
func (s *Schedule) Validate() error {
	if !s.Status.IsValid() {
		return fmt.Errorf("invalid schedule status: %q", s.Status)
	}
	if s.StartTime != "" {
		if err := ValidateHHMM(s.StartTime); err != nil {
			return fmt.Errorf("start time: %w", err)
		}
	}
	if s.EndTime != "" {
		if err := ValidateHHMM(s.EndTime); err != nil {
			return fmt.Errorf("end time: %w", err)
		}
	}
	return nil
}

// ApprovalAction is the kind of schedule transition being audited.
type ApprovalAction string

const (
	ActionSubmit     ApprovalAction = "submit"
	ActionApprove    ApprovalAction = "approve"
	ActionCancel     ApprovalAction = "cancel"
	ActionSubstitute ApprovalAction = "substitute"
)

// IsValid reports whether the action is a known value.
func (a ApprovalAction) IsValid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionCancel, ActionSubstitute:
		return true
	}
	return false
}

// ScheduleApproval is one append-only audit row recorded for every
// schedule transition. Rows are never mutated or deleted.
type ScheduleApproval struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	ScheduleID uuid.UUID      `json:"schedule_id" db:"schedule_id"`
	Action     ApprovalAction `json:"action" db:"action"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id"`
	Reason     string         `json:"reason,omitempty" db:"reason"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// ShiftPreset is a reusable start/end time pairing used to draft
// schedules quickly.
type ShiftPreset struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StoreID   uuid.UUID  `json:"store_id" db:"store_id"`
	Name      string     `json:"name" db:"name"`
	ShiftID   *uuid.UUID `json:"shift_id,omitempty" db:"shift_id"`
	StartTime string     `json:"start_time" db:"start_time"`
	EndTime   string     `json:"end_time" db:"end_time"`
	SortOrder int        `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
