package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationType declares what evidence an item demands when completed.
// Values combine with commas, e.g. "photo,text".
type VerificationType string

const (
	VerifyNone  VerificationType = "none"
	VerifyPhoto VerificationType = "photo"
	VerifyText  VerificationType = "text"
	VerifyVideo VerificationType = "video"
)

// IsValid reports whether every comma-separated part is a known value.
func (v VerificationType) IsValid() bool {
	if v == "" {
		return false
	}
	for _, part := range strings.Split(string(v), ",") {
		switch VerificationType(strings.TrimSpace(part)) {
		case VerifyNone, VerifyPhoto, VerifyText, VerifyVideo:
		default:
			return false
		}
	}
	return true
}

// RequiresMedia reports whether completion must carry a photo/video URL.
func (v VerificationType) RequiresMedia() bool {
	return v.contains(VerifyPhoto) || v.contains(VerifyVideo)
}

// RequiresNote reports whether completion must carry a text note.
func (v VerificationType) RequiresNote() bool {
	return v.contains(VerifyText)
}

func (v VerificationType) contains(want VerificationType) bool {
	for _, part := range strings.Split(string(v), ",") {
		if VerificationType(strings.TrimSpace(part)) == want {
			return true
		}
	}
	return false
}

// RecurrenceType controls which dates an item appears on.
type RecurrenceType string

const (
	RecurDaily  RecurrenceType = "daily"
	RecurWeekly RecurrenceType = "weekly"
)

// IsValid reports whether the recurrence type is a known value.
func (r RecurrenceType) IsValid() bool {
	return r == RecurDaily || r == RecurWeekly
}

// ChecklistTemplate is the per-(store, shift, position) checklist
// definition. At most one template exists for a triple; items are ordered
// by sort_order.
type ChecklistTemplate struct {
	ID         uuid.UUID                `json:"id" db:"id"`
	StoreID    uuid.UUID                `json:"store_id" db:"store_id"`
	ShiftID    uuid.UUID                `json:"shift_id" db:"shift_id"`
	PositionID uuid.UUID                `json:"position_id" db:"position_id"`
	Title      string                   `json:"title" db:"title"`
	CreatedAt  time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at" db:"updated_at"`
	Items      []*ChecklistTemplateItem `json:"items,omitempty" db:"-"`
}

// ChecklistTemplateItem is one row of a template.
type ChecklistTemplateItem struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	TemplateID       uuid.UUID        `json:"template_id" db:"template_id"`
	Title            string           `json:"title" db:"title"`
	Description      string           `json:"description,omitempty" db:"description"`
	VerificationType VerificationType `json:"verification_type" db:"verification_type"`
	RecurrenceType   RecurrenceType   `json:"recurrence_type" db:"recurrence_type"`
	RecurrenceDays   IntList          `json:"recurrence_days,omitempty" db:"recurrence_days"`
	SortOrder        int              `json:"sort_order" db:"sort_order"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// SetDefaults fills zero-valued enum fields.
func (i *ChecklistTemplateItem) SetDefaults() {
	if i.VerificationType == "" {
		i.VerificationType = VerifyNone
	}
	if i.RecurrenceType == "" {
		i.RecurrenceType = RecurDaily
	}
}

// Validate checks field constraints before persistence.
func (i *ChecklistTemplateItem) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("item title is required")
	}
	if len(i.Title) > 500 {
		return fmt.Errorf("item title too long: %d chars (max 500)", len(i.Title))
	}
	if !i.VerificationType.IsValid() {
		return fmt.Errorf("invalid verification type: %q", i.VerificationType)
	}
	if !i.RecurrenceType.IsValid() {
		return fmt.Errorf("invalid recurrence type: %q", i.RecurrenceType)
	}
	for _, d := range i.RecurrenceDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("recurrence day out of range: %d (want 0=Mon..6=Sun)", d)
		}
	}
	return nil
}

// AppliesOn reports whether the item appears in a snapshot built for the
// given date. A weekly item with an empty or full seven-day list behaves
// as daily.
func (i *ChecklistTemplateItem) AppliesOn(workDate time.Time) bool {
	if i.RecurrenceType != RecurWeekly {
		return true
	}
	if len(i.RecurrenceDays) == 0 || len(i.RecurrenceDays) >= 7 {
		return true
	}
	day := WeekdayIndex(workDate)
	for _, d := range i.RecurrenceDays {
		if d == day {
			return true
		}
	}
	return false
}

// SnapshotItem is one frozen item inside a checklist snapshot.
// CompletedAt/CompletedTz hold the worker's wall-clock time and zone
// abbreviation; the local time is authoritative for display and is
// deliberately not normalized to UTC.
type SnapshotItem struct {
	ItemIndex        int              `json:"item_index"`
	TemplateItemID   uuid.UUID        `json:"template_item_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	VerificationType VerificationType `json:"verification_type"`
	SortOrder        int              `json:"sort_order"`
	IsCompleted      bool             `json:"is_completed"`
	CompletedAt      *string          `json:"completed_at"`
	CompletedTz      *string          `json:"completed_tz"`
}

// ChecklistSnapshot is the point-in-time copy of a template embedded into
// a work assignment. Template edits after SnapshotAt never affect it.
type ChecklistSnapshot struct {
	TemplateID   uuid.UUID      `json:"template_id"`
	TemplateName string         `json:"template_name"`
	SnapshotAt   time.Time      `json:"snapshot_at"`
	Items        []SnapshotItem `json:"items"`
}

// TotalItems returns the number of items frozen into the snapshot.
func (s *ChecklistSnapshot) TotalItems() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// InstanceStatus is the checklist-instance progress state.
type InstanceStatus string

const (
	InstancePending    InstanceStatus = "pending"
	InstanceInProgress InstanceStatus = "in_progress"
	InstanceCompleted  InstanceStatus = "completed"
)

// IsValid reports whether the status is a known value.
func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstancePending, InstanceInProgress, InstanceCompleted:
		return true
	}
	return false
}

// DeriveInstanceStatus maps completion counts to a status. The invariant
// holds everywhere: completed iff completed==total>0, pending iff
// completed==0, in_progress otherwise.
func DeriveInstanceStatus(completed, total int) InstanceStatus {
	switch {
	case total > 0 && completed >= total:
		return InstanceCompleted
	case completed > 0:
		return InstanceInProgress
	default:
		return InstancePending
	}
}

// ChecklistInstance is the normalized counterpart of a work assignment's
// checklist state: same snapshot, but completions live in independent
// append-only rows instead of the embedded array.
type ChecklistInstance struct {
	ID               uuid.UUID          `json:"id" db:"id"`
	OrganizationID   uuid.UUID          `json:"organization_id" db:"organization_id"`
	TemplateID       *uuid.UUID         `json:"template_id,omitempty" db:"template_id"`
	WorkAssignmentID uuid.UUID          `json:"work_assignment_id" db:"work_assignment_id"`
	StoreID          uuid.UUID          `json:"store_id" db:"store_id"`
	UserID           uuid.UUID          `json:"user_id" db:"user_id"`
	WorkDate         time.Time          `json:"work_date" db:"work_date"`
	Snapshot         *ChecklistSnapshot `json:"snapshot,omitempty" db:"-"`
	TotalItems       int                `json:"total_items" db:"total_items"`
	CompletedItems   int                `json:"completed_items" db:"completed_items"`
	Status           InstanceStatus     `json:"status" db:"status"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// ChecklistCompletion is one completion fact: who completed which item
// when, with what evidence. At most one row exists per (instance,
// item_index); completing is an upsert, uncompleting a delete.
type ChecklistCompletion struct {
	ID                uuid.UUID `json:"id" db:"id"`
	InstanceID        uuid.UUID `json:"instance_id" db:"instance_id"`
	ItemIndex         int       `json:"item_index" db:"item_index"`
	UserID            uuid.UUID `json:"user_id" db:"user_id"`
	CompletedAt       time.Time `json:"completed_at" db:"completed_at"`
	CompletedTimezone string    `json:"completed_timezone" db:"completed_timezone"`
	PhotoURL          string    `json:"photo_url,omitempty" db:"photo_url"`
	Note              string    `json:"note,omitempty" db:"note"`
	Location          *Location `json:"location,omitempty" db:"-"`
}

// Validate checks field constraints before persistence.
func (c *ChecklistCompletion) Validate() error {
	if c.ItemIndex < 0 {
		return fmt.Errorf("item index must be non-negative, got %d", c.ItemIndex)
	}
	if len(c.PhotoURL) > 500 {
		return fmt.Errorf("photo URL too long: %d chars (max 500)", len(c.PhotoURL))
	}
	return nil
}

// Location is a latitude/longitude pair recorded with a completion.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReviewResult is the supervisor verdict on a completed (or skipped) item.
type ReviewResult string

const (
	ReviewPass    ReviewResult = "pass"
	ReviewFail    ReviewResult = "fail"
	ReviewCaution ReviewResult = "caution"
)

// IsValid reports whether the result is a known value.
func (r ReviewResult) IsValid() bool {
	return r == ReviewPass || r == ReviewFail || r == ReviewCaution
}

// ChecklistItemReview is a supervisor verdict on an (instance, item_index).
// One review per pair, create-or-replace, independent of the completion
// lifecycle.
type ChecklistItemReview struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	InstanceID uuid.UUID    `json:"instance_id" db:"instance_id"`
	ItemIndex  int          `json:"item_index" db:"item_index"`
	ReviewerID uuid.UUID    `json:"reviewer_id" db:"reviewer_id"`
	Result     ReviewResult `json:"result" db:"result"`
	Comment    string       `json:"comment,omitempty" db:"comment"`
	PhotoURL   string       `json:"photo_url,omitempty" db:"photo_url"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// ChecklistComment is free-form discussion attached to an instance.
type ChecklistComment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	InstanceID uuid.UUID `json:"instance_id" db:"instance_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
