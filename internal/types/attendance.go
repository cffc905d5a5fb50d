package types

import (
	"time"

	"github.com/google/uuid"
)

// QRCode is a store's scannable clock-in token. At most one active code
// per store; regeneration deactivates the rest.
type QRCode struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StoreID   uuid.UUID  `json:"store_id" db:"store_id"`
	Code      string     `json:"code" db:"code"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedBy uuid.UUID  `json:"created_by" db:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the code has an expiry in the past.
func (q *QRCode) Expired(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// AttendanceStatus is the clock state machine position.
type AttendanceStatus string

const (
	AttendanceClockedIn  AttendanceStatus = "clocked_in"
	AttendanceOnBreak    AttendanceStatus = "on_break"
	AttendanceClockedOut AttendanceStatus = "clocked_out"
)

// IsValid reports whether the status is a known value.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceClockedIn, AttendanceOnBreak, AttendanceClockedOut:
		return true
	}
	return false
}

// ScanAction is a QR scan intent.
type ScanAction string

const (
	ScanClockIn    ScanAction = "clock_in"
	ScanBreakStart ScanAction = "break_start"
	ScanBreakEnd   ScanAction = "break_end"
	ScanClockOut   ScanAction = "clock_out"
)

// Attendance is one worker-day clock record. Unique per (user, work_date).
// Clock timestamps are UTC; the paired timezone columns keep the worker's
// IANA zone for display.
type Attendance struct {
	ID                uuid.UUID        `json:"id" db:"id"`
	OrganizationID    uuid.UUID        `json:"organization_id" db:"organization_id"`
	StoreID           uuid.UUID        `json:"store_id" db:"store_id"`
	UserID            uuid.UUID        `json:"user_id" db:"user_id"`
	WorkDate          time.Time        `json:"work_date" db:"work_date"`
	ClockIn           *time.Time       `json:"clock_in,omitempty" db:"clock_in"`
	ClockInTimezone   string           `json:"clock_in_timezone,omitempty" db:"clock_in_timezone"`
	BreakStart        *time.Time       `json:"break_start,omitempty" db:"break_start"`
	BreakEnd          *time.Time       `json:"break_end,omitempty" db:"break_end"`
	ClockOut          *time.Time       `json:"clock_out,omitempty" db:"clock_out"`
	ClockOutTimezone  string           `json:"clock_out_timezone,omitempty" db:"clock_out_timezone"`
	Status            AttendanceStatus `json:"status" db:"status"`
	TotalWorkMinutes  int              `json:"total_work_minutes" db:"total_work_minutes"`
	TotalBreakMinutes int              `json:"total_break_minutes" db:"total_break_minutes"`
	Note              string           `json:"note,omitempty" db:"note"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// AttendanceCorrection is an append-only audit row for a manual fix to a
// clock record.
type AttendanceCorrection struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AttendanceID   uuid.UUID `json:"attendance_id" db:"attendance_id"`
	FieldName      string    `json:"field_name" db:"field_name"`
	OriginalValue  string    `json:"original_value,omitempty" db:"original_value"`
	CorrectedValue string    `json:"corrected_value" db:"corrected_value"`
	Reason         string    `json:"reason" db:"reason"`
	CorrectedBy    uuid.UUID `json:"corrected_by" db:"corrected_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// LaborSetting holds a store's working-time overrides. Jurisdiction selects
// a weekly cap from the compiled labor-rule table; WeeklyCapMinutes, when
// set, wins over the jurisdiction rule. One row per store, upserted.
type LaborSetting struct {
	StoreID          uuid.UUID `json:"store_id" db:"store_id"`
	Jurisdiction     string    `json:"jurisdiction,omitempty" db:"jurisdiction"`
	WeeklyCapMinutes *int      `json:"weekly_cap_minutes,omitempty" db:"weekly_cap_minutes"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
