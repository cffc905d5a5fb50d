package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Correctable clock fields, keyed by the wire name managers submit.
const (
	FieldClockIn    = "clock_in"
	FieldClockOut   = "clock_out"
	FieldBreakStart = "break_start"
	FieldBreakEnd   = "break_end"
)

// Correct overwrites one clock field with an RFC 3339 timestamp, appends
// an audit row holding the prior value, and recomputes the minute totals
// the field feeds into. Managers get notified of the change.
func (s *Service) Correct(ctx context.Context, orgID, attendanceID uuid.UUID, field, value, reason string, correctedBy uuid.UUID) (*types.AttendanceCorrection, error) {
	switch field {
	case FieldClockIn, FieldClockOut, FieldBreakStart, FieldBreakEnd:
	default:
		return nil, fmt.Errorf("cannot correct field %q: %w", field, apperr.ErrBadRequest)
	}
	if reason == "" {
		return nil, fmt.Errorf("a correction reason is required: %w", apperr.ErrBadRequest)
	}
	corrected, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q, want RFC 3339: %w", value, apperr.ErrBadRequest)
	}
	corrected = corrected.UTC()

	rec, err := s.guardAttendance(ctx, orgID, attendanceID)
	if err != nil {
		return nil, err
	}

	slot := fieldSlot(rec, field)
	original := ""
	if *slot != nil {
		original = (*slot).UTC().Format(time.RFC3339)
	}
	*slot = &corrected
	recompute(rec)

	now := s.now()
	rec.UpdatedAt = now
	correction := &types.AttendanceCorrection{
		ID:             uuid.New(),
		AttendanceID:   rec.ID,
		FieldName:      field,
		OriginalValue:  original,
		CorrectedValue: corrected.Format(time.RFC3339),
		Reason:         reason,
		CorrectedBy:    correctedBy,
		CreatedAt:      now,
	}

	managers, err := s.store.ListUserIDsWithMaxLevel(ctx, orgID, types.LevelGeneralManager)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve managers: %w", err)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.AddAttendanceCorrection(ctx, correction); err != nil {
			return fmt.Errorf("failed to record correction: %w", err)
		}
		if err := tx.UpdateAttendance(ctx, rec); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    managers,
			Type:          types.NotifyAttendance,
			Message:       fmt.Sprintf("Attendance %s corrected for %s", field, rec.WorkDate.Format("2006-01-02")),
			ReferenceType: "attendance",
			ReferenceID:   &rec.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return correction, nil
}

// Corrections returns the audit trail for one attendance record, oldest
// first.
func (s *Service) Corrections(ctx context.Context, orgID, attendanceID uuid.UUID) ([]*types.AttendanceCorrection, error) {
	if _, err := s.guardAttendance(ctx, orgID, attendanceID); err != nil {
		return nil, err
	}
	return s.store.ListAttendanceCorrections(ctx, attendanceID)
}

// fieldSlot maps a correctable field name to the record's timestamp slot.
func fieldSlot(rec *types.Attendance, field string) **time.Time {
	switch field {
	case FieldClockIn:
		return &rec.ClockIn
	case FieldClockOut:
		return &rec.ClockOut
	case FieldBreakStart:
		return &rec.BreakStart
	case FieldBreakEnd:
		return &rec.BreakEnd
	}
	return nil
}

// recompute rebuilds the minute totals from the stored clock fields. Break
// minutes come from the recorded pair; work minutes are the clock span
// net of breaks, floored at zero.
func recompute(rec *types.Attendance) {
	if rec.BreakStart != nil && rec.BreakEnd != nil {
		minutes := spanMinutes(*rec.BreakStart, *rec.BreakEnd)
		if minutes < 0 {
			minutes = 0
		}
		rec.TotalBreakMinutes = minutes
	}
	if rec.ClockIn != nil && rec.ClockOut != nil {
		work := spanMinutes(*rec.ClockIn, *rec.ClockOut) - rec.TotalBreakMinutes
		if work < 0 {
			work = 0
		}
		rec.TotalWorkMinutes = work
	}
}
