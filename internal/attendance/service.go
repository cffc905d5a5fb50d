// Package attendance records worker clock events against store QR codes.
//
// Each store exposes one active QR code; scanning it drives a per-day
// state machine (clocked_in, on_break, clocked_out) stored as a single
// attendance row per worker and date. Managers list records, fix clock
// fields through audited corrections, and read weekly summaries.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// fallbackZone stands in when a scan arrives without a client timezone.
const fallbackZone = "America/Los_Angeles"

// Service manages QR codes, scan processing, and correction workflows.
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

// Scan processes one QR scan for the worker. The action must fit the
// worker's current state for today; clock timestamps are stored in UTC
// with the client zone kept alongside for display.
func (s *Service) Scan(ctx context.Context, orgID, userID uuid.UUID, code string, action types.ScanAction, clientTimezone string) (*types.Attendance, error) {
	qr, err := s.store.GetQRCodeByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("invalid or inactive qr code: %w", apperr.ErrBadRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up qr code: %w", err)
	}
	if !qr.IsActive {
		return nil, fmt.Errorf("invalid or inactive qr code: %w", apperr.ErrBadRequest)
	}

	now := s.now()
	if qr.Expired(now) {
		return nil, fmt.Errorf("qr code has expired: %w", apperr.ErrBadRequest)
	}

	// A code from another organization's store reads the same as a bad one.
	st, err := s.store.GetStore(ctx, qr.StoreID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("invalid or inactive qr code: %w", apperr.ErrBadRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if st.OrganizationID != orgID {
		return nil, fmt.Errorf("invalid or inactive qr code: %w", apperr.ErrBadRequest)
	}

	tz := clientTimezone
	if tz == "" {
		tz = fallbackZone
	}

	rec, err := s.store.GetAttendanceForDay(ctx, userID, now)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load today's attendance: %w", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		rec = nil
	}

	created := false
	switch action {
	case types.ScanClockIn:
		if rec != nil {
			return nil, fmt.Errorf("already clocked in today: %w", apperr.ErrBadRequest)
		}
		rec = &types.Attendance{
			ID:              uuid.New(),
			OrganizationID:  orgID,
			StoreID:         qr.StoreID,
			UserID:          userID,
			WorkDate:        types.DateOnly(now),
			ClockIn:         &now,
			ClockInTimezone: tz,
			Status:          types.AttendanceClockedIn,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		created = true

	case types.ScanBreakStart:
		if rec == nil {
			return nil, fmt.Errorf("must clock in first: %w", apperr.ErrBadRequest)
		}
		if rec.Status != types.AttendanceClockedIn {
			return nil, fmt.Errorf("cannot start a break while %s: %w", rec.Status, apperr.ErrBadRequest)
		}
		rec.BreakStart = &now
		rec.BreakEnd = nil
		rec.Status = types.AttendanceOnBreak

	case types.ScanBreakEnd:
		if rec == nil {
			return nil, fmt.Errorf("must clock in first: %w", apperr.ErrBadRequest)
		}
		if rec.Status != types.AttendanceOnBreak {
			return nil, fmt.Errorf("not currently on break: %w", apperr.ErrBadRequest)
		}
		rec.BreakEnd = &now
		if rec.BreakStart != nil {
			rec.TotalBreakMinutes += spanMinutes(*rec.BreakStart, now)
		}
		rec.Status = types.AttendanceClockedIn

	case types.ScanClockOut:
		if rec == nil {
			return nil, fmt.Errorf("must clock in first: %w", apperr.ErrBadRequest)
		}
		if rec.Status == types.AttendanceClockedOut {
			return nil, fmt.Errorf("already clocked out today: %w", apperr.ErrBadRequest)
		}
		if rec.Status == types.AttendanceOnBreak && rec.BreakStart != nil {
			rec.BreakEnd = &now
			rec.TotalBreakMinutes += spanMinutes(*rec.BreakStart, now)
		}
		rec.ClockOut = &now
		rec.ClockOutTimezone = tz
		rec.Status = types.AttendanceClockedOut
		if rec.ClockIn != nil {
			work := spanMinutes(*rec.ClockIn, now) - rec.TotalBreakMinutes
			if work < 0 {
				work = 0
			}
			rec.TotalWorkMinutes = work
		}

	default:
		return nil, fmt.Errorf("invalid scan action %q: %w", action, apperr.ErrBadRequest)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if created {
			if err := tx.CreateAttendance(ctx, rec); err != nil {
				if errors.Is(err, storage.ErrConflict) {
					return fmt.Errorf("already clocked in today: %w", apperr.ErrBadRequest)
				}
				return fmt.Errorf("failed to create attendance: %w", err)
			}
			return nil
		}
		rec.UpdatedAt = now
		if err := tx.UpdateAttendance(ctx, rec); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns one attendance record scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.Attendance, error) {
	return s.guardAttendance(ctx, orgID, id)
}

// List returns attendance records matching the filter, scoped to the
// organization, with the total match count.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, f storage.AttendanceFilter) ([]*types.Attendance, int, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, fmt.Errorf("invalid attendance status %q: %w", f.Status, apperr.ErrBadRequest)
	}
	f.OrgID = orgID
	return s.store.ListAttendance(ctx, f)
}

// spanMinutes is the whole-minute span from one instant to a later one.
func spanMinutes(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

// guardAttendance loads a record and verifies organization ownership.
func (s *Service) guardAttendance(ctx context.Context, orgID, id uuid.UUID) (*types.Attendance, error) {
	rec, err := s.store.GetAttendance(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("attendance record %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if rec.OrganizationID != orgID {
		return nil, fmt.Errorf("attendance record %s: %w", id, apperr.ErrForbidden)
	}
	return rec, nil
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
