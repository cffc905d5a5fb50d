package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const qrCols = `id, store_id, code, is_active, created_by, expires_at, created_at`

func (q *queries) CreateQRCode(ctx context.Context, qr *types.QRCode) error {
	return q.exec(ctx, "failed to insert qr code",
		`INSERT INTO qr_codes (`+qrCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		qr.ID, qr.StoreID, qr.Code, qr.IsActive, qr.CreatedBy, qr.ExpiresAt, qr.CreatedAt)
}

func (q *queries) GetQRCode(ctx context.Context, id uuid.UUID) (*types.QRCode, error) {
	var qr types.QRCode
	err := q.get(ctx, &qr, "failed to get qr code",
		`SELECT `+qrCols+` FROM qr_codes WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (q *queries) GetQRCodeByCode(ctx context.Context, code string) (*types.QRCode, error) {
	var qr types.QRCode
	err := q.get(ctx, &qr, "failed to get qr code",
		`SELECT `+qrCols+` FROM qr_codes WHERE code = ?`, code)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

// GetActiveQRCode returns the store's current scannable code. Regeneration
// keeps at most one active; newest wins if that invariant is ever broken.
func (q *queries) GetActiveQRCode(ctx context.Context, storeID uuid.UUID) (*types.QRCode, error) {
	var qr types.QRCode
	err := q.get(ctx, &qr, "failed to get active qr code",
		`SELECT `+qrCols+` FROM qr_codes WHERE store_id = ? AND is_active = ?
		 ORDER BY created_at DESC LIMIT 1`, storeID, true)
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (q *queries) ListQRCodes(ctx context.Context, storeID uuid.UUID) ([]*types.QRCode, error) {
	var codes []*types.QRCode
	err := q.list(ctx, &codes, "failed to list qr codes",
		`SELECT `+qrCols+` FROM qr_codes WHERE store_id = ? ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// DeactivateStoreQRCodes retires every active code for a store. Called
// before issuing a replacement so at most one code scans successfully.
func (q *queries) DeactivateStoreQRCodes(ctx context.Context, storeID uuid.UUID) error {
	return q.exec(ctx, "failed to deactivate qr codes",
		`UPDATE qr_codes SET is_active = ? WHERE store_id = ? AND is_active = ?`,
		false, storeID, true)
}

const attendanceCols = `id, organization_id, store_id, user_id, work_date, clock_in,
	clock_in_timezone, break_start, break_end, clock_out, clock_out_timezone, status,
	total_work_minutes, total_break_minutes, note, created_at, updated_at`

func (q *queries) CreateAttendance(ctx context.Context, a *types.Attendance) error {
	return q.exec(ctx, "failed to insert attendance",
		`INSERT INTO attendances (`+attendanceCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.StoreID, a.UserID, types.DateOnly(a.WorkDate),
		a.ClockIn, a.ClockInTimezone, a.BreakStart, a.BreakEnd, a.ClockOut, a.ClockOutTimezone,
		a.Status, a.TotalWorkMinutes, a.TotalBreakMinutes, a.Note, a.CreatedAt, a.UpdatedAt)
}

func (q *queries) GetAttendance(ctx context.Context, id uuid.UUID) (*types.Attendance, error) {
	var a types.Attendance
	err := q.get(ctx, &a, "failed to get attendance",
		`SELECT `+attendanceCols+` FROM attendances WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttendanceForDay looks up the unique (user, work_date) record.
func (q *queries) GetAttendanceForDay(ctx context.Context, userID uuid.UUID, workDate time.Time) (*types.Attendance, error) {
	var a types.Attendance
	err := q.get(ctx, &a, "failed to get attendance for day",
		`SELECT `+attendanceCols+` FROM attendances WHERE user_id = ? AND work_date = ?`,
		userID, types.DateOnly(workDate))
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (q *queries) UpdateAttendance(ctx context.Context, a *types.Attendance) error {
	return q.execAffecting(ctx, "failed to update attendance",
		`UPDATE attendances SET clock_in = ?, clock_in_timezone = ?, break_start = ?, break_end = ?,
		 clock_out = ?, clock_out_timezone = ?, status = ?, total_work_minutes = ?,
		 total_break_minutes = ?, note = ?, updated_at = ? WHERE id = ?`,
		a.ClockIn, a.ClockInTimezone, a.BreakStart, a.BreakEnd, a.ClockOut, a.ClockOutTimezone,
		a.Status, a.TotalWorkMinutes, a.TotalBreakMinutes, a.Note, a.UpdatedAt, a.ID)
}

func (q *queries) ListAttendance(ctx context.Context, f storage.AttendanceFilter) ([]*types.Attendance, int, error) {
	where := []string{"organization_id = ?"}
	args := []interface{}{f.OrgID}
	if f.StoreID != nil {
		where = append(where, "store_id = ?")
		args = append(args, *f.StoreID)
	}
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.DateFrom != nil {
		where = append(where, "work_date >= ?")
		args = append(args, types.DateOnly(*f.DateFrom))
	}
	if f.DateTo != nil {
		where = append(where, "work_date <= ?")
		args = append(args, types.DateOnly(*f.DateTo))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := q.get(ctx, &total, "failed to count attendance",
		`SELECT COUNT(*) FROM attendances WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var records []*types.Attendance
	err = q.list(ctx, &records, "failed to list attendance",
		`SELECT `+attendanceCols+` FROM attendances WHERE `+cond+`
		 ORDER BY work_date DESC, created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListAttendanceBetween returns every record in [from, to] without
// pagination, ordered for per-user grouping. Weekly summaries aggregate
// these rows in Go rather than in SQL so both dialects scan identically.
func (q *queries) ListAttendanceBetween(ctx context.Context, orgID uuid.UUID, storeID, userID *uuid.UUID, from, to time.Time) ([]*types.Attendance, error) {
	where := []string{"organization_id = ?", "work_date >= ?", "work_date <= ?"}
	args := []interface{}{orgID, types.DateOnly(from), types.DateOnly(to)}
	if storeID != nil {
		where = append(where, "store_id = ?")
		args = append(args, *storeID)
	}
	if userID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *userID)
	}

	var records []*types.Attendance
	err := q.list(ctx, &records, "failed to list attendance range",
		`SELECT `+attendanceCols+` FROM attendances WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY user_id, work_date`, args...)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SumWorkMinutes totals recorded work minutes for a user in [from, to],
// used by the overtime check over a Monday..Sunday window.
func (q *queries) SumWorkMinutes(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	var minutes int
	err := q.get(ctx, &minutes, "failed to sum work minutes",
		`SELECT COALESCE(SUM(total_work_minutes), 0) FROM attendances
		 WHERE user_id = ? AND work_date >= ? AND work_date <= ?`,
		userID, types.DateOnly(from), types.DateOnly(to))
	if err != nil {
		return 0, err
	}
	return minutes, nil
}

func (q *queries) AddAttendanceCorrection(ctx context.Context, c *types.AttendanceCorrection) error {
	return q.exec(ctx, "failed to insert attendance correction",
		`INSERT INTO attendance_corrections (id, attendance_id, field_name, original_value,
		 corrected_value, reason, corrected_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AttendanceID, c.FieldName, c.OriginalValue, c.CorrectedValue, c.Reason,
		c.CorrectedBy, c.CreatedAt)
}

func (q *queries) ListAttendanceCorrections(ctx context.Context, attendanceID uuid.UUID) ([]*types.AttendanceCorrection, error) {
	var corrections []*types.AttendanceCorrection
	err := q.list(ctx, &corrections, "failed to list attendance corrections",
		`SELECT id, attendance_id, field_name, original_value, corrected_value, reason,
		 corrected_by, created_at FROM attendance_corrections
		 WHERE attendance_id = ? ORDER BY created_at`, attendanceID)
	if err != nil {
		return nil, err
	}
	return corrections, nil
}

func (q *queries) GetLaborSetting(ctx context.Context, storeID uuid.UUID) (*types.LaborSetting, error) {
	var ls types.LaborSetting
	err := q.get(ctx, &ls, "failed to get labor setting",
		`SELECT store_id, jurisdiction, weekly_cap_minutes, updated_at
		 FROM labor_settings WHERE store_id = ?`, storeID)
	if err != nil {
		return nil, err
	}
	return &ls, nil
}

func (q *queries) UpsertLaborSetting(ctx context.Context, ls *types.LaborSetting) error {
	return q.exec(ctx, "failed to upsert labor setting",
		`INSERT INTO labor_settings (store_id, jurisdiction, weekly_cap_minutes, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (store_id) DO UPDATE SET
			jurisdiction = excluded.jurisdiction,
			weekly_cap_minutes = excluded.weekly_cap_minutes,
			updated_at = excluded.updated_at`,
		ls.StoreID, ls.Jurisdiction, ls.WeeklyCapMinutes, ls.UpdatedAt)
}
