package sqlstore

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const scheduleCols = `id, organization_id, store_id, user_id, shift_id, position_id, work_date,
	start_time, end_time, status, note, created_by, approved_by, approved_at,
	work_assignment_id, created_at, updated_at`

func (q *queries) CreateSchedule(ctx context.Context, s *types.Schedule) error {
	return q.exec(ctx, "failed to insert schedule",
		`INSERT INTO schedules (`+scheduleCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OrganizationID, s.StoreID, s.UserID, s.ShiftID, s.PositionID,
		types.DateOnly(s.WorkDate), s.StartTime, s.EndTime, s.Status, s.Note,
		s.CreatedBy, s.ApprovedBy, s.ApprovedAt, s.WorkAssignmentID, s.CreatedAt, s.UpdatedAt)
}

func (q *queries) GetSchedule(ctx context.Context, id uuid.UUID) (*types.Schedule, error) {
	var s types.Schedule
	err := q.get(ctx, &s, "failed to get schedule",
		`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (q *queries) ListSchedules(ctx context.Context, f storage.ScheduleFilter) ([]*types.Schedule, int, error) {
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
	err := q.get(ctx, &total, "failed to count schedules",
		`SELECT COUNT(*) FROM schedules WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var schedules []*types.Schedule
	err = q.list(ctx, &schedules, "failed to list schedules",
		`SELECT `+scheduleCols+` FROM schedules WHERE `+cond+`
		 ORDER BY work_date, start_time, created_at LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

func (q *queries) UpdateSchedule(ctx context.Context, s *types.Schedule) error {
	return q.execAffecting(ctx, "failed to update schedule",
		`UPDATE schedules SET user_id = ?, shift_id = ?, position_id = ?, work_date = ?,
		 start_time = ?, end_time = ?, status = ?, note = ?, approved_by = ?, approved_at = ?,
		 work_assignment_id = ?, updated_at = ? WHERE id = ?`,
		s.UserID, s.ShiftID, s.PositionID, types.DateOnly(s.WorkDate), s.StartTime, s.EndTime,
		s.Status, s.Note, s.ApprovedBy, s.ApprovedAt, s.WorkAssignmentID, s.UpdatedAt, s.ID)
}

func (q *queries) AddScheduleApproval(ctx context.Context, ap *types.ScheduleApproval) error {
	return q.exec(ctx, "failed to insert schedule approval",
		`INSERT INTO schedule_approvals (id, schedule_id, action, user_id, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ap.ID, ap.ScheduleID, ap.Action, ap.UserID, ap.Reason, ap.CreatedAt)
}

func (q *queries) ListScheduleApprovals(ctx context.Context, scheduleID uuid.UUID) ([]*types.ScheduleApproval, error) {
	var approvals []*types.ScheduleApproval
	err := q.list(ctx, &approvals, "failed to list schedule approvals",
		`SELECT id, schedule_id, action, user_id, reason, created_at
		 FROM schedule_approvals WHERE schedule_id = ? ORDER BY created_at`, scheduleID)
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

const presetCols = `id, store_id, name, shift_id, start_time, end_time, sort_order, created_at`

func (q *queries) CreateShiftPreset(ctx context.Context, p *types.ShiftPreset) error {
	return q.exec(ctx, "failed to insert shift preset",
		`INSERT INTO shift_presets (`+presetCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StoreID, p.Name, p.ShiftID, p.StartTime, p.EndTime, p.SortOrder, p.CreatedAt)
}

func (q *queries) GetShiftPreset(ctx context.Context, id uuid.UUID) (*types.ShiftPreset, error) {
	var p types.ShiftPreset
	err := q.get(ctx, &p, "failed to get shift preset",
		`SELECT `+presetCols+` FROM shift_presets WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *queries) ListShiftPresets(ctx context.Context, storeID uuid.UUID) ([]*types.ShiftPreset, error) {
	var presets []*types.ShiftPreset
	err := q.list(ctx, &presets, "failed to list shift presets",
		`SELECT `+presetCols+` FROM shift_presets WHERE store_id = ? ORDER BY sort_order, name`, storeID)
	if err != nil {
		return nil, err
	}
	return presets, nil
}

func (q *queries) DeleteShiftPreset(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete shift preset",
		`DELETE FROM shift_presets WHERE id = ?`, id)
}
