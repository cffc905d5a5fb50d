package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const assignmentCols = `id, organization_id, store_id, shift_id, position_id, user_id, work_date,
	status, checklist_snapshot, total_items, completed_items, assigned_by, created_at, updated_at`

// assignmentRow carries the raw snapshot JSON next to the scanned struct.
type assignmentRow struct {
	types.WorkAssignment
	RawSnapshot []byte `db:"checklist_snapshot"`
}

func (r *assignmentRow) toAssignment() (*types.WorkAssignment, error) {
	a := r.WorkAssignment
	snap, err := scanSnapshot(r.RawSnapshot)
	if err != nil {
		return nil, err
	}
	a.Snapshot = snap
	return &a, nil
}

func (q *queries) CreateWorkAssignment(ctx context.Context, a *types.WorkAssignment) error {
	snap, err := snapshotValue(a.Snapshot)
	if err != nil {
		return err
	}
	return q.exec(ctx, "failed to insert work assignment",
		`INSERT INTO work_assignments (`+assignmentCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.StoreID, a.ShiftID, a.PositionID, a.UserID,
		types.DateOnly(a.WorkDate), a.Status, snap, a.TotalItems, a.CompletedItems,
		a.AssignedBy, a.CreatedAt, a.UpdatedAt)
}

func (q *queries) GetWorkAssignment(ctx context.Context, id uuid.UUID) (*types.WorkAssignment, error) {
	var row assignmentRow
	err := q.get(ctx, &row, "failed to get work assignment",
		`SELECT `+assignmentCols+` FROM work_assignments WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.toAssignment()
}

func (q *queries) ListWorkAssignments(ctx context.Context, f storage.AssignmentFilter) ([]*types.WorkAssignment, int, error) {
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
	if f.WorkDate != nil {
		where = append(where, "work_date = ?")
		args = append(args, types.DateOnly(*f.WorkDate))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := q.get(ctx, &total, "failed to count work assignments",
		`SELECT COUNT(*) FROM work_assignments WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var rows []*assignmentRow
	err = q.list(ctx, &rows, "failed to list work assignments",
		`SELECT `+assignmentCols+` FROM work_assignments WHERE `+cond+`
		 ORDER BY work_date DESC, created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*types.WorkAssignment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toAssignment()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, nil
}

// UpdateAssignmentProgress writes a recomputed snapshot projection and
// counters. Counts are always recounted by the caller from completion
// rows, never incremented in place.
func (q *queries) UpdateAssignmentProgress(ctx context.Context, id uuid.UUID, snap *types.ChecklistSnapshot, completed int, status types.AssignmentStatus) error {
	raw, err := snapshotValue(snap)
	if err != nil {
		return err
	}
	return q.execAffecting(ctx, "failed to update assignment progress",
		`UPDATE work_assignments SET checklist_snapshot = ?, completed_items = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		raw, completed, status, time.Now().UTC(), id)
}

func (q *queries) UpdateAssignmentUser(ctx context.Context, id, userID uuid.UUID) error {
	return q.execAffecting(ctx, "failed to update assignment user",
		`UPDATE work_assignments SET user_id = ?, updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id)
}

func (q *queries) DeleteWorkAssignment(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete work assignment",
		`DELETE FROM work_assignments WHERE id = ?`, id)
}

// ListRecentAssignmentUsers returns each (shift, position, user) combo
// assigned in the store since the cutoff with its most recent work date,
// newest first. Grouping happens here rather than in SQL because an
// aggregate over a date column scans differently across the two drivers.
// A combo whose latest date equals excludeDate is dropped, so a roster
// screen does not suggest the day it is currently editing.
func (q *queries) ListRecentAssignmentUsers(ctx context.Context, orgID, storeID uuid.UUID, since time.Time, excludeDate *time.Time) ([]*storage.RecentAssignmentUser, error) {
	var rows []struct {
		ShiftID    uuid.UUID `db:"shift_id"`
		PositionID uuid.UUID `db:"position_id"`
		UserID     uuid.UUID `db:"user_id"`
		WorkDate   time.Time `db:"work_date"`
	}
	err := q.list(ctx, &rows, "failed to list recent assignment users",
		`SELECT shift_id, position_id, user_id, work_date FROM work_assignments
		 WHERE organization_id = ? AND store_id = ? AND work_date >= ?
		 ORDER BY work_date DESC, created_at DESC`,
		orgID, storeID, types.DateOnly(since))
	if err != nil {
		return nil, err
	}

	type combo struct{ shift, pos, user uuid.UUID }
	seen := make(map[combo]bool, len(rows))
	out := make([]*storage.RecentAssignmentUser, 0, len(rows))
	for _, r := range rows {
		key := combo{r.ShiftID, r.PositionID, r.UserID}
		if seen[key] {
			continue
		}
		seen[key] = true
		if excludeDate != nil && r.WorkDate.Equal(types.DateOnly(*excludeDate)) {
			continue
		}
		out = append(out, &storage.RecentAssignmentUser{
			ShiftID:      r.ShiftID,
			PositionID:   r.PositionID,
			UserID:       r.UserID,
			LastWorkDate: r.WorkDate,
		})
	}
	return out, nil
}
