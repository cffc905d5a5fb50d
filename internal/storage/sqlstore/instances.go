package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const instanceCols = `id, organization_id, template_id, work_assignment_id, store_id, user_id,
	work_date, snapshot, total_items, completed_items, status, created_at, updated_at`

type instanceRow struct {
	types.ChecklistInstance
	RawSnapshot []byte `db:"snapshot"`
}

func (r *instanceRow) toInstance() (*types.ChecklistInstance, error) {
	ci := r.ChecklistInstance
	snap, err := scanSnapshot(r.RawSnapshot)
	if err != nil {
		return nil, err
	}
	ci.Snapshot = snap
	return &ci, nil
}

func (q *queries) CreateChecklistInstance(ctx context.Context, ci *types.ChecklistInstance) error {
	snap, err := snapshotValue(ci.Snapshot)
	if err != nil {
		return err
	}
	return q.exec(ctx, "failed to insert checklist instance",
		`INSERT INTO checklist_instances (`+instanceCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ci.ID, ci.OrganizationID, ci.TemplateID, ci.WorkAssignmentID, ci.StoreID, ci.UserID,
		types.DateOnly(ci.WorkDate), snap, ci.TotalItems, ci.CompletedItems, ci.Status,
		ci.CreatedAt, ci.UpdatedAt)
}

func (q *queries) GetChecklistInstance(ctx context.Context, id uuid.UUID) (*types.ChecklistInstance, error) {
	var row instanceRow
	err := q.get(ctx, &row, "failed to get checklist instance",
		`SELECT `+instanceCols+` FROM checklist_instances WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.toInstance()
}

func (q *queries) GetInstanceByAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.ChecklistInstance, error) {
	var row instanceRow
	err := q.get(ctx, &row, "failed to get instance by assignment",
		`SELECT `+instanceCols+` FROM checklist_instances WHERE work_assignment_id = ?`, assignmentID)
	if err != nil {
		return nil, err
	}
	return row.toInstance()
}

func (q *queries) ListChecklistInstances(ctx context.Context, f storage.InstanceFilter) ([]*types.ChecklistInstance, int, error) {
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
	err := q.get(ctx, &total, "failed to count checklist instances",
		`SELECT COUNT(*) FROM checklist_instances WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var rows []*instanceRow
	err = q.list(ctx, &rows, "failed to list checklist instances",
		`SELECT `+instanceCols+` FROM checklist_instances WHERE `+cond+`
		 ORDER BY work_date DESC, created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*types.ChecklistInstance, 0, len(rows))
	for _, row := range rows {
		ci, err := row.toInstance()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ci)
	}
	return out, total, nil
}

func (q *queries) UpdateInstanceProgress(ctx context.Context, id uuid.UUID, completed int, status types.InstanceStatus) error {
	return q.execAffecting(ctx, "failed to update instance progress",
		`UPDATE checklist_instances SET completed_items = ?, status = ?, updated_at = ? WHERE id = ?`,
		completed, status, time.Now().UTC(), id)
}

func (q *queries) UpdateInstanceUser(ctx context.Context, id, userID uuid.UUID) error {
	return q.execAffecting(ctx, "failed to update instance user",
		`UPDATE checklist_instances SET user_id = ?, updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id)
}

const completionCols = `id, instance_id, item_index, user_id, completed_at, completed_timezone,
	photo_url, note, location`

type completionRow struct {
	types.ChecklistCompletion
	RawLocation []byte `db:"location"`
}

func (r *completionRow) toCompletion() (*types.ChecklistCompletion, error) {
	c := r.ChecklistCompletion
	loc, err := scanLocation(r.RawLocation)
	if err != nil {
		return nil, err
	}
	c.Location = loc
	return &c, nil
}

// UpsertCompletion records a completion fact. Re-completing the same item
// replaces the evidence rather than erroring, which makes the operation
// idempotent for retrying clients.
func (q *queries) UpsertCompletion(ctx context.Context, c *types.ChecklistCompletion) error {
	loc, err := locationValue(c.Location)
	if err != nil {
		return err
	}
	return q.exec(ctx, "failed to upsert completion",
		`INSERT INTO checklist_completions (`+completionCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (instance_id, item_index) DO UPDATE SET
			user_id = excluded.user_id,
			completed_at = excluded.completed_at,
			completed_timezone = excluded.completed_timezone,
			photo_url = excluded.photo_url,
			note = excluded.note,
			location = excluded.location`,
		c.ID, c.InstanceID, c.ItemIndex, c.UserID, c.CompletedAt, c.CompletedTimezone,
		c.PhotoURL, c.Note, loc)
}

// DeleteCompletion removes a completion fact, returning ErrNotFound when
// the item was not completed.
func (q *queries) DeleteCompletion(ctx context.Context, instanceID uuid.UUID, itemIndex int) error {
	return q.execAffecting(ctx, "failed to delete completion",
		`DELETE FROM checklist_completions WHERE instance_id = ? AND item_index = ?`,
		instanceID, itemIndex)
}

func (q *queries) ListCompletions(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistCompletion, error) {
	var rows []*completionRow
	err := q.list(ctx, &rows, "failed to list completions",
		`SELECT `+completionCols+` FROM checklist_completions
		 WHERE instance_id = ? ORDER BY item_index`, instanceID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.ChecklistCompletion, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCompletion()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CountCompletions is the authoritative progress count for an instance.
func (q *queries) CountCompletions(ctx context.Context, instanceID uuid.UUID) (int, error) {
	var n int
	err := q.get(ctx, &n, "failed to count completions",
		`SELECT COUNT(*) FROM checklist_completions WHERE instance_id = ?`, instanceID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

type completionLogRow struct {
	completionRow
	InstanceID uuid.UUID `db:"instance_id"`
	StoreID    uuid.UUID `db:"store_id"`
	WorkDate   time.Time `db:"work_date"`
	UserName   string    `db:"user_name"`
}

// ListRecentCompletions returns the org-wide completion feed, newest
// first, with store/date/worker context joined in.
func (q *queries) ListRecentCompletions(ctx context.Context, orgID uuid.UUID, page storage.Page) ([]*storage.CompletionLogEntry, int, error) {
	var total int
	err := q.get(ctx, &total, "failed to count recent completions",
		`SELECT COUNT(*) FROM checklist_completions c
		 JOIN checklist_instances ci ON ci.id = c.instance_id
		 WHERE ci.organization_id = ?`, orgID)
	if err != nil {
		return nil, 0, err
	}

	p := page.Normalize()
	var rows []*completionLogRow
	err = q.list(ctx, &rows, "failed to list recent completions",
		`SELECT c.id, c.instance_id, c.item_index, c.user_id, c.completed_at, c.completed_timezone,
			c.photo_url, c.note, c.location, ci.store_id, ci.work_date, u.full_name AS user_name
		 FROM checklist_completions c
		 JOIN checklist_instances ci ON ci.id = c.instance_id
		 JOIN users u ON u.id = c.user_id
		 WHERE ci.organization_id = ?
		 ORDER BY c.completed_at DESC LIMIT ? OFFSET ?`,
		orgID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}

	out := make([]*storage.CompletionLogEntry, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCompletion()
		if err != nil {
			return nil, 0, err
		}
		// The outer InstanceID column shadows the embedded struct's field
		// during scanning, so copy it back in.
		c.InstanceID = row.InstanceID
		out = append(out, &storage.CompletionLogEntry{
			Completion: c,
			InstanceID: row.InstanceID,
			StoreID:    row.StoreID,
			WorkDate:   row.WorkDate,
			UserName:   row.UserName,
		})
	}

	q.fillItemTitles(ctx, out)
	return out, total, nil
}

// fillItemTitles resolves item titles from instance snapshots. The feed
// tolerates gaps; a missing snapshot just leaves the title empty.
func (q *queries) fillItemTitles(ctx context.Context, entries []*storage.CompletionLogEntry) {
	snapshots := make(map[uuid.UUID]*types.ChecklistSnapshot)
	for _, e := range entries {
		if _, ok := snapshots[e.InstanceID]; ok {
			continue
		}
		var raw []byte
		err := q.get(ctx, &raw, "failed to load snapshot",
			`SELECT snapshot FROM checklist_instances WHERE id = ?`, e.InstanceID)
		if err != nil {
			snapshots[e.InstanceID] = nil
			continue
		}
		snap, err := scanSnapshot(raw)
		if err != nil {
			snapshots[e.InstanceID] = nil
			continue
		}
		snapshots[e.InstanceID] = snap
	}
	for _, e := range entries {
		snap := snapshots[e.InstanceID]
		if snap == nil {
			continue
		}
		idx := e.Completion.ItemIndex
		if idx >= 0 && idx < len(snap.Items) {
			e.ItemTitle = snap.Items[idx].Title
		}
	}
}

const reviewCols = `id, instance_id, item_index, reviewer_id, result, comment, photo_url,
	created_at, updated_at`

// UpsertItemReview creates or replaces the verdict for an (instance,
// item) pair. The review lifecycle is independent of completion state.
func (q *queries) UpsertItemReview(ctx context.Context, r *types.ChecklistItemReview) error {
	return q.exec(ctx, "failed to upsert item review",
		`INSERT INTO checklist_item_reviews (`+reviewCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (instance_id, item_index) DO UPDATE SET
			reviewer_id = excluded.reviewer_id,
			result = excluded.result,
			comment = excluded.comment,
			photo_url = excluded.photo_url,
			updated_at = excluded.updated_at`,
		r.ID, r.InstanceID, r.ItemIndex, r.ReviewerID, r.Result, r.Comment, r.PhotoURL,
		r.CreatedAt, r.UpdatedAt)
}

func (q *queries) DeleteItemReview(ctx context.Context, instanceID uuid.UUID, itemIndex int) error {
	return q.execAffecting(ctx, "failed to delete item review",
		`DELETE FROM checklist_item_reviews WHERE instance_id = ? AND item_index = ?`,
		instanceID, itemIndex)
}

func (q *queries) ListItemReviews(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistItemReview, error) {
	var reviews []*types.ChecklistItemReview
	err := q.list(ctx, &reviews, "failed to list item reviews",
		`SELECT `+reviewCols+` FROM checklist_item_reviews
		 WHERE instance_id = ? ORDER BY item_index`, instanceID)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (q *queries) AddInstanceComment(ctx context.Context, c *types.ChecklistComment) error {
	return q.exec(ctx, "failed to insert instance comment",
		`INSERT INTO checklist_comments (id, instance_id, user_id, body, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.InstanceID, c.UserID, c.Body, c.CreatedAt)
}

func (q *queries) ListInstanceComments(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistComment, error) {
	var comments []*types.ChecklistComment
	err := q.list(ctx, &comments, "failed to list instance comments",
		`SELECT id, instance_id, user_id, body, created_at FROM checklist_comments
		 WHERE instance_id = ? ORDER BY created_at`, instanceID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}
