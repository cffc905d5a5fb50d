package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const announcementCols = `id, organization_id, store_id, title, content, created_by,
	created_at, updated_at`

func (q *queries) CreateAnnouncement(ctx context.Context, a *types.Announcement) error {
	return q.exec(ctx, "failed to insert announcement",
		`INSERT INTO announcements (`+announcementCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OrganizationID, a.StoreID, a.Title, a.Content, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
}

func (q *queries) GetAnnouncement(ctx context.Context, id uuid.UUID) (*types.Announcement, error) {
	var a types.Announcement
	err := q.get(ctx, &a, "failed to get announcement",
		`SELECT `+announcementCols+` FROM announcements WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnnouncements returns the organization's announcements. A storeID
// narrows the view to org-wide ones plus that store's.
func (q *queries) ListAnnouncements(ctx context.Context, orgID uuid.UUID, storeID *uuid.UUID, page storage.Page) ([]*types.Announcement, int, error) {
	cond := "organization_id = ?"
	args := []interface{}{orgID}
	if storeID != nil {
		cond = "organization_id = ? AND (store_id IS NULL OR store_id = ?)"
		args = append(args, *storeID)
	}

	var total int
	err := q.get(ctx, &total, "failed to count announcements",
		`SELECT COUNT(*) FROM announcements WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := page.Normalize()
	var announcements []*types.Announcement
	err = q.list(ctx, &announcements, "failed to list announcements",
		`SELECT `+announcementCols+` FROM announcements WHERE `+cond+`
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

// ListAnnouncementsForUser returns org-wide announcements plus those
// targeted at any store the user belongs to.
func (q *queries) ListAnnouncementsForUser(ctx context.Context, orgID, userID uuid.UUID, page storage.Page) ([]*types.Announcement, int, error) {
	cond := `organization_id = ? AND (store_id IS NULL OR
		 store_id IN (SELECT store_id FROM user_stores WHERE user_id = ?))`
	args := []interface{}{orgID, userID}

	var total int
	err := q.get(ctx, &total, "failed to count announcements",
		`SELECT COUNT(*) FROM announcements WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := page.Normalize()
	var announcements []*types.Announcement
	err = q.list(ctx, &announcements, "failed to list announcements",
		`SELECT `+announcementCols+` FROM announcements WHERE `+cond+`
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

func (q *queries) UpdateAnnouncement(ctx context.Context, a *types.Announcement) error {
	return q.execAffecting(ctx, "failed to update announcement",
		`UPDATE announcements SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		a.Title, a.Content, a.UpdatedAt, a.ID)
}

func (q *queries) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete announcement",
		`DELETE FROM announcements WHERE id = ?`, id)
}

const taskCols = `id, organization_id, store_id, title, description, priority, status, due_date,
	created_by, created_at, updated_at`

func (q *queries) CreateTask(ctx context.Context, t *types.AdditionalTask) error {
	return q.exec(ctx, "failed to insert task",
		`INSERT INTO additional_tasks (`+taskCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrganizationID, t.StoreID, t.Title, t.Description, t.Priority, t.Status,
		t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
}

func (q *queries) GetTask(ctx context.Context, id uuid.UUID) (*types.AdditionalTask, error) {
	var t types.AdditionalTask
	err := q.get(ctx, &t, "failed to get task",
		`SELECT `+taskCols+` FROM additional_tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	assignees, err := q.ListTaskAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Assignees = assignees
	return &t, nil
}

func (q *queries) ListTasks(ctx context.Context, f storage.TaskFilter) ([]*types.AdditionalTask, int, error) {
	cond := "organization_id = ?"
	args := []interface{}{f.OrgID}
	join := ""
	if f.Assignee != nil {
		join = " JOIN task_assignees ta ON ta.task_id = additional_tasks.id"
		cond += " AND ta.user_id = ?"
		args = append(args, *f.Assignee)
	}
	if f.Status != "" {
		cond += " AND status = ?"
		args = append(args, f.Status)
	}

	var total int
	err := q.get(ctx, &total, "failed to count tasks",
		`SELECT COUNT(*) FROM additional_tasks`+join+` WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var tasks []*types.AdditionalTask
	err = q.list(ctx, &tasks, "failed to list tasks",
		`SELECT `+taskCols+` FROM additional_tasks`+join+` WHERE `+cond+`
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}

	for _, t := range tasks {
		assignees, err := q.ListTaskAssignees(ctx, t.ID)
		if err != nil {
			return nil, 0, err
		}
		t.Assignees = assignees
	}
	return tasks, total, nil
}

func (q *queries) UpdateTask(ctx context.Context, t *types.AdditionalTask) error {
	return q.execAffecting(ctx, "failed to update task",
		`UPDATE additional_tasks SET title = ?, description = ?, priority = ?, status = ?,
		 due_date = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.UpdatedAt, t.ID)
}

func (q *queries) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete task",
		`DELETE FROM additional_tasks WHERE id = ?`, id)
}

// SetTaskAssignees replaces the assignee set wholesale.
func (q *queries) SetTaskAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if err := q.exec(ctx, "failed to clear task assignees",
		`DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := q.exec(ctx, "failed to insert task assignee",
			`INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)
			 ON CONFLICT (task_id, user_id) DO NOTHING`, taskID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) ListTaskAssignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := q.list(ctx, &ids, "failed to list task assignees",
		`SELECT user_id FROM task_assignees WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

const evalTemplateCols = `id, organization_id, name, target_level, eval_type, cycle_weeks, created_at`

func (q *queries) CreateEvalTemplate(ctx context.Context, tpl *types.EvalTemplate) error {
	if err := q.exec(ctx, "failed to insert eval template",
		`INSERT INTO eval_templates (`+evalTemplateCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tpl.ID, tpl.OrganizationID, tpl.Name, tpl.TargetLevel, tpl.EvalType, tpl.CycleWeeks,
		tpl.CreatedAt); err != nil {
		return err
	}
	for _, item := range tpl.Items {
		if err := q.exec(ctx, "failed to insert eval template item",
			`INSERT INTO eval_template_items (id, template_id, title, item_type, max_score, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.TemplateID, item.Title, item.ItemType, item.MaxScore, item.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) GetEvalTemplate(ctx context.Context, id uuid.UUID) (*types.EvalTemplate, error) {
	var tpl types.EvalTemplate
	err := q.get(ctx, &tpl, "failed to get eval template",
		`SELECT `+evalTemplateCols+` FROM eval_templates WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	err = q.list(ctx, &tpl.Items, "failed to list eval template items",
		`SELECT id, template_id, title, item_type, max_score, sort_order
		 FROM eval_template_items WHERE template_id = ? ORDER BY sort_order`, id)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (q *queries) ListEvalTemplates(ctx context.Context, orgID uuid.UUID) ([]*types.EvalTemplate, error) {
	var tpls []*types.EvalTemplate
	err := q.list(ctx, &tpls, "failed to list eval templates",
		`SELECT `+evalTemplateCols+` FROM eval_templates WHERE organization_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	return tpls, nil
}

func (q *queries) UpdateEvalTemplate(ctx context.Context, tpl *types.EvalTemplate) error {
	return q.execAffecting(ctx, "failed to update eval template",
		`UPDATE eval_templates SET name = ?, target_level = ?, eval_type = ?, cycle_weeks = ?
		 WHERE id = ?`,
		tpl.Name, tpl.TargetLevel, tpl.EvalType, tpl.CycleWeeks, tpl.ID)
}

// SetEvalTemplateItems replaces a template's item set wholesale.
func (q *queries) SetEvalTemplateItems(ctx context.Context, templateID uuid.UUID, items []*types.EvalTemplateItem) error {
	if err := q.exec(ctx, "failed to clear eval template items",
		`DELETE FROM eval_template_items WHERE template_id = ?`, templateID); err != nil {
		return err
	}
	for _, item := range items {
		if err := q.exec(ctx, "failed to insert eval template item",
			`INSERT INTO eval_template_items (id, template_id, title, item_type, max_score, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, item.TemplateID, item.Title, item.ItemType, item.MaxScore, item.SortOrder); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) DeleteEvalTemplate(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete eval template",
		`DELETE FROM eval_templates WHERE id = ?`, id)
}

const evaluationCols = `id, organization_id, store_id, evaluator_id, evaluatee_id, template_id,
	status, created_at, updated_at`

func (q *queries) CreateEvaluation(ctx context.Context, e *types.Evaluation) error {
	return q.exec(ctx, "failed to insert evaluation",
		`INSERT INTO evaluations (`+evaluationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizationID, e.StoreID, e.EvaluatorID, e.EvaluateeID, e.TemplateID,
		e.Status, e.CreatedAt, e.UpdatedAt)
}

func (q *queries) GetEvaluation(ctx context.Context, id uuid.UUID) (*types.Evaluation, error) {
	var e types.Evaluation
	err := q.get(ctx, &e, "failed to get evaluation",
		`SELECT `+evaluationCols+` FROM evaluations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	err = q.list(ctx, &e.Responses, "failed to list eval responses",
		`SELECT id, evaluation_id, item_id, score, text_value, created_at
		 FROM eval_responses WHERE evaluation_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (q *queries) ListEvaluations(ctx context.Context, f storage.EvaluationFilter) ([]*types.Evaluation, int, error) {
	where := []string{"organization_id = ?"}
	args := []interface{}{f.OrgID}
	if f.EvaluatorID != nil {
		where = append(where, "evaluator_id = ?")
		args = append(args, *f.EvaluatorID)
	}
	if f.EvaluateeID != nil {
		where = append(where, "evaluatee_id = ?")
		args = append(args, *f.EvaluateeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := q.get(ctx, &total, "failed to count evaluations",
		`SELECT COUNT(*) FROM evaluations WHERE `+cond, args...)
	if err != nil {
		return nil, 0, err
	}

	p := f.Page.Normalize()
	var evals []*types.Evaluation
	err = q.list(ctx, &evals, "failed to list evaluations",
		`SELECT `+evaluationCols+` FROM evaluations WHERE `+cond+`
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, p.PerPage, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return evals, total, nil
}

func (q *queries) UpdateEvaluationStatus(ctx context.Context, id uuid.UUID, status types.EvalStatus, at time.Time) error {
	return q.execAffecting(ctx, "failed to update evaluation status",
		`UPDATE evaluations SET status = ?, updated_at = ? WHERE id = ?`,
		status, at, id)
}

// SaveEvalResponses replaces the response set for an evaluation.
func (q *queries) SaveEvalResponses(ctx context.Context, evalID uuid.UUID, responses []*types.EvalResponse) error {
	if err := q.exec(ctx, "failed to clear eval responses",
		`DELETE FROM eval_responses WHERE evaluation_id = ?`, evalID); err != nil {
		return err
	}
	for _, r := range responses {
		if err := q.exec(ctx, "failed to insert eval response",
			`INSERT INTO eval_responses (id, evaluation_id, item_id, score, text_value, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.EvaluationID, r.ItemID, r.Score, r.Text, r.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// DashboardCounts aggregates the admin landing numbers for one org-day.
func (q *queries) DashboardCounts(ctx context.Context, orgID uuid.UUID, day time.Time) (*storage.DashboardCounts, error) {
	d := types.DateOnly(day)
	counts := &storage.DashboardCounts{}

	type probe struct {
		dest  *int
		op    string
		query string
		args  []interface{}
	}
	probes := []probe{
		{&counts.Assignments, "failed to count assignments",
			`SELECT COUNT(*) FROM work_assignments WHERE organization_id = ? AND work_date = ?`,
			[]interface{}{orgID, d}},
		{&counts.AssignmentsDone, "failed to count completed assignments",
			`SELECT COUNT(*) FROM work_assignments WHERE organization_id = ? AND work_date = ? AND status = ?`,
			[]interface{}{orgID, d, types.AssignmentCompleted}},
		{&counts.AssignmentsActive, "failed to count active assignments",
			`SELECT COUNT(*) FROM work_assignments WHERE organization_id = ? AND work_date = ? AND status = ?`,
			[]interface{}{orgID, d, types.AssignmentInProgress}},
		{&counts.InstancesDone, "failed to count completed instances",
			`SELECT COUNT(*) FROM checklist_instances WHERE organization_id = ? AND work_date = ? AND status = ?`,
			[]interface{}{orgID, d, types.InstanceCompleted}},
		{&counts.PendingSchedules, "failed to count pending schedules",
			`SELECT COUNT(*) FROM schedules WHERE organization_id = ? AND status = ?`,
			[]interface{}{orgID, types.SchedulePending}},
		{&counts.PresentWorkers, "failed to count present workers",
			`SELECT COUNT(*) FROM attendances WHERE organization_id = ? AND work_date = ? AND status = ?`,
			[]interface{}{orgID, d, types.AttendanceClockedIn}},
		{&counts.OnBreakWorkers, "failed to count workers on break",
			`SELECT COUNT(*) FROM attendances WHERE organization_id = ? AND work_date = ? AND status = ?`,
			[]interface{}{orgID, d, types.AttendanceOnBreak}},
		{&counts.OpenTasks, "failed to count open tasks",
			`SELECT COUNT(*) FROM additional_tasks WHERE organization_id = ? AND status != ?`,
			[]interface{}{orgID, types.TaskCompleted}},
		{&counts.UnreadNotices, "failed to count unread notifications",
			`SELECT COUNT(*) FROM notifications WHERE organization_id = ? AND is_read = ?`,
			[]interface{}{orgID, false}},
	}
	for _, p := range probes {
		if err := q.get(ctx, p.dest, p.op, p.query, p.args...); err != nil {
			return nil, err
		}
	}
	return counts, nil
}
