package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func TestAnnouncementTargeting(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	orgWide := &types.Announcement{
		ID: uuid.New(), OrganizationID: f.org.ID, Title: "All hands",
		Content: "Company picnic Friday", CreatedBy: f.user.ID,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateAnnouncement(ctx, orgWide); err != nil {
		t.Fatalf("CreateAnnouncement failed: %v", err)
	}

	storeOnly := &types.Announcement{
		ID: uuid.New(), OrganizationID: f.org.ID, StoreID: &f.store.ID,
		Title: "Downtown only", Content: "New fridge arrives Monday",
		CreatedBy: f.user.ID, CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
	}
	if err := s.CreateAnnouncement(ctx, storeOnly); err != nil {
		t.Fatalf("CreateAnnouncement for store failed: %v", err)
	}

	otherStore := &types.Store{
		ID: uuid.New(), OrganizationID: f.org.ID, Name: "Uptown",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateStore(ctx, otherStore); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	// Members of the targeted store see both; other stores see only the
	// org-wide one.
	list, total, err := s.ListAnnouncements(ctx, f.org.ID, &f.store.ID, storage.Page{})
	if err != nil {
		t.Fatalf("ListAnnouncements failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("Expected 2 announcements for downtown, got %d", total)
	}

	list, total, err = s.ListAnnouncements(ctx, f.org.ID, &otherStore.ID, storage.Page{})
	if err != nil {
		t.Fatalf("ListAnnouncements for uptown failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Title != "All hands" {
		t.Errorf("Expected only the org-wide announcement, got %+v", list)
	}

	orgWide.Content = "Picnic moved to Saturday"
	orgWide.UpdatedAt = now.Add(2 * time.Second)
	if err := s.UpdateAnnouncement(ctx, orgWide); err != nil {
		t.Fatalf("UpdateAnnouncement failed: %v", err)
	}
	got, err := s.GetAnnouncement(ctx, orgWide.ID)
	if err != nil {
		t.Fatalf("GetAnnouncement failed: %v", err)
	}
	if got.Content != "Picnic moved to Saturday" {
		t.Errorf("Expected updated content, got %q", got.Content)
	}

	if err := s.DeleteAnnouncement(ctx, storeOnly.ID); err != nil {
		t.Fatalf("DeleteAnnouncement failed: %v", err)
	}
	if _, err := s.GetAnnouncement(ctx, storeOnly.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskAssigneeFilter(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	worker2 := f.addUser(t, s, "worker2")
	due := now.AddDate(0, 0, 3)
	task := &types.AdditionalTask{
		ID: uuid.New(), OrganizationID: f.org.ID, StoreID: &f.store.ID,
		Title: "Deep clean walk-in", Priority: types.PriorityUrgent,
		Status: types.TaskPending, DueDate: &due, CreatedBy: f.user.ID,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := s.SetTaskAssignees(ctx, task.ID, []uuid.UUID{f.user.ID, worker2.ID}); err != nil {
		t.Fatalf("SetTaskAssignees failed: %v", err)
	}

	unassigned := &types.AdditionalTask{
		ID: uuid.New(), OrganizationID: f.org.ID, Title: "Order napkins",
		Priority: types.PriorityNormal, Status: types.TaskPending,
		CreatedBy: f.user.ID, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateTask(ctx, unassigned); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	all, total, err := s.ListTasks(ctx, storage.TaskFilter{OrgID: f.org.ID})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("Expected 2 tasks, got %d", total)
	}

	pending, total, err := s.ListTasks(ctx, storage.TaskFilter{OrgID: f.org.ID, Status: types.TaskPending})
	if err != nil {
		t.Fatalf("ListTasks by status failed: %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Errorf("Expected 2 pending tasks, got %d", total)
	}
	if _, total, err = s.ListTasks(ctx, storage.TaskFilter{OrgID: f.org.ID, Status: types.TaskCompleted}); err != nil || total != 0 {
		t.Errorf("Expected no completed tasks, got total=%d err=%v", total, err)
	}

	mine, total, err := s.ListTasks(ctx, storage.TaskFilter{OrgID: f.org.ID, Assignee: &worker2.ID})
	if err != nil {
		t.Fatalf("ListTasks by assignee failed: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].ID != task.ID {
		t.Fatalf("Expected only the assigned task, got %+v", mine)
	}
	if len(mine[0].Assignees) != 2 {
		t.Errorf("Expected assignees loaded, got %v", mine[0].Assignees)
	}

	// Replacing the assignee set drops the removed user.
	if err := s.SetTaskAssignees(ctx, task.ID, []uuid.UUID{f.user.ID}); err != nil {
		t.Fatalf("SetTaskAssignees replace failed: %v", err)
	}
	ids, err := s.ListTaskAssignees(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListTaskAssignees failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.user.ID {
		t.Errorf("Expected only worker1 after replace, got %v", ids)
	}
	if _, total, err = s.ListTasks(ctx, storage.TaskFilter{OrgID: f.org.ID, Assignee: &worker2.ID}); err != nil || total != 0 {
		t.Errorf("Expected no tasks for removed assignee, got total=%d err=%v", total, err)
	}
}

func TestTaskStatusUpdate(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	task := &types.AdditionalTask{
		ID: uuid.New(), OrganizationID: f.org.ID, Title: "Inventory count",
		Priority: types.PriorityNormal, Status: types.TaskPending,
		CreatedBy: f.user.ID, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	task.Status = types.TaskCompleted
	task.UpdatedAt = now.Add(time.Second)
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != types.TaskCompleted {
		t.Errorf("Expected completed, got %s", got.Status)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func seedEvalTemplate(t *testing.T, s *Store, f *fixture) *types.EvalTemplate {
	t.Helper()
	tpl := &types.EvalTemplate{
		ID: uuid.New(), OrganizationID: f.org.ID, Name: "Quarterly review",
		TargetLevel: 4, EvalType: types.EvalRegular, CycleWeeks: 12,
		CreatedAt: testNow(),
		Items: []*types.EvalTemplateItem{
			{ID: uuid.New(), Title: "Punctuality", ItemType: types.EvalItemScore, MaxScore: 5, SortOrder: 0},
			{ID: uuid.New(), Title: "Teamwork", ItemType: types.EvalItemScore, MaxScore: 5, SortOrder: 1},
			{ID: uuid.New(), Title: "Comments", ItemType: types.EvalItemText, SortOrder: 2},
		},
	}
	if err := s.CreateEvalTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("CreateEvalTemplate failed: %v", err)
	}
	return tpl
}

func TestEvalTemplateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	tpl := seedEvalTemplate(t, s, f)
	got, err := s.GetEvalTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetEvalTemplate failed: %v", err)
	}
	if len(got.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(got.Items))
	}
	if got.Items[0].Title != "Punctuality" || got.Items[2].ItemType != types.EvalItemText {
		t.Errorf("Items out of order or wrong: %+v", got.Items)
	}
	if got.CycleWeeks != 12 {
		t.Errorf("Expected cycle of 12 weeks, got %d", got.CycleWeeks)
	}

	list, err := s.ListEvalTemplates(ctx, f.org.ID)
	if err != nil {
		t.Fatalf("ListEvalTemplates failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 template, got %d", len(list))
	}
}

func TestEvaluationResponses(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	tpl := seedEvalTemplate(t, s, f)
	manager := f.addUser(t, s, "manager1")
	e := &types.Evaluation{
		ID: uuid.New(), OrganizationID: f.org.ID, StoreID: &f.store.ID,
		EvaluatorID: manager.ID, EvaluateeID: f.user.ID, TemplateID: &tpl.ID,
		Status: types.EvalDraft, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateEvaluation(ctx, e); err != nil {
		t.Fatalf("CreateEvaluation failed: %v", err)
	}

	score := 4
	draft := []*types.EvalResponse{
		{ID: uuid.New(), EvaluationID: e.ID, ItemID: tpl.Items[0].ID, Score: &score, CreatedAt: now},
	}
	if err := s.SaveEvalResponses(ctx, e.ID, draft); err != nil {
		t.Fatalf("SaveEvalResponses failed: %v", err)
	}

	// Saving again replaces the whole response set.
	five := 5
	full := []*types.EvalResponse{
		{ID: uuid.New(), EvaluationID: e.ID, ItemID: tpl.Items[0].ID, Score: &five, CreatedAt: now},
		{ID: uuid.New(), EvaluationID: e.ID, ItemID: tpl.Items[1].ID, Score: &score, CreatedAt: now},
		{ID: uuid.New(), EvaluationID: e.ID, ItemID: tpl.Items[2].ID, Text: "Reliable closer", CreatedAt: now},
	}
	if err := s.SaveEvalResponses(ctx, e.ID, full); err != nil {
		t.Fatalf("SaveEvalResponses replace failed: %v", err)
	}

	if err := s.UpdateEvaluationStatus(ctx, e.ID, types.EvalSubmitted, now.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateEvaluationStatus failed: %v", err)
	}

	got, err := s.GetEvaluation(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEvaluation failed: %v", err)
	}
	if got.Status != types.EvalSubmitted {
		t.Errorf("Expected submitted, got %s", got.Status)
	}
	if len(got.Responses) != 3 {
		t.Fatalf("Expected 3 responses after replace, got %d", len(got.Responses))
	}
	var text string
	for _, r := range got.Responses {
		if r.ItemID == tpl.Items[0].ID && (r.Score == nil || *r.Score != 5) {
			t.Errorf("Expected replaced score 5, got %v", r.Score)
		}
		if r.ItemID == tpl.Items[2].ID {
			text = r.Text
		}
	}
	if text != "Reliable closer" {
		t.Errorf("Expected text response to round-trip, got %q", text)
	}
}

func TestListEvaluationsFilters(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	manager := f.addUser(t, s, "manager1")
	worker2 := f.addUser(t, s, "worker2")
	for i, evaluatee := range []uuid.UUID{f.user.ID, worker2.ID} {
		e := &types.Evaluation{
			ID: uuid.New(), OrganizationID: f.org.ID,
			EvaluatorID: manager.ID, EvaluateeID: evaluatee,
			Status: types.EvalDraft, CreatedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt: now,
		}
		if err := s.CreateEvaluation(ctx, e); err != nil {
			t.Fatalf("CreateEvaluation failed: %v", err)
		}
	}

	all, total, err := s.ListEvaluations(ctx, storage.EvaluationFilter{OrgID: f.org.ID})
	if err != nil {
		t.Fatalf("ListEvaluations failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("Expected 2 evaluations, got %d", total)
	}

	mine, total, err := s.ListEvaluations(ctx, storage.EvaluationFilter{
		OrgID: f.org.ID, EvaluateeID: &worker2.ID,
	})
	if err != nil {
		t.Fatalf("ListEvaluations by evaluatee failed: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].EvaluateeID != worker2.ID {
		t.Errorf("Expected worker2's evaluation, got %+v", mine)
	}
}

func TestDashboardCounts(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()
	today := types.DateOnly(now)

	// Two assignments today, one of them completed.
	a1 := seedAssignment(t, s, f, today, "Open register")
	a1.Snapshot.Items[0].IsCompleted = true
	if err := s.UpdateAssignmentProgress(ctx, a1.ID, a1.Snapshot, 1, types.AssignmentCompleted); err != nil {
		t.Fatalf("UpdateAssignmentProgress failed: %v", err)
	}
	worker2 := f.addUser(t, s, "worker2")
	a2 := &types.WorkAssignment{
		ID: uuid.New(), OrganizationID: f.org.ID, StoreID: f.store.ID,
		ShiftID: f.shift.ID, PositionID: f.pos.ID, UserID: worker2.ID,
		WorkDate: today, Status: types.AssignmentAssigned,
		AssignedBy: &f.user.ID, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateWorkAssignment(ctx, a2); err != nil {
		t.Fatalf("CreateWorkAssignment failed: %v", err)
	}

	// One pending schedule.
	sched := seedSchedule(t, s, f, worker2.ID, today)
	sched.Status = types.SchedulePending
	sched.UpdatedAt = now
	if err := s.UpdateSchedule(ctx, sched); err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	// One worker on the clock, one on break.
	for i, st := range []types.AttendanceStatus{types.AttendanceClockedIn, types.AttendanceOnBreak} {
		u := f.user.ID
		if i == 1 {
			u = worker2.ID
		}
		att := &types.Attendance{
			ID: uuid.New(), OrganizationID: f.org.ID, StoreID: f.store.ID, UserID: u,
			WorkDate: today, Status: st, CreatedAt: now, UpdatedAt: now,
		}
		if err := s.CreateAttendance(ctx, att); err != nil {
			t.Fatalf("CreateAttendance failed: %v", err)
		}
	}

	// One open task, one completed.
	for _, st := range []types.TaskStatus{types.TaskPending, types.TaskCompleted} {
		task := &types.AdditionalTask{
			ID: uuid.New(), OrganizationID: f.org.ID, Title: "Task " + string(st),
			Priority: types.PriorityNormal, Status: st, CreatedBy: f.user.ID,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := s.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	// Two notifications, one already read.
	for i := 0; i < 2; i++ {
		n := &types.Notification{
			ID: uuid.New(), OrganizationID: f.org.ID, UserID: f.user.ID,
			Type: types.NotifyAnnouncement, Message: "Staff meeting", CreatedAt: now,
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
		if i == 0 {
			if err := s.MarkNotificationRead(ctx, n.ID, f.user.ID); err != nil {
				t.Fatalf("MarkNotificationRead failed: %v", err)
			}
		}
	}

	counts, err := s.DashboardCounts(ctx, f.org.ID, today)
	if err != nil {
		t.Fatalf("DashboardCounts failed: %v", err)
	}
	if counts.Assignments != 2 {
		t.Errorf("Expected 2 assignments, got %d", counts.Assignments)
	}
	if counts.AssignmentsDone != 1 {
		t.Errorf("Expected 1 completed assignment, got %d", counts.AssignmentsDone)
	}
	if counts.PendingSchedules != 1 {
		t.Errorf("Expected 1 pending schedule, got %d", counts.PendingSchedules)
	}
	if counts.PresentWorkers != 1 {
		t.Errorf("Expected 1 present worker, got %d", counts.PresentWorkers)
	}
	if counts.OnBreakWorkers != 1 {
		t.Errorf("Expected 1 on break, got %d", counts.OnBreakWorkers)
	}
	if counts.OpenTasks != 1 {
		t.Errorf("Expected 1 open task, got %d", counts.OpenTasks)
	}
	if counts.UnreadNotices != 1 {
		t.Errorf("Expected 1 unread notification, got %d", counts.UnreadNotices)
	}
}
