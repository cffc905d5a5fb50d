package checklist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// env is a seeded org hierarchy plus one assignment/instance pair with a
// two-item snapshot: item 0 needs no evidence, item 1 needs photo+note.
type env struct {
	store    *sqlstore.Store
	org      *types.Organization
	loc      *types.Store
	shift    *types.Shift
	pos      *types.Position
	worker   *types.User
	instance *types.ChecklistInstance
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	e := &env{store: s}

	e.org = &types.Organization{ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, e.org))

	e.loc = &types.Store{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Downtown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateStore(ctx, e.loc))

	e.shift = &types.Shift{ID: uuid.New(), StoreID: e.loc.ID, Name: "Open", CreatedAt: now}
	require.NoError(t, s.CreateShift(ctx, e.shift))

	e.pos = &types.Position{ID: uuid.New(), StoreID: e.loc.ID, Name: "Kitchen", CreatedAt: now}
	require.NoError(t, s.CreatePosition(ctx, e.pos))

	role := &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Staff", Level: types.LevelStaff, CreatedAt: now}
	require.NoError(t, s.CreateRole(ctx, role))

	e.worker = e.addUser(t, "worker1")
	e.instance = e.addInstance(t, e.worker.ID)
	return e
}

func (e *env) addUser(t *testing.T, username string) *types.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	roles, err := e.store.ListRoles(ctx, e.org.ID)
	require.NoError(t, err)
	u := &types.User{
		ID: uuid.New(), OrganizationID: e.org.ID, RoleID: roles[0].ID,
		Username: username, FullName: "User " + username, PasswordHash: "x",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateUser(ctx, u))
	return u
}

// addInstance seeds an assignment and its instance sharing a fresh
// two-item snapshot for the given worker.
func (e *env) addInstance(t *testing.T, workerID uuid.UUID) *types.ChecklistInstance {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	workDate := types.DateOnly(now)

	snap := &types.ChecklistSnapshot{
		TemplateName: "Opening checklist",
		SnapshotAt:   now,
		Items: []types.SnapshotItem{
			{ItemIndex: 0, TemplateItemID: uuid.New(), Title: "Unlock doors", VerificationType: types.VerifyNone, SortOrder: 0},
			{ItemIndex: 1, TemplateItemID: uuid.New(), Title: "Fryer temperature", VerificationType: types.VerificationType("photo,text"), SortOrder: 1},
		},
	}

	asg := &types.WorkAssignment{
		ID: uuid.New(), OrganizationID: e.org.ID, StoreID: e.loc.ID,
		ShiftID: e.shift.ID, PositionID: e.pos.ID, UserID: workerID,
		WorkDate: workDate, Status: types.AssignmentAssigned,
		Snapshot: snap, TotalItems: snap.TotalItems(),
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateWorkAssignment(ctx, asg))

	inst := &types.ChecklistInstance{
		ID: uuid.New(), OrganizationID: e.org.ID, WorkAssignmentID: asg.ID,
		StoreID: e.loc.ID, UserID: workerID, WorkDate: workDate,
		Snapshot: snap, TotalItems: snap.TotalItems(), Status: types.InstancePending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateChecklistInstance(ctx, inst))
	return inst
}

func TestCompleteItemRecordsEvidence(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	inst, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 1, e.worker.ID, Evidence{
		PhotoURL: "https://cdn.example.com/fryer.jpg",
		Note:     "178 degrees",
		Location: &types.Location{Lat: 37.56, Lng: 126.97},
	})
	require.NoError(t, err)
	require.Equal(t, 1, inst.CompletedItems)
	require.Equal(t, types.InstanceInProgress, inst.Status)

	comps, err := e.store.ListCompletions(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	require.Equal(t, 1, comps[0].ItemIndex)
	require.Equal(t, e.worker.ID, comps[0].UserID)
	require.Equal(t, "America/Los_Angeles", comps[0].CompletedTimezone)
	require.Equal(t, "178 degrees", comps[0].Note)
	require.NotNil(t, comps[0].Location)
	require.InDelta(t, 37.56, comps[0].Location.Lat, 0.0001)

	asg, err := e.store.GetWorkAssignment(ctx, inst.WorkAssignmentID)
	require.NoError(t, err)
	require.Equal(t, 1, asg.CompletedItems)
	require.Equal(t, types.AssignmentInProgress, asg.Status)
	require.True(t, asg.Snapshot.Items[1].IsCompleted)
	require.NotNil(t, asg.Snapshot.Items[1].CompletedAt)
	require.False(t, asg.Snapshot.Items[0].IsCompleted)
}

func TestCompleteItemIsIdempotent(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{Note: "first"})
	require.NoError(t, err)
	inst, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{Note: "second"})
	require.NoError(t, err)

	require.Equal(t, 1, inst.CompletedItems)
	comps, err := e.store.ListCompletions(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	require.Equal(t, "second", comps[0].Note)
}

func TestCompleteItemGuards(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.CompleteItem(ctx, e.org.ID, uuid.New(), 0, e.worker.ID, Evidence{})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.CompleteItem(ctx, uuid.New(), e.instance.ID, 0, e.worker.ID, Evidence{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	other := e.addUser(t, "worker2")
	_, err = svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, other.ID, Evidence{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 9, e.worker.ID, Evidence{})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 1, e.worker.ID, Evidence{Note: "no photo"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 1, e.worker.ID, Evidence{PhotoURL: "https://x/p.jpg"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	inst, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{Timezone: "Mars/Olympus"})
	require.NoError(t, err)

	comps, err := e.store.ListCompletions(ctx, inst.ID)
	require.NoError(t, err)
	require.Equal(t, "America/Los_Angeles", comps[0].CompletedTimezone)
}

func TestUncompleteItemDeletesRow(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{})
	require.NoError(t, err)

	inst, err := svc.UncompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID)
	require.NoError(t, err)
	require.Equal(t, 0, inst.CompletedItems)
	require.Equal(t, types.InstancePending, inst.Status)

	asg, err := e.store.GetWorkAssignment(ctx, inst.WorkAssignmentID)
	require.NoError(t, err)
	require.Equal(t, 0, asg.CompletedItems)
	require.Equal(t, types.AssignmentAssigned, asg.Status)
	require.False(t, asg.Snapshot.Items[0].IsCompleted)
	require.Nil(t, asg.Snapshot.Items[0].CompletedAt)

	_, err = svc.UncompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompletingEveryItemFinishesBothRows(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{})
	require.NoError(t, err)
	inst, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 1, e.worker.ID, Evidence{
		PhotoURL: "https://x/p.jpg", Note: "done",
	})
	require.NoError(t, err)
	require.Equal(t, types.InstanceCompleted, inst.Status)

	asg, err := e.store.GetWorkAssignment(ctx, inst.WorkAssignmentID)
	require.NoError(t, err)
	require.Equal(t, types.AssignmentCompleted, asg.Status)
	require.Equal(t, 2, asg.CompletedItems)
}

func TestWallClockProjection(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	// 23:30 UTC is already past midnight in Seoul.
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	inst, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{Timezone: "Asia/Seoul"})
	require.NoError(t, err)

	comps, err := e.store.ListCompletions(ctx, inst.ID)
	require.NoError(t, err)
	require.Equal(t, "Asia/Seoul", comps[0].CompletedTimezone)
	require.True(t, comps[0].CompletedAt.Equal(time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)))

	asg, err := e.store.GetWorkAssignment(ctx, inst.WorkAssignmentID)
	require.NoError(t, err)
	item := asg.Snapshot.Items[0]
	require.NotNil(t, item.CompletedAt)
	require.Equal(t, "2026-03-02T08:30", *item.CompletedAt)
	require.NotNil(t, item.CompletedTz)
	require.Equal(t, "KST", *item.CompletedTz)
}

func TestDetailMergesRows(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.CompleteItem(ctx, e.org.ID, e.instance.ID, 0, e.worker.ID, Evidence{Note: "open"})
	require.NoError(t, err)

	manager := e.addUser(t, "manager1")
	_, err = svc.ReviewItem(ctx, e.org.ID, e.instance.ID, 1, manager.ID, types.ReviewFail, "not started", "")
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, e.org.ID, e.instance.ID, manager.ID, "check the fryer before lunch")
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, e.org.ID, e.instance.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)

	require.NotNil(t, detail.Items[0].Completion)
	require.Equal(t, "open", detail.Items[0].Completion.Note)
	require.Nil(t, detail.Items[0].Review)

	require.Nil(t, detail.Items[1].Completion)
	require.NotNil(t, detail.Items[1].Review)
	require.Equal(t, types.ReviewFail, detail.Items[1].Review.Result)

	require.Len(t, detail.Comments, 1)
	require.Equal(t, "check the fryer before lunch", detail.Comments[0].Body)

	_, err = svc.Detail(ctx, uuid.New(), e.instance.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestReviewItemReplacesVerdict(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()
	manager := e.addUser(t, "manager1")

	_, err := svc.ReviewItem(ctx, e.org.ID, e.instance.ID, 0, manager.ID, types.ReviewPass, "", "")
	require.NoError(t, err)
	rev, err := svc.ReviewItem(ctx, e.org.ID, e.instance.ID, 0, manager.ID, types.ReviewCaution, "re-check at close", "")
	require.NoError(t, err)
	require.Equal(t, types.ReviewCaution, rev.Result)

	reviews, err := e.store.ListItemReviews(ctx, e.instance.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.Equal(t, types.ReviewCaution, reviews[0].Result)

	_, err = svc.ReviewItem(ctx, e.org.ID, e.instance.ID, 0, manager.ID, types.ReviewResult("maybe"), "", "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.ReviewItem(ctx, e.org.ID, e.instance.ID, 7, manager.ID, types.ReviewPass, "", "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	require.NoError(t, svc.UnreviewItem(ctx, e.org.ID, e.instance.ID, 0))
	err = svc.UnreviewItem(ctx, e.org.ID, e.instance.ID, 0)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddCommentRequiresBody(t *testing.T) {
	e := newEnv(t)
	svc := NewService(e.store)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, e.org.ID, e.instance.ID, e.worker.ID, "   ")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	c, err := svc.AddComment(ctx, e.org.ID, e.instance.ID, e.worker.ID, "  trimmed  ")
	require.NoError(t, err)
	require.Equal(t, "trimmed", c.Body)
}
