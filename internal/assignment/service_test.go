package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/snapshot"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// monday and tuesday are fixed work dates so recurrence filtering is
// deterministic.
var (
	monday  = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
)

type env struct {
	store   *sqlstore.Store
	svc     *Service
	org     *types.Organization
	loc     *types.Store
	shift   *types.Shift
	pos     *types.Position
	worker  *types.User
	manager *types.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	e := &env{store: s}
	e.svc = NewService(s, snapshot.NewBuilder(s), notify.NewOutbox(), checklist.NewService(s))

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
	e.manager = e.addUser(t, "manager1")

	// One template for the (Open, Kitchen) combo: a daily item plus a
	// Monday-only item.
	tpl := &types.ChecklistTemplate{
		ID: uuid.New(), StoreID: e.loc.ID, ShiftID: e.shift.ID, PositionID: e.pos.ID,
		Title: "Opening checklist", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateChecklistTemplate(ctx, tpl))
	require.NoError(t, s.AddChecklistItem(ctx, &types.ChecklistTemplateItem{
		ID: uuid.New(), TemplateID: tpl.ID, Title: "Unlock doors",
		VerificationType: types.VerifyNone, RecurrenceType: types.RecurDaily,
		SortOrder: 0, CreatedAt: now,
	}))
	require.NoError(t, s.AddChecklistItem(ctx, &types.ChecklistTemplateItem{
		ID: uuid.New(), TemplateID: tpl.ID, Title: "Deep clean",
		VerificationType: types.VerifyNone, RecurrenceType: types.RecurWeekly,
		RecurrenceDays: types.IntList{0}, SortOrder: 1, CreatedAt: now,
	}))
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

func (e *env) slot(userID uuid.UUID, workDate time.Time) CreateInput {
	return CreateInput{
		StoreID:    e.loc.ID,
		ShiftID:    e.shift.ID,
		PositionID: e.pos.ID,
		UserID:     userID,
		WorkDate:   workDate,
	}
}

func TestCreateFreezesSnapshotAndOpensInstance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	asg, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)
	require.Equal(t, types.AssignmentAssigned, asg.Status)
	require.Equal(t, 2, asg.TotalItems)
	require.Equal(t, e.manager.ID, *asg.AssignedBy)

	inst, err := e.store.GetInstanceByAssignment(ctx, asg.ID)
	require.NoError(t, err)
	require.Equal(t, types.InstancePending, inst.Status)
	require.Equal(t, 2, inst.TotalItems)
	require.Equal(t, asg.Snapshot.TemplateID, *inst.TemplateID)

	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.NotifyWorkAssigned, pending[0].Type)
	require.Equal(t, types.UUIDList{e.worker.ID}, pending[0].Recipients)
	require.Equal(t, asg.ID, *pending[0].ReferenceID)

	// On a Tuesday the Monday-only item is not frozen in.
	tue, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, tuesday))
	require.NoError(t, err)
	require.Equal(t, 1, tue.TotalItems)
	require.Equal(t, "Unlock doors", tue.Snapshot.Items[0].Title)
}

func TestCreateGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	in := e.slot(e.worker.ID, monday)
	in.StoreID = uuid.New()
	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.Create(ctx, uuid.New(), e.manager.ID, e.slot(e.worker.ID, monday))
	require.ErrorIs(t, err, apperr.ErrForbidden)

	in = e.slot(uuid.New(), monday)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	in = e.slot(e.worker.ID, monday)
	in.ShiftID = uuid.New()
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	// A combo without a template cannot be assigned.
	bar := &types.Position{ID: uuid.New(), StoreID: e.loc.ID, Name: "Bar", CreatedAt: now}
	require.NoError(t, e.store.CreatePosition(ctx, bar))
	in = e.slot(e.worker.ID, monday)
	in.PositionID = bar.ID
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestCreateDuplicateLeavesNoTrace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.ErrorIs(t, err, apperr.ErrDuplicate)

	_, total, err := e.svc.List(ctx, e.org.ID, storage.AssignmentFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	// The failed transaction must not leak its notification.
	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestBulkCreateIsAtomic(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	worker2 := e.addUser(t, "worker2")

	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)

	// worker2's slot is fine, but the second input collides with the
	// existing row; neither may land.
	_, err = e.svc.BulkCreate(ctx, e.org.ID, e.manager.ID, []CreateInput{
		e.slot(worker2.ID, monday),
		e.slot(e.worker.ID, monday),
	})
	require.ErrorIs(t, err, apperr.ErrDuplicate)

	_, total, err := e.svc.List(ctx, e.org.ID, storage.AssignmentFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	created, err := e.svc.BulkCreate(ctx, e.org.ID, e.manager.ID, []CreateInput{
		e.slot(worker2.ID, monday),
		e.slot(worker2.ID, tuesday),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	_, total, err = e.svc.List(ctx, e.org.ID, storage.AssignmentFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
}

func TestCompleteItemDelegatesToEngine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	asg, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)

	got, err := e.svc.CompleteItem(ctx, e.org.ID, asg.ID, 0, true, e.worker.ID, checklist.Evidence{})
	require.NoError(t, err)
	require.Equal(t, 1, got.CompletedItems)
	require.Equal(t, types.AssignmentInProgress, got.Status)
	require.True(t, got.Snapshot.Items[0].IsCompleted)
	require.NotNil(t, got.Snapshot.Items[0].CompletedAt)

	inst, err := e.store.GetInstanceByAssignment(ctx, asg.ID)
	require.NoError(t, err)
	require.Equal(t, 1, inst.CompletedItems)
	require.Equal(t, types.InstanceInProgress, inst.Status)

	got, err = e.svc.CompleteItem(ctx, e.org.ID, asg.ID, 0, false, e.worker.ID, checklist.Evidence{})
	require.NoError(t, err)
	require.Equal(t, 0, got.CompletedItems)
	require.Equal(t, types.AssignmentAssigned, got.Status)
	require.False(t, got.Snapshot.Items[0].IsCompleted)

	// Reverting an item that holds no completion is an error, on this
	// route exactly as on the instance route.
	_, err = e.svc.CompleteItem(ctx, e.org.ID, asg.ID, 0, false, e.worker.ID, checklist.Evidence{})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.CompleteItem(ctx, e.org.ID, asg.ID, 0, true, e.manager.ID, checklist.Evidence{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.svc.CompleteItem(ctx, e.org.ID, uuid.New(), 0, true, e.worker.ID, checklist.Evidence{})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListScopesAndFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	worker2 := e.addUser(t, "worker2")

	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, tuesday))
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(worker2.ID, monday))
	require.NoError(t, err)

	mine, total, err := e.svc.ListMine(ctx, e.org.ID, e.worker.ID, nil, "")
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, mine, 2)

	day := monday
	onDay, total, err := e.svc.List(ctx, e.org.ID, storage.AssignmentFilter{WorkDate: &day})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, onDay, 2)

	_, total, err = e.svc.List(ctx, uuid.New(), storage.AssignmentFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestDeleteCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	asg, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, monday))
	require.NoError(t, err)
	_, err = e.svc.CompleteItem(ctx, e.org.ID, asg.ID, 0, true, e.worker.ID, checklist.Evidence{})
	require.NoError(t, err)

	err = e.svc.Delete(ctx, uuid.New(), asg.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, e.svc.Delete(ctx, e.org.ID, asg.ID))

	_, err = e.svc.Get(ctx, e.org.ID, asg.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.store.GetInstanceByAssignment(ctx, asg.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = e.svc.Delete(ctx, e.org.ID, asg.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecentUsersSuggestsByCombo(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	worker2 := e.addUser(t, "worker2")
	today := types.DateOnly(time.Now().UTC())

	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(e.worker.ID, today.AddDate(0, 0, -1)))
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, e.slot(worker2.ID, today))
	require.NoError(t, err)

	recent, err := e.svc.RecentUsers(ctx, e.org.ID, e.loc.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, worker2.ID, recent[0].UserID)

	recent, err = e.svc.RecentUsers(ctx, e.org.ID, e.loc.ID, &today, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, e.worker.ID, recent[0].UserID)

	_, err = e.svc.RecentUsers(ctx, e.org.ID, uuid.New(), nil, 0)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
