package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

type env struct {
	store   *sqlstore.Store
	svc     *Service
	org     *types.Organization
	loc     *types.Store
	staff   *types.Role
	gm      *types.Role
	worker  *types.User
	worker2 *types.User
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
	e.svc = NewService(s, notify.NewOutbox())

	e.org = &types.Organization{ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, e.org))

	e.loc = &types.Store{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Downtown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateStore(ctx, e.loc))

	e.staff = &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Staff", Level: types.LevelStaff, CreatedAt: now}
	require.NoError(t, s.CreateRole(ctx, e.staff))
	e.gm = &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: "General Manager", Level: types.LevelGeneralManager, CreatedAt: now}
	require.NoError(t, s.CreateRole(ctx, e.gm))

	e.worker = e.addUser(t, "worker1", e.staff)
	e.worker2 = e.addUser(t, "worker2", e.staff)
	e.manager = e.addUser(t, "manager1", e.gm)
	return e
}

func (e *env) addUser(t *testing.T, username string, role *types.Role) *types.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u := &types.User{
		ID: uuid.New(), OrganizationID: e.org.ID, RoleID: role.ID,
		Username: username, FullName: "User " + username, PasswordHash: "x",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateUser(ctx, u))
	return u
}

func TestCreateAssignsAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	in := Input{
		StoreID:     &e.loc.ID,
		Title:       "Restock bar",
		Description: "Before Friday's rush.",
		Priority:    types.PriorityUrgent,
		Assignees:   []uuid.UUID{e.worker.ID, e.worker2.ID, e.worker.ID},
	}
	tk, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.NoError(t, err)
	require.Equal(t, types.PriorityUrgent, tk.Priority)
	require.Equal(t, types.TaskPending, tk.Status)
	require.Equal(t, e.manager.ID, tk.CreatedBy)
	require.Len(t, tk.Assignees, 2)

	got, err := e.svc.Get(ctx, e.org.ID, tk.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{e.worker.ID, e.worker2.ID}, got.Assignees)

	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.NotifyAdditionalTask, pending[0].Type)
	require.Equal(t, "New additional task: Restock bar", pending[0].Message)
	require.Equal(t, "additional_task", pending[0].ReferenceType)
	require.ElementsMatch(t, []uuid.UUID{e.worker.ID, e.worker2.ID}, []uuid.UUID(pending[0].Recipients))

	// An unassigned task defaults to normal priority and pings nobody.
	solo, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Order napkins"})
	require.NoError(t, err)
	require.Equal(t, types.PriorityNormal, solo.Priority)
	require.Empty(t, solo.Assignees)
	pending, err = e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestCreateRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "   "})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "x", Priority: "asap"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	unknownStore := uuid.New()
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "x", StoreID: &unknownStore})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	stranger := uuid.New()
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "x", Assignees: []uuid.UUID{stranger}})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	// Assigning across organizations is refused before anything persists.
	_, err = e.svc.Create(ctx, uuid.New(), e.manager.ID, Input{Title: "x", Assignees: []uuid.UUID{e.worker.ID}})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, total, err := e.svc.List(ctx, e.org.ID, storage.TaskFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tk, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Restock bar", Assignees: []uuid.UUID{e.worker.ID}})
	require.NoError(t, err)

	title := "Deep clean bar"
	status := types.TaskInProgress
	due := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	got, err := e.svc.Update(ctx, e.org.ID, tk.ID, UpdateInput{Title: &title, Status: &status, DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, title, got.Title)
	require.Equal(t, types.TaskInProgress, got.Status)
	require.True(t, got.DueDate.Equal(due))

	// Handing the task to someone else replaces the set silently.
	newSet := []uuid.UUID{e.worker2.ID}
	got, err = e.svc.Update(ctx, e.org.ID, tk.ID, UpdateInput{Assignees: &newSet})
	require.NoError(t, err)
	require.Equal(t, newSet, got.Assignees)

	got, err = e.svc.Get(ctx, e.org.ID, tk.ID)
	require.NoError(t, err)
	require.Equal(t, newSet, got.Assignees)

	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	bad := types.TaskStatus("done")
	_, err = e.svc.Update(ctx, e.org.ID, tk.ID, UpdateInput{Status: &bad})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Update(ctx, e.org.ID, uuid.New(), UpdateInput{Title: &title})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.svc.Update(ctx, uuid.New(), tk.ID, UpdateInput{Title: &title})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tk, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Restock bar", Assignees: []uuid.UUID{e.worker.ID}})
	require.NoError(t, err)

	require.ErrorIs(t, e.svc.Delete(ctx, uuid.New(), tk.ID), apperr.ErrForbidden)
	require.NoError(t, e.svc.Delete(ctx, e.org.ID, tk.ID))
	_, err = e.svc.Get(ctx, e.org.ID, tk.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, e.svc.Delete(ctx, e.org.ID, tk.ID), apperr.ErrNotFound)
}

func TestCompleteMine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tk, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Restock bar", Assignees: []uuid.UUID{e.worker.ID}})
	require.NoError(t, err)

	// Only an assignee can complete the task.
	_, err = e.svc.CompleteMine(ctx, e.org.ID, tk.ID, e.worker2.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	done, err := e.svc.CompleteMine(ctx, e.org.ID, tk.ID, e.worker.ID)
	require.NoError(t, err)
	require.Equal(t, types.TaskCompleted, done.Status)

	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	var notice *types.OutboxEntry
	for _, p := range pending {
		if p.Type == types.NotifyTaskCompleted {
			notice = p
		}
	}
	require.NotNil(t, notice)
	require.Equal(t, "Additional task completed: Restock bar", notice.Message)
	require.Equal(t, types.UUIDList{e.manager.ID}, notice.Recipients)

	// Completing twice changes nothing and stays quiet.
	done, err = e.svc.CompleteMine(ctx, e.org.ID, tk.ID, e.worker.ID)
	require.NoError(t, err)
	require.Equal(t, types.TaskCompleted, done.Status)
	pending, err = e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	_, err = e.svc.CompleteMine(ctx, e.org.ID, uuid.New(), e.worker.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Count register", Assignees: []uuid.UUID{e.worker.ID}})
	require.NoError(t, err)
	b, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Fix fridge", Priority: types.PriorityUrgent, Assignees: []uuid.UUID{e.worker2.ID}})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{Title: "Order napkins"})
	require.NoError(t, err)

	inProgress := types.TaskInProgress
	_, err = e.svc.Update(ctx, e.org.ID, b.ID, UpdateInput{Status: &inProgress})
	require.NoError(t, err)

	_, total, err := e.svc.List(ctx, e.org.ID, storage.TaskFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	pendingOnly, total, err := e.svc.List(ctx, e.org.ID, storage.TaskFilter{Status: types.TaskPending})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, pendingOnly, 2)

	mine, total, err := e.svc.ListMine(ctx, e.org.ID, e.worker.ID, "", storage.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, a.ID, mine[0].ID)

	started, total, err := e.svc.ListMine(ctx, e.org.ID, e.worker2.ID, types.TaskInProgress, storage.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, b.ID, started[0].ID)

	_, total, err = e.svc.ListMine(ctx, e.org.ID, e.worker2.ID, types.TaskCompleted, storage.Page{})
	require.NoError(t, err)
	require.Zero(t, total)

	_, _, err = e.svc.List(ctx, e.org.ID, storage.TaskFilter{Status: "done"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, total, err = e.svc.List(ctx, uuid.New(), storage.TaskFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}
