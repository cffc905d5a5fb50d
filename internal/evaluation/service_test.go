package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
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
	owner   *types.Role
	gm      *types.Role
	staff   *types.Role
	boss    *types.User
	manager *types.User
	worker  *types.User
	worker2 *types.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	e := &env{store: s}
	e.svc = NewService(s)

	e.org = &types.Organization{ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, e.org))

	e.loc = &types.Store{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Downtown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateStore(ctx, e.loc))

	e.owner = e.addRole(t, "Owner", types.LevelOwner)
	e.gm = e.addRole(t, "General Manager", types.LevelGeneralManager)
	e.staff = e.addRole(t, "Staff", types.LevelStaff)

	e.boss = e.addUser(t, "boss1", e.owner)
	e.manager = e.addUser(t, "manager1", e.gm)
	e.worker = e.addUser(t, "worker1", e.staff)
	e.worker2 = e.addUser(t, "worker2", e.staff)
	return e
}

func (e *env) addRole(t *testing.T, name string, level int) *types.Role {
	t.Helper()
	r := &types.Role{
		ID: uuid.New(), OrganizationID: e.org.ID, Name: name, Level: level,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, e.store.CreateRole(context.Background(), r))
	return r
}

func (e *env) addUser(t *testing.T, username string, role *types.Role) *types.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u := &types.User{
		ID: uuid.New(), OrganizationID: e.org.ID, RoleID: role.ID,
		Username: username, FullName: "User " + username, PasswordHash: "x",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *env) addTemplate(t *testing.T) *types.EvalTemplate {
	t.Helper()
	tpl, err := e.svc.CreateTemplate(context.Background(), e.org.ID, TemplateInput{
		Name:        "Quarterly review",
		TargetLevel: types.LevelStaff,
		Items: []TemplateItemInput{
			{Title: "Punctuality", ItemType: types.EvalItemScore, MaxScore: 10, SortOrder: 1},
			{Title: "Comments", ItemType: types.EvalItemText, SortOrder: 2},
		},
	})
	require.NoError(t, err)
	return tpl
}

func TestTemplateLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tpl, err := e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name: "Shift check-in",
		Items: []TemplateItemInput{
			{Title: "Attitude", SortOrder: 2},
			{Title: "Speed", ItemType: types.EvalItemScore, MaxScore: 3, SortOrder: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, types.EvalAdhoc, tpl.EvalType)
	require.Equal(t, types.LevelStaff, tpl.TargetLevel)

	got, err := e.svc.GetTemplate(ctx, e.org.ID, tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.Equal(t, "Speed", got.Items[0].Title)
	require.Equal(t, 3, got.Items[0].MaxScore)
	require.Equal(t, "Attitude", got.Items[1].Title)
	require.Equal(t, types.EvalItemScore, got.Items[1].ItemType)
	require.Equal(t, 5, got.Items[1].MaxScore)

	all, err := e.svc.ListTemplates(ctx, e.org.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)

	name := "Weekly check-in"
	etype := types.EvalRegular
	weeks := 2
	tpl, err = e.svc.UpdateTemplate(ctx, e.org.ID, tpl.ID, TemplateUpdateInput{
		Name: &name, EvalType: &etype, CycleWeeks: &weeks,
	})
	require.NoError(t, err)
	require.Equal(t, types.EvalRegular, tpl.EvalType)
	require.Equal(t, 2, tpl.CycleWeeks)

	got, err = e.svc.GetTemplate(ctx, e.org.ID, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, "Weekly check-in", got.Name)
	require.Len(t, got.Items, 2)

	replacement := []TemplateItemInput{{Title: "Overall", ItemType: types.EvalItemScore, MaxScore: 100}}
	tpl, err = e.svc.UpdateTemplate(ctx, e.org.ID, tpl.ID, TemplateUpdateInput{Items: &replacement})
	require.NoError(t, err)
	require.Len(t, tpl.Items, 1)
	require.Equal(t, 100, tpl.Items[0].MaxScore)

	got, err = e.svc.GetTemplate(ctx, e.org.ID, tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	_, err = e.svc.GetTemplate(ctx, uuid.New(), tpl.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, e.svc.DeleteTemplate(ctx, e.org.ID, tpl.ID))
	_, err = e.svc.GetTemplate(ctx, e.org.ID, tpl.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	err = e.svc.DeleteTemplate(ctx, e.org.ID, tpl.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTemplateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{Name: ""})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name: "Monthly", EvalType: types.EvalRegular,
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name: "Odd", EvalType: "weekly",
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name:  "Blank item",
		Items: []TemplateItemInput{{Title: ""}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name:  "Bad type",
		Items: []TemplateItemInput{{Title: "Poise", ItemType: "rating"}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.CreateTemplate(ctx, e.org.ID, TemplateInput{
		Name:  "Negative scale",
		Items: []TemplateItemInput{{Title: "Speed", ItemType: types.EvalItemScore, MaxScore: -1}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	name := "Renamed"
	_, err = e.svc.UpdateTemplate(ctx, e.org.ID, uuid.New(), TemplateUpdateInput{Name: &name})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateDirectionRule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tpl := e.addTemplate(t)

	score := 8
	in := Input{
		StoreID:     &e.loc.ID,
		EvaluateeID: e.worker.ID,
		TemplateID:  tpl.ID,
		Responses: []ResponseInput{
			{ItemID: tpl.Items[0].ID, Score: &score},
			{ItemID: tpl.Items[1].ID, Text: "Reliable under pressure."},
		},
	}
	ev, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, in)
	require.NoError(t, err)
	require.Equal(t, types.EvalDraft, ev.Status)
	require.Equal(t, e.manager.ID, ev.EvaluatorID)
	require.NotNil(t, ev.TemplateID)
	require.Equal(t, tpl.ID, *ev.TemplateID)

	got, err := e.svc.Get(ctx, e.org.ID, ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Responses, 2)

	// Upward and sideways are both off limits.
	_, err = e.svc.Create(ctx, e.org.ID, e.worker.ID, Input{EvaluateeID: e.manager.ID, TemplateID: tpl.ID})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = e.svc.Create(ctx, e.org.ID, e.worker.ID, Input{EvaluateeID: e.worker2.ID, TemplateID: tpl.ID})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.svc.Create(ctx, e.org.ID, e.boss.ID, Input{EvaluateeID: e.manager.ID, TemplateID: tpl.ID})
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{EvaluateeID: uuid.New(), TemplateID: tpl.ID})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.Create(ctx, uuid.New(), e.manager.ID, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateValidatesResponses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tpl := e.addTemplate(t)

	tooHigh := 11
	_, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses: []ResponseInput{{ItemID: tpl.Items[0].ID, Score: &tooHigh}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses: []ResponseInput{{ItemID: tpl.Items[0].ID, Text: "eight"}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses: []ResponseInput{{ItemID: tpl.Items[1].ID, Text: ""}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses: []ResponseInput{{ItemID: uuid.New(), Text: "stray"}},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	ok := 5
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses: []ResponseInput{
			{ItemID: tpl.Items[0].ID, Score: &ok},
			{ItemID: tpl.Items[0].ID, Score: &ok},
		},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: uuid.New(),
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	rogue := uuid.New()
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		StoreID: &rogue, EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDraftToSubmitted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tpl := e.addTemplate(t)

	score := 6
	ev, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{
		EvaluateeID: e.worker.ID, TemplateID: tpl.ID,
		Responses:   []ResponseInput{{ItemID: tpl.Items[0].ID, Score: &score}},
	})
	require.NoError(t, err)

	better := 9
	ev, err = e.svc.SaveResponses(ctx, e.org.ID, ev.ID, []ResponseInput{
		{ItemID: tpl.Items[0].ID, Score: &better},
		{ItemID: tpl.Items[1].ID, Text: "Much improved."},
	})
	require.NoError(t, err)
	require.Len(t, ev.Responses, 2)

	got, err := e.svc.Get(ctx, e.org.ID, ev.ID)
	require.NoError(t, err)
	require.Len(t, got.Responses, 2)

	ev, err = e.svc.Submit(ctx, e.org.ID, ev.ID)
	require.NoError(t, err)
	require.Equal(t, types.EvalSubmitted, ev.Status)

	_, err = e.svc.Submit(ctx, e.org.ID, ev.ID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.SaveResponses(ctx, e.org.ID, ev.ID, nil)
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Submit(ctx, e.org.ID, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.svc.Submit(ctx, uuid.New(), ev.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// Deleting the form keeps the assessment, minus the reference.
	require.NoError(t, e.svc.DeleteTemplate(ctx, e.org.ID, tpl.ID))
	got, err = e.svc.Get(ctx, e.org.ID, ev.ID)
	require.NoError(t, err)
	require.Nil(t, got.TemplateID)
	require.Equal(t, types.EvalSubmitted, got.Status)
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tpl := e.addTemplate(t)

	first, err := e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{EvaluateeID: e.worker.ID, TemplateID: tpl.ID})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.manager.ID, Input{EvaluateeID: e.worker2.ID, TemplateID: tpl.ID})
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.org.ID, e.boss.ID, Input{EvaluateeID: e.manager.ID, TemplateID: tpl.ID})
	require.NoError(t, err)

	_, err = e.svc.Submit(ctx, e.org.ID, first.ID)
	require.NoError(t, err)

	_, total, err := e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	_, total, err = e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{Status: types.EvalDraft})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	_, total, err = e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{Status: types.EvalSubmitted})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	_, total, err = e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{EvaluatorID: &e.manager.ID})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	rows, total, err := e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{EvaluateeID: &e.worker.ID})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, e.worker.ID, rows[0].EvaluateeID)

	_, _, err = e.svc.List(ctx, e.org.ID, storage.EvaluationFilter{Status: "reviewed"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, total, err = e.svc.List(ctx, uuid.New(), storage.EvaluationFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, total)
}
