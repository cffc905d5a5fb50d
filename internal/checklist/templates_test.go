package checklist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (e *env) addShift(t *testing.T, name string) *types.Shift {
	t.Helper()
	sh := &types.Shift{ID: uuid.New(), StoreID: e.loc.ID, Name: name, SortOrder: 1, CreatedAt: time.Now().UTC()}
	require.NoError(t, e.store.CreateShift(context.Background(), sh))
	return sh
}

func TestTemplateCreateConflictsOnTriple(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, tpl.ID)

	_, err = svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Another opening checklist",
	})
	require.ErrorIs(t, err, apperr.ErrDuplicate)
}

func TestTemplateUpdateMoveConflicts(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()
	closeShift := e.addShift(t, "Close")

	_, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)
	closing, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: closeShift.ID, PositionID: e.pos.ID, Title: "Closing checklist",
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, e.org.ID, closing.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Closing checklist",
	})
	require.ErrorIs(t, err, apperr.ErrDuplicate)

	got, err := svc.Update(ctx, e.org.ID, closing.ID, TemplateInput{
		ShiftID: closeShift.ID, PositionID: e.pos.ID, Title: "Closing v2",
	})
	require.NoError(t, err)
	require.Equal(t, "Closing v2", got.Title)
}

func TestTemplateRejectsForeignRefs(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	_, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: uuid.New(), PositionID: e.pos.ID, Title: "x",
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	other := &types.Store{
		ID: uuid.New(), OrganizationID: e.org.ID, Name: "Uptown",
		IsActive: true, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.CreateStore(ctx, other))
	foreignShift := &types.Shift{ID: uuid.New(), StoreID: other.ID, Name: "Open", CreatedAt: time.Now().UTC()}
	require.NoError(t, e.store.CreateShift(ctx, foreignShift))

	_, err = svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: foreignShift.ID, PositionID: e.pos.ID, Title: "x",
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.Create(ctx, e.org.ID, uuid.New(), TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "x",
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Create(ctx, uuid.New(), e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "x",
	})
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAddItemsSequencesSortOrder(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)

	first, err := svc.AddItem(ctx, e.org.ID, tpl.ID, ItemInput{Title: "Unlock doors"})
	require.NoError(t, err)
	require.Equal(t, 0, first.SortOrder)
	require.Equal(t, types.VerifyNone, first.VerificationType)
	require.Equal(t, types.RecurDaily, first.RecurrenceType)

	more, err := svc.AddItems(ctx, e.org.ID, tpl.ID, []ItemInput{
		{Title: "Count register", VerificationType: types.VerifyPhoto},
		{Title: "Mop floors", RecurrenceType: types.RecurWeekly, RecurrenceDays: []int{0, 3}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, more[0].SortOrder)
	require.Equal(t, 2, more[1].SortOrder)

	// A bad row anywhere in the batch must keep the whole batch out.
	_, err = svc.AddItems(ctx, e.org.ID, tpl.ID, []ItemInput{
		{Title: "Valid"},
		{Title: "", Description: "missing title"},
	})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	items, err := e.store.ListChecklistItems(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestReorderItems(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)
	items, err := svc.AddItems(ctx, e.org.ID, tpl.ID, []ItemInput{
		{Title: "first"}, {Title: "second"}, {Title: "third"},
	})
	require.NoError(t, err)

	err = svc.ReorderItems(ctx, e.org.ID, tpl.ID, []uuid.UUID{items[0].ID, items[2].ID})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	err = svc.ReorderItems(ctx, e.org.ID, tpl.ID, []uuid.UUID{items[0].ID, items[2].ID, uuid.New()})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	err = svc.ReorderItems(ctx, e.org.ID, tpl.ID, []uuid.UUID{items[2].ID, items[0].ID, items[1].ID})
	require.NoError(t, err)

	got, err := e.store.ListChecklistItems(ctx, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, "third", got[0].Title)
	require.Equal(t, "first", got[1].Title)
	require.Equal(t, "second", got[2].Title)
}

func TestTemplateDeleteCascades(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, e.org.ID, tpl.ID, ItemInput{Title: "Unlock doors"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, e.org.ID, tpl.ID))

	_, err = svc.Get(ctx, e.org.ID, tpl.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	items, err := e.store.ListChecklistItems(ctx, tpl.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestYAMLExportImportRoundTrip(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()
	closeShift := e.addShift(t, "Close")

	opening, err := svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: e.shift.ID, PositionID: e.pos.ID, Title: "Opening checklist",
	})
	require.NoError(t, err)
	_, err = svc.AddItems(ctx, e.org.ID, opening.ID, []ItemInput{
		{Title: "Unlock doors"},
		{Title: "Deep clean", RecurrenceType: types.RecurWeekly, RecurrenceDays: []int{0, 4}, VerificationType: types.VerifyPhoto},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, e.org.ID, e.loc.ID, TemplateInput{
		ShiftID: closeShift.ID, PositionID: e.pos.ID, Title: "Closing checklist",
	})
	require.NoError(t, err)

	data, err := svc.ExportYAML(ctx, e.org.ID, e.loc.ID)
	require.NoError(t, err)
	require.Contains(t, string(data), "Opening checklist")
	require.Contains(t, string(data), "Deep clean")

	// A second store with the same shift and position names imports the
	// document cleanly.
	now := time.Now().UTC()
	uptown := &types.Store{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Uptown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.store.CreateStore(ctx, uptown))
	for _, name := range []string{"Open", "Close"} {
		require.NoError(t, e.store.CreateShift(ctx, &types.Shift{ID: uuid.New(), StoreID: uptown.ID, Name: name, CreatedAt: now}))
	}
	require.NoError(t, e.store.CreatePosition(ctx, &types.Position{ID: uuid.New(), StoreID: uptown.ID, Name: "Kitchen", CreatedAt: now}))

	res, err := svc.ImportYAML(ctx, e.org.ID, uptown.ID, data)
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)
	require.Equal(t, 0, res.Skipped)

	tpls, err := svc.ListForStore(ctx, e.org.ID, uptown.ID)
	require.NoError(t, err)
	require.Len(t, tpls, 2)
	var imported *types.ChecklistTemplate
	for _, tpl := range tpls {
		if tpl.Title == "Opening checklist" {
			imported, err = svc.Get(ctx, e.org.ID, tpl.ID)
			require.NoError(t, err)
		}
	}
	require.NotNil(t, imported)
	require.Len(t, imported.Items, 2)
	require.Equal(t, types.RecurWeekly, imported.Items[1].RecurrenceType)
	require.Equal(t, types.IntList{0, 4}, imported.Items[1].RecurrenceDays)

	// Re-importing the same file only skips.
	res, err = svc.ImportYAML(ctx, e.org.ID, uptown.ID, data)
	require.NoError(t, err)
	require.Equal(t, 0, res.Created)
	require.Equal(t, 2, res.Skipped)
	require.Contains(t, res.SkippedTitles, "Opening checklist")
}

func TestYAMLImportRejectsUnknownNames(t *testing.T) {
	e := newEnv(t)
	svc := NewTemplateService(e.store)
	ctx := context.Background()

	doc := []byte("templates:\n  - shift: Graveyard\n    position: Kitchen\n    title: Night work\n")
	_, err := svc.ImportYAML(ctx, e.org.ID, e.loc.ID, doc)
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.ImportYAML(ctx, e.org.ID, e.loc.ID, []byte("templates: []\n"))
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = svc.ImportYAML(ctx, e.org.ID, e.loc.ID, []byte("{{nope"))
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}
