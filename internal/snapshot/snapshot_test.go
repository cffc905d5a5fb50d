package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// wednesday has weekday index 2 (0=Mon).
var wednesday = time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)

func item(title string, recur types.RecurrenceType, days ...int) *types.ChecklistTemplateItem {
	return &types.ChecklistTemplateItem{
		ID:               uuid.New(),
		Title:            title,
		VerificationType: types.VerifyNone,
		RecurrenceType:   recur,
		RecurrenceDays:   types.IntList(days),
	}
}

func TestFreezeFiltersWeeklyItems(t *testing.T) {
	tpl := &types.ChecklistTemplate{ID: uuid.New(), Title: "Opening"}
	items := []*types.ChecklistTemplateItem{
		item("Daily one", types.RecurDaily),
		item("Mondays only", types.RecurWeekly, 0),
		item("Wednesdays", types.RecurWeekly, 2, 4),
	}
	at := time.Now().UTC()

	snap := Freeze(tpl, items, wednesday, at)
	require.NotNil(t, snap)
	require.Equal(t, tpl.ID, snap.TemplateID)
	require.Equal(t, "Opening", snap.TemplateName)
	require.Equal(t, at, snap.SnapshotAt)

	// The Monday-only item is dropped and indexes close the gap.
	require.Len(t, snap.Items, 2)
	require.Equal(t, "Daily one", snap.Items[0].Title)
	require.Equal(t, 0, snap.Items[0].ItemIndex)
	require.Equal(t, "Wednesdays", snap.Items[1].Title)
	require.Equal(t, 1, snap.Items[1].ItemIndex)
	for _, it := range snap.Items {
		require.False(t, it.IsCompleted)
		require.Nil(t, it.CompletedAt)
	}
}

func TestFreezeNormalizesDegenerateWeekly(t *testing.T) {
	tpl := &types.ChecklistTemplate{ID: uuid.New(), Title: "Closing"}
	items := []*types.ChecklistTemplateItem{
		item("No days listed", types.RecurWeekly),
		item("Every day listed", types.RecurWeekly, 0, 1, 2, 3, 4, 5, 6),
	}

	// Both behave as daily on any date.
	snap := Freeze(tpl, items, wednesday, time.Now().UTC())
	require.NotNil(t, snap)
	require.Len(t, snap.Items, 2)
}

func TestFreezeEmptySetIsNil(t *testing.T) {
	tpl := &types.ChecklistTemplate{ID: uuid.New(), Title: "Weekend"}
	items := []*types.ChecklistTemplateItem{
		item("Sundays", types.RecurWeekly, 6),
	}
	require.Nil(t, Freeze(tpl, items, wednesday, time.Now().UTC()))
	require.Nil(t, Freeze(tpl, nil, wednesday, time.Now().UTC()))
}

func TestBuildResolvesTemplate(t *testing.T) {
	ctx := context.Background()
	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	now := time.Now().UTC()
	org := &types.Organization{ID: uuid.New(), Name: "Acme", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, org))
	store := &types.Store{ID: uuid.New(), OrganizationID: org.ID, Name: "Downtown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateStore(ctx, store))
	shift := &types.Shift{ID: uuid.New(), StoreID: store.ID, Name: "Open", CreatedAt: now}
	require.NoError(t, s.CreateShift(ctx, shift))
	pos := &types.Position{ID: uuid.New(), StoreID: store.ID, Name: "Kitchen", CreatedAt: now}
	require.NoError(t, s.CreatePosition(ctx, pos))

	tpl := &types.ChecklistTemplate{
		ID: uuid.New(), StoreID: store.ID, ShiftID: shift.ID, PositionID: pos.ID,
		Title: "Kitchen open", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateChecklistTemplate(ctx, tpl))
	ti := item("Check fridge temps", types.RecurDaily)
	ti.TemplateID = tpl.ID
	ti.CreatedAt = now
	require.NoError(t, s.CreateChecklistItem(ctx, ti))

	b := NewBuilder(s)
	snap, ok, err := b.Build(ctx, store.ID, shift.ID, pos.ID, wednesday)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, snap.Items, 1)
	require.Equal(t, ti.ID, snap.Items[0].TemplateItemID)

	// Unknown triple is a clean miss, not an error.
	snap, ok, err = b.Build(ctx, store.ID, shift.ID, uuid.New(), wednesday)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, snap)
}
