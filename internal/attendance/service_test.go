package attendance

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

var monday = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

type env struct {
	store   *sqlstore.Store
	svc     *Service
	org     *types.Organization
	loc     *types.Store
	staff   *types.Role
	gm      *types.Role
	worker  *types.User
	manager *types.User
	code    string
	clock   time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	e := &env{store: s, clock: monday.Add(9 * time.Hour)}
	e.svc = NewService(s, notify.NewOutbox())
	e.svc.now = func() time.Time { return e.clock }

	e.org = &types.Organization{ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, e.org))

	e.loc = &types.Store{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Downtown", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateStore(ctx, e.loc))

	e.staff = &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: "Staff", Level: types.LevelStaff, CreatedAt: now}
	require.NoError(t, s.CreateRole(ctx, e.staff))
	e.gm = &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: "General Manager", Level: types.LevelGeneralManager, CreatedAt: now}
	require.NoError(t, s.CreateRole(ctx, e.gm))

	e.worker = e.addUser(t, "worker1", e.staff)
	e.manager = e.addUser(t, "manager1", e.gm)

	qr, err := e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, nil)
	require.NoError(t, err)
	e.code = qr.Code
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

// at moves the test clock to the given time of day on monday.
func (e *env) at(hour, min int) {
	e.clock = time.Date(2026, 8, 17, hour, min, 0, 0, time.UTC)
}

func (e *env) scan(t *testing.T, action types.ScanAction) *types.Attendance {
	t.Helper()
	rec, err := e.svc.Scan(context.Background(), e.org.ID, e.worker.ID, e.code, action, "America/New_York")
	require.NoError(t, err)
	return rec
}

func (e *env) addAttendance(t *testing.T, userID uuid.UUID, workDate time.Time, workMin, breakMin int) *types.Attendance {
	t.Helper()
	ctx := context.Background()

	rec := &types.Attendance{
		ID:                uuid.New(),
		OrganizationID:    e.org.ID,
		StoreID:           e.loc.ID,
		UserID:            userID,
		WorkDate:          types.DateOnly(workDate),
		Status:            types.AttendanceClockedOut,
		TotalWorkMinutes:  workMin,
		TotalBreakMinutes: breakMin,
		CreatedAt:         e.clock,
		UpdatedAt:         e.clock,
	}
	require.NoError(t, e.store.CreateAttendance(ctx, rec))
	return rec
}

func TestQRCodeLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.store.GetActiveQRCode(ctx, e.loc.ID)
	require.NoError(t, err)
	require.Len(t, first.Code, 32)
	require.True(t, first.IsActive)

	second, err := e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	all, err := e.svc.ListQRCodes(ctx, e.org.ID, e.loc.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	active, err := e.svc.ActiveQRCode(ctx, e.org.ID, e.loc.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	reloaded, err := e.store.GetQRCode(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsActive)

	third, err := e.svc.RegenerateQRCode(ctx, e.org.ID, second.ID, e.manager.ID)
	require.NoError(t, err)
	require.Equal(t, e.loc.ID, third.StoreID)
	require.NotEqual(t, second.Code, third.Code)
	active, err = e.svc.ActiveQRCode(ctx, e.org.ID, e.loc.ID)
	require.NoError(t, err)
	require.Equal(t, third.ID, active.ID)

	_, err = e.svc.RegenerateQRCode(ctx, e.org.ID, uuid.New(), e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.CreateQRCode(ctx, e.org.ID, uuid.New(), e.manager.ID, nil)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	other := &types.Organization{ID: uuid.New(), Name: "Rival", IsActive: true, CreatedAt: e.clock, UpdatedAt: e.clock}
	require.NoError(t, e.store.CreateOrganization(ctx, other))
	_, err = e.svc.CreateQRCode(ctx, other.ID, e.loc.ID, e.manager.ID, nil)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	past := e.clock.Add(-time.Hour)
	_, err = e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, &past)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestScanFullDay(t *testing.T) {
	e := newEnv(t)

	e.at(9, 0)
	rec := e.scan(t, types.ScanClockIn)
	require.Equal(t, types.AttendanceClockedIn, rec.Status)
	require.True(t, rec.WorkDate.Equal(monday))
	require.NotNil(t, rec.ClockIn)
	require.Equal(t, "America/New_York", rec.ClockInTimezone)
	require.Nil(t, rec.ClockOut)

	e.at(12, 0)
	rec = e.scan(t, types.ScanBreakStart)
	require.Equal(t, types.AttendanceOnBreak, rec.Status)
	require.NotNil(t, rec.BreakStart)
	require.Nil(t, rec.BreakEnd)

	e.at(12, 30)
	rec = e.scan(t, types.ScanBreakEnd)
	require.Equal(t, types.AttendanceClockedIn, rec.Status)
	require.Equal(t, 30, rec.TotalBreakMinutes)
	require.NotNil(t, rec.BreakEnd)

	e.at(17, 0)
	rec = e.scan(t, types.ScanClockOut)
	require.Equal(t, types.AttendanceClockedOut, rec.Status)
	require.Equal(t, "America/New_York", rec.ClockOutTimezone)
	require.Equal(t, 30, rec.TotalBreakMinutes)
	require.Equal(t, 450, rec.TotalWorkMinutes)

	loaded, err := e.svc.Get(context.Background(), e.org.ID, rec.ID)
	require.NoError(t, err)
	require.Equal(t, types.AttendanceClockedOut, loaded.Status)
	require.Equal(t, 450, loaded.TotalWorkMinutes)
}

func TestScanClockOutEndsOpenBreak(t *testing.T) {
	e := newEnv(t)

	e.at(9, 0)
	e.scan(t, types.ScanClockIn)
	e.at(12, 0)
	e.scan(t, types.ScanBreakStart)

	e.at(12, 45)
	rec := e.scan(t, types.ScanClockOut)
	require.Equal(t, types.AttendanceClockedOut, rec.Status)
	require.NotNil(t, rec.BreakEnd)
	require.Equal(t, 45, rec.TotalBreakMinutes)
	require.Equal(t, 180, rec.TotalWorkMinutes)
}

func TestScanAccumulatesBreaks(t *testing.T) {
	e := newEnv(t)

	e.at(9, 0)
	e.scan(t, types.ScanClockIn)
	e.at(10, 0)
	e.scan(t, types.ScanBreakStart)
	e.at(10, 15)
	rec := e.scan(t, types.ScanBreakEnd)
	require.Equal(t, 15, rec.TotalBreakMinutes)

	e.at(12, 0)
	e.scan(t, types.ScanBreakStart)
	e.at(12, 30)
	rec = e.scan(t, types.ScanBreakEnd)
	require.Equal(t, 45, rec.TotalBreakMinutes)

	e.at(17, 0)
	rec = e.scan(t, types.ScanClockOut)
	require.Equal(t, 45, rec.TotalBreakMinutes)
	require.Equal(t, 435, rec.TotalWorkMinutes)
}

func TestScanStateErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanBreakStart, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanClockOut, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	e.at(9, 0)
	e.scan(t, types.ScanClockIn)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanClockIn, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanBreakEnd, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	e.at(17, 0)
	e.scan(t, types.ScanClockOut)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanClockOut, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanBreakStart, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, e.code, types.ScanAction("lunch"), "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestScanRejectsBadCodes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Scan(ctx, e.org.ID, e.worker.ID, "deadbeef", types.ScanClockIn, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	// Re-issuing retires the fixture code.
	stale := e.code
	_, err = e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, nil)
	require.NoError(t, err)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, stale, types.ScanClockIn, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	expiry := e.clock.Add(time.Hour)
	short, err := e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, &expiry)
	require.NoError(t, err)
	e.clock = e.clock.Add(2 * time.Hour)
	_, err = e.svc.Scan(ctx, e.org.ID, e.worker.ID, short.Code, types.ScanClockIn, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	// A rival org's worker cannot clock in against our store's code.
	other := &types.Organization{ID: uuid.New(), Name: "Rival", IsActive: true, CreatedAt: e.clock, UpdatedAt: e.clock}
	require.NoError(t, e.store.CreateOrganization(ctx, other))
	fresh, err := e.svc.CreateQRCode(ctx, e.org.ID, e.loc.ID, e.manager.ID, nil)
	require.NoError(t, err)
	_, err = e.svc.Scan(ctx, other.ID, e.worker.ID, fresh.Code, types.ScanClockIn, "")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestCorrect(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.at(9, 0)
	e.scan(t, types.ScanClockIn)
	e.at(12, 0)
	e.scan(t, types.ScanBreakStart)
	e.at(12, 30)
	e.scan(t, types.ScanBreakEnd)
	e.at(17, 0)
	rec := e.scan(t, types.ScanClockOut)

	correction, err := e.svc.Correct(ctx, e.org.ID, rec.ID,
		FieldClockOut, "2026-08-17T18:00:00Z", "forgot to scan out", e.manager.ID)
	require.NoError(t, err)
	require.Equal(t, FieldClockOut, correction.FieldName)
	require.Equal(t, "2026-08-17T17:00:00Z", correction.OriginalValue)
	require.Equal(t, "2026-08-17T18:00:00Z", correction.CorrectedValue)
	require.Equal(t, e.manager.ID, correction.CorrectedBy)

	loaded, err := e.svc.Get(ctx, e.org.ID, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 510, loaded.TotalWorkMinutes)
	require.Equal(t, 30, loaded.TotalBreakMinutes)

	history, err := e.svc.Corrections(ctx, e.org.ID, rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	pending, err := e.store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, types.NotifyAttendance, pending[0].Type)
	require.Equal(t, types.UUIDList{e.manager.ID}, pending[0].Recipients)

	_, err = e.svc.Correct(ctx, e.org.ID, rec.ID, "status", "2026-08-17T18:00:00Z", "nope", e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Correct(ctx, e.org.ID, rec.ID, FieldClockOut, "yesterday evening", "nope", e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Correct(ctx, e.org.ID, rec.ID, FieldClockOut, "2026-08-17T18:00:00Z", "", e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = e.svc.Correct(ctx, e.org.ID, uuid.New(), FieldClockOut, "2026-08-17T18:00:00Z", "nope", e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	other := &types.Organization{ID: uuid.New(), Name: "Rival", IsActive: true, CreatedAt: e.clock, UpdatedAt: e.clock}
	require.NoError(t, e.store.CreateOrganization(ctx, other))
	_, err = e.svc.Correct(ctx, other.ID, rec.ID, FieldClockOut, "2026-08-17T18:00:00Z", "nope", e.manager.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCorrectBreakRecomputesWork(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.at(9, 0)
	e.scan(t, types.ScanClockIn)
	e.at(12, 0)
	e.scan(t, types.ScanBreakStart)
	e.at(12, 30)
	e.scan(t, types.ScanBreakEnd)
	e.at(17, 0)
	rec := e.scan(t, types.ScanClockOut)
	require.Equal(t, 450, rec.TotalWorkMinutes)

	_, err := e.svc.Correct(ctx, e.org.ID, rec.ID,
		FieldBreakEnd, "2026-08-17T13:00:00Z", "break ran long", e.manager.ID)
	require.NoError(t, err)

	loaded, err := e.svc.Get(ctx, e.org.ID, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 60, loaded.TotalBreakMinutes)
	require.Equal(t, 420, loaded.TotalWorkMinutes)
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	other := e.addUser(t, "worker2", e.staff)
	e.addAttendance(t, e.worker.ID, monday, 480, 30)
	e.addAttendance(t, e.worker.ID, monday.AddDate(0, 0, 1), 420, 30)
	e.addAttendance(t, other.ID, monday, 240, 0)

	records, total, err := e.svc.List(ctx, e.org.ID, storage.AttendanceFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, records, 3)

	records, total, err = e.svc.List(ctx, e.org.ID, storage.AttendanceFilter{UserID: &e.worker.ID})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	day := monday
	records, total, err = e.svc.List(ctx, e.org.ID, storage.AttendanceFilter{DateFrom: &day, DateTo: &day})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	records, total, err = e.svc.List(ctx, e.org.ID, storage.AttendanceFilter{Status: types.AttendanceClockedOut})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	_, _, err = e.svc.List(ctx, e.org.ID, storage.AttendanceFilter{Status: types.AttendanceStatus("asleep")})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	otherOrg := &types.Organization{ID: uuid.New(), Name: "Rival", IsActive: true, CreatedAt: e.clock, UpdatedAt: e.clock}
	require.NoError(t, e.store.CreateOrganization(ctx, otherOrg))
	records, total, err = e.svc.List(ctx, otherOrg.ID, storage.AttendanceFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, total)
	require.Empty(t, records)
}

func TestWeeklySummaries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	other := e.addUser(t, "worker2", e.staff)
	e.addAttendance(t, e.worker.ID, monday, 480, 30)
	e.addAttendance(t, e.worker.ID, monday.AddDate(0, 0, 2), 420, 0)
	e.addAttendance(t, other.ID, monday.AddDate(0, 0, 6), 240, 15)
	// Prior week stays out of the window.
	e.addAttendance(t, e.worker.ID, monday.AddDate(0, 0, -1), 600, 0)

	summaries, err := e.svc.WeeklySummaries(ctx, e.org.ID, nil, nil, monday.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byUser := map[uuid.UUID]*WeeklySummary{}
	for _, sum := range summaries {
		byUser[sum.UserID] = sum
		require.True(t, sum.WeekStart.Equal(monday))
		require.True(t, sum.WeekEnd.Equal(monday.AddDate(0, 0, 6)))
	}
	require.Equal(t, 2, byUser[e.worker.ID].DaysWorked)
	require.Equal(t, 900, byUser[e.worker.ID].TotalWorkMinutes)
	require.Equal(t, 30, byUser[e.worker.ID].TotalBreakMinutes)
	require.Equal(t, 1, byUser[other.ID].DaysWorked)
	require.Equal(t, 240, byUser[other.ID].TotalWorkMinutes)

	mine, err := e.svc.WeeklySummaries(ctx, e.org.ID, nil, &e.worker.ID, monday)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, e.worker.ID, mine[0].UserID)
}

func TestOvertimeAlerts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	other := e.addUser(t, "worker2", e.staff)
	for day := 0; day < 5; day++ {
		e.addAttendance(t, e.worker.ID, monday.AddDate(0, 0, day), 500, 0)
	}
	e.addAttendance(t, other.ID, monday, 480, 0)

	alerts, err := e.svc.OvertimeAlerts(ctx, e.org.ID, nil, monday)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, e.worker.ID, alerts[0].UserID)
	require.Equal(t, 2500, alerts[0].TotalMinutes)
	require.Equal(t, 2400, alerts[0].CapMinutes)
	require.Equal(t, 100, alerts[0].OvertimeMinutes)

	// A roomier store cap clears the alert.
	high := 3000
	require.NoError(t, e.store.UpsertLaborSetting(ctx, &types.LaborSetting{
		StoreID: e.loc.ID, WeeklyCapMinutes: &high, UpdatedAt: e.clock,
	}))
	alerts, err = e.svc.OvertimeAlerts(ctx, e.org.ID, &e.loc.ID, monday)
	require.NoError(t, err)
	require.Empty(t, alerts)
}
