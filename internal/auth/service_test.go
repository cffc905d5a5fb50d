package auth

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

var monday = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

const testPassword = "hunter2hunter2"

type env struct {
	store   *sqlstore.Store
	svc     *Service
	org     *types.Organization
	owner   *types.Role
	gm      *types.Role
	sv      *types.Role
	staff   *types.Role
	worker  *types.User
	manager *types.User
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
	e.svc = NewService(s, Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	e.svc.now = func() time.Time { return e.clock }

	e.org = &types.Organization{ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateOrganization(ctx, e.org))

	e.owner = e.addRole(t, "Owner", types.LevelOwner)
	e.gm = e.addRole(t, "General Manager", types.LevelGeneralManager)
	e.sv = e.addRole(t, "Supervisor", types.LevelSupervisor)
	e.staff = e.addRole(t, "Staff", types.LevelStaff)

	e.worker = e.addUser(t, "worker1", e.staff)
	e.manager = e.addUser(t, "manager1", e.gm)
	return e
}

func (e *env) addRole(t *testing.T, name string, level int) *types.Role {
	t.Helper()
	r := &types.Role{ID: uuid.New(), OrganizationID: e.org.ID, Name: name, Level: level, CreatedAt: e.clock}
	require.NoError(t, e.store.CreateRole(context.Background(), r))
	return r
}

func (e *env) addUser(t *testing.T, username string, role *types.Role) *types.User {
	t.Helper()
	hash, err := HashPassword(testPassword)
	require.NoError(t, err)
	u := &types.User{
		ID: uuid.New(), OrganizationID: e.org.ID, RoleID: role.ID,
		Username: username, FullName: "User " + username, PasswordHash: hash,
		IsActive: true, CreatedAt: e.clock, UpdatedAt: e.clock,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func TestPasswordHashing(t *testing.T) {
	h1, err := HashPassword("swordfish123")
	require.NoError(t, err)
	h2, err := HashPassword("swordfish123")
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
	require.True(t, VerifyPassword("swordfish123", h1))
	require.True(t, VerifyPassword("swordfish123", h2))
	require.False(t, VerifyPassword("Swordfish123", h1))
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pair, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)

	actor, err := e.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, e.worker.ID, actor.User.ID)
	require.Equal(t, e.org.ID, actor.OrgID())
	require.Equal(t, types.LevelStaff, actor.Role.Level)

	_, err = e.svc.Login(ctx, e.org.ID, "worker1", "wrong-password")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.svc.Login(ctx, e.org.ID, "nobody", testPassword)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.svc.Login(ctx, uuid.New(), "worker1", testPassword)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	e.worker.IsActive = false
	require.NoError(t, e.store.UpdateUser(ctx, e.worker))
	_, err = e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pair, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)

	_, err = e.svc.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// A refresh token never authenticates a request.
	_, err = e.svc.Authenticate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// A token signed under a different secret is rejected.
	rogue := NewService(e.store, Config{Secret: []byte("another-secret-another-secret-00")})
	rogue.now = e.svc.now
	roguePair, err := rogue.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	_, err = e.svc.Authenticate(ctx, roguePair.AccessToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// Expiry follows the clock.
	pair, err = e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	e.clock = e.clock.Add(31 * time.Minute)
	_, err = e.svc.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// A deactivated account's live tokens stop working immediately.
	pair, err = e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	e.worker.IsActive = false
	require.NoError(t, e.store.UpdateUser(ctx, e.worker))
	_, err = e.svc.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshRotates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)

	e.clock = e.clock.Add(time.Minute)
	second, err := e.svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The spent token is gone.
	_, err = e.svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = e.svc.Authenticate(ctx, second.AccessToken)
	require.NoError(t, err)

	// Past the refresh lifetime the stored row is expired.
	e.clock = e.clock.Add(8 * 24 * time.Hour)
	_, err = e.svc.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pair, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	require.NoError(t, e.svc.Logout(ctx, pair.RefreshToken))

	_, err = e.svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	// Logging out twice is harmless.
	require.NoError(t, e.svc.Logout(ctx, pair.RefreshToken))
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pair, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)

	err = e.svc.ChangePassword(ctx, e.org.ID, e.worker.ID, "wrong", "newpassword99")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	err = e.svc.ChangePassword(ctx, e.org.ID, e.worker.ID, testPassword, "short")
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	err = e.svc.ChangePassword(ctx, e.org.ID, uuid.New(), testPassword, "newpassword99")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	err = e.svc.ChangePassword(ctx, uuid.New(), e.worker.ID, testPassword, "newpassword99")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, e.svc.ChangePassword(ctx, e.org.ID, e.worker.ID, testPassword, "newpassword99"))

	_, err = e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = e.svc.Login(ctx, e.org.ID, "worker1", "newpassword99")
	require.NoError(t, err)

	// Every session opened before the change is revoked.
	_, err = e.svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestSeedAndDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, SeedPermissions(ctx, e.store))
	// Reseeding is idempotent.
	require.NoError(t, SeedPermissions(ctx, e.store))

	perms, err := e.store.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, len(catalog))

	for _, role := range []*types.Role{e.owner, e.gm, e.sv, e.staff} {
		require.NoError(t, GrantDefaults(ctx, e.store, role))
	}

	counts := map[uuid.UUID]int{}
	for _, role := range []*types.Role{e.owner, e.gm, e.sv, e.staff} {
		codes, err := e.store.ListPermissionCodes(ctx, role.ID)
		require.NoError(t, err)
		counts[role.ID] = len(codes)
	}
	require.Equal(t, len(catalog), counts[e.owner.ID])
	require.Equal(t, len(catalog)-4, counts[e.gm.ID])
	require.Equal(t, len(supervisorCodes), counts[e.sv.ID])
	require.Zero(t, counts[e.staff.ID])

	pair, err := e.svc.Login(ctx, e.org.ID, "manager1", testPassword)
	require.NoError(t, err)
	actor, err := e.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.True(t, actor.Can("users:update"))
	require.False(t, actor.Can("stores:delete"))
	require.NoError(t, e.svc.Require(actor, "users:update"))
	require.ErrorIs(t, e.svc.Require(actor, "stores:delete"), apperr.ErrForbidden)
}

func TestRequireOverUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, SeedPermissions(ctx, e.store))
	require.NoError(t, GrantDefaults(ctx, e.store, e.gm))
	peer := e.addUser(t, "manager2", e.gm)

	pair, err := e.svc.Login(ctx, e.org.ID, "manager1", testPassword)
	require.NoError(t, err)
	actor, err := e.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)

	// A manager edits staff, but not a fellow manager.
	require.NoError(t, e.svc.RequireOverUser(ctx, actor, "users:update", e.worker.ID))
	require.ErrorIs(t, e.svc.RequireOverUser(ctx, actor, "users:update", peer.ID), apperr.ErrForbidden)
	require.ErrorIs(t, e.svc.RequireOverUser(ctx, actor, "users:update", e.manager.ID), apperr.ErrForbidden)

	// Codes without the priority flag skip the rank comparison.
	require.NoError(t, e.svc.RequireOverUser(ctx, actor, "stores:update", peer.ID))

	require.ErrorIs(t, e.svc.RequireOverUser(ctx, actor, "users:update", uuid.New()), apperr.ErrNotFound)

	// Staff hold no codes at all.
	wPair, err := e.svc.Login(ctx, e.org.ID, "worker1", testPassword)
	require.NoError(t, err)
	wActor, err := e.svc.Authenticate(ctx, wPair.AccessToken)
	require.NoError(t, err)
	require.ErrorIs(t, e.svc.RequireOverUser(ctx, wActor, "users:update", e.worker.ID), apperr.ErrForbidden)
}

func TestCanEvaluate(t *testing.T) {
	e := newEnv(t)
	require.True(t, CanEvaluate(e.gm, e.staff))
	require.True(t, CanEvaluate(e.owner, e.gm))
	require.False(t, CanEvaluate(e.staff, e.gm))
	require.False(t, CanEvaluate(e.staff, e.staff))
	require.False(t, CanEvaluate(e.gm, e.gm))
}
