package org

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	svc := NewService(s)

	res, err := svc.Bootstrap(ctx, BootstrapInput{
		OrgName:       "Acme Diner",
		StoreName:     "Downtown",
		OwnerUsername: "founder",
		OwnerFullName: "Pat Founder",
		OwnerPassword: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Diner", res.Org.Name)
	require.NotNil(t, res.Store)
	require.Equal(t, "Downtown", res.Store.Name)
	require.Len(t, res.Roles, 4)

	levels := make([]int, 0, 4)
	var ownerRole, staffRole *types.Role
	for _, r := range res.Roles {
		levels = append(levels, r.Level)
		switch r.Level {
		case types.LevelOwner:
			ownerRole = r
		case types.LevelStaff:
			staffRole = r
		}
	}
	require.ElementsMatch(t, []int{1, 2, 3, 4}, levels)

	// Default grants: owners hold the whole catalog, staff nothing.
	catalog, err := svc.ListPermissionCatalog(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, catalog)
	ownerPerms, err := svc.GetRolePermissions(ctx, res.Org.ID, ownerRole.ID)
	require.NoError(t, err)
	require.Len(t, ownerPerms, len(catalog))
	staffPerms, err := svc.GetRolePermissions(ctx, res.Org.ID, staffRole.ID)
	require.NoError(t, err)
	require.Empty(t, staffPerms)

	// The owner account can log straight in.
	authSvc := auth.NewService(s, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	pair, err := authSvc.Login(ctx, res.Org.ID, "founder", "hunter2hunter2")
	require.NoError(t, err)
	actor, err := authSvc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.Owner.ID, actor.User.ID)
	require.Equal(t, types.LevelOwner, actor.Role.Level)
	require.True(t, actor.Can("stores:delete"))
}

func TestBootstrapWithoutStore(t *testing.T) {
	ctx := context.Background()
	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	svc := NewService(s)

	res, err := svc.Bootstrap(ctx, BootstrapInput{
		OrgName:       "Solo Org",
		OwnerUsername: "solo",
		OwnerPassword: "hunter2hunter2",
	})
	require.NoError(t, err)
	require.Nil(t, res.Store)
	require.Equal(t, "solo", res.Owner.FullName)

	stores, err := svc.ListStores(ctx, res.Org.ID, nil)
	require.NoError(t, err)
	require.Empty(t, stores)
}

func TestBootstrapValidation(t *testing.T) {
	ctx := context.Background()
	s, err := sqlstore.New(ctx, t.TempDir()+"/test.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	svc := NewService(s)

	_, err = svc.Bootstrap(ctx, BootstrapInput{OwnerUsername: "x", OwnerPassword: "hunter2hunter2"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.Bootstrap(ctx, BootstrapInput{OrgName: "Acme", OwnerPassword: "hunter2hunter2"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)
	_, err = svc.Bootstrap(ctx, BootstrapInput{OrgName: "Acme", OwnerUsername: "x", OwnerPassword: "short"})
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	// Nothing sticks when validation fails.
	orgs, err := s.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Empty(t, orgs)
}
