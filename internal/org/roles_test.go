package org

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func TestRoleLevelRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	lead, err := e.svc.CreateRole(ctx, e.org.ID, RoleInput{Name: "Shift Lead", Level: 5}, types.LevelGeneralManager)
	require.NoError(t, err)
	require.Equal(t, 5, lead.Level)

	_, err = e.svc.CreateRole(ctx, e.org.ID, RoleInput{Name: "Peer", Level: types.LevelGeneralManager}, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = e.svc.CreateRole(ctx, e.org.ID, RoleInput{Name: "Shift Lead", Level: 6}, types.LevelOwner)
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	_, err = e.svc.CreateRole(ctx, e.org.ID, RoleInput{Name: "Team Lead", Level: 5}, types.LevelOwner)
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	_, err = e.svc.CreateRole(ctx, e.org.ID, RoleInput{Name: "", Level: 7}, types.LevelOwner)
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	roles, err := e.svc.ListRoles(ctx, e.org.ID)
	require.NoError(t, err)
	require.Len(t, roles, 4)
	require.Equal(t, "Owner", roles[0].Name)

	name := "Senior Shift Lead"
	lead, err = e.svc.UpdateRole(ctx, e.org.ID, lead.ID, RoleUpdateInput{Name: &name}, types.LevelGeneralManager)
	require.NoError(t, err)
	require.Equal(t, name, lead.Name)

	// Nobody edits their own rank or above.
	_, err = e.svc.UpdateRole(ctx, e.org.ID, e.gm.ID, RoleUpdateInput{Name: &name}, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	tooHigh := types.LevelGeneralManager
	_, err = e.svc.UpdateRole(ctx, e.org.ID, lead.ID, RoleUpdateInput{Level: &tooHigh}, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	err = e.svc.DeleteRole(ctx, e.org.ID, e.staff.ID, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrBadRequest)

	err = e.svc.DeleteRole(ctx, e.org.ID, lead.ID, types.LevelGeneralManager)
	require.NoError(t, err)
	_, err = e.svc.GetRole(ctx, e.org.ID, lead.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.GetRole(ctx, uuid.New(), e.staff.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestRolePermissionManagement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, auth.SeedPermissions(ctx, e.store))

	catalog, err := e.svc.ListPermissionCatalog(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, catalog)

	perms, err := e.svc.GetRolePermissions(ctx, e.org.ID, e.staff.ID)
	require.NoError(t, err)
	require.Empty(t, perms)

	codes := []string{"schedules:read", "tasks:read"}
	perms, err = e.svc.SetRolePermissions(ctx, e.org.ID, e.staff.ID, codes, types.LevelGeneralManager)
	require.NoError(t, err)
	require.Len(t, perms, 2)
	require.Equal(t, "schedules:read", perms[0].Code)
	require.Equal(t, "tasks:read", perms[1].Code)

	// Replacement is wholesale, not additive.
	perms, err = e.svc.SetRolePermissions(ctx, e.org.ID, e.staff.ID, []string{"tasks:read"}, types.LevelGeneralManager)
	require.NoError(t, err)
	require.Len(t, perms, 1)

	_, err = e.svc.SetRolePermissions(ctx, e.org.ID, e.staff.ID, []string{"tasks:fly"}, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = e.svc.SetRolePermissions(ctx, e.org.ID, e.gm.ID, codes, types.LevelGeneralManager)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.svc.GetRolePermissions(ctx, e.org.ID, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
