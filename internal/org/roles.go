package org

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// RoleInput describes a new role.
type RoleInput struct {
	Name  string
	Level int
}

// CreateRole adds a rank to the organization. The caller may only
// create roles below their own level, and both name and level must be
// unique within the org.
func (s *Service) CreateRole(ctx context.Context, orgID uuid.UUID, in RoleInput, callerLevel int) (*types.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("role name is required: %w", apperr.ErrBadRequest)
	}
	if in.Level <= callerLevel {
		return nil, fmt.Errorf("cannot create a role at or above your level: %w", apperr.ErrForbidden)
	}
	role := &types.Role{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           in.Name,
		Level:          in.Level,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a role with this name or level already exists: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, orgID, roleID uuid.UUID) (*types.Role, error) {
	return s.guardRole(ctx, orgID, roleID)
}

// ListRoles returns the organization's roles ordered by level.
func (s *Service) ListRoles(ctx context.Context, orgID uuid.UUID) ([]*types.Role, error) {
	roles, err := s.store.ListRoles(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// RoleUpdateInput carries partial edits; nil fields keep their value.
type RoleUpdateInput struct {
	Name  *string
	Level *int
}

// UpdateRole edits a role. Both the role being edited and any new level
// must sit below the caller's level.
func (s *Service) UpdateRole(ctx context.Context, orgID, roleID uuid.UUID, in RoleUpdateInput, callerLevel int) (*types.Role, error) {
	role, err := s.guardRole(ctx, orgID, roleID)
	if err != nil {
		return nil, err
	}
	if role.Level <= callerLevel {
		return nil, fmt.Errorf("cannot modify a role at or above your level: %w", apperr.ErrForbidden)
	}
	if in.Level != nil && *in.Level <= callerLevel {
		return nil, fmt.Errorf("cannot set role level at or above your level: %w", apperr.ErrForbidden)
	}
	if in.Name != nil {
		role.Name = *in.Name
	}
	if in.Level != nil {
		role.Level = *in.Level
	}
	if strings.TrimSpace(role.Name) == "" {
		return nil, fmt.Errorf("role name is required: %w", apperr.ErrBadRequest)
	}
	if err := s.store.UpdateRole(ctx, role); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a role with this name or level already exists: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// DeleteRole removes a role below the caller's level. Roles still held
// by users cannot be deleted.
func (s *Service) DeleteRole(ctx context.Context, orgID, roleID uuid.UUID, callerLevel int) error {
	role, err := s.guardRole(ctx, orgID, roleID)
	if err != nil {
		return err
	}
	if role.Level <= callerLevel {
		return fmt.Errorf("cannot delete a role at or above your level: %w", apperr.ErrForbidden)
	}
	n, err := s.store.CountUsersWithRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to count role members: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("role is still assigned to users: %w", apperr.ErrBadRequest)
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteRole(ctx, roleID); err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}
		return nil
	})
}

// ListPermissionCatalog returns every grantable permission.
func (s *Service) ListPermissionCatalog(ctx context.Context) ([]*types.Permission, error) {
	perms, err := s.store.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

// GetRolePermissions returns a role's current grants.
func (s *Service) GetRolePermissions(ctx context.Context, orgID, roleID uuid.UUID) ([]*types.Permission, error) {
	if _, err := s.guardRole(ctx, orgID, roleID); err != nil {
		return nil, err
	}
	perms, err := s.store.ListRolePermissions(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	return perms, nil
}

// SetRolePermissions replaces a role's grants with the named codes. The
// target role must sit below the caller's level.
func (s *Service) SetRolePermissions(ctx context.Context, orgID, roleID uuid.UUID, codes []string, callerLevel int) ([]*types.Permission, error) {
	role, err := s.guardRole(ctx, orgID, roleID)
	if err != nil {
		return nil, err
	}
	if role.Level <= callerLevel {
		return nil, fmt.Errorf("cannot modify permissions of a role at or above your level: %w", apperr.ErrForbidden)
	}

	permIDs := make([]uuid.UUID, 0, len(codes))
	for _, code := range codes {
		perm, err := s.store.GetPermissionByCode(ctx, code)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("permission not found: %s: %w", code, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load permission: %w", err)
		}
		permIDs = append(permIDs, perm.ID)
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.SetRolePermissions(ctx, roleID, permIDs); err != nil {
			return fmt.Errorf("failed to set role permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRolePermissions(ctx, orgID, roleID)
}

// guardRole loads a role and verifies org ownership.
func (s *Service) guardRole(ctx context.Context, orgID, roleID uuid.UUID) (*types.Role, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("role %s: %w", roleID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role.OrganizationID != orgID {
		return nil, fmt.Errorf("role %s: %w", roleID, apperr.ErrForbidden)
	}
	return role, nil
}
