package org

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// BootstrapInput describes a brand-new tenant: the organization, its
// owner account, and optionally a first store.
type BootstrapInput struct {
	OrgName       string
	StoreName     string
	OwnerUsername string
	OwnerFullName string
	OwnerEmail    string
	OwnerPassword string
}

// BootstrapResult is everything Bootstrap created.
type BootstrapResult struct {
	Org   *types.Organization
	Roles []*types.Role
	Owner *types.User
	Store *types.Store
}

// defaultRoles are seeded into every new organization, ordered by rank.
var defaultRoles = []struct {
	name  string
	level int
}{
	{"Owner", types.LevelOwner},
	{"General Manager", types.LevelGeneralManager},
	{"Supervisor", types.LevelSupervisor},
	{"Staff", types.LevelStaff},
}

// Bootstrap creates a tenant in one transaction: the organization, the
// four default roles with their permission grants, the owner account,
// and an optional first store.
func (s *Service) Bootstrap(ctx context.Context, in BootstrapInput) (*BootstrapResult, error) {
	if strings.TrimSpace(in.OrgName) == "" {
		return nil, fmt.Errorf("organization name is required: %w", apperr.ErrBadRequest)
	}
	if strings.TrimSpace(in.OwnerUsername) == "" {
		return nil, fmt.Errorf("owner username is required: %w", apperr.ErrBadRequest)
	}
	if len(in.OwnerPassword) < auth.MinPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", auth.MinPasswordLen, apperr.ErrBadRequest)
	}
	hash, err := auth.HashPassword(in.OwnerPassword)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := &BootstrapResult{
		Org: &types.Organization{
			ID:        uuid.New(),
			Name:      in.OrgName,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateOrganization(ctx, res.Org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		if err := auth.SeedPermissions(ctx, tx); err != nil {
			return err
		}
		var ownerRole *types.Role
		for _, def := range defaultRoles {
			role := &types.Role{
				ID:             uuid.New(),
				OrganizationID: res.Org.ID,
				Name:           def.name,
				Level:          def.level,
				CreatedAt:      now,
			}
			if err := tx.CreateRole(ctx, role); err != nil {
				return fmt.Errorf("failed to create role %s: %w", def.name, err)
			}
			if err := auth.GrantDefaults(ctx, tx, role); err != nil {
				return err
			}
			if role.Level == types.LevelOwner {
				ownerRole = role
			}
			res.Roles = append(res.Roles, role)
		}

		owner := &types.User{
			ID:             uuid.New(),
			OrganizationID: res.Org.ID,
			RoleID:         ownerRole.ID,
			Username:       in.OwnerUsername,
			Email:          in.OwnerEmail,
			FullName:       in.OwnerFullName,
			PasswordHash:   hash,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if owner.FullName == "" {
			owner.FullName = in.OwnerUsername
		}
		if err := owner.Validate(); err != nil {
			return fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
		}
		if err := tx.CreateUser(ctx, owner); err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}
		res.Owner = owner

		if strings.TrimSpace(in.StoreName) == "" {
			return nil
		}
		store := &types.Store{
			ID:             uuid.New(),
			OrganizationID: res.Org.ID,
			Name:           in.StoreName,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateStore(ctx, store); err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		res.Store = store
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
