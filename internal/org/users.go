package org

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// UserInput describes a new user.
type UserInput struct {
	RoleID   uuid.UUID
	Username string
	Password string
	FullName string
	Email    string
}

// CreateUser adds a member to the organization. The caller may only
// hand out roles below their own level.
func (s *Service) CreateUser(ctx context.Context, orgID uuid.UUID, in UserInput, callerLevel int) (*types.User, error) {
	role, err := s.guardRole(ctx, orgID, in.RoleID)
	if err != nil {
		return nil, err
	}
	if role.Level <= callerLevel {
		return nil, fmt.Errorf("cannot create a user with a role at or above your level: %w", apperr.ErrForbidden)
	}
	if len(in.Password) < auth.MinPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", auth.MinPasswordLen, apperr.ErrBadRequest)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &types.User{
		ID:             uuid.New(),
		OrganizationID: orgID,
		RoleID:         in.RoleID,
		Username:       in.Username,
		Email:          in.Email,
		FullName:       in.FullName,
		PasswordHash:   hash,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("username already exists in this organization: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser returns one member.
func (s *Service) GetUser(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	return s.guardUser(ctx, orgID, userID)
}

// ListUsers returns the organization's members, paginated.
func (s *Service) ListUsers(ctx context.Context, orgID uuid.UUID, page storage.Page) ([]*types.User, int, error) {
	users, total, err := s.store.ListUsers(ctx, orgID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UserUpdateInput carries partial edits; nil fields keep their value.
type UserUpdateInput struct {
	RoleID   *uuid.UUID
	Username *string
	FullName *string
	Email    *string
	IsActive *bool
}

// UpdateUser edits a member. Reassigning a role is subject to the same
// level rule as creation.
func (s *Service) UpdateUser(ctx context.Context, orgID, userID uuid.UUID, in UserUpdateInput, callerLevel int) (*types.User, error) {
	u, err := s.guardUser(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if in.RoleID != nil {
		role, err := s.guardRole(ctx, orgID, *in.RoleID)
		if err != nil {
			return nil, err
		}
		if role.Level <= callerLevel {
			return nil, fmt.Errorf("cannot assign a role at or above your level: %w", apperr.ErrForbidden)
		}
		u.RoleID = *in.RoleID
	}
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("username already exists in this organization: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// ToggleUserActive flips a member's active flag. Deactivation also
// revokes their refresh tokens so live sessions end at the next refresh.
func (s *Service) ToggleUserActive(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	u, err := s.guardUser(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	u.IsActive = !u.IsActive
	u.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if u.IsActive {
			return nil
		}
		if err := tx.DeleteRefreshTokensForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser deactivates a member. Rows are kept so history referencing
// the user stays intact.
func (s *Service) DeleteUser(ctx context.Context, orgID, userID uuid.UUID) error {
	u, err := s.guardUser(ctx, orgID, userID)
	if err != nil {
		return err
	}
	u.IsActive = false
	u.UpdatedAt = s.now()
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to deactivate user: %w", err)
		}
		if err := tx.DeleteRefreshTokensForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}

// ListUserStores returns the stores a member is assigned to.
func (s *Service) ListUserStores(ctx context.Context, orgID, userID uuid.UUID) ([]*types.Store, error) {
	if _, err := s.guardUser(ctx, orgID, userID); err != nil {
		return nil, err
	}
	ids, err := s.store.ListStoreIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store memberships: %w", err)
	}
	stores, err := s.store.ListStores(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	assigned := make([]*types.Store, 0, len(ids))
	for _, st := range stores {
		if slices.Contains(ids, st.ID) {
			assigned = append(assigned, st)
		}
	}
	return assigned, nil
}

// AssignStore adds a store membership.
func (s *Service) AssignStore(ctx context.Context, orgID, userID, storeID uuid.UUID) error {
	if _, err := s.guardUser(ctx, orgID, userID); err != nil {
		return err
	}
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return err
	}
	if err := s.store.AssignUserToStore(ctx, userID, storeID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("user is already assigned to this store: %w", apperr.ErrDuplicate)
		}
		return fmt.Errorf("failed to assign store: %w", err)
	}
	return nil
}

// RemoveStore drops a store membership.
func (s *Service) RemoveStore(ctx context.Context, orgID, userID, storeID uuid.UUID) error {
	if _, err := s.guardUser(ctx, orgID, userID); err != nil {
		return err
	}
	if err := s.store.RemoveUserFromStore(ctx, userID, storeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user-store assignment not found: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to remove store: %w", err)
	}
	return nil
}

// guardUser loads a user and verifies org ownership.
func (s *Service) guardUser(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u.OrganizationID != orgID {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrForbidden)
	}
	return u, nil
}
