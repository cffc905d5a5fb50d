// Package org manages the tenancy tree: the organization itself, its
// stores, and the shifts and positions inside each store.
//
// Store access is level-scoped. Owners see every store; everyone else
// sees only the stores they are assigned to through memberships, which
// live in the users side of this package.
package org

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Service manages organizations, stores, shifts, positions, users, and
// roles.
type Service struct {
	store storage.Storage
	now   func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetOrganization returns the tenant record.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (*types.Organization, error) {
	org, err := s.store.GetOrganization(ctx, orgID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("organization %s: %w", orgID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	return org, nil
}

// OrgUpdateInput carries partial edits; nil fields keep their value.
type OrgUpdateInput struct {
	Name     *string
	IsActive *bool
}

// UpdateOrganization edits the tenant record.
func (s *Service) UpdateOrganization(ctx context.Context, orgID uuid.UUID, in OrgUpdateInput) (*types.Organization, error) {
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		org.Name = *in.Name
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}
	if strings.TrimSpace(org.Name) == "" {
		return nil, fmt.Errorf("organization name is required: %w", apperr.ErrBadRequest)
	}
	org.UpdatedAt = s.now()
	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// StoreInput describes a new store.
type StoreInput struct {
	Name    string
	Address string
}

// CreateStore adds a location to the organization.
func (s *Service) CreateStore(ctx context.Context, orgID uuid.UUID, in StoreInput) (*types.Store, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("store name is required: %w", apperr.ErrBadRequest)
	}
	now := s.now()
	st := &types.Store{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           in.Name,
		Address:        in.Address,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateStore(ctx, st); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a store with this name already exists: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	return st, nil
}

// StoreDetail is a store with its shifts and positions.
type StoreDetail struct {
	Store     *types.Store      `json:"store"`
	Shifts    []*types.Shift    `json:"shifts"`
	Positions []*types.Position `json:"positions"`
}

// GetStore returns one store with its shifts and positions.
func (s *Service) GetStore(ctx context.Context, orgID, storeID uuid.UUID) (*StoreDetail, error) {
	st, err := s.guardStore(ctx, orgID, storeID)
	if err != nil {
		return nil, err
	}
	shifts, err := s.store.ListShifts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	positions, err := s.store.ListPositions(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return &StoreDetail{Store: st, Shifts: shifts, Positions: positions}, nil
}

// ListStores returns the organization's stores. A non-nil accessible
// slice narrows the result to those IDs; nil means unrestricted.
func (s *Service) ListStores(ctx context.Context, orgID uuid.UUID, accessible []uuid.UUID) ([]*types.Store, error) {
	stores, err := s.store.ListStores(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	if accessible == nil {
		return stores, nil
	}
	visible := make([]*types.Store, 0, len(stores))
	for _, st := range stores {
		if slices.Contains(accessible, st.ID) {
			visible = append(visible, st)
		}
	}
	return visible, nil
}

// StoreUpdateInput carries partial edits; nil fields keep their value.
type StoreUpdateInput struct {
	Name     *string
	Address  *string
	IsActive *bool
}

// UpdateStore edits a store.
func (s *Service) UpdateStore(ctx context.Context, orgID, storeID uuid.UUID, in StoreUpdateInput) (*types.Store, error) {
	st, err := s.guardStore(ctx, orgID, storeID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		st.Name = *in.Name
	}
	if in.Address != nil {
		st.Address = *in.Address
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	if strings.TrimSpace(st.Name) == "" {
		return nil, fmt.Errorf("store name is required: %w", apperr.ErrBadRequest)
	}
	st.UpdatedAt = s.now()
	if err := s.store.UpdateStore(ctx, st); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a store with this name already exists: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	return st, nil
}

// DeleteStore removes a store and everything scoped under it.
func (s *Service) DeleteStore(ctx context.Context, orgID, storeID uuid.UUID) error {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return err
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteStore(ctx, storeID); err != nil {
			return fmt.Errorf("failed to delete store: %w", err)
		}
		return nil
	})
}

// AccessibleStoreIDs returns the store IDs visible to a user. A nil
// result means unrestricted access (owner level); an empty non-nil
// result means no stores are assigned.
func (s *Service) AccessibleStoreIDs(ctx context.Context, userID uuid.UUID, level int) ([]uuid.UUID, error) {
	if level <= types.LevelOwner {
		return nil, nil
	}
	ids, err := s.store.ListStoreIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store memberships: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// CheckStoreAccess verifies the user may act on the store.
func (s *Service) CheckStoreAccess(ctx context.Context, userID uuid.UUID, level int, storeID uuid.UUID) error {
	accessible, err := s.AccessibleStoreIDs(ctx, userID, level)
	if err != nil {
		return err
	}
	if accessible == nil {
		return nil
	}
	if !slices.Contains(accessible, storeID) {
		return fmt.Errorf("no access to this store: %w", apperr.ErrForbidden)
	}
	return nil
}

// guardStore loads a store and verifies org ownership.
func (s *Service) guardStore(ctx context.Context, orgID, storeID uuid.UUID) (*types.Store, error) {
	st, err := s.store.GetStore(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("store %s: %w", storeID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if st.OrganizationID != orgID {
		return nil, fmt.Errorf("store %s: %w", storeID, apperr.ErrForbidden)
	}
	return st, nil
}
