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

// ShiftInput describes a new shift or position.
type ShiftInput struct {
	Name      string
	SortOrder int
}

// ShiftUpdateInput carries partial edits; nil fields keep their value.
type ShiftUpdateInput struct {
	Name      *string
	SortOrder *int
}

// CreateShift adds a work period to a store.
func (s *Service) CreateShift(ctx context.Context, orgID, storeID uuid.UUID, in ShiftInput) (*types.Shift, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("shift name is required: %w", apperr.ErrBadRequest)
	}
	shift := &types.Shift{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      in.Name,
		SortOrder: in.SortOrder,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateShift(ctx, shift); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a shift with this name already exists in this store: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}
	return shift, nil
}

// ListShifts returns a store's shifts in sort order.
func (s *Service) ListShifts(ctx context.Context, orgID, storeID uuid.UUID) ([]*types.Shift, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	shifts, err := s.store.ListShifts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// UpdateShift edits a shift.
func (s *Service) UpdateShift(ctx context.Context, orgID, storeID, shiftID uuid.UUID, in ShiftUpdateInput) (*types.Shift, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	shift, err := s.store.GetShift(ctx, shiftID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("shift %s: %w", shiftID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.StoreID != storeID {
		return nil, fmt.Errorf("shift %s: %w", shiftID, apperr.ErrNotFound)
	}
	if in.Name != nil {
		shift.Name = *in.Name
	}
	if in.SortOrder != nil {
		shift.SortOrder = *in.SortOrder
	}
	if strings.TrimSpace(shift.Name) == "" {
		return nil, fmt.Errorf("shift name is required: %w", apperr.ErrBadRequest)
	}
	if err := s.store.UpdateShift(ctx, shift); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a shift with this name already exists in this store: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	return shift, nil
}

// DeleteShift removes a shift. Assignments and schedules hold plain
// references, so the delete is refused while any still point at it.
func (s *Service) DeleteShift(ctx context.Context, orgID, storeID, shiftID uuid.UUID) error {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return err
	}
	shift, err := s.store.GetShift(ctx, shiftID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("shift %s: %w", shiftID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.StoreID != storeID {
		return fmt.Errorf("shift %s: %w", shiftID, apperr.ErrNotFound)
	}
	if err := s.store.DeleteShift(ctx, shiftID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("shift is still referenced by assignments or schedules: %w", apperr.ErrBadRequest)
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// CreatePosition adds a job role to a store.
func (s *Service) CreatePosition(ctx context.Context, orgID, storeID uuid.UUID, in ShiftInput) (*types.Position, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("position name is required: %w", apperr.ErrBadRequest)
	}
	pos := &types.Position{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      in.Name,
		SortOrder: in.SortOrder,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePosition(ctx, pos); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a position with this name already exists in this store: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create position: %w", err)
	}
	return pos, nil
}

// ListPositions returns a store's positions in sort order.
func (s *Service) ListPositions(ctx context.Context, orgID, storeID uuid.UUID) ([]*types.Position, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	positions, err := s.store.ListPositions(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

// UpdatePosition edits a position.
func (s *Service) UpdatePosition(ctx context.Context, orgID, storeID, posID uuid.UUID, in ShiftUpdateInput) (*types.Position, error) {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	pos, err := s.store.GetPosition(ctx, posID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("position %s: %w", posID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position: %w", err)
	}
	if pos.StoreID != storeID {
		return nil, fmt.Errorf("position %s: %w", posID, apperr.ErrNotFound)
	}
	if in.Name != nil {
		pos.Name = *in.Name
	}
	if in.SortOrder != nil {
		pos.SortOrder = *in.SortOrder
	}
	if strings.TrimSpace(pos.Name) == "" {
		return nil, fmt.Errorf("position name is required: %w", apperr.ErrBadRequest)
	}
	if err := s.store.UpdatePosition(ctx, pos); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("a position with this name already exists in this store: %w", apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	return pos, nil
}

// DeletePosition removes a position.
func (s *Service) DeletePosition(ctx context.Context, orgID, storeID, posID uuid.UUID) error {
	if _, err := s.guardStore(ctx, orgID, storeID); err != nil {
		return err
	}
	pos, err := s.store.GetPosition(ctx, posID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("position %s: %w", posID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load position: %w", err)
	}
	if pos.StoreID != storeID {
		return fmt.Errorf("position %s: %w", posID, apperr.ErrNotFound)
	}
	if err := s.store.DeletePosition(ctx, posID); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("position is still referenced by assignments or schedules: %w", apperr.ErrBadRequest)
		}
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}
