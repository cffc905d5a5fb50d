package schedule

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

// PresetInput describes a reusable shift time pairing.
type PresetInput struct {
	Name      string
	ShiftID   *uuid.UUID
	StartTime string
	EndTime   string
	SortOrder int
}

// CreatePreset adds a shift preset to a store.
func (s *Service) CreatePreset(ctx context.Context, orgID, storeID uuid.UUID, in PresetInput) (*types.ShiftPreset, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("preset name is required: %w", apperr.ErrBadRequest)
	}
	if err := types.ValidateHHMM(in.StartTime); err != nil {
		return nil, fmt.Errorf("start time: %v: %w", err, apperr.ErrBadRequest)
	}
	if err := types.ValidateHHMM(in.EndTime); err != nil {
		return nil, fmt.Errorf("end time: %v: %w", err, apperr.ErrBadRequest)
	}
	if in.ShiftID != nil {
		if err := s.checkShift(ctx, storeID, *in.ShiftID); err != nil {
			return nil, err
		}
	}

	preset := &types.ShiftPreset{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      strings.TrimSpace(in.Name),
		ShiftID:   in.ShiftID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		SortOrder: in.SortOrder,
		CreatedAt: s.now(),
	}
	err := s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateShiftPreset(ctx, preset); err != nil {
			return fmt.Errorf("failed to create shift preset: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preset, nil
}

// ListPresets returns a store's presets in display order.
func (s *Service) ListPresets(ctx context.Context, orgID, storeID uuid.UUID) ([]*types.ShiftPreset, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	return s.store.ListShiftPresets(ctx, storeID)
}

// DeletePreset removes a preset. Existing schedules keep the values the
// preset filled in; nothing references it afterwards.
func (s *Service) DeletePreset(ctx context.Context, orgID, presetID uuid.UUID) error {
	preset, err := s.store.GetShiftPreset(ctx, presetID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("shift preset %s: %w", presetID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load shift preset: %w", err)
	}
	if err := s.guardStore(ctx, orgID, preset.StoreID); err != nil {
		return err
	}
	if err := s.store.DeleteShiftPreset(ctx, presetID); err != nil {
		return fmt.Errorf("failed to delete shift preset: %w", err)
	}
	return nil
}
