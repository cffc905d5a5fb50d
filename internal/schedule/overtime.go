package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/laborlaw"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// OvertimeCheck reports a worker's standing against the weekly cap for the
// Monday through Sunday week containing the probed date.
type OvertimeCheck struct {
	UserID           uuid.UUID `json:"user_id"`
	WeekStart        time.Time `json:"week_start"`
	WeekEnd          time.Time `json:"week_end"`
	CurrentMinutes   int       `json:"current_minutes"`
	AddingMinutes    int       `json:"adding_minutes"`
	ProjectedMinutes int       `json:"projected_minutes"`
	CapMinutes       int       `json:"cap_minutes"`
	Overtime         bool      `json:"overtime"`
	OvertimeMinutes  int       `json:"overtime_minutes"`
}

// ValidateOvertime sums the worker's recorded minutes over workDate's week
// and projects addMinutes on top. The cap comes from the store's labor
// setting: an explicit weekly cap, else its jurisdiction rule, else the
// compiled default. Purely advisory; nothing blocks on the result.
func (s *Service) ValidateOvertime(ctx context.Context, orgID, storeID, userID uuid.UUID, workDate time.Time, addMinutes int) (*OvertimeCheck, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if err := s.guardWorker(ctx, orgID, userID); err != nil {
		return nil, err
	}
	if addMinutes < 0 {
		return nil, fmt.Errorf("adding minutes must not be negative: %w", apperr.ErrBadRequest)
	}

	weekStart := types.WeekStart(workDate)
	weekEnd := weekStart.AddDate(0, 0, 6)
	current, err := s.store.SumWorkMinutes(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to sum work minutes: %w", err)
	}

	capMinutes, err := s.weeklyCap(ctx, storeID)
	if err != nil {
		return nil, err
	}

	projected := current + addMinutes
	check := &OvertimeCheck{
		UserID:           userID,
		WeekStart:        weekStart,
		WeekEnd:          weekEnd,
		CurrentMinutes:   current,
		AddingMinutes:    addMinutes,
		ProjectedMinutes: projected,
		CapMinutes:       capMinutes,
		Overtime:         projected > capMinutes,
	}
	if check.Overtime {
		check.OvertimeMinutes = projected - capMinutes
	}
	return check, nil
}

// LaborPolicy is a store's effective weekly working-time rule.
type LaborPolicy struct {
	Setting    *types.LaborSetting `json:"setting,omitempty"`
	CapMinutes int                 `json:"cap_minutes"`
}

// LaborPolicy returns the store's setting, if any, with the cap it
// resolves to.
func (s *Service) LaborPolicy(ctx context.Context, orgID, storeID uuid.UUID) (*LaborPolicy, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	ls, err := s.laborSetting(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return &LaborPolicy{Setting: ls, CapMinutes: laborlaw.ResolveCap(ls)}, nil
}

// SetLaborPolicy upserts the store's labor setting. An empty jurisdiction
// with no cap clears the store back to the default rule.
func (s *Service) SetLaborPolicy(ctx context.Context, orgID, storeID uuid.UUID, jurisdiction string, weeklyCapMinutes *int) (*LaborPolicy, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if jurisdiction != "" && !laborlaw.Known(jurisdiction) {
		return nil, fmt.Errorf("unknown jurisdiction code %q: %w", jurisdiction, apperr.ErrBadRequest)
	}
	if weeklyCapMinutes != nil && *weeklyCapMinutes <= 0 {
		return nil, fmt.Errorf("weekly cap must be positive: %w", apperr.ErrBadRequest)
	}

	ls := &types.LaborSetting{
		StoreID:          storeID,
		Jurisdiction:     jurisdiction,
		WeeklyCapMinutes: weeklyCapMinutes,
		UpdatedAt:        s.now(),
	}
	err := s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertLaborSetting(ctx, ls); err != nil {
			return fmt.Errorf("failed to save labor setting: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &LaborPolicy{Setting: ls, CapMinutes: laborlaw.ResolveCap(ls)}, nil
}

// weeklyCap resolves a store's cap without the ownership guard, for use
// after the caller has already verified the store.
func (s *Service) weeklyCap(ctx context.Context, storeID uuid.UUID) (int, error) {
	ls, err := s.laborSetting(ctx, storeID)
	if err != nil {
		return 0, err
	}
	return laborlaw.ResolveCap(ls), nil
}

// laborSetting loads the store's setting, mapping absence to nil.
func (s *Service) laborSetting(ctx context.Context, storeID uuid.UUID) (*types.LaborSetting, error) {
	ls, err := s.store.GetLaborSetting(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load labor setting: %w", err)
	}
	return ls, nil
}
