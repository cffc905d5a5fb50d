package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/laborlaw"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// WeeklySummary aggregates one worker's records over a Monday through
// Sunday week. Work minutes are net of breaks.
type WeeklySummary struct {
	UserID            uuid.UUID `json:"user_id"`
	WeekStart         time.Time `json:"week_start"`
	WeekEnd           time.Time `json:"week_end"`
	DaysWorked        int       `json:"days_worked"`
	TotalWorkMinutes  int       `json:"total_work_minutes"`
	TotalBreakMinutes int       `json:"total_break_minutes"`
}

// OvertimeAlert flags a worker whose weekly minutes exceed the store cap.
type OvertimeAlert struct {
	UserID          uuid.UUID `json:"user_id"`
	WeekStart       time.Time `json:"week_start"`
	WeekEnd         time.Time `json:"week_end"`
	TotalMinutes    int       `json:"total_minutes"`
	CapMinutes      int       `json:"cap_minutes"`
	OvertimeMinutes int       `json:"overtime_minutes"`
}

// WeeklySummaries aggregates per worker over the week containing weekOf.
// Optional store and user filters narrow the rows; results come back
// ordered by worker.
func (s *Service) WeeklySummaries(ctx context.Context, orgID uuid.UUID, storeID, userID *uuid.UUID, weekOf time.Time) ([]*WeeklySummary, error) {
	if storeID != nil {
		if err := s.guardStore(ctx, orgID, *storeID); err != nil {
			return nil, err
		}
	}

	weekStart := types.WeekStart(weekOf)
	weekEnd := weekStart.AddDate(0, 0, 6)
	records, err := s.store.ListAttendanceBetween(ctx, orgID, storeID, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for week: %w", err)
	}

	byUser := make(map[uuid.UUID]*WeeklySummary)
	for _, rec := range records {
		sum := byUser[rec.UserID]
		if sum == nil {
			sum = &WeeklySummary{UserID: rec.UserID, WeekStart: weekStart, WeekEnd: weekEnd}
			byUser[rec.UserID] = sum
		}
		sum.DaysWorked++
		sum.TotalWorkMinutes += rec.TotalWorkMinutes
		sum.TotalBreakMinutes += rec.TotalBreakMinutes
	}

	summaries := make([]*WeeklySummary, 0, len(byUser))
	for _, sum := range byUser {
		summaries = append(summaries, sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UserID.String() < summaries[j].UserID.String()
	})
	return summaries, nil
}

// OvertimeAlerts reports workers over the weekly cap for the week
// containing weekOf. With a store filter the store's labor setting picks
// the cap; without one the compiled default applies.
func (s *Service) OvertimeAlerts(ctx context.Context, orgID uuid.UUID, storeID *uuid.UUID, weekOf time.Time) ([]*OvertimeAlert, error) {
	capMinutes := laborlaw.DefaultWeeklyCapMinutes
	if storeID != nil {
		if err := s.guardStore(ctx, orgID, *storeID); err != nil {
			return nil, err
		}
		ls, err := s.store.GetLaborSetting(ctx, *storeID)
		if err == nil {
			capMinutes = laborlaw.ResolveCap(ls)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load labor setting: %w", err)
		}
	}

	summaries, err := s.WeeklySummaries(ctx, orgID, storeID, nil, weekOf)
	if err != nil {
		return nil, err
	}

	var alerts []*OvertimeAlert
	for _, sum := range summaries {
		if sum.TotalWorkMinutes <= capMinutes {
			continue
		}
		alerts = append(alerts, &OvertimeAlert{
			UserID:          sum.UserID,
			WeekStart:       sum.WeekStart,
			WeekEnd:         sum.WeekEnd,
			TotalMinutes:    sum.TotalWorkMinutes,
			CapMinutes:      capMinutes,
			OvertimeMinutes: sum.TotalWorkMinutes - capMinutes,
		})
	}
	return alerts, nil
}
