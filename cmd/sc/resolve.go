package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/dateparse"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Reference arguments accept either a full UUID (IDs come from --json
// output) or a human name scoped to the org or store. Name matching is
// case-insensitive.

func parseID(ref string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ref)
	return id, err == nil
}

func resolveStore(ctx context.Context, orgID uuid.UUID, ref string) *types.Store {
	if id, ok := parseID(ref); ok {
		st, err := store.GetStore(ctx, id)
		if err != nil {
			FatalError("store %s: %v", ref, err)
		}
		return st
	}
	stores, err := store.ListStores(ctx, orgID)
	if err != nil {
		FatalError("listing stores: %v", err)
	}
	for _, st := range stores {
		if strings.EqualFold(st.Name, ref) {
			return st
		}
	}
	FatalError("store %q not found", ref)
	return nil
}

func resolveUser(ctx context.Context, orgID uuid.UUID, ref string) *types.User {
	if id, ok := parseID(ref); ok {
		u, err := store.GetUser(ctx, id)
		if err != nil {
			FatalError("user %s: %v", ref, err)
		}
		return u
	}
	u, err := store.GetUserByUsername(ctx, orgID, ref)
	if err != nil {
		FatalError("user %q: %v", ref, err)
	}
	return u
}

func resolveRole(ctx context.Context, orgID uuid.UUID, ref string) *types.Role {
	if id, ok := parseID(ref); ok {
		r, err := store.GetRole(ctx, id)
		if err != nil {
			FatalError("role %s: %v", ref, err)
		}
		return r
	}
	roles, err := store.ListRoles(ctx, orgID)
	if err != nil {
		FatalError("listing roles: %v", err)
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, ref) {
			return r
		}
	}
	FatalError("role %q not found", ref)
	return nil
}

func resolveShift(ctx context.Context, storeID uuid.UUID, ref string) *types.Shift {
	if id, ok := parseID(ref); ok {
		sh, err := store.GetShift(ctx, id)
		if err != nil {
			FatalError("shift %s: %v", ref, err)
		}
		return sh
	}
	shifts, err := store.ListShifts(ctx, storeID)
	if err != nil {
		FatalError("listing shifts: %v", err)
	}
	for _, sh := range shifts {
		if strings.EqualFold(sh.Name, ref) {
			return sh
		}
	}
	FatalError("shift %q not found in store", ref)
	return nil
}

func resolvePosition(ctx context.Context, storeID uuid.UUID, ref string) *types.Position {
	if id, ok := parseID(ref); ok {
		p, err := store.GetPosition(ctx, id)
		if err != nil {
			FatalError("position %s: %v", ref, err)
		}
		return p
	}
	positions, err := store.ListPositions(ctx, storeID)
	if err != nil {
		FatalError("listing positions: %v", err)
	}
	for _, p := range positions {
		if strings.EqualFold(p.Name, ref) {
			return p
		}
	}
	FatalError("position %q not found in store", ref)
	return nil
}

func resolvePreset(ctx context.Context, storeID uuid.UUID, ref string) *types.ShiftPreset {
	if id, ok := parseID(ref); ok {
		p, err := store.GetShiftPreset(ctx, id)
		if err != nil {
			FatalError("preset %s: %v", ref, err)
		}
		return p
	}
	presets, err := store.ListShiftPresets(ctx, storeID)
	if err != nil {
		FatalError("listing presets: %v", err)
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, ref) {
			return p
		}
	}
	FatalError("preset %q not found in store", ref)
	return nil
}

// mustID parses a UUID argument or dies with the flag/arg name.
func mustID(what, ref string) uuid.UUID {
	id, err := uuid.Parse(ref)
	if err != nil {
		FatalError("invalid %s %q (expected a UUID; find it with --json listings)", what, ref)
	}
	return id
}

// mustInt parses an integer argument or dies with the flag/arg name.
func mustInt(what, raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		FatalError("invalid %s %q (expected a number)", what, raw)
	}
	return n
}

// mustDate parses a date flag, accepting "2025-06-01", RFC3339, compact
// offsets like "+1d", and natural language like "next monday".
func mustDate(flag, value string) time.Time {
	t, err := dateparse.Day(value, time.Now())
	if err != nil {
		FatalError("parsing --%s: %v", flag, err)
	}
	return t
}

// pageFromFlags builds a page request from --page/--per-page values.
func pageFromFlags(page, perPage int) storage.Page {
	return storage.Page{Number: page, PerPage: perPage}
}
