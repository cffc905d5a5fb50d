package sqlstore

import (
	"encoding/json"
	"fmt"

	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Snapshots and locations are stored in JSON columns (JSONB on Postgres,
// TEXT on SQLite). Both drivers accept a string on the way in and hand
// back bytes on the way out.

func snapshotValue(s *types.ChecklistSnapshot) (interface{}, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checklist snapshot: %w", err)
	}
	return string(b), nil
}

func scanSnapshot(raw []byte) (*types.ChecklistSnapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s types.ChecklistSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checklist snapshot: %w", err)
	}
	return &s, nil
}

func locationValue(l *types.Location) (interface{}, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	return string(b), nil
}

func scanLocation(raw []byte) (*types.Location, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var l types.Location
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return &l, nil
}
