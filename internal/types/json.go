package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// IntList is an []int stored as a JSON array column. Used for recurrence
// weekday lists.
type IntList []int

// Value implements driver.Valuer. An empty list stores as NULL.
func (l IntList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]int(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal int list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/JSONB columns.
func (l *IntList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.unmarshal(v)
	case string:
		return l.unmarshal([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into IntList", src)
	}
}

func (l *IntList) unmarshal(b []byte) error {
	if len(b) == 0 {
		*l = nil
		return nil
	}
	var out []int
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("failed to unmarshal int list: %w", err)
	}
	*l = out
	return nil
}

// UUIDList is a []uuid.UUID stored as a JSON array column. Used for
// outbox recipient sets.
type UUIDList []uuid.UUID

// Value implements driver.Valuer. An empty list stores as NULL.
func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal uuid list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/JSONB columns.
func (l *UUIDList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.unmarshal(v)
	case string:
		return l.unmarshal([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into UUIDList", src)
	}
}

func (l *UUIDList) unmarshal(b []byte) error {
	if len(b) == 0 {
		*l = nil
		return nil
	}
	var out []uuid.UUID
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("failed to unmarshal uuid list: %w", err)
	}
	*l = out
	return nil
}
