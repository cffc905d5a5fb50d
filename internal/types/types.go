// Package types defines core data structures for the shiftcrew workforce core.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant root. Every other entity hangs off an
// organization and queries are always scoped to one.
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Store is a physical location belonging to an organization.
type Store struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Address        string    `json:"address,omitempty" db:"address"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Shift is a named work period within a store (e.g. "Open", "Close").
// Unique per (store, name).
type Shift struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StoreID   uuid.UUID `json:"store_id" db:"store_id"`
	Name      string    `json:"name" db:"name"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Position is a named job role within a store (e.g. "Kitchen", "Register").
// Unique per (store, name).
type Position struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StoreID   uuid.UUID `json:"store_id" db:"store_id"`
	Name      string    `json:"name" db:"name"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Role levels. Lower number outranks higher.
const (
	LevelOwner          = 1
	LevelGeneralManager = 2
	LevelSupervisor     = 3
	LevelStaff          = 4
)

// Role is an org-scoped rank with a numeric level used for priority checks.
// The four built-in roles are seeded per organization; names are unique
// within an org.
type Role struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Level          int       `json:"level" db:"level"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Outranks reports whether r strictly outranks other (smaller level wins).
func (r *Role) Outranks(other *Role) bool {
	return r.Level < other.Level
}

// User is an org member. Username is unique within the organization.
// PasswordHash carries a bcrypt hash and never leaves the server.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	RoleID         uuid.UUID `json:"role_id" db:"role_id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email,omitempty" db:"email"`
	FullName       string    `json:"full_name" db:"full_name"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	EmailVerified  bool      `json:"email_verified" db:"email_verified"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks field constraints before persistence.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if len(u.Username) > 100 {
		return fmt.Errorf("username too long: %d chars (max 100)", len(u.Username))
	}
	if strings.TrimSpace(u.FullName) == "" {
		return fmt.Errorf("full name is required")
	}
	if u.RoleID == uuid.Nil {
		return fmt.Errorf("role is required")
	}
	return nil
}

// RefreshToken is a persisted long-lived credential. Rows are deleted on
// rotation, logout, and password change, so a stolen token dies with the
// session it belonged to.
type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the token is past its expiry at the given time.
func (r *RefreshToken) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

// Permission is a grantable capability identified by a "resource:action"
// code. When RequirePriorityCheck is set, exercising the permission against
// another user additionally requires the actor's role to outrank the
// target's.
type Permission struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Code                 string    `json:"code" db:"code"`
	Resource             string    `json:"resource" db:"resource"`
	Action               string    `json:"action" db:"action"`
	Description          string    `json:"description,omitempty" db:"description"`
	RequirePriorityCheck bool      `json:"require_priority_check" db:"require_priority_check"`
}

// RolePermission grants a permission to a role.
type RolePermission struct {
	RoleID       uuid.UUID `json:"role_id" db:"role_id"`
	PermissionID uuid.UUID `json:"permission_id" db:"permission_id"`
}

// WeekdayIndex converts Go's Sunday-based weekday to the Monday-based
// 0..6 index used by recurrence day lists (0=Mon .. 6=Sun).
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DateOnly truncates t to midnight UTC. Work dates are stored and
// compared in this normalized form on every backend.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday midnight UTC that opens the week
// containing t. Overtime windows are Monday through Sunday.
func WeekStart(t time.Time) time.Time {
	return DateOnly(t).AddDate(0, 0, -WeekdayIndex(t))
}
