// Package shiftcrew provides a minimal public API for embedding the
// workforce engine in other Go programs.
//
// Most integrations should talk to a running server over its REST API.
// This package exports only the essential types and an Open function for
// programs that want to use the storage layer directly, such as custom
// reporting or import jobs.
package shiftcrew

import (
	"context"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/types"

	_ "github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
)

// Core types for working with the schedule and the people on it
type (
	Organization   = types.Organization
	Store          = types.Store
	User           = types.User
	Role           = types.Role
	WorkAssignment = types.WorkAssignment
	Schedule       = types.Schedule
	Attendance     = types.Attendance
)

// Assignment status constants
const (
	AssignmentAssigned   = types.AssignmentAssigned
	AssignmentInProgress = types.AssignmentInProgress
	AssignmentCompleted  = types.AssignmentCompleted
)

// Schedule status constants
const (
	ScheduleDraft     = types.ScheduleDraft
	SchedulePending   = types.SchedulePending
	ScheduleApproved  = types.ScheduleApproved
	ScheduleCancelled = types.ScheduleCancelled
)

// Attendance status constants
const (
	AttendanceClockedIn  = types.AttendanceClockedIn
	AttendanceOnBreak    = types.AttendanceOnBreak
	AttendanceClockedOut = types.AttendanceClockedOut
)

// Storage provides the minimal interface for direct data access
type Storage = storage.Storage

// Open connects to a database for programmatic access. The connection
// string is either a postgres:// URL or a SQLite file path; pending
// migrations are applied on open.
func Open(ctx context.Context, conn string) (Storage, error) {
	return factory.New(ctx, conn)
}
