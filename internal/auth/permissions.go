package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// catalogEntry is one built-in permission. Resource and action derive
// from the code at seed time.
type catalogEntry struct {
	code        string
	description string
	// priorityCheck marks codes whose exercise against another user
	// additionally requires outranking them.
	priorityCheck bool
}

// catalog is the full permission set. Grants are per role; the catalog
// itself is global.
var catalog = []catalogEntry{
	{"stores:create", "Create stores", false},
	{"stores:read", "View stores", false},
	{"stores:update", "Edit stores", false},
	{"stores:delete", "Delete stores", false},
	{"users:create", "Create users", true},
	{"users:read", "View users", false},
	{"users:update", "Edit users", true},
	{"users:delete", "Delete users", true},
	{"roles:create", "Create roles", true},
	{"roles:read", "View roles", false},
	{"roles:update", "Edit roles", true},
	{"roles:delete", "Delete roles", true},
	{"evaluations:create", "Create evaluations", false},
	{"evaluations:read", "View evaluations", false},
	{"evaluations:update", "Edit evaluations", false},
	{"evaluations:delete", "Delete evaluations", false},
	{"schedules:create", "Create schedules", false},
	{"schedules:read", "View schedules", false},
	{"schedules:update", "Edit schedules", false},
	{"schedules:delete", "Delete schedules", false},
	{"announcements:create", "Create announcements", false},
	{"announcements:read", "View announcements", false},
	{"announcements:update", "Edit announcements", false},
	{"announcements:delete", "Delete announcements", false},
	{"checklists:create", "Create checklists", false},
	{"checklists:read", "View checklists", false},
	{"checklists:update", "Edit checklists", false},
	{"checklists:delete", "Delete checklists", false},
	{"tasks:create", "Create additional tasks", false},
	{"tasks:read", "View additional tasks", false},
	{"tasks:update", "Edit additional tasks", false},
	{"tasks:delete", "Delete additional tasks", false},
	{"dashboard:read", "View the dashboard", false},
	{"audit_log:read", "View audit history", false},
}

// gmExcluded lists the codes a general manager does not get by default:
// store and role lifecycle stay with the owner.
var gmExcluded = map[string]bool{
	"stores:create": true,
	"stores:delete": true,
	"roles:create":  true,
	"roles:delete":  true,
}

// supervisorCodes is the read-mostly default slice for supervisors, plus
// schedule drafting.
var supervisorCodes = []string{
	"stores:read",
	"users:read",
	"roles:read",
	"schedules:read",
	"schedules:create",
	"announcements:read",
	"checklists:read",
	"tasks:read",
	"evaluations:read",
	"dashboard:read",
}

// SeedPermissions upserts the built-in catalog. Existing codes are
// updated in place, so reseeding after an upgrade is safe and grants
// survive.
func SeedPermissions(ctx context.Context, q storage.Queries) error {
	for _, entry := range catalog {
		resource, action, _ := strings.Cut(entry.code, ":")
		perm := &types.Permission{
			ID:                   uuid.New(),
			Code:                 entry.code,
			Resource:             resource,
			Action:               action,
			Description:          entry.description,
			RequirePriorityCheck: entry.priorityCheck,
		}
		if err := q.UpsertPermission(ctx, perm); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", entry.code, err)
		}
	}
	return nil
}

// DefaultCodes returns the permission codes a role level holds out of
// the box. Owners hold everything, general managers everything except
// store and role lifecycle, supervisors a read-mostly slice, staff
// nothing.
func DefaultCodes(level int) []string {
	switch {
	case level <= types.LevelOwner:
		codes := make([]string, len(catalog))
		for i, entry := range catalog {
			codes[i] = entry.code
		}
		return codes
	case level == types.LevelGeneralManager:
		var codes []string
		for _, entry := range catalog {
			if !gmExcluded[entry.code] {
				codes = append(codes, entry.code)
			}
		}
		return codes
	case level == types.LevelSupervisor:
		return supervisorCodes
	default:
		return nil
	}
}

// GrantDefaults grants a role its level's default codes. The catalog
// must already be seeded.
func GrantDefaults(ctx context.Context, q storage.Queries, role *types.Role) error {
	for _, code := range DefaultCodes(role.Level) {
		perm, err := q.GetPermissionByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to resolve permission %s: %w", code, err)
		}
		if err := q.GrantPermission(ctx, role.ID, perm.ID); err != nil {
			return fmt.Errorf("failed to grant %s: %w", code, err)
		}
	}
	return nil
}
