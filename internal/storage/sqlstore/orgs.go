package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func (q *queries) CreateOrganization(ctx context.Context, org *types.Organization) error {
	return q.exec(ctx, "failed to insert organization",
		`INSERT INTO organizations (id, name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		org.ID, org.Name, org.IsActive, org.CreatedAt, org.UpdatedAt)
}

func (q *queries) GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error) {
	var org types.Organization
	err := q.get(ctx, &org, "failed to get organization",
		`SELECT id, name, is_active, created_at, updated_at FROM organizations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (q *queries) ListOrganizations(ctx context.Context) ([]*types.Organization, error) {
	var orgs []*types.Organization
	err := q.list(ctx, &orgs, "failed to list organizations",
		`SELECT id, name, is_active, created_at, updated_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (q *queries) UpdateOrganization(ctx context.Context, org *types.Organization) error {
	return q.execAffecting(ctx, "failed to update organization",
		`UPDATE organizations SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		org.Name, org.IsActive, org.UpdatedAt, org.ID)
}

func (q *queries) CreateStore(ctx context.Context, store *types.Store) error {
	return q.exec(ctx, "failed to insert store",
		`INSERT INTO stores (id, organization_id, name, address, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		store.ID, store.OrganizationID, store.Name, store.Address, store.IsActive,
		store.CreatedAt, store.UpdatedAt)
}

func (q *queries) GetStore(ctx context.Context, id uuid.UUID) (*types.Store, error) {
	var store types.Store
	err := q.get(ctx, &store, "failed to get store",
		`SELECT id, organization_id, name, address, is_active, created_at, updated_at
		 FROM stores WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (q *queries) ListStores(ctx context.Context, orgID uuid.UUID) ([]*types.Store, error) {
	var stores []*types.Store
	err := q.list(ctx, &stores, "failed to list stores",
		`SELECT id, organization_id, name, address, is_active, created_at, updated_at
		 FROM stores WHERE organization_id = ? ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	return stores, nil
}

func (q *queries) UpdateStore(ctx context.Context, store *types.Store) error {
	return q.execAffecting(ctx, "failed to update store",
		`UPDATE stores SET name = ?, address = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		store.Name, store.Address, store.IsActive, store.UpdatedAt, store.ID)
}

// DeleteStore removes a store. Shifts, positions, templates, and other
// store-scoped rows cascade with it.
func (q *queries) DeleteStore(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete store", `DELETE FROM stores WHERE id = ?`, id)
}

func (q *queries) CreateShift(ctx context.Context, shift *types.Shift) error {
	return q.exec(ctx, "failed to insert shift",
		`INSERT INTO shifts (id, store_id, name, sort_order, created_at) VALUES (?, ?, ?, ?, ?)`,
		shift.ID, shift.StoreID, shift.Name, shift.SortOrder, shift.CreatedAt)
}

func (q *queries) GetShift(ctx context.Context, id uuid.UUID) (*types.Shift, error) {
	var shift types.Shift
	err := q.get(ctx, &shift, "failed to get shift",
		`SELECT id, store_id, name, sort_order, created_at FROM shifts WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (q *queries) ListShifts(ctx context.Context, storeID uuid.UUID) ([]*types.Shift, error) {
	var shifts []*types.Shift
	err := q.list(ctx, &shifts, "failed to list shifts",
		`SELECT id, store_id, name, sort_order, created_at
		 FROM shifts WHERE store_id = ? ORDER BY sort_order, name`, storeID)
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (q *queries) UpdateShift(ctx context.Context, shift *types.Shift) error {
	return q.execAffecting(ctx, "failed to update shift",
		`UPDATE shifts SET name = ?, sort_order = ? WHERE id = ?`,
		shift.Name, shift.SortOrder, shift.ID)
}

func (q *queries) DeleteShift(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete shift", `DELETE FROM shifts WHERE id = ?`, id)
}

func (q *queries) CreatePosition(ctx context.Context, pos *types.Position) error {
	return q.exec(ctx, "failed to insert position",
		`INSERT INTO positions (id, store_id, name, sort_order, created_at) VALUES (?, ?, ?, ?, ?)`,
		pos.ID, pos.StoreID, pos.Name, pos.SortOrder, pos.CreatedAt)
}

func (q *queries) GetPosition(ctx context.Context, id uuid.UUID) (*types.Position, error) {
	var pos types.Position
	err := q.get(ctx, &pos, "failed to get position",
		`SELECT id, store_id, name, sort_order, created_at FROM positions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (q *queries) ListPositions(ctx context.Context, storeID uuid.UUID) ([]*types.Position, error) {
	var positions []*types.Position
	err := q.list(ctx, &positions, "failed to list positions",
		`SELECT id, store_id, name, sort_order, created_at
		 FROM positions WHERE store_id = ? ORDER BY sort_order, name`, storeID)
	if err != nil {
		return nil, err
	}
	return positions, nil
}

func (q *queries) UpdatePosition(ctx context.Context, pos *types.Position) error {
	return q.execAffecting(ctx, "failed to update position",
		`UPDATE positions SET name = ?, sort_order = ? WHERE id = ?`,
		pos.Name, pos.SortOrder, pos.ID)
}

func (q *queries) DeletePosition(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete position", `DELETE FROM positions WHERE id = ?`, id)
}

func (q *queries) CreateRole(ctx context.Context, role *types.Role) error {
	return q.exec(ctx, "failed to insert role",
		`INSERT INTO roles (id, organization_id, name, level, created_at) VALUES (?, ?, ?, ?, ?)`,
		role.ID, role.OrganizationID, role.Name, role.Level, role.CreatedAt)
}

func (q *queries) GetRole(ctx context.Context, id uuid.UUID) (*types.Role, error) {
	var role types.Role
	err := q.get(ctx, &role, "failed to get role",
		`SELECT id, organization_id, name, level, created_at FROM roles WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (q *queries) ListRoles(ctx context.Context, orgID uuid.UUID) ([]*types.Role, error) {
	var roles []*types.Role
	err := q.list(ctx, &roles, "failed to list roles",
		`SELECT id, organization_id, name, level, created_at
		 FROM roles WHERE organization_id = ? ORDER BY level, name`, orgID)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (q *queries) UpdateRole(ctx context.Context, role *types.Role) error {
	return q.execAffecting(ctx, "failed to update role",
		`UPDATE roles SET name = ?, level = ? WHERE id = ?`,
		role.Name, role.Level, role.ID)
}

func (q *queries) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to delete role", `DELETE FROM roles WHERE id = ?`, id)
}

// CountUsersWithRole reports how many users hold a role. Deletion guards
// check this because users.role_id carries no cascade.
func (q *queries) CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int, error) {
	var n int
	err := q.get(ctx, &n, "failed to count users with role",
		`SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

const userCols = `id, organization_id, role_id, username, email, full_name, password_hash,
	is_active, email_verified, created_at, updated_at`

func (q *queries) CreateUser(ctx context.Context, user *types.User) error {
	return q.exec(ctx, "failed to insert user",
		`INSERT INTO users (`+userCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.OrganizationID, user.RoleID, user.Username, user.Email, user.FullName,
		user.PasswordHash, user.IsActive, user.EmailVerified, user.CreatedAt, user.UpdatedAt)
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var user types.User
	err := q.get(ctx, &user, "failed to get user",
		`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *queries) GetUserByUsername(ctx context.Context, orgID uuid.UUID, username string) (*types.User, error) {
	var user types.User
	err := q.get(ctx, &user, "failed to get user by username",
		`SELECT `+userCols+` FROM users WHERE organization_id = ? AND username = ?`, orgID, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (q *queries) ListUsers(ctx context.Context, orgID uuid.UUID, page storage.Page) ([]*types.User, int, error) {
	p := page.Normalize()
	var total int
	err := q.get(ctx, &total, "failed to count users",
		`SELECT COUNT(*) FROM users WHERE organization_id = ?`, orgID)
	if err != nil {
		return nil, 0, err
	}
	var users []*types.User
	err = q.list(ctx, &users, "failed to list users",
		`SELECT `+userCols+` FROM users WHERE organization_id = ?
		 ORDER BY username LIMIT ? OFFSET ?`, orgID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (q *queries) UpdateUser(ctx context.Context, user *types.User) error {
	return q.execAffecting(ctx, "failed to update user",
		`UPDATE users SET role_id = ?, username = ?, email = ?, full_name = ?, password_hash = ?,
		 is_active = ?, email_verified = ?, updated_at = ? WHERE id = ?`,
		user.RoleID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.IsActive, user.EmailVerified, user.UpdatedAt, user.ID)
}

func (q *queries) ListActiveUserIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := q.list(ctx, &ids, "failed to list active users",
		`SELECT id FROM users WHERE organization_id = ? AND is_active = ?`, orgID, true)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *queries) ListUserIDsWithMaxLevel(ctx context.Context, orgID uuid.UUID, maxLevel int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := q.list(ctx, &ids, "failed to list users by level",
		`SELECT u.id FROM users u
		 JOIN roles r ON r.id = u.role_id
		 WHERE u.organization_id = ? AND u.is_active = ? AND r.level <= ?`,
		orgID, true, maxLevel)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// AssignUserToStore adds a store membership. Re-assigning an existing
// membership returns ErrConflict.
func (q *queries) AssignUserToStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return q.exec(ctx, "failed to assign user to store",
		`INSERT INTO user_stores (user_id, store_id) VALUES (?, ?)`,
		userID, storeID)
}

func (q *queries) RemoveUserFromStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return q.execAffecting(ctx, "failed to remove user from store",
		`DELETE FROM user_stores WHERE user_id = ? AND store_id = ?`, userID, storeID)
}

func (q *queries) ListStoreIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := q.list(ctx, &ids, "failed to list stores for user",
		`SELECT store_id FROM user_stores WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *queries) ListUserIDsForStore(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := q.list(ctx, &ids, "failed to list users for store",
		`SELECT user_id FROM user_stores WHERE store_id = ?`, storeID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *queries) UpsertPermission(ctx context.Context, perm *types.Permission) error {
	return q.exec(ctx, "failed to upsert permission",
		`INSERT INTO permissions (id, code, resource, action, description, require_priority_check)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (code) DO UPDATE SET
			resource = excluded.resource,
			action = excluded.action,
			description = excluded.description,
			require_priority_check = excluded.require_priority_check`,
		perm.ID, perm.Code, perm.Resource, perm.Action, perm.Description, perm.RequirePriorityCheck)
}

func (q *queries) GetPermissionByCode(ctx context.Context, code string) (*types.Permission, error) {
	var perm types.Permission
	err := q.get(ctx, &perm, "failed to get permission",
		`SELECT id, code, resource, action, description, require_priority_check
		 FROM permissions WHERE code = ?`, code)
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (q *queries) GrantPermission(ctx context.Context, roleID, permID uuid.UUID) error {
	return q.exec(ctx, "failed to grant permission",
		`INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
		 ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID, permID)
}

func (q *queries) ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	var codes []string
	err := q.list(ctx, &codes, "failed to list permission codes",
		`SELECT p.code FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ? ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (q *queries) ListPermissions(ctx context.Context) ([]*types.Permission, error) {
	var perms []*types.Permission
	err := q.list(ctx, &perms, "failed to list permissions",
		`SELECT id, code, resource, action, description, require_priority_check
		 FROM permissions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (q *queries) ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]*types.Permission, error) {
	var perms []*types.Permission
	err := q.list(ctx, &perms, "failed to list role permissions",
		`SELECT p.id, p.code, p.resource, p.action, p.description, p.require_priority_check
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ? ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// SetRolePermissions replaces a role's grants wholesale.
func (q *queries) SetRolePermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error {
	if err := q.exec(ctx, "failed to clear role permissions",
		`DELETE FROM role_permissions WHERE role_id = ?`, roleID); err != nil {
		return err
	}
	for _, permID := range permIDs {
		if err := q.GrantPermission(ctx, roleID, permID); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) CreateRefreshToken(ctx context.Context, rt *types.RefreshToken) error {
	return q.exec(ctx, "failed to insert refresh token",
		`INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rt.ID, rt.UserID, rt.Token, rt.ExpiresAt, rt.CreatedAt)
}

func (q *queries) GetRefreshToken(ctx context.Context, token string) (*types.RefreshToken, error) {
	var rt types.RefreshToken
	err := q.get(ctx, &rt, "failed to get refresh token",
		`SELECT id, user_id, token, expires_at, created_at
		 FROM refresh_tokens WHERE token = ?`, token)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// DeleteRefreshToken is a no-op for unknown tokens so logout stays
// idempotent.
func (q *queries) DeleteRefreshToken(ctx context.Context, token string) error {
	return q.exec(ctx, "failed to delete refresh token",
		`DELETE FROM refresh_tokens WHERE token = ?`, token)
}

func (q *queries) DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error {
	return q.exec(ctx, "failed to delete refresh tokens",
		`DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
}
