// Package auth covers credentials and authorization: bcrypt password
// hashing, the JWT access/refresh token lifecycle, and the permission
// checks the API layer runs per route.
//
// Access tokens are stateless and short-lived. Refresh tokens are also
// persisted server-side and rotate on every use, so a pair can be
// revoked by deleting its row. Permissions are resource:action codes
// granted to roles; some additionally require the actor's role to
// outrank the target user's.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Token lifetimes applied when Config leaves them zero.
const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config carries the signing secret and token lifetimes.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service implements login, token refresh, and permission enforcement.
type Service struct {
	store storage.Storage
	cfg   Config
	now   func() time.Time
}

// NewService wires a Service, filling zero lifetimes with the defaults.
func NewService(store storage.Storage, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Service{
		store: store,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TokenPair is one issued access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login verifies credentials and issues a token pair. Unknown usernames
// and wrong passwords read identically so the response never confirms
// whether an account exists.
func (s *Service) Login(ctx context.Context, orgID uuid.UUID, username, password string) (*TokenPair, error) {
	user, err := s.store.GetUserByUsername(ctx, orgID, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("invalid username or password: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid username or password: %w", apperr.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", apperr.ErrUnauthorized)
	}
	role, err := s.loadRole(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user, role)
}

// Refresh trades a valid refresh token for a fresh pair. The presented
// token is retired either way: expired and malformed tokens are deleted,
// and a successful refresh rotates the stored row.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.store.GetRefreshToken(ctx, refreshToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored.Expired(s.now()) {
		_ = s.store.DeleteRefreshToken(ctx, refreshToken)
		return nil, fmt.Errorf("refresh token has expired: %w", apperr.ErrUnauthorized)
	}
	claims, err := s.parseToken(refreshToken, tokenRefresh)
	if err != nil {
		_ = s.store.DeleteRefreshToken(ctx, refreshToken)
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthorized)
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user, role)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.store.DeleteRefreshToken(ctx, refreshToken)
}

// ChangePassword swaps a verified current password for a new one and
// revokes the user's refresh tokens, ending every other session.
func (s *Service) ChangePassword(ctx context.Context, orgID, userID uuid.UUID, current, next string) error {
	user, err := s.guardUser(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(current, user.PasswordHash) {
		return fmt.Errorf("current password is incorrect: %w", apperr.ErrBadRequest)
	}
	if len(next) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLen, apperr.ErrBadRequest)
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.DeleteRefreshTokensForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		return nil
	})
}

// Actor is an authenticated caller with role and permissions resolved
// from storage for this request, not trusted from the token.
type Actor struct {
	User        *types.User
	Role        *types.Role
	Permissions map[string]bool
}

// Can reports whether the actor holds a permission code.
func (a *Actor) Can(code string) bool {
	return a.Permissions[code]
}

// OrgID is the actor's tenant.
func (a *Actor) OrgID() uuid.UUID {
	return a.User.OrganizationID
}

// Authenticate resolves a bearer access token into an Actor.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Actor, error) {
	claims, err := s.parseToken(accessToken, tokenAccess)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthorized)
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	codes, err := s.store.ListPermissionCodes(ctx, role.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	perms := make(map[string]bool, len(codes))
	for _, c := range codes {
		perms[c] = true
	}
	return &Actor{User: user, Role: role, Permissions: perms}, nil
}

// Require rejects actors missing a permission code.
func (s *Service) Require(a *Actor, code string) error {
	if !a.Can(code) {
		return fmt.Errorf("permission required %s: %w", code, apperr.ErrForbidden)
	}
	return nil
}

// RequireOverUser enforces a permission against a target user. When the
// permission carries require_priority_check, the actor's role must also
// outrank the target's; peers cannot manage each other.
func (s *Service) RequireOverUser(ctx context.Context, a *Actor, code string, targetUserID uuid.UUID) error {
	if err := s.Require(a, code); err != nil {
		return err
	}
	perm, err := s.store.GetPermissionByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("permission required %s: %w", code, apperr.ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("failed to load permission: %w", err)
	}
	if !perm.RequirePriorityCheck {
		return nil
	}
	target, err := s.store.GetUser(ctx, targetUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %s: %w", targetUserID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	targetRole, err := s.loadRole(ctx, target.RoleID)
	if err != nil {
		return err
	}
	if !a.Role.Outranks(targetRole) {
		return fmt.Errorf("cannot manage a user at or above your role level: %w", apperr.ErrForbidden)
	}
	return nil
}

// CanEvaluate reports whether one role may evaluate another. Evaluations
// only flow downward; peers and subordinates never evaluate upward.
func CanEvaluate(evaluator, evaluatee *types.Role) bool {
	return evaluator.Outranks(evaluatee)
}

// issuePair signs both tokens and rotates the user's stored refresh
// tokens, leaving exactly one live session per user.
func (s *Service) issuePair(ctx context.Context, user *types.User, role *types.Role) (*TokenPair, error) {
	access, err := s.signToken(user, role, tokenAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, role, tokenRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteRefreshTokensForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("failed to rotate refresh tokens: %w", err)
		}
		if err := tx.CreateRefreshToken(ctx, &types.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     refresh,
			ExpiresAt: now.Add(s.cfg.RefreshTTL),
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// activeUser loads a user for authentication purposes. Missing and
// deactivated users read identically.
func (s *Service) activeUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user not found or inactive: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user not found or inactive: %w", apperr.ErrUnauthorized)
	}
	return user, nil
}

func (s *Service) loadRole(ctx context.Context, id uuid.UUID) (*types.Role, error) {
	role, err := s.store.GetRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role, nil
}

// guardUser loads a user and verifies org ownership.
func (s *Service) guardUser(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.OrganizationID != orgID {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrForbidden)
	}
	return user, nil
}
