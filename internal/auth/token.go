package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Token kinds carried in the typ claim. Access tokens authenticate
// requests; refresh tokens only mint new pairs.
const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds. Subject holds the user
// ID; the role fields are a convenience snapshot and are re-resolved from
// storage on every authenticated request.
type Claims struct {
	OrgID     uuid.UUID `json:"org"`
	RoleName  string    `json:"role"`
	RoleLevel int       `json:"level"`
	TokenType string    `json:"typ"`
	jwt.RegisteredClaims
}

func (s *Service) signToken(user *types.User, role *types.Role, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		OrgID:     user.OrganizationID,
		RoleName:  role.Name,
		RoleLevel: role.Level,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parseToken verifies signature, expiry, and kind. All failures read the
// same so a caller learns nothing about why a token was rejected.
func (s *Service) parseToken(token, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || claims.TokenType != kind {
		return nil, fmt.Errorf("invalid or expired token: %w", apperr.ErrUnauthorized)
	}
	return claims, nil
}
