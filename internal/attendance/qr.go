package attendance

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// CreateQRCode issues a fresh scannable code for the store, retiring any
// active predecessors in the same transaction so exactly one code scans.
func (s *Service) CreateQRCode(ctx context.Context, orgID, storeID, createdBy uuid.UUID, expiresAt *time.Time) (*types.QRCode, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return nil, fmt.Errorf("expiry must be in the future: %w", apperr.ErrBadRequest)
	}

	code, err := newCode()
	if err != nil {
		return nil, err
	}
	qr := &types.QRCode{
		ID:        uuid.New(),
		StoreID:   storeID,
		Code:      code,
		IsActive:  true,
		CreatedBy: createdBy,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeactivateStoreQRCodes(ctx, storeID); err != nil {
			return fmt.Errorf("failed to retire previous qr codes: %w", err)
		}
		if err := tx.CreateQRCode(ctx, qr); err != nil {
			return fmt.Errorf("failed to create qr code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qr, nil
}

// RegenerateQRCode replaces an existing code with a fresh one for the
// same store. The old code stops scanning immediately.
func (s *Service) RegenerateQRCode(ctx context.Context, orgID, qrID, createdBy uuid.UUID) (*types.QRCode, error) {
	old, err := s.store.GetQRCode(ctx, qrID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("qr code %s: %w", qrID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load qr code: %w", err)
	}
	return s.CreateQRCode(ctx, orgID, old.StoreID, createdBy, nil)
}

// ActiveQRCode returns the store's current scannable code.
func (s *Service) ActiveQRCode(ctx context.Context, orgID, storeID uuid.UUID) (*types.QRCode, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	qr, err := s.store.GetActiveQRCode(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("store %s has no active qr code: %w", storeID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active qr code: %w", err)
	}
	return qr, nil
}

// ListQRCodes returns every code ever issued for the store, newest first.
func (s *Service) ListQRCodes(ctx context.Context, orgID, storeID uuid.UUID) ([]*types.QRCode, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}
	return s.store.ListQRCodes(ctx, storeID)
}

// newCode generates a 32-character hex token.
func newCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
