// Package announce broadcasts messages to an organization or to one
// store's members.
//
// An announcement with no store targets every active user in the
// organization; a store-scoped one reaches the store's members. Creation
// queues inbox notifications through the outbox in the same transaction
// as the announcement row.
package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Service manages announcements and their fan-out.
type Service struct {
	store  storage.Storage
	outbox *notify.Outbox
	now    func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(store storage.Storage, outbox *notify.Outbox) *Service {
	return &Service{
		store:  store,
		outbox: outbox,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Input describes a new announcement. A nil StoreID targets the whole
// organization.
type Input struct {
	StoreID *uuid.UUID
	Title   string
	Content string
}

// Create publishes an announcement and notifies its audience.
func (s *Service) Create(ctx context.Context, orgID, createdBy uuid.UUID, in Input) (*types.Announcement, error) {
	if in.StoreID != nil {
		if err := s.guardStore(ctx, orgID, *in.StoreID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	a := &types.Announcement{
		ID:             uuid.New(),
		OrganizationID: orgID,
		StoreID:        in.StoreID,
		Title:          in.Title,
		Content:        in.Content,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	audience, err := s.audience(ctx, orgID, in.StoreID)
	if err != nil {
		return nil, err
	}

	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.CreateAnnouncement(ctx, a); err != nil {
			return fmt.Errorf("failed to create announcement: %w", err)
		}
		return s.outbox.Enqueue(ctx, tx, notify.Entry{
			OrgID:         orgID,
			Recipients:    audience,
			Type:          types.NotifyAnnouncement,
			Message:       fmt.Sprintf("New announcement: %s", a.Title),
			ReferenceType: "announcement",
			ReferenceID:   &a.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateInput carries partial edits; nil fields keep their value.
type UpdateInput struct {
	Title   *string
	Content *string
}

// Update edits an announcement's title or content. The audience is not
// re-notified.
func (s *Service) Update(ctx context.Context, orgID, id uuid.UUID, in UpdateInput) (*types.Announcement, error) {
	a, err := s.guardAnnouncement(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrBadRequest)
	}

	a.UpdatedAt = s.now()
	err = s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateAnnouncement(ctx, a); err != nil {
			return fmt.Errorf("failed to update announcement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an announcement. Notifications already delivered stay.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.guardAnnouncement(ctx, orgID, id); err != nil {
		return err
	}
	return s.store.RunInTransaction(ctx, func(tx storage.Tx) error {
		if err := tx.DeleteAnnouncement(ctx, id); err != nil {
			return fmt.Errorf("failed to delete announcement: %w", err)
		}
		return nil
	})
}

// Get returns one announcement scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*types.Announcement, error) {
	return s.guardAnnouncement(ctx, orgID, id)
}

// List returns the organization's announcements, newest first. A storeID
// narrows the view to org-wide ones plus that store's.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, storeID *uuid.UUID, page storage.Page) ([]*types.Announcement, int, error) {
	if storeID != nil {
		if err := s.guardStore(ctx, orgID, *storeID); err != nil {
			return nil, 0, err
		}
	}
	return s.store.ListAnnouncements(ctx, orgID, storeID, page)
}

// ListForUser returns the announcements a worker can see: org-wide ones
// plus those of every store they belong to.
func (s *Service) ListForUser(ctx context.Context, orgID, userID uuid.UUID, page storage.Page) ([]*types.Announcement, int, error) {
	return s.store.ListAnnouncementsForUser(ctx, orgID, userID, page)
}

// audience resolves who gets notified: the store's members, or every
// active user for an org-wide announcement.
func (s *Service) audience(ctx context.Context, orgID uuid.UUID, storeID *uuid.UUID) ([]uuid.UUID, error) {
	if storeID == nil {
		ids, err := s.store.ListActiveUserIDs(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve audience: %w", err)
		}
		return ids, nil
	}
	ids, err := s.store.ListUserIDsForStore(ctx, *storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audience: %w", err)
	}
	return ids, nil
}

// guardAnnouncement loads an announcement and verifies org ownership.
func (s *Service) guardAnnouncement(ctx context.Context, orgID, id uuid.UUID) (*types.Announcement, error) {
	a, err := s.store.GetAnnouncement(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("announcement %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load announcement: %w", err)
	}
	if a.OrganizationID != orgID {
		return nil, fmt.Errorf("announcement %s: %w", id, apperr.ErrForbidden)
	}
	return a, nil
}

// guardStore verifies the store exists and belongs to the organization.
func (s *Service) guardStore(ctx context.Context, orgID, storeID uuid.UUID) error {
	st, err := s.store.GetStore(ctx, storeID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("store %s: %w", storeID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if st.OrganizationID != orgID {
		return fmt.Errorf("store %s: %w", storeID, apperr.ErrForbidden)
	}
	return nil
}
