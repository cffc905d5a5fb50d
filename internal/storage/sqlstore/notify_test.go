package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func TestOutboxRoundTrip(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	worker2 := f.addUser(t, s, "worker2")
	refID := uuid.New()
	e := &types.OutboxEntry{
		ID:             uuid.New(),
		OrganizationID: f.org.ID,
		Recipients:     types.UUIDList{f.user.ID, worker2.ID},
		Type:           types.NotifyWorkAssigned,
		Message:        "New checklist for today",
		ReferenceType:  "work_assignment",
		ReferenceID:    &refID,
		CreatedAt:      now,
	}
	if err := s.EnqueueOutbox(ctx, e); err != nil {
		t.Fatalf("EnqueueOutbox failed: %v", err)
	}

	pending, err := s.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending entry, got %d", len(pending))
	}
	got := pending[0]
	if len(got.Recipients) != 2 || got.Recipients[0] != f.user.ID || got.Recipients[1] != worker2.ID {
		t.Errorf("Recipients did not round-trip: %v", got.Recipients)
	}
	if got.ReferenceID == nil || *got.ReferenceID != refID {
		t.Errorf("Expected reference %s, got %v", refID, got.ReferenceID)
	}
	if got.DispatchedAt != nil || got.Attempts != 0 {
		t.Errorf("Fresh entry should be undispatched, got %+v", got)
	}
}

func TestOutboxDispatchAndRetry(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	enqueue := func(msg string, at time.Time) uuid.UUID {
		e := &types.OutboxEntry{
			ID: uuid.New(), OrganizationID: f.org.ID,
			Recipients: types.UUIDList{f.user.ID},
			Type:       types.NotifyAnnouncement, Message: msg, CreatedAt: at,
		}
		if err := s.EnqueueOutbox(ctx, e); err != nil {
			t.Fatalf("EnqueueOutbox failed: %v", err)
		}
		return e.ID
	}
	first := enqueue("first", now.Add(-2*time.Second))
	enqueue("second", now.Add(-time.Second))

	// Oldest first so a backlog drains in order.
	pending, err := s.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox failed: %v", err)
	}
	if len(pending) != 2 || pending[0].Message != "first" {
		t.Fatalf("Expected oldest first, got %+v", pending)
	}

	if err := s.MarkOutboxDispatched(ctx, first, now); err != nil {
		t.Fatalf("MarkOutboxDispatched failed: %v", err)
	}
	pending, err = s.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox after dispatch failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Message != "second" {
		t.Fatalf("Expected only the second entry pending, got %+v", pending)
	}

	// A failed delivery bumps attempts but stays pending.
	if err := s.BumpOutboxAttempts(ctx, pending[0].ID); err != nil {
		t.Fatalf("BumpOutboxAttempts failed: %v", err)
	}
	if err := s.BumpOutboxAttempts(ctx, pending[0].ID); err != nil {
		t.Fatalf("Second BumpOutboxAttempts failed: %v", err)
	}
	pending, err = s.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox after bump failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Attempts != 2 {
		t.Errorf("Expected attempts=2, got %+v", pending[0])
	}
}

func TestNotificationInbox(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	for i := 0; i < 3; i++ {
		n := &types.Notification{
			ID: uuid.New(), OrganizationID: f.org.ID, UserID: f.user.ID,
			Type: types.NotifyAnnouncement, Message: "hello",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
	}

	list, total, err := s.ListNotifications(ctx, f.user.ID, storage.Page{PerPage: 2})
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Errorf("Expected total=3 page of 2, got total=%d len=%d", total, len(list))
	}
	// Newest first.
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Errorf("Expected newest first, got %v then %v", list[0].CreatedAt, list[1].CreatedAt)
	}

	unread, err := s.CountUnreadNotifications(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("CountUnreadNotifications failed: %v", err)
	}
	if unread != 3 {
		t.Errorf("Expected 3 unread, got %d", unread)
	}
}

func TestMarkNotificationReadScoping(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	other := f.addUser(t, s, "worker2")
	n := &types.Notification{
		ID: uuid.New(), OrganizationID: f.org.ID, UserID: f.user.ID,
		Type: types.NotifySchedule, Message: "shift approved", CreatedAt: now,
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	// Another user cannot acknowledge someone else's notification.
	if err := s.MarkNotificationRead(ctx, n.ID, other.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign user, got %v", err)
	}

	if err := s.MarkNotificationRead(ctx, n.ID, f.user.ID); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	unread, err := s.CountUnreadNotifications(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("CountUnreadNotifications failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("Expected 0 unread after read, got %d", unread)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	for i := 0; i < 3; i++ {
		n := &types.Notification{
			ID: uuid.New(), OrganizationID: f.org.ID, UserID: f.user.ID,
			Type: types.NotifyAdditionalTask, Message: "task assigned", CreatedAt: now,
		}
		if err := s.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
	}

	if err := s.MarkAllNotificationsRead(ctx, f.user.ID); err != nil {
		t.Fatalf("MarkAllNotificationsRead failed: %v", err)
	}
	unread, err := s.CountUnreadNotifications(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("CountUnreadNotifications failed: %v", err)
	}
	if unread != 0 {
		t.Errorf("Expected 0 unread, got %d", unread)
	}

	// Idempotent on an already-clean inbox.
	if err := s.MarkAllNotificationsRead(ctx, f.user.ID); err != nil {
		t.Errorf("Second MarkAllNotificationsRead failed: %v", err)
	}
}
