package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const outboxCols = `id, organization_id, recipients, type, message, reference_type, reference_id,
	created_at, dispatched_at, attempts`

// EnqueueOutbox records a pending fan-out. Called inside the same
// transaction as the triggering write so a rollback discards both.
func (q *queries) EnqueueOutbox(ctx context.Context, e *types.OutboxEntry) error {
	return q.exec(ctx, "failed to enqueue outbox entry",
		`INSERT INTO notification_outbox (`+outboxCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizationID, e.Recipients, e.Type, e.Message, e.ReferenceType,
		e.ReferenceID, e.CreatedAt, e.DispatchedAt, e.Attempts)
}

func (q *queries) ListPendingOutbox(ctx context.Context, limit int) ([]*types.OutboxEntry, error) {
	if limit < 1 {
		limit = 50
	}
	var entries []*types.OutboxEntry
	err := q.list(ctx, &entries, "failed to list pending outbox entries",
		`SELECT `+outboxCols+` FROM notification_outbox
		 WHERE dispatched_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (q *queries) MarkOutboxDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return q.execAffecting(ctx, "failed to mark outbox entry dispatched",
		`UPDATE notification_outbox SET dispatched_at = ? WHERE id = ?`, at, id)
}

func (q *queries) BumpOutboxAttempts(ctx context.Context, id uuid.UUID) error {
	return q.execAffecting(ctx, "failed to bump outbox attempts",
		`UPDATE notification_outbox SET attempts = attempts + 1 WHERE id = ?`, id)
}

const notificationCols = `id, organization_id, user_id, type, message, reference_type,
	reference_id, is_read, created_at`

func (q *queries) CreateNotification(ctx context.Context, n *types.Notification) error {
	return q.exec(ctx, "failed to insert notification",
		`INSERT INTO notifications (`+notificationCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OrganizationID, n.UserID, n.Type, n.Message, n.ReferenceType,
		n.ReferenceID, n.IsRead, n.CreatedAt)
}

func (q *queries) ListNotifications(ctx context.Context, userID uuid.UUID, page storage.Page) ([]*types.Notification, int, error) {
	var total int
	err := q.get(ctx, &total, "failed to count notifications",
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID)
	if err != nil {
		return nil, 0, err
	}

	p := page.Normalize()
	var notifications []*types.Notification
	err = q.list(ctx, &notifications, "failed to list notifications",
		`SELECT `+notificationCols+` FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, userID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (q *queries) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := q.get(ctx, &n, "failed to count unread notifications",
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = ?`, userID, false)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MarkNotificationRead flips one notification owned by userID. Scoping to
// the owner keeps users from acknowledging each other's inboxes.
func (q *queries) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	return q.execAffecting(ctx, "failed to mark notification read",
		`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`, true, id, userID)
}

func (q *queries) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	return q.exec(ctx, "failed to mark notifications read",
		`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`,
		true, userID, false)
}
