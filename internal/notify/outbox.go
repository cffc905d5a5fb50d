// Package notify implements transactional notification delivery.
//
// Business code never writes per-user notification rows directly. It
// enqueues an outbox entry inside its own transaction; the background
// Dispatcher fans entries out into inbox rows afterwards. A rolled-back
// transaction therefore discards its notifications, and a slow or failing
// delivery can never abort the business write that triggered it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// Entry describes one pending fan-out.
type Entry struct {
	OrgID         uuid.UUID
	Recipients    []uuid.UUID
	Type          types.NotificationType
	Message       string
	ReferenceType string
	ReferenceID   *uuid.UUID
}

// Outbox enqueues fan-out entries.
type Outbox struct {
	now func() time.Time
}

// NewOutbox returns an Outbox stamping entries with the wall clock.
func NewOutbox() *Outbox {
	return &Outbox{now: func() time.Time { return time.Now().UTC() }}
}

// Enqueue writes the entry through q, which should be the same transaction
// as the triggering business write. Entries with no recipients are dropped
// silently; there is nothing to deliver.
func (o *Outbox) Enqueue(ctx context.Context, q storage.Queries, e Entry) error {
	recipients := dedupe(e.Recipients)
	if len(recipients) == 0 {
		return nil
	}
	if !e.Type.IsValid() {
		return fmt.Errorf("invalid notification type: %q", e.Type)
	}
	if e.Message == "" {
		return fmt.Errorf("notification message is required")
	}

	entry := &types.OutboxEntry{
		ID:             uuid.New(),
		OrganizationID: e.OrgID,
		Recipients:     types.UUIDList(recipients),
		Type:           e.Type,
		Message:        e.Message,
		ReferenceType:  e.ReferenceType,
		ReferenceID:    e.ReferenceID,
		CreatedAt:      o.now(),
	}
	if err := q.EnqueueOutbox(ctx, entry); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
