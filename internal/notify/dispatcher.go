package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 50
	dispatchMaxElapsed  = 15 * time.Second
)

// errMalformed marks entries that can never deliver (bad type, empty
// message). They are skipped rather than retried so they cannot wedge the
// head of the queue.
var errMalformed = errors.New("malformed outbox entry")

func newDispatchBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = dispatchMaxElapsed
	return bo
}

// DispatcherConfig tunes the polling loop. Zero values use the defaults.
type DispatcherConfig struct {
	// PollInterval is the delay between drain cycles.
	PollInterval time.Duration
	// BatchSize caps how many entries one cycle picks up.
	BatchSize int
}

// Dispatcher drains the outbox into per-user notification rows. One
// instance runs inside `sc serve`; a second instance is harmless but
// wasteful, as both would race on the same pending rows.
type Dispatcher struct {
	store storage.Storage
	log   logrus.FieldLogger
	cfg   DispatcherConfig
	now   func() time.Time
}

// NewDispatcher returns a stopped dispatcher; call Run to start draining.
func NewDispatcher(store storage.Storage, log logrus.FieldLogger, cfg DispatcherConfig) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Dispatcher{
		store: store,
		log:   log,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled, draining a batch immediately on start
// and then once per interval. Always returns nil on shutdown so an
// errgroup does not treat cancellation as failure.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if n, err := d.DrainOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.log.WithError(err).Warn("Outbox drain cycle failed")
		} else if n > 0 {
			d.log.WithField("entries", n).Debug("Dispatched outbox entries")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// DrainOnce dispatches one batch of pending entries and reports how many
// were delivered. Entries that fail transiently have their attempt count
// bumped and stay pending for the next cycle.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	entries, err := d.store.ListPendingOutbox(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending outbox: %w", err)
	}

	dispatched := 0
	for _, entry := range entries {
		switch err := d.dispatch(ctx, entry); {
		case err == nil:
			dispatched++
		case errors.Is(err, errMalformed):
			// Poison entry: record it as handled so the queue keeps moving.
			d.log.WithError(err).WithField("entry_id", entry.ID).Error("Skipping undeliverable outbox entry")
			if markErr := d.store.MarkOutboxDispatched(ctx, entry.ID, d.now()); markErr != nil {
				return dispatched, fmt.Errorf("failed to skip malformed entry: %w", markErr)
			}
		default:
			if ctx.Err() != nil {
				return dispatched, ctx.Err()
			}
			d.log.WithError(err).WithFields(logrus.Fields{
				"entry_id": entry.ID,
				"attempts": entry.Attempts + 1,
			}).Warn("Outbox entry delivery failed, will retry")
			if bumpErr := d.store.BumpOutboxAttempts(ctx, entry.ID); bumpErr != nil {
				return dispatched, fmt.Errorf("failed to bump outbox attempts: %w", bumpErr)
			}
		}
	}
	return dispatched, nil
}

// dispatch fans one entry out to its recipients and stamps it dispatched,
// atomically. Transient failures are retried with exponential backoff
// before falling back to the cycle-level attempt counter.
func (d *Dispatcher) dispatch(ctx context.Context, entry *types.OutboxEntry) error {
	op := func() error {
		err := d.store.RunInTransaction(ctx, func(tx storage.Tx) error {
			for _, userID := range entry.Recipients {
				n := &types.Notification{
					ID:             uuid.New(),
					OrganizationID: entry.OrganizationID,
					UserID:         userID,
					Type:           entry.Type,
					Message:        entry.Message,
					ReferenceType:  entry.ReferenceType,
					ReferenceID:    entry.ReferenceID,
					CreatedAt:      d.now(),
				}
				if err := n.Validate(); err != nil {
					return backoff.Permanent(fmt.Errorf("%w: %v", errMalformed, err))
				}
				if err := tx.CreateNotification(ctx, n); err != nil {
					return fmt.Errorf("failed to create notification: %w", err)
				}
			}
			return tx.MarkOutboxDispatched(ctx, entry.ID, d.now())
		})
		return err
	}
	return backoff.Retry(op, backoff.WithContext(newDispatchBackoff(), ctx))
}
