package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/pkg/events"
)

const defaultRelayBatchSize = 100

// RelayAuditEvents drains the transactional outbox into the event publisher.
type RelayAuditEvents struct {
	outbox    events.OutboxReader
	publisher port.EventPublisher
	batchSize int
	logger    *slog.Logger
}

// NewRelayAuditEvents creates a new RelayAuditEvents use case.
func NewRelayAuditEvents(outbox events.OutboxReader, publisher port.EventPublisher, batchSize int, logger *slog.Logger) *RelayAuditEvents {
	if batchSize <= 0 {
		batchSize = defaultRelayBatchSize
	}
	return &RelayAuditEvents{
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Execute publishes one batch and returns how many entries were delivered.
// Entries are marked published only after the publisher accepted them, so a
// failed batch is retried in full on the next call.
func (uc *RelayAuditEvents) Execute(ctx context.Context) (int, error) {
	entries, err := uc.outbox.FetchUnpublished(ctx, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := uc.publisher.Publish(ctx, entries...); err != nil {
		return 0, fmt.Errorf("failed to publish audit events: %w", err)
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := uc.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to mark outbox entries published: %w", err)
	}

	return len(entries), nil
}

// Run relays on every tick until ctx is cancelled. Full batches are followed
// immediately by another pass.
func (uc *RelayAuditEvents) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			n, err := uc.Execute(ctx)
			if err != nil {
				uc.logger.Warn("audit relay failed, retrying next tick", "error", err)
				break
			}
			if n > 0 {
				uc.logger.Debug("audit events relayed", "count", n)
			}
			if n < uc.batchSize || ctx.Err() != nil {
				break
			}
		}
	}
}
