package messaging

import (
	"context"
	"log/slog"

	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/pkg/events"
)

var _ port.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes audit events to the structured log. It stands in for
// Kafka when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each entry at info level.
func (p *LogPublisher) Publish(ctx context.Context, entries ...events.OutboxEntry) error {
	for _, entry := range entries {
		p.logger.InfoContext(ctx, "audit event",
			slog.String("event_id", entry.ID.String()),
			slog.String("event_type", entry.EventType),
			slog.String("aggregate_id", entry.AggregateID.String()),
			slog.String("payload", string(entry.Payload)),
		)
	}
	return nil
}
