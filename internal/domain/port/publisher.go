package port

import (
	"context"

	"github.com/talentqx/crewrisk/pkg/events"
)

// EventPublisher delivers outbox entries to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, entries ...events.OutboxEntry) error
}
