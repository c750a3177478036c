package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is a domain event committed alongside the state change that
// produced it and relayed to the broker afterwards.
type OutboxEntry struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	AggregateType string
	EventType     string
	Payload       []byte
	ID            uuid.UUID
	AggregateID   uuid.UUID
}

// NewOutboxEntry creates an OutboxEntry whose payload is the event Envelope.
func NewOutboxEntry(event DomainEvent) (OutboxEntry, error) {
	payload, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}
	return OutboxEntry{
		ID:            event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		EventType:     event.EventType(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// NewOutboxEntries converts a batch of events.
func NewOutboxEntries(evts []DomainEvent) ([]OutboxEntry, error) {
	entries := make([]OutboxEntry, 0, len(evts))
	for _, evt := range evts {
		entry, err := NewOutboxEntry(evt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// OutboxReader is the relay side of the outbox: unpublished entries are
// fetched oldest first and marked once delivered.
type OutboxReader interface {
	FetchUnpublished(ctx context.Context, batchSize int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
