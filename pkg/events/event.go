// Package events defines the domain event contract shared by aggregates,
// the transactional outbox and the Kafka relay.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Payload is the JSON body
// carried inside the Envelope.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	OccurredAt() time.Time
	Payload() []byte
}

// BaseEvent carries the envelope metadata of a DomainEvent. Concrete events
// embed it and provide their own Payload.
type BaseEvent struct {
	id            uuid.UUID
	eventType     string
	aggregateID   uuid.UUID
	aggregateType string
	occurredAt    time.Time
}

// NewBaseEvent creates a BaseEvent with a generated ID stamped at occurredAt.
// A zero occurredAt means now.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType string, occurredAt time.Time) BaseEvent {
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return BaseEvent{
		id:            uuid.New(),
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		occurredAt:    occurredAt.UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.id }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }
func (e BaseEvent) AggregateType() string  { return e.aggregateType }

// OccurredAt is always UTC.
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }

// Envelope is the wire form of a DomainEvent.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event for transport.
func NewEnvelope(event DomainEvent) Envelope {
	payload := event.Payload()
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return Envelope{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	}
}
