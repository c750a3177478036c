package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/pkg/events"
	"github.com/talentqx/crewrisk/pkg/kafka"
)

// Header names set on every audit message.
const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderEventID       = "event_id"
)

// producer is the part of kafka.Producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, messages ...kafka.Message) error
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher implements port.EventPublisher on the audit topic. Messages
// are keyed by aggregate so one profile's events stay ordered.
type KafkaPublisher struct {
	producer producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(p producer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: p,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends outbox entries to Kafka as one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, entries ...events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, kafka.Message{
			Key:   []byte(entry.AggregateID.String()),
			Value: entry.Payload,
			Headers: map[string]string{
				HeaderEventType:     entry.EventType,
				HeaderAggregateType: entry.AggregateType,
				HeaderEventID:       entry.ID.String(),
			},
		})
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish %d audit events: %w", len(entries), err)
	}

	p.logger.Debug("published audit events",
		slog.String("topic", p.topic),
		slog.Int("count", len(entries)),
	)
	return nil
}
