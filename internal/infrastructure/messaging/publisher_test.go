package messaging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/infrastructure/messaging"
	"github.com/talentqx/crewrisk/pkg/events"
	"github.com/talentqx/crewrisk/pkg/kafka"
)

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, messages ...kafka.Message) error
	topic       string
	messages    []kafka.Message
}

func (m *mockProducer) Publish(ctx context.Context, topic string, messages ...kafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, topic, messages...)
	}
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return nil
}

func entry(aggregateID uuid.UUID, eventType string) events.OutboxEntry {
	return events.OutboxEntry{
		ID:            uuid.New(),
		AggregateID:   aggregateID,
		AggregateType: "candidate_profile",
		EventType:     eventType,
		Payload:       []byte(`{"predictive_risk_index":42}`),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Run("keys by aggregate and sets headers", func(t *testing.T) {
		producer := &mockProducer{}
		publisher := messaging.NewKafkaPublisher(producer, "crewrisk.audit", discardLogger())
		aggregateID := uuid.New()
		e := entry(aggregateID, "crewrisk.predictive_risk.evaluated")

		require.NoError(t, publisher.Publish(context.Background(), e))

		assert.Equal(t, "crewrisk.audit", producer.topic)
		require.Len(t, producer.messages, 1)
		msg := producer.messages[0]
		assert.Equal(t, aggregateID.String(), string(msg.Key))
		assert.Equal(t, e.Payload, msg.Value)
		assert.Equal(t, "crewrisk.predictive_risk.evaluated", msg.Headers[messaging.HeaderEventType])
		assert.Equal(t, e.ID.String(), msg.Headers[messaging.HeaderEventID])
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		producer := &mockProducer{}
		publisher := messaging.NewKafkaPublisher(producer, "crewrisk.audit", discardLogger())

		require.NoError(t, publisher.Publish(context.Background()))
		assert.Empty(t, producer.messages)
	})

	t.Run("wraps broker errors", func(t *testing.T) {
		producer := &mockProducer{
			publishFunc: func(context.Context, string, ...kafka.Message) error {
				return errors.New("leader not available")
			},
		}
		publisher := messaging.NewKafkaPublisher(producer, "crewrisk.audit", discardLogger())

		err := publisher.Publish(context.Background(), entry(uuid.New(), "x"), entry(uuid.New(), "y"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish 2 audit events")
	})
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	publisher := messaging.NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, publisher.Publish(context.Background(),
		entry(uuid.New(), "crewrisk.predictive_risk.evaluated"),
		entry(uuid.New(), "crewrisk.predictive_tier.changed"),
	))

	out := buf.String()
	assert.Contains(t, out, "crewrisk.predictive_risk.evaluated")
	assert.Contains(t, out, "crewrisk.predictive_tier.changed")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
