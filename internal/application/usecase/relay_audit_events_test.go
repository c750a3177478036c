package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/application/usecase"
	"github.com/talentqx/crewrisk/pkg/events"
)

func outboxEntries(n int) []events.OutboxEntry {
	out := make([]events.OutboxEntry, n)
	for i := range out {
		out[i] = events.OutboxEntry{ID: uuid.New(), EventType: "crewrisk.predictive_risk.evaluated", Payload: []byte("{}")}
	}
	return out
}

func TestRelayAuditEvents_Execute(t *testing.T) {
	t.Run("publishes and marks a batch", func(t *testing.T) {
		store := newMockStore()
		store.outbox = outboxEntries(3)
		publisher := &mockPublisher{}
		uc := usecase.NewRelayAuditEvents(store, publisher, 2, testLogger())

		n, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, publisher.published, 2)
		assert.Len(t, store.published, 2)

		n, err = uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("leaves entries unpublished when the publisher fails", func(t *testing.T) {
		store := newMockStore()
		store.outbox = outboxEntries(2)
		publisher := &mockPublisher{
			publishFunc: func(context.Context, ...events.OutboxEntry) error {
				return errors.New("broker unavailable")
			},
		}
		uc := usecase.NewRelayAuditEvents(store, publisher, 10, testLogger())

		_, err := uc.Execute(context.Background())

		require.Error(t, err)
		assert.Empty(t, store.published)
		assert.Len(t, store.outbox, 2)
	})
}
