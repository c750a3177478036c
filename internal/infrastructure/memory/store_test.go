package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
	"github.com/talentqx/crewrisk/internal/infrastructure/memory"
)

var baseTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func newSnapshot(t *testing.T, candidateID uuid.UUID, risk float64, at time.Time) *model.RiskSnapshot {
	t.Helper()
	s, err := model.NewRiskSnapshot(candidateID, "", model.SnapshotInputs{RiskScore: model.Ptr(risk)},
		model.BlendedRiskResult{
			PredictiveTier: valueobject.TierLow,
			TrendDirection: valueobject.TrendStable,
			PolicyImpact:   valueobject.PolicyImpactNone,
		}, at)
	require.NoError(t, err)
	return s
}

func newProfile(t *testing.T, candidateID uuid.UUID) *model.CandidateProfile {
	t.Helper()
	p, err := model.NewCandidateProfile(candidateID, "")
	require.NoError(t, err)
	require.NoError(t, p.RecordEngineOutputs(model.EngineDetails{
		Stability: &model.StabilityDetail{RiskScore: model.Ptr(0.4)},
	}, ""))
	return p
}

func TestStore_AppendAndListSince(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	candidateID := uuid.New()

	// Inserted out of order on purpose.
	require.NoError(t, store.Append(ctx, newSnapshot(t, candidateID, 0.3, baseTime.Add(48*time.Hour))))
	require.NoError(t, store.Append(ctx, newSnapshot(t, candidateID, 0.1, baseTime)))
	require.NoError(t, store.Append(ctx, newSnapshot(t, candidateID, 0.2, baseTime.Add(24*time.Hour))))
	require.NoError(t, store.Append(ctx, newSnapshot(t, uuid.New(), 0.9, baseTime)))

	all, err := store.ListSince(ctx, candidateID, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.InDelta(t, 0.1, *all[0].Inputs().RiskScore, 1e-9)
	assert.InDelta(t, 0.2, *all[1].Inputs().RiskScore, 1e-9)
	assert.InDelta(t, 0.3, *all[2].Inputs().RiskScore, 1e-9)

	since, err := store.ListSince(ctx, candidateID, baseTime.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 2, "since is inclusive")

	none, err := store.ListSince(ctx, uuid.New(), time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStore_AppendRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	snapshot := newSnapshot(t, uuid.New(), 0.5, baseTime)

	require.NoError(t, store.Append(ctx, snapshot))
	assert.ErrorIs(t, store.Append(ctx, snapshot), port.ErrDuplicateSnapshot)
	assert.ErrorIs(t, store.Append(ctx, nil), port.ErrInvalidInput)
}

func TestStore_ProfileVersionGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	candidateID := uuid.New()

	_, err := store.FindByCandidateID(ctx, candidateID)
	require.ErrorIs(t, err, port.ErrProfileNotFound)

	profile := newProfile(t, candidateID)
	require.NoError(t, store.Save(ctx, profile))
	profile.MarkPersisted()

	first, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)
	second, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)

	require.NoError(t, first.RecordEngineOutputs(model.EngineDetails{}, "offshore"))
	require.NoError(t, store.Save(ctx, first))

	require.NoError(t, second.RecordEngineOutputs(model.EngineDetails{}, "tanker"))
	assert.ErrorIs(t, store.Save(ctx, second), port.ErrConcurrentEvaluation)

	stored, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)
	assert.Equal(t, "offshore", stored.ContextTag())

	duplicate := newProfile(t, candidateID)
	assert.ErrorIs(t, store.Save(ctx, duplicate), port.ErrConcurrentEvaluation)
}

func TestStore_CommitEvaluation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	candidateID := uuid.New()
	profile := newProfile(t, candidateID)
	require.NoError(t, store.Save(ctx, profile))
	profile.MarkPersisted()

	t.Run("writes snapshot profile and outbox together", func(t *testing.T) {
		snapshot := newSnapshot(t, candidateID, 0.4, baseTime)
		require.NoError(t, profile.ApplyEvaluation(snapshot, model.CorrelationResult{}))

		require.NoError(t, store.CommitEvaluation(ctx, profile, snapshot, profile.DomainEvents()))
		profile.MarkPersisted()

		history, err := store.ListSince(ctx, candidateID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, history, 1)

		stored, err := store.FindByCandidateID(ctx, candidateID)
		require.NoError(t, err)
		assert.Equal(t, snapshot.ID(), stored.LastSnapshotID())

		entries, err := store.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "crewrisk.predictive_risk.evaluated", entries[0].EventType)
	})

	t.Run("stale profile writes nothing", func(t *testing.T) {
		stale, err := store.FindByCandidateID(ctx, candidateID)
		require.NoError(t, err)

		snapshot := newSnapshot(t, candidateID, 0.5, baseTime.Add(time.Hour))
		require.NoError(t, profile.ApplyEvaluation(snapshot, model.CorrelationResult{}))
		require.NoError(t, store.CommitEvaluation(ctx, profile, snapshot, profile.DomainEvents()))
		profile.MarkPersisted()

		late := newSnapshot(t, candidateID, 0.9, baseTime.Add(2*time.Hour))
		require.NoError(t, stale.ApplyEvaluation(late, model.CorrelationResult{}))
		err = store.CommitEvaluation(ctx, stale, late, stale.DomainEvents())
		require.ErrorIs(t, err, port.ErrConcurrentEvaluation)

		history, err := store.ListSince(ctx, candidateID, time.Time{})
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestStore_Outbox(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	for i := 0; i < 3; i++ {
		profile := newProfile(t, uuid.New())
		snapshot := newSnapshot(t, profile.CandidateID(), 0.2, baseTime)
		require.NoError(t, profile.ApplyEvaluation(snapshot, model.CorrelationResult{}))
		require.NoError(t, store.CommitEvaluation(ctx, profile, snapshot, profile.DomainEvents()))
	}

	batch, err := store.FetchUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	require.NoError(t, store.MarkPublished(ctx, []uuid.UUID{batch[0].ID, batch[1].ID}))

	rest, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.NotEqual(t, batch[0].ID, rest[0].ID)
	assert.NotEqual(t, batch[1].ID, rest[0].ID)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	candidateID := uuid.New()

	snapshots := make([]*model.RiskSnapshot, 50)
	for i := range snapshots {
		snapshots[i] = newSnapshot(t, candidateID, 0.01*float64(i), baseTime.Add(time.Duration(i)*time.Minute))
	}

	var wg sync.WaitGroup
	for _, snapshot := range snapshots {
		wg.Add(1)
		go func(s *model.RiskSnapshot) {
			defer wg.Done()
			_ = store.Append(ctx, s)
		}(snapshot)
	}
	wg.Wait()

	history, err := store.ListSince(ctx, candidateID, time.Time{})
	require.NoError(t, err)
	require.Len(t, history, 50)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].ComputedAt().Before(history[i-1].ComputedAt()))
	}
}
