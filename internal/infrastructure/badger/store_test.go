package badger

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

var baseTime = time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func countPrefix(t *testing.T, s *Store, prefix string) int {
	t.Helper()
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.Valid() && bytes.HasPrefix(it.Item().Key(), p); it.Next() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func snapshotAt(t *testing.T, candidateID uuid.UUID, risk float64, at time.Time) *model.RiskSnapshot {
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

func seededProfile(t *testing.T, candidateID uuid.UUID) *model.CandidateProfile {
	t.Helper()
	p, err := model.NewCandidateProfile(candidateID, "lng")
	require.NoError(t, err)
	require.NoError(t, p.RecordEngineOutputs(model.EngineDetails{
		Compliance: &model.ComplianceDetail{ComplianceScore: model.Ptr(71.0)},
	}, ""))
	return p
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir()
	candidateID := uuid.New()

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	store := NewStore(db)
	require.NoError(t, store.Append(context.Background(), snapshotAt(t, candidateID, 0.3, baseTime)))
	require.NoError(t, db.Close())

	db, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()

	history, err := NewStore(db).ListSince(context.Background(), candidateID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestStore_ListSinceOrdersByComputedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	candidateID := uuid.New()

	require.NoError(t, store.Append(ctx, snapshotAt(t, candidateID, 0.3, baseTime.AddDate(0, 2, 0))))
	require.NoError(t, store.Append(ctx, snapshotAt(t, candidateID, 0.1, baseTime)))
	require.NoError(t, store.Append(ctx, snapshotAt(t, candidateID, 0.2, baseTime.AddDate(0, 1, 0))))
	require.NoError(t, store.Append(ctx, snapshotAt(t, uuid.New(), 0.8, baseTime)))

	all, err := store.ListSince(ctx, candidateID, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, want := range []float64{0.1, 0.2, 0.3} {
		assert.InDelta(t, want, *all[i].Inputs().RiskScore, 1e-9)
	}

	windowed, err := store.ListSince(ctx, candidateID, baseTime.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, windowed, 2)

	empty, err := store.ListSince(ctx, uuid.New(), time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStore_AppendRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	snapshot := snapshotAt(t, uuid.New(), 0.4, baseTime)

	require.NoError(t, store.Append(ctx, snapshot))
	assert.ErrorIs(t, store.Append(ctx, snapshot), port.ErrDuplicateSnapshot)
	assert.Equal(t, 1, countPrefix(t, store, prefixSnapshot))
}

func TestStore_ProfileVersionGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	candidateID := uuid.New()

	_, err := store.FindByCandidateID(ctx, candidateID)
	require.ErrorIs(t, err, port.ErrProfileNotFound)

	profile := seededProfile(t, candidateID)
	require.NoError(t, store.Save(ctx, profile))

	a, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)
	b, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)

	require.NoError(t, a.RecordEngineOutputs(model.EngineDetails{}, "offshore"))
	require.NoError(t, store.Save(ctx, a))

	require.NoError(t, b.RecordEngineOutputs(model.EngineDetails{}, "tanker"))
	assert.ErrorIs(t, store.Save(ctx, b), port.ErrConcurrentEvaluation)

	assert.ErrorIs(t, store.Save(ctx, seededProfile(t, candidateID)), port.ErrConcurrentEvaluation)
}

func TestStore_CommitEvaluationAndOutbox(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	store.now = func() time.Time { return baseTime.Add(time.Hour) }
	candidateID := uuid.New()

	profile := seededProfile(t, candidateID)
	require.NoError(t, store.Save(ctx, profile))
	profile.MarkPersisted()

	first := snapshotAt(t, candidateID, 0.2, baseTime)
	require.NoError(t, profile.ApplyEvaluation(first, model.CorrelationResult{}))
	require.NoError(t, store.CommitEvaluation(ctx, profile, first, profile.DomainEvents()))
	profile.MarkPersisted()

	second := snapshotAt(t, candidateID, 0.9, baseTime.AddDate(0, 1, 0))
	require.NoError(t, profile.ApplyEvaluation(second, model.CorrelationResult{}))
	require.NoError(t, store.CommitEvaluation(ctx, profile, second, profile.DomainEvents()))
	profile.MarkPersisted()

	stored, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), stored.LastSnapshotID())

	entries, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "crewrisk.predictive_risk.evaluated", entries[0].EventType)
	assert.Equal(t, "crewrisk.predictive_risk.evaluated", entries[1].EventType)

	require.NoError(t, store.MarkPublished(ctx, []uuid.UUID{entries[0].ID, uuid.New()}))
	assert.Equal(t, 1, countPrefix(t, store, prefixOutboxPending))
	assert.Equal(t, 1, countPrefix(t, store, prefixOutboxPublished))

	rest, err := store.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, entries[1].ID, rest[0].ID)
}

func TestStore_CommitEvaluationIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	candidateID := uuid.New()

	profile := seededProfile(t, candidateID)
	require.NoError(t, store.Save(ctx, profile))
	profile.MarkPersisted()

	stale, err := store.FindByCandidateID(ctx, candidateID)
	require.NoError(t, err)

	require.NoError(t, profile.RecordEngineOutputs(model.EngineDetails{}, "bulk"))
	require.NoError(t, store.Save(ctx, profile))

	snapshot := snapshotAt(t, candidateID, 0.5, baseTime)
	require.NoError(t, stale.ApplyEvaluation(snapshot, model.CorrelationResult{}))
	err = store.CommitEvaluation(ctx, stale, snapshot, stale.DomainEvents())
	require.ErrorIs(t, err, port.ErrConcurrentEvaluation)

	assert.Zero(t, countPrefix(t, store, prefixSnapshot))
	assert.Zero(t, countPrefix(t, store, prefixOutboxPending))
}

func TestStore_Ping(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	store := NewStore(db)

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.Error(t, store.Ping(context.Background()))
}
