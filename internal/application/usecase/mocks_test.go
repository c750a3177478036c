package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/pkg/events"
)

// --- Mock implementations ---

type mockStore struct {
	profiles  map[uuid.UUID]*model.CandidateProfile
	snapshots []*model.RiskSnapshot
	outbox    []events.OutboxEntry
	committed []events.DomainEvent

	findFunc   func(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error)
	saveFunc   func(ctx context.Context, profile *model.CandidateProfile) error
	listFunc   func(ctx context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error)
	commitFunc func(ctx context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error
	markFunc   func(ctx context.Context, ids []uuid.UUID) error

	lastSince time.Time
	saved     int
	published []uuid.UUID
}

func newMockStore() *mockStore {
	return &mockStore{profiles: make(map[uuid.UUID]*model.CandidateProfile)}
}

func (m *mockStore) FindByCandidateID(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, candidateID)
	}
	p, ok := m.profiles[candidateID]
	if !ok {
		return nil, port.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockStore) Save(ctx context.Context, profile *model.CandidateProfile) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, profile)
	}
	m.saved++
	m.profiles[profile.CandidateID()] = profile
	return nil
}

func (m *mockStore) Append(_ context.Context, snapshot *model.RiskSnapshot) error {
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

func (m *mockStore) ListSince(ctx context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error) {
	m.lastSince = since
	if m.listFunc != nil {
		return m.listFunc(ctx, candidateID, since)
	}
	var out []*model.RiskSnapshot
	for _, s := range m.snapshots {
		if s.CandidateID() == candidateID && !s.ComputedAt().Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) CommitEvaluation(ctx context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error {
	if m.commitFunc != nil {
		return m.commitFunc(ctx, profile, snapshot, evts)
	}
	m.snapshots = append(m.snapshots, snapshot)
	m.profiles[profile.CandidateID()] = profile
	m.committed = append(m.committed, evts...)
	return nil
}

func (m *mockStore) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	if len(m.outbox) > batchSize {
		return m.outbox[:batchSize], nil
	}
	return m.outbox, nil
}

func (m *mockStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if m.markFunc != nil {
		return m.markFunc(ctx, ids)
	}
	m.published = append(m.published, ids...)
	m.outbox = m.outbox[len(ids):]
	return nil
}

func (m *mockStore) Ping(context.Context) error { return nil }

type mockPublisher struct {
	published   []events.OutboxEntry
	publishFunc func(ctx context.Context, entries ...events.OutboxEntry) error
}

func (m *mockPublisher) Publish(ctx context.Context, entries ...events.OutboxEntry) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, entries...)
	}
	m.published = append(m.published, entries...)
	return nil
}

type evaluationRecord struct {
	outcome string
	result  *model.BlendedRiskResult
}

type mockMetrics struct {
	mu      sync.Mutex
	records []evaluationRecord
}

func (m *mockMetrics) RecordEvaluation(_ context.Context, outcome string, result *model.BlendedRiskResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, evaluationRecord{outcome: outcome, result: result})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
