// Package memory provides an in-process EvaluationStore for tests, local
// runs and the single-shot CLI.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/infrastructure/persistence"
	"github.com/talentqx/crewrisk/pkg/events"
)

var _ port.EvaluationStore = (*Store)(nil)

// Store keeps profiles, snapshots and the outbox in maps guarded by a
// RWMutex. Everything is stored encoded so callers never share memory with it.
type Store struct {
	profiles  map[uuid.UUID][]byte
	snapshots map[uuid.UUID][]storedSnapshot // keyed by candidate, ascending computed_at
	ids       map[uuid.UUID]struct{}
	outbox    []events.OutboxEntry
	now       func() time.Time
	mu        sync.RWMutex
}

type storedSnapshot struct {
	computedAt time.Time
	data       []byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		profiles:  make(map[uuid.UUID][]byte),
		snapshots: make(map[uuid.UUID][]storedSnapshot),
		ids:       make(map[uuid.UUID]struct{}),
		now:       time.Now,
	}
}

// Append inserts a snapshot. Returns ErrDuplicateSnapshot if its ID exists.
func (s *Store) Append(_ context.Context, snapshot *model.RiskSnapshot) error {
	if snapshot == nil || snapshot.CandidateID() == uuid.Nil {
		return port.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(snapshot)
}

func (s *Store) appendLocked(snapshot *model.RiskSnapshot) error {
	if _, exists := s.ids[snapshot.ID()]; exists {
		return port.ErrDuplicateSnapshot
	}

	data, err := persistence.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}

	list := append(s.snapshots[snapshot.CandidateID()], storedSnapshot{computedAt: snapshot.ComputedAt(), data: data})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].computedAt.Before(list[j].computedAt)
	})
	s.snapshots[snapshot.CandidateID()] = list
	s.ids[snapshot.ID()] = struct{}{}
	return nil
}

// ListSince returns snapshots computed at or after since, oldest first.
func (s *Store) ListSince(_ context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.RiskSnapshot, 0)
	for _, stored := range s.snapshots[candidateID] {
		if stored.computedAt.Before(since) {
			continue
		}
		snapshot, err := persistence.UnmarshalSnapshot(stored.data)
		if err != nil {
			return nil, err
		}
		result = append(result, snapshot)
	}
	return result, nil
}

// FindByCandidateID returns a fresh copy of the stored profile.
func (s *Store) FindByCandidateID(_ context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.profiles[candidateID]
	if !ok {
		return nil, port.ErrProfileNotFound
	}
	return persistence.UnmarshalProfile(data)
}

// Save writes the profile if the stored version still matches the one it was
// loaded at.
func (s *Store) Save(_ context.Context, profile *model.CandidateProfile) error {
	if profile == nil {
		return port.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkVersionLocked(profile); err != nil {
		return err
	}
	return s.putProfileLocked(profile)
}

// CommitEvaluation applies the snapshot, the profile and the outbox entries
// under one lock. Nothing is written unless every check passes.
func (s *Store) CommitEvaluation(_ context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error {
	if profile == nil || snapshot == nil {
		return port.ErrInvalidInput
	}

	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return fmt.Errorf("failed to build outbox entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[snapshot.ID()]; exists {
		return port.ErrDuplicateSnapshot
	}
	if err := s.checkVersionLocked(profile); err != nil {
		return err
	}

	if err := s.appendLocked(snapshot); err != nil {
		return err
	}
	if err := s.putProfileLocked(profile); err != nil {
		return err
	}
	s.outbox = append(s.outbox, entries...)
	return nil
}

func (s *Store) checkVersionLocked(profile *model.CandidateProfile) error {
	data, exists := s.profiles[profile.CandidateID()]
	if !exists {
		if profile.LoadedVersion() != 0 {
			return port.ErrConcurrentEvaluation
		}
		return nil
	}

	stored, err := persistence.UnmarshalProfile(data)
	if err != nil {
		return err
	}
	if stored.Version() != profile.LoadedVersion() {
		return port.ErrConcurrentEvaluation
	}
	return nil
}

func (s *Store) putProfileLocked(profile *model.CandidateProfile) error {
	data, err := persistence.MarshalProfile(profile)
	if err != nil {
		return err
	}
	s.profiles[profile.CandidateID()] = data
	return nil
}

// FetchUnpublished returns up to batchSize unpublished entries, oldest first.
func (s *Store) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []events.OutboxEntry
	for _, entry := range s.outbox {
		if entry.PublishedAt != nil {
			continue
		}
		if len(out) == batchSize {
			break
		}
		entry.Payload = append([]byte(nil), entry.Payload...)
		out = append(out, entry)
	}
	return out, nil
}

// MarkPublished stamps the given entries as delivered.
func (s *Store) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for i := range s.outbox {
		if _, ok := want[s.outbox[i].ID]; ok && s.outbox[i].PublishedAt == nil {
			at := now
			s.outbox[i].PublishedAt = &at
		}
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}
