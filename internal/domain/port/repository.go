package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/pkg/events"
)

var (
	// ErrProfileNotFound is returned when no trust profile exists for a candidate.
	ErrProfileNotFound = errors.New("candidate profile not found")

	// ErrDuplicateSnapshot is returned when a snapshot ID is appended twice.
	ErrDuplicateSnapshot = errors.New("duplicate risk snapshot")

	// ErrConcurrentEvaluation is returned when the profile changed since it was loaded.
	ErrConcurrentEvaluation = errors.New("candidate profile modified concurrently")

	// ErrInvalidInput is returned for malformed store arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// SnapshotStore is the append-only history of risk snapshots.
type SnapshotStore interface {
	// Append inserts a new snapshot. Existing snapshots are never updated.
	Append(ctx context.Context, snapshot *model.RiskSnapshot) error

	// ListSince returns the candidate's snapshots computed at or after since,
	// ordered by computed_at ascending.
	ListSince(ctx context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error)
}

// ProfileRepository persists candidate profiles.
type ProfileRepository interface {
	// FindByCandidateID returns ErrProfileNotFound when no profile exists.
	FindByCandidateID(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error)

	// Save inserts or updates a profile, guarded by its loaded version.
	Save(ctx context.Context, profile *model.CandidateProfile) error
}

// EvaluationStore is the storage a full evaluation cycle needs.
type EvaluationStore interface {
	SnapshotStore
	ProfileRepository
	events.OutboxReader

	// CommitEvaluation appends the snapshot, saves the profile and stores the
	// events in the outbox as one atomic unit.
	CommitEvaluation(ctx context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
