package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/event"
	"github.com/talentqx/crewrisk/pkg/events"
)

// CandidateProfile is the aggregate root holding a candidate's latest engine
// payloads and the cached results of the last successful evaluation.
type CandidateProfile struct {
	events.EventCollector

	createdAt      time.Time
	updatedAt      time.Time
	contextTag     string
	engines        EngineDetails
	correlation    *CorrelationResult
	predictive     *BlendedRiskResult
	lastSnapshotID uuid.UUID
	version        int
	loadedVersion  int
	candidateID    uuid.UUID
	id             uuid.UUID
}

// NewCandidateProfile creates an empty profile for a candidate.
func NewCandidateProfile(candidateID uuid.UUID, contextTag string) (*CandidateProfile, error) {
	if candidateID == uuid.Nil {
		return nil, fmt.Errorf("candidate ID is required")
	}

	now := time.Now().UTC()

	return &CandidateProfile{
		id:          uuid.New(),
		candidateID: candidateID,
		contextTag:  contextTag,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// RecordEngineOutputs merges fresh engine payloads into the profile. Engines
// absent from update keep their previous payload. A non-empty contextTag
// replaces the current one.
func (p *CandidateProfile) RecordEngineOutputs(update EngineDetails, contextTag string) error {
	if update.IsEmpty() && contextTag == "" {
		return fmt.Errorf("no engine output to record")
	}
	if err := update.Validate(); err != nil {
		return err
	}

	p.engines = p.engines.Merge(update)
	if contextTag != "" {
		p.contextTag = contextTag
	}
	p.touch(time.Now().UTC())
	return nil
}

// ApplyEvaluation replaces the cached correlation and predictive results
// with those of a freshly computed snapshot and records the audit events.
func (p *CandidateProfile) ApplyEvaluation(snapshot *RiskSnapshot, correlation CorrelationResult) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is required")
	}
	if snapshot.CandidateID() != p.candidateID {
		return fmt.Errorf("snapshot candidate %s does not match profile candidate %s",
			snapshot.CandidateID(), p.candidateID)
	}

	result := snapshot.Outputs()
	var previousTier string
	if p.predictive != nil {
		previousTier = p.predictive.PredictiveTier.String()
	}

	p.correlation = &correlation
	p.predictive = &result
	p.lastSnapshotID = snapshot.ID()
	p.touch(snapshot.ComputedAt())

	p.Record(event.NewPredictiveRiskEvaluated(
		p.id, p.candidateID, snapshot.ID(),
		snapshot.ContextTag(),
		result.PredictiveRiskIndex,
		result.PredictiveTier.String(),
		result.TrendDirection.String(),
		len(result.TriggeredPatterns),
		result.PolicyImpact.String(),
		result.ComputedAt,
	))

	if previousTier != "" && previousTier != result.PredictiveTier.String() {
		p.Record(event.NewPredictiveTierChanged(
			p.id, p.candidateID,
			previousTier, result.PredictiveTier.String(),
			result.PredictiveRiskIndex,
			result.ComputedAt,
		))
	}

	return nil
}

func (p *CandidateProfile) touch(at time.Time) {
	p.updatedAt = at
	p.version++
}

// ReconstructProfile rebuilds a CandidateProfile from persisted data (no validation, no events).
func ReconstructProfile(
	id, candidateID uuid.UUID,
	contextTag string,
	engines EngineDetails,
	correlation *CorrelationResult,
	predictive *BlendedRiskResult,
	lastSnapshotID uuid.UUID,
	version int,
	createdAt, updatedAt time.Time,
) *CandidateProfile {
	return &CandidateProfile{
		id:             id,
		candidateID:    candidateID,
		contextTag:     contextTag,
		engines:        engines,
		correlation:    correlation,
		predictive:     predictive,
		lastSnapshotID: lastSnapshotID,
		version:        version,
		loadedVersion:  version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Accessors ---

func (p *CandidateProfile) ID() uuid.UUID             { return p.id }
func (p *CandidateProfile) CandidateID() uuid.UUID    { return p.candidateID }
func (p *CandidateProfile) ContextTag() string        { return p.contextTag }
func (p *CandidateProfile) Engines() EngineDetails    { return p.engines }
func (p *CandidateProfile) LastSnapshotID() uuid.UUID { return p.lastSnapshotID }
func (p *CandidateProfile) Version() int              { return p.version }
func (p *CandidateProfile) CreatedAt() time.Time      { return p.createdAt }
func (p *CandidateProfile) UpdatedAt() time.Time      { return p.updatedAt }

// LoadedVersion is the version read from storage, 0 for a new profile.
// Stores use it as the optimistic concurrency guard.
func (p *CandidateProfile) LoadedVersion() int { return p.loadedVersion }

// Correlation returns the cached correlation result, nil until first evaluated.
func (p *CandidateProfile) Correlation() *CorrelationResult {
	if p.correlation == nil {
		return nil
	}
	c := *p.correlation
	return &c
}

// PredictiveResult returns the cached blended result, nil until first evaluated.
func (p *CandidateProfile) PredictiveResult() *BlendedRiskResult {
	if p.predictive == nil {
		return nil
	}
	r := cloneResult(*p.predictive)
	return &r
}

// EvaluationPending reports whether the engine outputs have changed since the
// cached predictive result was computed, or no result exists yet. Stored
// timestamps keep microsecond precision.
func (p *CandidateProfile) EvaluationPending() bool {
	if p.predictive == nil {
		return true
	}
	return !p.updatedAt.Truncate(time.Microsecond).Equal(p.predictive.ComputedAt.Truncate(time.Microsecond))
}

// DomainEvents returns all accumulated domain events and clears them.
func (p *CandidateProfile) DomainEvents() []events.DomainEvent {
	return p.ClearEvents()
}

// MarkPersisted aligns the concurrency guard with a successful write.
func (p *CandidateProfile) MarkPersisted() {
	p.loadedVersion = p.version
}
