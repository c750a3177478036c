package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/pkg/events"
)

const (
	// AggregateTypeCandidateProfile names the aggregate that emits these events.
	AggregateTypeCandidateProfile = "candidate_profile"

	// EventTypePredictiveRiskEvaluated is the audit event emitted once per evaluation.
	EventTypePredictiveRiskEvaluated = "crewrisk.predictive_risk.evaluated"

	// EventTypePredictiveTierChanged is emitted when the cached tier moves.
	EventTypePredictiveTierChanged = "crewrisk.predictive_tier.changed"
)

// PredictiveRiskEvaluated summarizes one completed evaluation for audit.
type PredictiveRiskEvaluated struct {
	events.BaseEvent `json:"-"`
	ProfileID        uuid.UUID `json:"profile_id"`
	CandidateID      uuid.UUID `json:"candidate_id"`
	SnapshotID       uuid.UUID `json:"snapshot_id"`
	ContextTag       string    `json:"context_tag,omitempty"`
	Index            float64   `json:"predictive_risk_index"`
	Tier             string    `json:"predictive_tier"`
	TrendDirection   string    `json:"trend_direction"`
	PatternCount     int       `json:"pattern_count"`
	PolicyImpact     string    `json:"policy_impact"`
	ComputedAt       time.Time `json:"computed_at"`
}

// NewPredictiveRiskEvaluated builds the audit event.
func NewPredictiveRiskEvaluated(
	profileID, candidateID, snapshotID uuid.UUID,
	contextTag string,
	index float64,
	tier, direction string,
	patternCount int,
	policyImpact string,
	computedAt time.Time,
) PredictiveRiskEvaluated {
	return PredictiveRiskEvaluated{
		BaseEvent:      events.NewBaseEvent(EventTypePredictiveRiskEvaluated, profileID, AggregateTypeCandidateProfile, computedAt),
		ProfileID:      profileID,
		CandidateID:    candidateID,
		SnapshotID:     snapshotID,
		ContextTag:     contextTag,
		Index:          index,
		Tier:           tier,
		TrendDirection: direction,
		PatternCount:   patternCount,
		PolicyImpact:   policyImpact,
		ComputedAt:     computedAt,
	}
}

// Payload returns the JSON form of the event body.
func (e PredictiveRiskEvaluated) Payload() []byte {
	b, _ := json.Marshal(e)
	return b
}

// PredictiveTierChanged is emitted when an evaluation moves the candidate
// into a different tier than the cached one.
type PredictiveTierChanged struct {
	events.BaseEvent `json:"-"`
	ProfileID        uuid.UUID `json:"profile_id"`
	CandidateID      uuid.UUID `json:"candidate_id"`
	PreviousTier     string    `json:"previous_tier"`
	CurrentTier      string    `json:"current_tier"`
	Index            float64   `json:"predictive_risk_index"`
	ChangedAt        time.Time `json:"changed_at"`
}

// NewPredictiveTierChanged builds a tier transition event.
func NewPredictiveTierChanged(profileID, candidateID uuid.UUID, previous, current string, index float64, changedAt time.Time) PredictiveTierChanged {
	return PredictiveTierChanged{
		BaseEvent:    events.NewBaseEvent(EventTypePredictiveTierChanged, profileID, AggregateTypeCandidateProfile, changedAt),
		ProfileID:    profileID,
		CandidateID:  candidateID,
		PreviousTier: previous,
		CurrentTier:  current,
		Index:        index,
		ChangedAt:    changedAt,
	}
}

// Payload returns the JSON form of the event body.
func (e PredictiveTierChanged) Payload() []byte {
	b, _ := json.Marshal(e)
	return b
}
