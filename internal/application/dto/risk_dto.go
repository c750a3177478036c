package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// RecordEngineOutputsRequest is the input DTO for the RecordEngineOutputs use case.
type RecordEngineOutputsRequest struct {
	Engines     model.EngineDetails `json:"engines"`
	ContextTag  string              `json:"context_tag,omitempty"`
	CandidateID uuid.UUID           `json:"candidate_id"`
}

// ProfileResponse summarizes a candidate profile after an update.
type ProfileResponse struct {
	UpdatedAt       time.Time `json:"updated_at"`
	EnginesReported []string  `json:"engines_reported"`
	ContextTag      string    `json:"context_tag,omitempty"`
	ProfileID       uuid.UUID `json:"profile_id"`
	CandidateID     uuid.UUID `json:"candidate_id"`
	Version         int       `json:"version"`
}

// CandidateRequest identifies the candidate a read or evaluation targets.
type CandidateRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
}

// EvaluateCandidateResponse reports what an evaluation cycle did. Result is
// set only when Outcome is "computed".
type EvaluateCandidateResponse struct {
	Result      *model.BlendedRiskResult `json:"result,omitempty"`
	Outcome     string                   `json:"outcome"`
	Reason      string                   `json:"reason,omitempty"`
	CandidateID uuid.UUID                `json:"candidate_id"`
	SnapshotID  uuid.UUID                `json:"snapshot_id,omitempty"`
}

// PredictiveRiskResponse is the cached predictive result. Available is false
// until the first successful evaluation.
type PredictiveRiskResponse struct {
	Result      *model.BlendedRiskResult `json:"result,omitempty"`
	Correlation *model.CorrelationResult `json:"correlation,omitempty"`
	CandidateID uuid.UUID                `json:"candidate_id"`
	SnapshotID  uuid.UUID                `json:"snapshot_id,omitempty"`
	Available   bool                     `json:"available"`
}

// ResultBasis names the evaluation whose predictive figures a response uses.
// Engine figures always come from the latest recorded outputs, so
// EvaluationPending is set when those are newer than the evaluation.
type ResultBasis struct {
	SnapshotID        *uuid.UUID `json:"snapshot_id,omitempty"`
	EvaluatedAt       *time.Time `json:"evaluated_at,omitempty"`
	EvaluationPending bool       `json:"evaluation_pending"`
}

// ExplainCandidateResponse is the ordered per-engine rationale.
type ExplainCandidateResponse struct {
	Rationales []model.Rationale `json:"rationales"`
	ResultBasis
	CandidateID uuid.UUID `json:"candidate_id"`
}

// SimulateWhatIfResponse lists the ranked remediation actions.
type SimulateWhatIfResponse struct {
	Actions []model.WhatIfAction `json:"actions"`
	ResultBasis
	CandidateID uuid.UUID `json:"candidate_id"`
}

// GetRiskHistoryRequest selects snapshots computed at or after Since. A zero
// Since means the configured trailing window.
type GetRiskHistoryRequest struct {
	Since       time.Time `json:"since,omitempty"`
	CandidateID uuid.UUID `json:"candidate_id"`
}

// SnapshotResponse is one persisted snapshot.
type SnapshotResponse struct {
	ComputedAt time.Time               `json:"computed_at"`
	Inputs     model.SnapshotInputs    `json:"inputs"`
	Result     model.BlendedRiskResult `json:"result"`
	ContextTag string                  `json:"context_tag,omitempty"`
	ID         uuid.UUID               `json:"id"`
}

// RiskHistoryResponse lists snapshots oldest first.
type RiskHistoryResponse struct {
	Since       time.Time          `json:"since"`
	Snapshots   []SnapshotResponse `json:"snapshots"`
	CandidateID uuid.UUID          `json:"candidate_id"`
}

// FromProfile maps a profile to its summary DTO.
func FromProfile(p *model.CandidateProfile) ProfileResponse {
	engines := p.Engines()
	reported := make([]string, 0, 5)
	if engines.Verification != nil {
		reported = append(reported, string(valueobject.EngineVerification))
	}
	if engines.Technical != nil {
		reported = append(reported, string(valueobject.EngineTechnical))
	}
	if engines.Stability != nil {
		reported = append(reported, string(valueobject.EngineStability))
	}
	if engines.Compliance != nil {
		reported = append(reported, string(valueobject.EngineCompliance))
	}
	if engines.Competency != nil {
		reported = append(reported, string(valueobject.EngineCompetency))
	}

	return ProfileResponse{
		ProfileID:       p.ID(),
		CandidateID:     p.CandidateID(),
		ContextTag:      p.ContextTag(),
		Version:         p.Version(),
		EnginesReported: reported,
		UpdatedAt:       p.UpdatedAt(),
	}
}

// FromSnapshot maps a snapshot to its DTO.
func FromSnapshot(s *model.RiskSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:         s.ID(),
		ComputedAt: s.ComputedAt(),
		ContextTag: s.ContextTag(),
		Inputs:     s.Inputs(),
		Result:     s.Outputs(),
	}
}
