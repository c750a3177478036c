// Package persistence holds the storage documents shared by the profile and
// snapshot stores. Aggregates keep their fields private, so every store
// round-trips them through these plain structs.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
)

// ProfileDocument is the stored form of a CandidateProfile.
type ProfileDocument struct {
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Correlation    *model.CorrelationResult `json:"correlation,omitempty"`
	Predictive     *model.BlendedRiskResult `json:"predictive,omitempty"`
	ContextTag     string                   `json:"context_tag"`
	Engines        model.EngineDetails      `json:"engines"`
	Version        int                      `json:"version"`
	ID             uuid.UUID                `json:"id"`
	CandidateID    uuid.UUID                `json:"candidate_id"`
	LastSnapshotID uuid.UUID                `json:"last_snapshot_id"`
}

// FromProfile captures the persisted state of a profile.
func FromProfile(p *model.CandidateProfile) ProfileDocument {
	return ProfileDocument{
		ID:             p.ID(),
		CandidateID:    p.CandidateID(),
		ContextTag:     p.ContextTag(),
		Engines:        p.Engines(),
		Correlation:    p.Correlation(),
		Predictive:     p.PredictiveResult(),
		LastSnapshotID: p.LastSnapshotID(),
		Version:        p.Version(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

// Profile rebuilds the aggregate.
func (d ProfileDocument) Profile() *model.CandidateProfile {
	return model.ReconstructProfile(
		d.ID, d.CandidateID,
		d.ContextTag,
		d.Engines,
		d.Correlation,
		d.Predictive,
		d.LastSnapshotID,
		d.Version,
		d.CreatedAt, d.UpdatedAt,
	)
}

// SnapshotDocument is the stored form of a RiskSnapshot.
type SnapshotDocument struct {
	ComputedAt  time.Time               `json:"computed_at"`
	ContextTag  string                  `json:"context_tag"`
	Inputs      model.SnapshotInputs    `json:"inputs"`
	Outputs     model.BlendedRiskResult `json:"outputs"`
	ID          uuid.UUID               `json:"id"`
	CandidateID uuid.UUID               `json:"candidate_id"`
}

// FromSnapshot captures a snapshot.
func FromSnapshot(s *model.RiskSnapshot) SnapshotDocument {
	return SnapshotDocument{
		ID:          s.ID(),
		CandidateID: s.CandidateID(),
		ComputedAt:  s.ComputedAt(),
		ContextTag:  s.ContextTag(),
		Inputs:      s.Inputs(),
		Outputs:     s.Outputs(),
	}
}

// Snapshot rebuilds the snapshot.
func (d SnapshotDocument) Snapshot() *model.RiskSnapshot {
	return model.ReconstructSnapshot(d.ID, d.CandidateID, d.ComputedAt, d.ContextTag, d.Inputs, d.Outputs)
}

// MarshalProfile encodes a profile document.
func MarshalProfile(p *model.CandidateProfile) ([]byte, error) {
	b, err := json.Marshal(FromProfile(p))
	if err != nil {
		return nil, fmt.Errorf("marshal profile %s: %w", p.CandidateID(), err)
	}
	return b, nil
}

// UnmarshalProfile decodes a profile document.
func UnmarshalProfile(data []byte) (*model.CandidateProfile, error) {
	var d ProfileDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return d.Profile(), nil
}

// MarshalSnapshot encodes a snapshot document.
func MarshalSnapshot(s *model.RiskSnapshot) ([]byte, error) {
	b, err := json.Marshal(FromSnapshot(s))
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", s.ID(), err)
	}
	return b, nil
}

// UnmarshalSnapshot decodes a snapshot document.
func UnmarshalSnapshot(data []byte) (*model.RiskSnapshot, error) {
	var d SnapshotDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return d.Snapshot(), nil
}
