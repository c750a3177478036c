package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RiskSnapshot is one immutable capture of a candidate's inputs and the
// blended result computed from them. Snapshots are only ever appended.
type RiskSnapshot struct {
	computedAt  time.Time
	contextTag  string
	inputs      SnapshotInputs
	outputs     BlendedRiskResult
	candidateID uuid.UUID
	id          uuid.UUID
}

// NewRiskSnapshot captures a new snapshot. Inputs are deep-copied.
func NewRiskSnapshot(
	candidateID uuid.UUID,
	contextTag string,
	inputs SnapshotInputs,
	outputs BlendedRiskResult,
	computedAt time.Time,
) (*RiskSnapshot, error) {
	if candidateID == uuid.Nil {
		return nil, fmt.Errorf("candidate ID is required")
	}
	if computedAt.IsZero() {
		return nil, fmt.Errorf("computed_at is required")
	}

	return &RiskSnapshot{
		id:          uuid.New(),
		candidateID: candidateID,
		computedAt:  computedAt.UTC(),
		contextTag:  contextTag,
		inputs:      inputs.Clone(),
		outputs:     cloneResult(outputs),
	}, nil
}

// ReconstructSnapshot rebuilds a RiskSnapshot from persisted data (no validation).
func ReconstructSnapshot(
	id, candidateID uuid.UUID,
	computedAt time.Time,
	contextTag string,
	inputs SnapshotInputs,
	outputs BlendedRiskResult,
) *RiskSnapshot {
	return &RiskSnapshot{
		id:          id,
		candidateID: candidateID,
		computedAt:  computedAt.UTC(),
		contextTag:  contextTag,
		inputs:      inputs,
		outputs:     outputs,
	}
}

// --- Accessors ---

func (s *RiskSnapshot) ID() uuid.UUID          { return s.id }
func (s *RiskSnapshot) CandidateID() uuid.UUID { return s.candidateID }
func (s *RiskSnapshot) ComputedAt() time.Time  { return s.computedAt }
func (s *RiskSnapshot) ContextTag() string     { return s.contextTag }

// Inputs returns a copy of the captured inputs.
func (s *RiskSnapshot) Inputs() SnapshotInputs { return s.inputs.Clone() }

// Outputs returns a copy of the blended result.
func (s *RiskSnapshot) Outputs() BlendedRiskResult { return cloneResult(s.outputs) }

func cloneResult(r BlendedRiskResult) BlendedRiskResult {
	out := r
	out.TriggeredPatterns = clonePatterns(r.TriggeredPatterns)
	if r.ReasonChain != nil {
		out.ReasonChain = append([]string(nil), r.ReasonChain...)
	}
	return out
}

func clonePatterns(in []PatternRecord) []PatternRecord {
	if in == nil {
		return nil
	}
	out := make([]PatternRecord, len(in))
	for i, p := range in {
		out[i] = p
		if p.SupportingData != nil {
			out[i].SupportingData = make(map[string]float64, len(p.SupportingData))
			for k, v := range p.SupportingData {
				out[i].SupportingData[k] = v
			}
		}
	}
	return out
}
