package model

import (
	"time"

	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// SnapshotInputs are the scalar inputs captured at evaluation time.
// Nil means the owning engine did not supply the value.
type SnapshotInputs struct {
	RiskScore             *float64 `json:"risk_score,omitempty"`
	StabilityIndex        *float64 `json:"stability_index,omitempty"`
	ComplianceScore       *float64 `json:"compliance_score,omitempty"`
	CompetencyScore       *float64 `json:"competency_score,omitempty"`
	TechnicalDepthIndex   *float64 `json:"technical_depth_index,omitempty"`
	CorrelationRiskWeight *float64 `json:"correlation_risk_weight,omitempty"`
	GapMonthsTotal        *float64 `json:"gap_months_total,omitempty"`
	RecentUniqueCompanies *int     `json:"recent_unique_companies_3y,omitempty"`
	RankAnomalyFlag       *bool    `json:"rank_anomaly_flag,omitempty"`
}

// Clone returns a deep copy.
func (in SnapshotInputs) Clone() SnapshotInputs {
	return SnapshotInputs{
		RiskScore:             copyPtr(in.RiskScore),
		StabilityIndex:        copyPtr(in.StabilityIndex),
		ComplianceScore:       copyPtr(in.ComplianceScore),
		CompetencyScore:       copyPtr(in.CompetencyScore),
		TechnicalDepthIndex:   copyPtr(in.TechnicalDepthIndex),
		CorrelationRiskWeight: copyPtr(in.CorrelationRiskWeight),
		GapMonthsTotal:        copyPtr(in.GapMonthsTotal),
		RecentUniqueCompanies: copyPtr(in.RecentUniqueCompanies),
		RankAnomalyFlag:       copyPtr(in.RankAnomalyFlag),
	}
}

// PatternRecord is one triggered temporal pattern.
type PatternRecord struct {
	Name           string             `json:"name"`
	Points         int                `json:"points"`
	Reason         string             `json:"reason"`
	SupportingData map[string]float64 `json:"supporting_data,omitempty"`
}

// TrendResult is the output of trend analysis over a snapshot history.
type TrendResult struct {
	TrendScore        int                        `json:"trend_score"`
	TriggeredPatterns []PatternRecord            `json:"triggered_patterns"`
	Direction         valueobject.TrendDirection `json:"trend_direction"`
	SnapshotCount     int                        `json:"snapshot_count"`
}

// CorrelationFlag is one cross-engine contradiction.
type CorrelationFlag struct {
	Flag           string                     `json:"flag"`
	Severity       valueobject.Severity       `json:"severity"`
	DecisionImpact valueobject.DecisionImpact `json:"decision_impact"`
	Detail         string                     `json:"detail"`
	SupportingData map[string]float64         `json:"supporting_data,omitempty"`
}

// CorrelationResult is computed fresh every evaluation cycle.
type CorrelationResult struct {
	Flags      []CorrelationFlag `json:"correlation_flags"`
	Summary    string            `json:"correlation_summary"`
	RiskWeight float64           `json:"correlation_risk_weight"`
}

// BlendComponents records each weighted contribution for auditability.
type BlendComponents struct {
	RiskScaled              float64 `json:"risk_scaled"`
	RiskWeight              float64 `json:"risk_weight"`
	RiskContribution        float64 `json:"risk_contribution"`
	RiskAvailable           bool    `json:"risk_available"`
	TrendScore              int     `json:"trend_score"`
	TrendWeight             float64 `json:"trend_weight"`
	TrendContribution       float64 `json:"trend_contribution"`
	CorrelationScaled       float64 `json:"correlation_scaled"`
	CorrelationWeight       float64 `json:"correlation_weight"`
	CorrelationContribution float64 `json:"correlation_contribution"`
	CorrelationAvailable    bool    `json:"correlation_available"`
}

// BlendedRiskResult is the predictive outcome of one evaluation.
type BlendedRiskResult struct {
	PredictiveRiskIndex float64                    `json:"predictive_risk_index"`
	PredictiveTier      valueobject.Tier           `json:"predictive_tier"`
	TrendScore          int                        `json:"trend_score"`
	TrendDirection      valueobject.TrendDirection `json:"trend_direction"`
	TriggeredPatterns   []PatternRecord            `json:"triggered_patterns"`
	BlendComponents     BlendComponents            `json:"blend_components"`
	PolicyImpact        valueobject.PolicyImpact   `json:"policy_impact"`
	ReasonChain         []string                   `json:"reason_chain"`
	SnapshotCount       int                        `json:"snapshot_count"`
	ContextTag          string                     `json:"context_tag,omitempty"`
	ComputedAt          time.Time                  `json:"computed_at"`
}

// Rationale explains one engine's contribution to the candidate picture.
type Rationale struct {
	Engine          valueobject.Engine `json:"engine"`
	Label           string             `json:"label"`
	TopReason       string             `json:"top_reason"`
	Evidence        []string           `json:"evidence"`
	Recommendations []string           `json:"recommendations,omitempty"`
	ConfidenceNote  string             `json:"confidence_note"`
}

// WhatIfAction is one remediation step with its projected effect.
type WhatIfAction struct {
	Action          string                      `json:"action"`
	Engine          valueobject.Engine          `json:"engine"`
	EstimatedImpact valueobject.EstimatedImpact `json:"estimated_impact"`
	CurrentState    string                      `json:"current_state"`
	ProjectedState  string                      `json:"projected_state"`
}
