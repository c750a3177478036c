package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Ptr returns a pointer to v. Engine payload scalars are optional, so callers
// building inputs by hand need addressable literals.
func Ptr[T any](v T) *T {
	return &v
}

// EngineDetails holds the latest raw payload of each upstream engine.
// A nil engine means the engine has not produced output for the candidate.
type EngineDetails struct {
	Technical    *TechnicalDetail    `json:"technical,omitempty"`
	Stability    *StabilityDetail    `json:"stability,omitempty"`
	Compliance   *ComplianceDetail   `json:"compliance,omitempty"`
	Competency   *CompetencyDetail   `json:"competency,omitempty"`
	Verification *VerificationDetail `json:"verification,omitempty"`
}

// TechnicalDetail is the technical/STCW engine payload.
type TechnicalDetail struct {
	TechnicalScore      *float64 `json:"technical_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	TechnicalDepthIndex *float64 `json:"technical_depth_index,omitempty" validate:"omitempty,gte=0,lte=100"`
	TotalSeaDays        *float64 `json:"total_sea_days,omitempty" validate:"omitempty,gte=0"`
	MissingCertificates []string `json:"missing_certificates,omitempty"`
	ExpiredCertificates []string `json:"expired_certificates,omitempty"`
}

// ContractSummary aggregates a candidate's contract history.
type ContractSummary struct {
	AvgDurationMonths       *float64 `json:"avg_duration_months,omitempty" validate:"omitempty,gte=0"`
	TotalContracts          *int     `json:"total_contracts,omitempty" validate:"omitempty,gte=0"`
	TotalGapMonths          *float64 `json:"total_gap_months,omitempty" validate:"omitempty,gte=0"`
	LongestGapMonths        *float64 `json:"longest_gap_months,omitempty" validate:"omitempty,gte=0"`
	RecentUniqueCompanies3y *int     `json:"recent_unique_companies_3y,omitempty" validate:"omitempty,gte=0"`
}

// StabilityDetail is the stability/career-risk engine payload.
type StabilityDetail struct {
	StabilityIndex  *float64         `json:"stability_index,omitempty" validate:"omitempty,gte=0"`
	RiskScore       *float64         `json:"risk_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	RiskTier        string           `json:"risk_tier,omitempty"`
	ContractSummary *ContractSummary `json:"contract_summary,omitempty"`
	RankAnomalyFlag *bool            `json:"rank_anomaly_flag,omitempty"`
	Flags           []string         `json:"flags,omitempty"`
}

// ComplianceSection is one scored block of the compliance engine.
type ComplianceSection struct {
	Name      string   `json:"name"`
	Score     *float64 `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Available bool     `json:"available"`
	Flags     []string `json:"flags,omitempty"`
}

// ComplianceDetail is the compliance engine payload.
type ComplianceDetail struct {
	ComplianceScore   *float64            `json:"compliance_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	ComplianceStatus  string              `json:"compliance_status,omitempty"`
	CriticalFlagCount *int                `json:"critical_flag_count,omitempty" validate:"omitempty,gte=0"`
	CriticalFlags     []string            `json:"critical_flags,omitempty"`
	Sections          []ComplianceSection `json:"sections,omitempty" validate:"dive"`
	Recommendations   []string            `json:"recommendations,omitempty"`
}

// CriticalCount prefers the explicit count and falls back to the flag list.
func (c *ComplianceDetail) CriticalCount() int {
	if c == nil {
		return 0
	}
	if c.CriticalFlagCount != nil {
		return *c.CriticalFlagCount
	}
	return len(c.CriticalFlags)
}

// IncompleteSections lists sections the engine could not score.
func (c *ComplianceDetail) IncompleteSections() []string {
	if c == nil {
		return nil
	}
	var names []string
	for _, s := range c.Sections {
		if !s.Available || s.Score == nil {
			names = append(names, s.Name)
		}
	}
	return names
}

// CompetencyDetail is the competency engine payload.
type CompetencyDetail struct {
	CompetencyScore   *float64 `json:"competency_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	AssessmentMissing bool     `json:"assessment_missing,omitempty"`
	Strengths         []string `json:"strengths,omitempty"`
	Concerns          []string `json:"concerns,omitempty"`
}

// VerificationDetail is the vessel/behavioral verification engine payload.
type VerificationDetail struct {
	ConfidenceScore *float64 `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	AnomalyCount    *int     `json:"anomaly_count,omitempty" validate:"omitempty,gte=0"`
	Anomalies       []string `json:"anomalies,omitempty"`
	CheckedSources  *int     `json:"checked_sources,omitempty" validate:"omitempty,gte=0"`
}

// AnomalyTotal prefers the explicit count and falls back to the anomaly list.
func (v *VerificationDetail) AnomalyTotal() int {
	if v == nil {
		return 0
	}
	if v.AnomalyCount != nil {
		return *v.AnomalyCount
	}
	return len(v.Anomalies)
}

// Validate checks every supplied scalar against its documented range.
func (d EngineDetails) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid engine payload: %w", err)
	}
	return nil
}

// IsEmpty reports whether no engine has produced output.
func (d EngineDetails) IsEmpty() bool {
	return d.Technical == nil && d.Stability == nil && d.Compliance == nil &&
		d.Competency == nil && d.Verification == nil
}

// Merge overlays the non-nil engines of update onto d.
func (d EngineDetails) Merge(update EngineDetails) EngineDetails {
	if update.Technical != nil {
		d.Technical = update.Technical
	}
	if update.Stability != nil {
		d.Stability = update.Stability
	}
	if update.Compliance != nil {
		d.Compliance = update.Compliance
	}
	if update.Competency != nil {
		d.Competency = update.Competency
	}
	if update.Verification != nil {
		d.Verification = update.Verification
	}
	return d
}

// CurrentInputs extracts the point-in-time scalar inputs of a snapshot.
// Absent engine values stay nil; nothing is defaulted.
func (d EngineDetails) CurrentInputs(correlationWeight *float64) SnapshotInputs {
	in := SnapshotInputs{CorrelationRiskWeight: copyPtr(correlationWeight)}

	if s := d.Stability; s != nil {
		in.RiskScore = copyPtr(s.RiskScore)
		in.StabilityIndex = copyPtr(s.StabilityIndex)
		in.RankAnomalyFlag = copyPtr(s.RankAnomalyFlag)
		if cs := s.ContractSummary; cs != nil {
			in.GapMonthsTotal = copyPtr(cs.TotalGapMonths)
			in.RecentUniqueCompanies = copyPtr(cs.RecentUniqueCompanies3y)
		}
	}
	if c := d.Compliance; c != nil {
		in.ComplianceScore = copyPtr(c.ComplianceScore)
	}
	if c := d.Competency; c != nil {
		in.CompetencyScore = copyPtr(c.CompetencyScore)
	}
	if t := d.Technical; t != nil {
		in.TechnicalDepthIndex = copyPtr(t.TechnicalDepthIndex)
	}
	return in
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
