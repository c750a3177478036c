package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// Cross-engine contradiction flags.
const (
	FlagExpertUnstable         = "expert_unstable"
	FlagCompliantLowExperience = "compliant_low_experience"
	FlagStableButWeak          = "stable_but_weak"
	FlagHighSkillHighRisk      = "high_skill_high_risk"
)

// CorrelationInputs are the current engine scalars a correlation pass reads.
type CorrelationInputs struct {
	TechnicalDepthIndex *float64
	StabilityIndex      *float64
	RiskScore           *float64
	ComplianceScore     *float64
	CompetencyScore     *float64
	TotalSeaDays        *float64
}

// CorrelationInputsFrom extracts correlation inputs from engine payloads.
func CorrelationInputsFrom(d model.EngineDetails) CorrelationInputs {
	var in CorrelationInputs
	if t := d.Technical; t != nil {
		in.TechnicalDepthIndex = t.TechnicalDepthIndex
		in.TotalSeaDays = t.TotalSeaDays
	}
	if s := d.Stability; s != nil {
		in.StabilityIndex = s.StabilityIndex
		in.RiskScore = s.RiskScore
	}
	if c := d.Compliance; c != nil {
		in.ComplianceScore = c.ComplianceScore
	}
	if c := d.Competency; c != nil {
		in.CompetencyScore = c.CompetencyScore
	}
	return in
}

// CorrelationAnalyzer flags contradictions between engines. It looks at
// current scores only; history plays no part.
type CorrelationAnalyzer struct{}

// NewCorrelationAnalyzer creates a new CorrelationAnalyzer instance.
func NewCorrelationAnalyzer() *CorrelationAnalyzer {
	return &CorrelationAnalyzer{}
}

// Analyze evaluates the four contradiction patterns independently. A pattern
// whose inputs are missing is skipped.
func (a *CorrelationAnalyzer) Analyze(in CorrelationInputs, cfg policy.CorrelationConfig) model.CorrelationResult {
	flags := make([]model.CorrelationFlag, 0)

	if in.TechnicalDepthIndex != nil && in.StabilityIndex != nil &&
		*in.TechnicalDepthIndex >= cfg.ExpertUnstableMinDepth && *in.StabilityIndex < cfg.ExpertUnstableMaxStability {
		flags = append(flags, newFlag(FlagExpertUnstable, valueobject.SeverityWarning,
			fmt.Sprintf("Technical depth %s suggests an expert, but stability index %s indicates frequent moves",
				fixed1(*in.TechnicalDepthIndex), fixed1(*in.StabilityIndex)),
			map[string]float64{"technical_depth_index": *in.TechnicalDepthIndex, "stability_index": *in.StabilityIndex}))
	}

	if in.ComplianceScore != nil && in.TotalSeaDays != nil &&
		*in.ComplianceScore >= cfg.CompliantLowExperienceMinCompliance && *in.TotalSeaDays < cfg.CompliantLowExperienceMaxSeaDays {
		flags = append(flags, newFlag(FlagCompliantLowExperience, valueobject.SeverityInfo,
			fmt.Sprintf("Compliance score %s is strong but total sea time is only %s days",
				fixed1(*in.ComplianceScore), decimal.NewFromFloat(*in.TotalSeaDays).StringFixed(0)),
			map[string]float64{"compliance_score": *in.ComplianceScore, "total_sea_days": *in.TotalSeaDays}))
	}

	if in.StabilityIndex != nil && in.TechnicalDepthIndex != nil &&
		*in.StabilityIndex >= cfg.StableButWeakMinStability && *in.TechnicalDepthIndex < cfg.StableButWeakMaxDepth {
		flags = append(flags, newFlag(FlagStableButWeak, valueobject.SeverityWarning,
			fmt.Sprintf("Stability index %s is high but technical depth is only %s",
				fixed1(*in.StabilityIndex), fixed1(*in.TechnicalDepthIndex)),
			map[string]float64{"stability_index": *in.StabilityIndex, "technical_depth_index": *in.TechnicalDepthIndex}))
	}

	if in.RiskScore != nil && in.TechnicalDepthIndex != nil &&
		*in.RiskScore >= cfg.HighSkillHighRiskMinRisk && *in.TechnicalDepthIndex >= cfg.HighSkillHighRiskMinDepth {
		flags = append(flags, newFlag(FlagHighSkillHighRisk, valueobject.SeverityWarning,
			fmt.Sprintf("Technical depth %s is high while career risk score is %s",
				fixed1(*in.TechnicalDepthIndex), decimal.NewFromFloat(*in.RiskScore).StringFixed(2)),
			map[string]float64{"risk_score": *in.RiskScore, "technical_depth_index": *in.TechnicalDepthIndex}))
	}

	return model.CorrelationResult{
		Flags:      flags,
		Summary:    summarize(flags),
		RiskWeight: riskWeight(flags, cfg),
	}
}

// ResolveDecisionImpact returns the most severe impact among flags:
// review, then note, then none.
func ResolveDecisionImpact(flags []model.CorrelationFlag) valueobject.DecisionImpact {
	impact := valueobject.DecisionImpactNone
	for _, f := range flags {
		if f.DecisionImpact.Rank() > impact.Rank() {
			impact = f.DecisionImpact
		}
	}
	return impact
}

func newFlag(name string, severity valueobject.Severity, detail string, data map[string]float64) model.CorrelationFlag {
	return model.CorrelationFlag{
		Flag:           name,
		Severity:       severity,
		DecisionImpact: severity.DecisionImpact(),
		Detail:         detail,
		SupportingData: data,
	}
}

func riskWeight(flags []model.CorrelationFlag, cfg policy.CorrelationConfig) float64 {
	weight := decimal.Zero
	for _, f := range flags {
		switch f.Severity {
		case valueobject.SeverityWarning:
			weight = weight.Add(decimal.NewFromFloat(cfg.WarningWeight))
		case valueobject.SeverityInfo:
			weight = weight.Add(decimal.NewFromFloat(cfg.InfoWeight))
		}
	}
	return decimal.Min(weight, decimal.NewFromFloat(cfg.MaxWeight)).InexactFloat64()
}

func summarize(flags []model.CorrelationFlag) string {
	if len(flags) == 0 {
		return "No cross-engine contradictions detected."
	}

	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = f.Flag
	}

	noun := "contradiction"
	if len(flags) > 1 {
		noun = "contradictions"
	}
	tail := "noted for context"
	if ResolveDecisionImpact(flags) == valueobject.DecisionImpactReview {
		tail = "reviewer attention recommended"
	}
	return fmt.Sprintf("%d cross-engine %s detected (%s); %s.", len(flags), noun, strings.Join(names, ", "), tail)
}
