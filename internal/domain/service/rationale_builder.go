package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

const (
	maxEvidence        = 3
	maxRecommendations = 2

	highRiskScore     = 0.6
	lowStabilityIndex = 4.0
	strongDepthIndex  = 75.0
	weakCompetency    = 50.0
)

// RationaleInput is the read-only state a rationale is built from.
type RationaleInput struct {
	Engines     model.EngineDetails
	Correlation *model.CorrelationResult
	Predictive  *model.BlendedRiskResult
}

// RationaleBuilder explains each engine's contribution in reviewer language.
type RationaleBuilder struct{}

// NewRationaleBuilder creates a new RationaleBuilder instance.
func NewRationaleBuilder() *RationaleBuilder {
	return &RationaleBuilder{}
}

// Build returns one rationale per engine with data, in
// valueobject.RationaleOrder. Engines without data are left out.
func (b *RationaleBuilder) Build(in RationaleInput, cfg policy.Config) []model.Rationale {
	out := make([]model.Rationale, 0, len(valueobject.RationaleOrder))

	for _, engine := range valueobject.RationaleOrder {
		var r *model.Rationale
		switch engine {
		case valueobject.EngineVerification:
			r = verificationRationale(in.Engines.Verification, cfg)
		case valueobject.EngineTechnical:
			r = technicalRationale(in.Engines.Technical)
		case valueobject.EngineStability:
			r = stabilityRationale(in.Engines.Stability, cfg)
		case valueobject.EngineCompliance:
			r = complianceRationale(in.Engines.Compliance)
		case valueobject.EngineCompetency:
			r = competencyRationale(in.Engines.Competency)
		case valueobject.EngineCorrelation:
			r = correlationRationale(in.Correlation, cfg)
		case valueobject.EnginePredictiveRisk:
			r = predictiveRationale(in.Predictive)
		}
		if r == nil {
			continue
		}
		r.Engine = engine
		r.Label = engine.Label()
		r.Evidence = limit(r.Evidence, maxEvidence)
		if r.Evidence == nil {
			r.Evidence = []string{}
		}
		r.Recommendations = limit(r.Recommendations, maxRecommendations)
		out = append(out, *r)
	}

	return out
}

func verificationRationale(v *model.VerificationDetail, cfg policy.Config) *model.Rationale {
	if v == nil || (v.ConfidenceScore == nil && v.AnomalyCount == nil && len(v.Anomalies) == 0) {
		return nil
	}

	anomalies := v.AnomalyTotal()
	lowConfidence := v.ConfidenceScore != nil && *v.ConfidenceScore < cfg.WhatIf.LowVerificationConfidence
	r := &model.Rationale{}

	switch {
	case anomalies > 0:
		r.TopReason = fmt.Sprintf("Verification found %d anomalies in the declared vessel and behavioral history.", anomalies)
	case lowConfidence:
		r.TopReason = fmt.Sprintf("Verification confidence is low at %s%%.", percent(*v.ConfidenceScore))
	case v.ConfidenceScore != nil:
		r.TopReason = fmt.Sprintf("Declared history verified with %s%% confidence.", percent(*v.ConfidenceScore))
	default:
		r.TopReason = "No verification anomalies reported."
	}

	if v.ConfidenceScore != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Confidence score: %s", fixed2(*v.ConfidenceScore)))
	}
	r.Evidence = append(r.Evidence, fmt.Sprintf("Anomalies detected: %d", anomalies))
	for _, a := range v.Anomalies {
		r.Evidence = append(r.Evidence, "Anomaly: "+a)
	}

	if anomalies > 0 {
		r.Recommendations = append(r.Recommendations, "Request sea-service testimonials for the flagged vessel entries")
	}
	if lowConfidence {
		r.Recommendations = append(r.Recommendations, "Re-run verification once employer references are received")
	}

	if v.CheckedSources != nil {
		r.ConfidenceNote = fmt.Sprintf("Based on %d checked sources.", *v.CheckedSources)
	} else {
		r.ConfidenceNote = "Source coverage not reported."
	}
	return r
}

func technicalRationale(t *model.TechnicalDetail) *model.Rationale {
	if t == nil || (t.TechnicalScore == nil && t.TechnicalDepthIndex == nil && t.TotalSeaDays == nil &&
		len(t.MissingCertificates) == 0 && len(t.ExpiredCertificates) == 0) {
		return nil
	}

	r := &model.Rationale{}
	switch {
	case len(t.MissingCertificates) > 0:
		r.TopReason = fmt.Sprintf("%d required STCW certificates are missing.", len(t.MissingCertificates))
	case len(t.ExpiredCertificates) > 0:
		r.TopReason = fmt.Sprintf("%d certificates have expired.", len(t.ExpiredCertificates))
	case t.TechnicalDepthIndex != nil && *t.TechnicalDepthIndex >= strongDepthIndex:
		r.TopReason = fmt.Sprintf("Strong technical depth (index %s).", fixed1(*t.TechnicalDepthIndex))
	case t.TechnicalDepthIndex != nil:
		r.TopReason = fmt.Sprintf("Technical depth index is %s.", fixed1(*t.TechnicalDepthIndex))
	case t.TechnicalScore != nil:
		r.TopReason = fmt.Sprintf("Technical score is %s.", fixed2(*t.TechnicalScore))
	default:
		r.TopReason = "Certificates on record are complete and valid."
	}

	if len(t.MissingCertificates) > 0 {
		r.Evidence = append(r.Evidence, "Missing certificates: "+strings.Join(t.MissingCertificates, ", "))
	}
	if len(t.ExpiredCertificates) > 0 {
		r.Evidence = append(r.Evidence, "Expired certificates: "+strings.Join(t.ExpiredCertificates, ", "))
	}
	if t.TechnicalDepthIndex != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Technical depth index: %s", fixed1(*t.TechnicalDepthIndex)))
	}
	if t.TechnicalScore != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Technical score: %s", fixed2(*t.TechnicalScore)))
	}
	if t.TotalSeaDays != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Sea time: %s days", decimal.NewFromFloat(*t.TotalSeaDays).StringFixed(0)))
	}

	if len(t.MissingCertificates) > 0 {
		r.Recommendations = append(r.Recommendations, "Obtain missing certificates: "+strings.Join(t.MissingCertificates, ", "))
	}
	if len(t.ExpiredCertificates) > 0 {
		r.Recommendations = append(r.Recommendations, "Renew expired certificates: "+strings.Join(t.ExpiredCertificates, ", "))
	}

	if t.TotalSeaDays != nil {
		r.ConfidenceNote = "Derived from declared certificates and sea-service records."
	} else {
		r.ConfidenceNote = "Sea-service total not reported; depth relies on certificates only."
	}
	return r
}

func stabilityRationale(s *model.StabilityDetail, cfg policy.Config) *model.Rationale {
	if s == nil || (s.StabilityIndex == nil && s.RiskScore == nil && s.RiskTier == "" &&
		s.ContractSummary == nil && s.RankAnomalyFlag == nil) {
		return nil
	}

	highRisk := s.RiskScore != nil && *s.RiskScore >= highRiskScore
	unstable := s.StabilityIndex != nil && *s.StabilityIndex < lowStabilityIndex
	rankAnomaly := s.RankAnomalyFlag != nil && *s.RankAnomalyFlag
	gapMonths := longestGap(s)
	longGap := gapMonths != nil && *gapMonths > cfg.WhatIf.CareerGapMonths

	r := &model.Rationale{}
	switch {
	case highRisk:
		r.TopReason = fmt.Sprintf("High career-risk score of %s%s.", fixed2(*s.RiskScore), tierSuffix(s.RiskTier))
	case unstable:
		r.TopReason = fmt.Sprintf("Low stability index of %s indicates frequent contract changes.", fixed1(*s.StabilityIndex))
	case s.StabilityIndex != nil:
		r.TopReason = fmt.Sprintf("Stable career pattern (stability index %s).", fixed1(*s.StabilityIndex))
	case s.RiskScore != nil:
		r.TopReason = fmt.Sprintf("Career-risk score of %s%s.", fixed2(*s.RiskScore), tierSuffix(s.RiskTier))
	default:
		r.TopReason = "Career history summary available."
	}

	if s.StabilityIndex != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Stability index: %s", fixed1(*s.StabilityIndex)))
	}
	if s.RiskScore != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Risk score: %s%s", fixed2(*s.RiskScore), tierSuffix(s.RiskTier)))
	}
	if cs := s.ContractSummary; cs != nil {
		if cs.TotalGapMonths != nil {
			r.Evidence = append(r.Evidence, fmt.Sprintf("Total career gap: %s months", fixed1(*cs.TotalGapMonths)))
		}
		if cs.RecentUniqueCompanies3y != nil {
			r.Evidence = append(r.Evidence, fmt.Sprintf("Unique companies in last 3 years: %d", *cs.RecentUniqueCompanies3y))
		}
		if cs.AvgDurationMonths != nil {
			r.Evidence = append(r.Evidence, fmt.Sprintf("Average contract duration: %s months", fixed1(*cs.AvgDurationMonths)))
		}
	}
	if rankAnomaly {
		r.Evidence = append(r.Evidence, "Rank progression anomaly flagged")
	}

	if longGap {
		r.Recommendations = append(r.Recommendations, fmt.Sprintf("Ask the candidate to document career gaps of %s months", fixed1(*gapMonths)))
	}
	if rankAnomaly {
		r.Recommendations = append(r.Recommendations, "Verify rank progression with previous employers")
	}
	if highRisk || unstable {
		r.Recommendations = append(r.Recommendations, "Discuss contract turnover during the interview")
	}

	if s.ContractSummary != nil && s.ContractSummary.TotalContracts != nil {
		r.ConfidenceNote = fmt.Sprintf("Based on %d contracts.", *s.ContractSummary.TotalContracts)
	} else {
		r.ConfidenceNote = "Contract history not reported."
	}
	return r
}

func complianceRationale(c *model.ComplianceDetail) *model.Rationale {
	if c == nil || (c.ComplianceScore == nil && c.ComplianceStatus == "" && c.CriticalFlagCount == nil &&
		len(c.CriticalFlags) == 0 && len(c.Sections) == 0) {
		return nil
	}

	critical := c.CriticalCount()
	incomplete := c.IncompleteSections()

	r := &model.Rationale{}
	switch {
	case critical > 0:
		r.TopReason = fmt.Sprintf("%d critical compliance flags raised.", critical)
	case len(incomplete) > 0:
		r.TopReason = fmt.Sprintf("%d compliance sections could not be scored.", len(incomplete))
	case c.ComplianceScore != nil:
		r.TopReason = fmt.Sprintf("Compliance score of %s%s.", fixed1(*c.ComplianceScore), statusSuffix(c.ComplianceStatus))
	default:
		r.TopReason = fmt.Sprintf("Compliance status: %s.", c.ComplianceStatus)
	}

	if c.ComplianceScore != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Compliance score: %s%s", fixed1(*c.ComplianceScore), statusSuffix(c.ComplianceStatus)))
	}
	if len(c.CriticalFlags) > 0 {
		r.Evidence = append(r.Evidence, "Critical flags: "+strings.Join(c.CriticalFlags, ", "))
	} else if critical > 0 {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Critical flags: %d", critical))
	}
	if len(incomplete) > 0 {
		r.Evidence = append(r.Evidence, "Incomplete sections: "+strings.Join(incomplete, ", "))
	}

	if critical > 0 || len(incomplete) > 0 {
		r.Recommendations = append(r.Recommendations, c.Recommendations...)
		if critical > 0 {
			r.Recommendations = append(r.Recommendations, "Resolve critical compliance flags before progressing")
		}
		if len(incomplete) > 0 {
			r.Recommendations = append(r.Recommendations, "Complete compliance sections: "+strings.Join(incomplete, ", "))
		}
	}

	if n := len(c.Sections); n > 0 {
		r.ConfidenceNote = fmt.Sprintf("%d of %d sections scored.", n-len(incomplete), n)
	} else {
		r.ConfidenceNote = "Section breakdown not reported."
	}
	return r
}

func competencyRationale(c *model.CompetencyDetail) *model.Rationale {
	if c == nil || (c.CompetencyScore == nil && !c.AssessmentMissing && len(c.Strengths) == 0 && len(c.Concerns) == 0) {
		return nil
	}

	missing := c.AssessmentMissing || c.CompetencyScore == nil
	weak := c.CompetencyScore != nil && *c.CompetencyScore < weakCompetency

	r := &model.Rationale{}
	switch {
	case missing:
		r.TopReason = "Competency assessment has not been completed."
	case weak:
		r.TopReason = fmt.Sprintf("Competency score is low at %s.", fixed1(*c.CompetencyScore))
	default:
		r.TopReason = fmt.Sprintf("Competency score of %s.", fixed1(*c.CompetencyScore))
	}

	if c.CompetencyScore != nil {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Competency score: %s", fixed1(*c.CompetencyScore)))
	}
	for _, s := range c.Strengths {
		r.Evidence = append(r.Evidence, "Strength: "+s)
	}
	for _, s := range c.Concerns {
		r.Evidence = append(r.Evidence, "Concern: "+s)
	}

	if missing {
		r.Recommendations = append(r.Recommendations, "Schedule a structured competency assessment")
	}
	if len(c.Concerns) > 0 && (missing || weak) {
		r.Recommendations = append(r.Recommendations, "Probe concern areas in the interview: "+strings.Join(c.Concerns, ", "))
	} else if weak {
		r.Recommendations = append(r.Recommendations, "Probe weak competency areas in the interview")
	}

	if missing {
		r.ConfidenceNote = "No completed assessment on record."
	} else {
		r.ConfidenceNote = "Reflects the latest structured assessment."
	}
	return r
}

func correlationRationale(c *model.CorrelationResult, cfg policy.Config) *model.Rationale {
	if c == nil {
		return nil
	}

	r := &model.Rationale{}
	if len(c.Flags) == 0 {
		r.TopReason = c.Summary
		if r.TopReason == "" {
			r.TopReason = "No cross-engine contradictions detected."
		}
	} else {
		r.TopReason = mostSevere(c.Flags).Detail + "."
	}

	for _, f := range c.Flags {
		r.Evidence = append(r.Evidence, fmt.Sprintf("[%s] %s: %s", f.Severity, f.Flag, f.Detail))
	}
	if len(r.Evidence) == 0 {
		r.Evidence = append(r.Evidence, fmt.Sprintf("Correlation risk weight: %s", fixed2(c.RiskWeight)))
	}

	if ResolveDecisionImpact(c.Flags) == valueobject.DecisionImpactReview {
		r.Recommendations = append(r.Recommendations, "Review the flagged contradictions before shortlisting")
	}

	r.ConfidenceNote = fmt.Sprintf("Correlation risk weight %s (cap %s).", fixed2(c.RiskWeight), fixed2(cfg.Correlation.MaxWeight))
	return r
}

func predictiveRationale(p *model.BlendedRiskResult) *model.Rationale {
	if p == nil {
		return nil
	}

	r := &model.Rationale{
		TopReason: fmt.Sprintf("Predictive risk index %s (%s), trend %s.",
			fixed1(p.PredictiveRiskIndex), p.PredictiveTier, p.TrendDirection),
	}

	for _, pat := range p.TriggeredPatterns {
		r.Evidence = append(r.Evidence, fmt.Sprintf("%s (+%d): %s", pat.Name, pat.Points, pat.Reason))
	}
	if len(r.Evidence) == 0 {
		r.Evidence = append(r.Evidence, p.ReasonChain...)
	}

	switch p.PolicyImpact {
	case valueobject.PolicyImpactRequireConfirmation:
		r.Recommendations = append(r.Recommendations, "Obtain senior confirmation before progressing the candidate")
	case valueobject.PolicyImpactReview:
		r.Recommendations = append(r.Recommendations, "Route to a reviewer before progressing the candidate")
	}
	if p.PolicyImpact.RequiresHumanAction() && len(p.TriggeredPatterns) > 0 {
		r.Recommendations = append(r.Recommendations, "Address the "+dominantPattern(p.TriggeredPatterns).Name+" pattern with the candidate")
	}

	if p.SnapshotCount < 2 {
		r.ConfidenceNote = "Insufficient history for trend analysis; index reflects current scores only."
	} else {
		r.ConfidenceNote = fmt.Sprintf("Based on %d snapshots in the trailing window.", p.SnapshotCount)
	}
	return r
}

func mostSevere(flags []model.CorrelationFlag) model.CorrelationFlag {
	best := flags[0]
	for _, f := range flags[1:] {
		if f.DecisionImpact.Rank() > best.DecisionImpact.Rank() {
			best = f
		}
	}
	return best
}

// dominantPattern returns the highest-point pattern; ties keep the earliest.
func dominantPattern(patterns []model.PatternRecord) model.PatternRecord {
	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.Points > best.Points {
			best = p
		}
	}
	return best
}

func longestGap(s *model.StabilityDetail) *float64 {
	if s == nil || s.ContractSummary == nil {
		return nil
	}
	if s.ContractSummary.LongestGapMonths != nil {
		return s.ContractSummary.LongestGapMonths
	}
	return s.ContractSummary.TotalGapMonths
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func tierSuffix(tier string) string {
	if tier == "" {
		return ""
	}
	return " (tier " + tier + ")"
}

func statusSuffix(status string) string {
	if status == "" {
		return ""
	}
	return " (" + status + ")"
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(0)
}
