package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// WhatIfInput is the read-only state the simulator inspects.
type WhatIfInput struct {
	Engines    model.EngineDetails
	Predictive *model.BlendedRiskResult
}

type whatIfRule func(WhatIfInput, policy.Config) (model.WhatIfAction, bool)

// WhatIfSimulator proposes remediation actions from a fixed rule list.
type WhatIfSimulator struct {
	rules []whatIfRule
}

// NewWhatIfSimulator creates a simulator with the rules in evaluation order.
func NewWhatIfSimulator() *WhatIfSimulator {
	return &WhatIfSimulator{
		rules: []whatIfRule{
			missingCertificatesRule,
			expiredCertificatesRule,
			criticalComplianceRule,
			missingCompetencyRule,
			lowVerificationRule,
			careerGapRule,
			incompleteComplianceRule,
			dominantPatternRule,
		},
	}
}

// Simulate evaluates every rule, sorts the triggered actions by estimated
// impact (high first) keeping rule order within a group, and returns at most
// cfg.WhatIf.MaxActions of them.
func (s *WhatIfSimulator) Simulate(in WhatIfInput, cfg policy.Config) []model.WhatIfAction {
	actions := make([]model.WhatIfAction, 0, len(s.rules))
	for _, rule := range s.rules {
		if action, ok := rule(in, cfg); ok {
			actions = append(actions, action)
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].EstimatedImpact.Priority() < actions[j].EstimatedImpact.Priority()
	})

	if len(actions) > cfg.WhatIf.MaxActions {
		actions = actions[:cfg.WhatIf.MaxActions]
	}
	return actions
}

func missingCertificatesRule(in WhatIfInput, _ policy.Config) (model.WhatIfAction, bool) {
	t := in.Engines.Technical
	if t == nil || len(t.MissingCertificates) == 0 {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Obtain missing certificates",
		Engine:          valueobject.EngineTechnical,
		EstimatedImpact: valueobject.ImpactHigh,
		CurrentState:    fmt.Sprintf("%d required certificates missing (%s)", len(t.MissingCertificates), listPreview(t.MissingCertificates)),
		ProjectedState:  "All required STCW certificates held; technical certification gap closed",
	}, true
}

func expiredCertificatesRule(in WhatIfInput, _ policy.Config) (model.WhatIfAction, bool) {
	t := in.Engines.Technical
	if t == nil || len(t.ExpiredCertificates) == 0 {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Renew expired certificates",
		Engine:          valueobject.EngineTechnical,
		EstimatedImpact: valueobject.ImpactHigh,
		CurrentState:    fmt.Sprintf("%d certificates expired (%s)", len(t.ExpiredCertificates), listPreview(t.ExpiredCertificates)),
		ProjectedState:  "All certificates on record valid",
	}, true
}

func criticalComplianceRule(in WhatIfInput, _ policy.Config) (model.WhatIfAction, bool) {
	c := in.Engines.Compliance
	n := c.CriticalCount()
	if n == 0 {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Resolve critical compliance flags",
		Engine:          valueobject.EngineCompliance,
		EstimatedImpact: valueobject.ImpactHigh,
		CurrentState:    fmt.Sprintf("%d critical compliance flags open", n),
		ProjectedState:  "No critical compliance flags; compliance status can be re-evaluated",
	}, true
}

// missingCompetencyRule fires only when the competency engine reported but
// has no score. A candidate the engine never saw is not flagged.
func missingCompetencyRule(in WhatIfInput, _ policy.Config) (model.WhatIfAction, bool) {
	c := in.Engines.Competency
	if c == nil || (!c.AssessmentMissing && c.CompetencyScore != nil) {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Complete the competency assessment",
		Engine:          valueobject.EngineCompetency,
		EstimatedImpact: valueobject.ImpactHigh,
		CurrentState:    "No competency assessment on record",
		ProjectedState:  "Competency score available; behavioral-technical comparison enabled",
	}, true
}

func lowVerificationRule(in WhatIfInput, cfg policy.Config) (model.WhatIfAction, bool) {
	v := in.Engines.Verification
	if v == nil || v.ConfidenceScore == nil || *v.ConfidenceScore >= cfg.WhatIf.LowVerificationConfidence {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Provide verification evidence (sea-service testimonials, employer references)",
		Engine:          valueobject.EngineVerification,
		EstimatedImpact: valueobject.ImpactMedium,
		CurrentState:    fmt.Sprintf("Verification confidence %s", fixed2(*v.ConfidenceScore)),
		ProjectedState:  fmt.Sprintf("Verification confidence at or above %s", fixed2(cfg.WhatIf.LowVerificationConfidence)),
	}, true
}

func careerGapRule(in WhatIfInput, cfg policy.Config) (model.WhatIfAction, bool) {
	gap := longestGap(in.Engines.Stability)
	if gap == nil || *gap <= cfg.WhatIf.CareerGapMonths {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Document career gaps",
		Engine:          valueobject.EngineStability,
		EstimatedImpact: valueobject.ImpactMedium,
		CurrentState:    fmt.Sprintf("Career gap of %s months unexplained", fixed1(*gap)),
		ProjectedState:  "Gaps explained; stability assessment no longer penalized for unexplained time ashore",
	}, true
}

func incompleteComplianceRule(in WhatIfInput, _ policy.Config) (model.WhatIfAction, bool) {
	sections := in.Engines.Compliance.IncompleteSections()
	if len(sections) == 0 {
		return model.WhatIfAction{}, false
	}
	return model.WhatIfAction{
		Action:          "Complete missing compliance sections",
		Engine:          valueobject.EngineCompliance,
		EstimatedImpact: valueobject.ImpactMedium,
		CurrentState:    fmt.Sprintf("%d sections incomplete (%s)", len(sections), listPreview(sections)),
		ProjectedState:  "All compliance sections scored",
	}, true
}

// dominantPatternRule projects the index with the highest-point trend pattern
// removed: index - trend_weight * points.
func dominantPatternRule(in WhatIfInput, cfg policy.Config) (model.WhatIfAction, bool) {
	p := in.Predictive
	if p == nil || len(p.TriggeredPatterns) == 0 {
		return model.WhatIfAction{}, false
	}

	dominant := dominantPattern(p.TriggeredPatterns)
	reduction := decimal.NewFromFloat(cfg.Blend.TrendWeight).Mul(decimal.NewFromInt(int64(dominant.Points)))
	projected := decimal.Max(zero, decimal.NewFromFloat(p.PredictiveRiskIndex).Sub(reduction)).Round(1).InexactFloat64()
	projectedTier := valueobject.TierFromIndex(projected, cfg.Blend.CriticalTier, cfg.Blend.HighTier, cfg.Blend.MediumTier)

	return model.WhatIfAction{
		Action:          "Address the " + strings.ReplaceAll(dominant.Name, "_", " ") + " pattern",
		Engine:          valueobject.EnginePredictiveRisk,
		EstimatedImpact: valueobject.ImpactLow,
		CurrentState: fmt.Sprintf("Index %s (%s); %s contributes %d trend points",
			fixed1(p.PredictiveRiskIndex), p.PredictiveTier, dominant.Name, dominant.Points),
		ProjectedState: fmt.Sprintf("Index %s (%s) once the pattern no longer triggers",
			fixed1(projected), projectedTier),
	}, true
}

func listPreview(items []string) string {
	const shown = 3
	if len(items) <= shown {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:shown], ", "), len(items)-shown)
}
