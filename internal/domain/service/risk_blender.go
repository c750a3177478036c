package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// BlendInput is everything one blend needs.
type BlendInput struct {
	Current    model.SnapshotInputs
	Trend      model.TrendResult
	ContextTag string
	ComputedAt time.Time
}

// RiskBlender combines the current risk score, the trend score and the
// correlation weight into the predictive risk index.
type RiskBlender struct{}

// NewRiskBlender creates a new RiskBlender instance.
func NewRiskBlender() *RiskBlender {
	return &RiskBlender{}
}

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Blend computes index = w1*(risk*100) + w2*trend + w3*min(100, corr*100),
// clamped to [0, 100] and rounded to one decimal. A missing risk score or
// correlation weight contributes nothing and is called out in the reason
// chain. Tier and policy impact are resolved from the rounded index, so a
// raw 74.96 is reported as 75.0 and critical. Policy impact is one of none,
// review or require_confirmation.
func (b *RiskBlender) Blend(in BlendInput, cfg policy.BlendConfig) model.BlendedRiskResult {
	riskWeight := decimal.NewFromFloat(cfg.RiskWeight)
	trendWeight := decimal.NewFromFloat(cfg.TrendWeight)
	corrWeight := decimal.NewFromFloat(cfg.CorrelationWeight)

	components := model.BlendComponents{
		RiskWeight:        cfg.RiskWeight,
		TrendScore:        in.Trend.TrendScore,
		TrendWeight:       cfg.TrendWeight,
		CorrelationWeight: cfg.CorrelationWeight,
	}
	reasons := make([]string, 0, 4)

	riskContribution := zero
	if in.Current.RiskScore != nil {
		scaled := decimal.NewFromFloat(*in.Current.RiskScore).Mul(hundred)
		riskContribution = riskWeight.Mul(scaled)
		components.RiskAvailable = true
		components.RiskScaled = scaled.Round(2).InexactFloat64()
		reasons = append(reasons, fmt.Sprintf("Current risk score %s (scaled %s) x weight %s = %s points",
			decimal.NewFromFloat(*in.Current.RiskScore).StringFixed(2), scaled.StringFixed(1),
			riskWeight.StringFixed(2), riskContribution.StringFixed(2)))
	} else {
		reasons = append(reasons, "Current risk score unavailable; contributes 0.00 points")
	}
	components.RiskContribution = riskContribution.Round(2).InexactFloat64()

	trendContribution := trendWeight.Mul(decimal.NewFromInt(int64(in.Trend.TrendScore)))
	components.TrendContribution = trendContribution.Round(2).InexactFloat64()
	reasons = append(reasons, fmt.Sprintf("Trend score %d x weight %s = %s points (%s)",
		in.Trend.TrendScore, trendWeight.StringFixed(2), trendContribution.StringFixed(2), describeTrend(in.Trend)))

	corrContribution := zero
	if in.Current.CorrelationRiskWeight != nil {
		scaled := decimal.Min(hundred, decimal.NewFromFloat(*in.Current.CorrelationRiskWeight).Mul(hundred))
		corrContribution = corrWeight.Mul(scaled)
		components.CorrelationAvailable = true
		components.CorrelationScaled = scaled.Round(2).InexactFloat64()
		reasons = append(reasons, fmt.Sprintf("Correlation weight %s (scaled %s) x weight %s = %s points",
			decimal.NewFromFloat(*in.Current.CorrelationRiskWeight).StringFixed(2), scaled.StringFixed(1),
			corrWeight.StringFixed(2), corrContribution.StringFixed(2)))
	} else {
		reasons = append(reasons, "Correlation weight unavailable; contributes 0.00 points")
	}
	components.CorrelationContribution = corrContribution.Round(2).InexactFloat64()

	raw := riskContribution.Add(trendContribution).Add(corrContribution)
	index := decimal.Min(hundred, decimal.Max(zero, raw)).Round(1).InexactFloat64()

	tier := valueobject.TierFromIndex(index, cfg.CriticalTier, cfg.HighTier, cfg.MediumTier)
	impact := valueobject.PolicyImpactFromIndex(index, cfg.ConfirmThreshold, cfg.ReviewThreshold)
	reasons = append(reasons, fmt.Sprintf("Predictive risk index %s -> tier %s (policy impact: %s)",
		decimal.NewFromFloat(index).StringFixed(1), tier, impact))

	computedAt := in.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	return model.BlendedRiskResult{
		PredictiveRiskIndex: index,
		PredictiveTier:      tier,
		TrendScore:          in.Trend.TrendScore,
		TrendDirection:      directionOrStable(in.Trend.Direction),
		TriggeredPatterns:   triggeredOrEmpty(in.Trend.TriggeredPatterns),
		BlendComponents:     components,
		PolicyImpact:        impact,
		ReasonChain:         reasons,
		SnapshotCount:       in.Trend.SnapshotCount,
		ContextTag:          in.ContextTag,
		ComputedAt:          computedAt.UTC(),
	}
}

func describeTrend(t model.TrendResult) string {
	if len(t.TriggeredPatterns) == 0 {
		return fmt.Sprintf("no patterns over %d snapshots", t.SnapshotCount)
	}
	names := make([]string, len(t.TriggeredPatterns))
	for i, p := range t.TriggeredPatterns {
		names[i] = p.Name
	}
	return fmt.Sprintf("%d patterns over %d snapshots: %s", len(names), t.SnapshotCount, strings.Join(names, ", "))
}

func directionOrStable(d valueobject.TrendDirection) valueobject.TrendDirection {
	if d.IsZero() {
		return valueobject.TrendStable
	}
	return d
}

func triggeredOrEmpty(p []model.PatternRecord) []model.PatternRecord {
	if p == nil {
		return make([]model.PatternRecord, 0)
	}
	out := make([]model.PatternRecord, len(p))
	copy(out, p)
	return out
}
