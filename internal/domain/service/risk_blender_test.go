package service_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/service"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

func TestRiskBlender_RiskOnly(t *testing.T) {
	blender := service.NewRiskBlender()

	result := blender.Blend(service.BlendInput{
		Current: model.SnapshotInputs{
			RiskScore:             model.Ptr(0.8),
			CorrelationRiskWeight: model.Ptr(0.0),
		},
		Trend: model.TrendResult{Direction: valueobject.TrendStable, SnapshotCount: 1},
	}, policy.Default().Blend)

	assert.InDelta(t, 36.0, result.PredictiveRiskIndex, 1e-9)
	assert.Equal(t, valueobject.TierLow, result.PredictiveTier)
	assert.Equal(t, valueobject.PolicyImpactNone, result.PolicyImpact)
	assert.InDelta(t, 36.0, result.BlendComponents.RiskContribution, 1e-9)
	assert.Zero(t, result.BlendComponents.TrendContribution)
	assert.Zero(t, result.BlendComponents.CorrelationContribution)

	require.Len(t, result.ReasonChain, 4)
	assert.Equal(t, "Current risk score 0.80 (scaled 80.0) x weight 0.45 = 36.00 points", result.ReasonChain[0])
	assert.Equal(t, "Predictive risk index 36.0 -> tier low (policy impact: none)", result.ReasonChain[3])
	assert.NotNil(t, result.TriggeredPatterns)
}

func TestRiskBlender_AllComponents(t *testing.T) {
	blender := service.NewRiskBlender()

	result := blender.Blend(service.BlendInput{
		Current: model.SnapshotInputs{
			RiskScore:             model.Ptr(0.9),
			CorrelationRiskWeight: model.Ptr(0.45),
		},
		Trend: model.TrendResult{
			TrendScore: 60,
			TriggeredPatterns: []model.PatternRecord{
				{Name: service.PatternComplianceDrift, Points: 25},
				{Name: service.PatternSwitchingAcceleration, Points: 20},
				{Name: service.PatternGapGrowth, Points: 15},
			},
			Direction:     valueobject.TrendWorsening,
			SnapshotCount: 4,
		},
		ContextTag: "tanker",
	}, policy.Default().Blend)

	// 0.45*90 + 0.35*60 + 0.20*45 = 40.5 + 21 + 9 = 70.5
	assert.InDelta(t, 70.5, result.PredictiveRiskIndex, 1e-9)
	assert.Equal(t, valueobject.TierHigh, result.PredictiveTier)
	assert.Equal(t, valueobject.PolicyImpactReview, result.PolicyImpact)
	assert.Equal(t, valueobject.TrendWorsening, result.TrendDirection)
	assert.Equal(t, "tanker", result.ContextTag)
	assert.Equal(t, 4, result.SnapshotCount)
	assert.Len(t, result.TriggeredPatterns, 3)
	assert.False(t, result.ComputedAt.IsZero())
}

func TestRiskBlender_MissingComponentsContributeNothing(t *testing.T) {
	result := service.NewRiskBlender().Blend(service.BlendInput{
		Trend: model.TrendResult{TrendScore: 40, Direction: valueobject.TrendWorsening, SnapshotCount: 3},
	}, policy.Default().Blend)

	assert.InDelta(t, 14.0, result.PredictiveRiskIndex, 1e-9)
	assert.False(t, result.BlendComponents.RiskAvailable)
	assert.False(t, result.BlendComponents.CorrelationAvailable)
	assert.Equal(t, "Current risk score unavailable; contributes 0.00 points", result.ReasonChain[0])
	assert.Equal(t, "Correlation weight unavailable; contributes 0.00 points", result.ReasonChain[2])
}

func TestRiskBlender_PolicyLadder(t *testing.T) {
	tests := []struct {
		risk   float64
		tier   valueobject.Tier
		impact valueobject.PolicyImpact
	}{
		{risk: 0.0, tier: valueobject.TierLow, impact: valueobject.PolicyImpactNone},
		{risk: 0.5, tier: valueobject.TierLow, impact: valueobject.PolicyImpactNone},
		{risk: 1.0, tier: valueobject.TierMedium, impact: valueobject.PolicyImpactNone},
	}

	cfg := policy.Default().Blend
	cfg.RiskWeight = 1
	cfg.TrendWeight = 0
	cfg.CorrelationWeight = 0

	blender := service.NewRiskBlender()
	for _, tt := range tests {
		result := blender.Blend(service.BlendInput{Current: model.SnapshotInputs{RiskScore: model.Ptr(tt.risk)}}, policy.Default().Blend)
		assert.Equal(t, tt.tier, result.PredictiveTier, "risk %.2f", tt.risk)
		assert.Equal(t, tt.impact, result.PolicyImpact, "risk %.2f", tt.risk)
	}

	boundaries := []struct {
		risk   float64
		tier   valueobject.Tier
		impact valueobject.PolicyImpact
	}{
		{risk: 0.399, tier: valueobject.TierLow, impact: valueobject.PolicyImpactNone},
		{risk: 0.40, tier: valueobject.TierMedium, impact: valueobject.PolicyImpactNone},
		{risk: 0.60, tier: valueobject.TierHigh, impact: valueobject.PolicyImpactReview},
		{risk: 0.75, tier: valueobject.TierCritical, impact: valueobject.PolicyImpactRequireConfirmation},
		{risk: 1.00, tier: valueobject.TierCritical, impact: valueobject.PolicyImpactRequireConfirmation},
	}
	for _, tt := range boundaries {
		result := blender.Blend(service.BlendInput{Current: model.SnapshotInputs{RiskScore: model.Ptr(tt.risk)}}, cfg)
		assert.Equal(t, tt.tier, result.PredictiveTier, "risk %.3f", tt.risk)
		assert.Equal(t, tt.impact, result.PolicyImpact, "risk %.3f", tt.risk)
	}
}

func TestRiskBlender_RandomizedInputsStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	blender := service.NewRiskBlender()
	cfg := policy.Default().Blend

	for i := 0; i < 5000; i++ {
		in := service.BlendInput{
			Trend: model.TrendResult{TrendScore: rng.Intn(101)},
		}
		if rng.Intn(5) > 0 {
			in.Current.RiskScore = model.Ptr(rng.Float64()*1.4 - 0.2)
		}
		if rng.Intn(5) > 0 {
			in.Current.CorrelationRiskWeight = model.Ptr(rng.Float64() * 2)
		}

		result := blender.Blend(in, cfg)

		assert.GreaterOrEqual(t, result.PredictiveRiskIndex, 0.0)
		assert.LessOrEqual(t, result.PredictiveRiskIndex, 100.0)
		assert.Contains(t, []valueobject.PolicyImpact{
			valueobject.PolicyImpactNone,
			valueobject.PolicyImpactReview,
			valueobject.PolicyImpactRequireConfirmation,
		}, result.PolicyImpact)
		assert.NotEqual(t, "reject", result.PolicyImpact.String())
	}
}

func TestRiskBlender_TierMonotonic(t *testing.T) {
	blender := service.NewRiskBlender()
	cfg := policy.Default().Blend

	prevIndex, prevRank := -1.0, 0
	for score := 0; score <= 100; score++ {
		result := blender.Blend(service.BlendInput{
			Current: model.SnapshotInputs{RiskScore: model.Ptr(float64(score) / 100), CorrelationRiskWeight: model.Ptr(float64(score) / 100)},
			Trend:   model.TrendResult{TrendScore: score},
		}, cfg)

		require.GreaterOrEqual(t, result.PredictiveRiskIndex, prevIndex)
		require.GreaterOrEqual(t, result.PredictiveTier.Rank(), prevRank)
		prevIndex, prevRank = result.PredictiveRiskIndex, result.PredictiveTier.Rank()
	}
	assert.Equal(t, valueobject.TierCritical.Rank(), prevRank)
}

func TestRiskBlender_Deterministic(t *testing.T) {
	blender := service.NewRiskBlender()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := service.BlendInput{
		Current:    model.SnapshotInputs{RiskScore: model.Ptr(0.55), CorrelationRiskWeight: model.Ptr(0.2)},
		Trend:      model.TrendResult{TrendScore: 35, Direction: valueobject.TrendWorsening, SnapshotCount: 3},
		ComputedAt: at,
	}

	first := blender.Blend(in, policy.Default().Blend)
	second := blender.Blend(in, policy.Default().Blend)

	assert.Equal(t, first, second)
	assert.Equal(t, at, first.ComputedAt)
}

func TestRiskBlender_TierFollowsReportedIndex(t *testing.T) {
	tests := []struct {
		name        string
		correlation float64
		wantIndex   float64
		wantTier    valueobject.Tier
		wantImpact  valueobject.PolicyImpact
	}{
		// 45 + 21 + 8.96 = 74.96, reported as 75.0
		{name: "rounds up onto the critical boundary", correlation: 0.448, wantIndex: 75.0, wantTier: valueobject.TierCritical, wantImpact: valueobject.PolicyImpactRequireConfirmation},
		// 45 + 21 + 8.94 = 74.94, reported as 74.9
		{name: "rounds down below the boundary", correlation: 0.447, wantIndex: 74.9, wantTier: valueobject.TierHigh, wantImpact: valueobject.PolicyImpactReview},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := service.NewRiskBlender().Blend(service.BlendInput{
				Current: model.SnapshotInputs{
					RiskScore:             model.Ptr(1.0),
					CorrelationRiskWeight: model.Ptr(tt.correlation),
				},
				Trend: model.TrendResult{TrendScore: 60, Direction: valueobject.TrendWorsening, SnapshotCount: 3},
			}, policy.Default().Blend)

			assert.InDelta(t, tt.wantIndex, result.PredictiveRiskIndex, 1e-9)
			assert.Equal(t, tt.wantTier, result.PredictiveTier)
			assert.Equal(t, tt.wantImpact, result.PolicyImpact)
		})
	}
}
