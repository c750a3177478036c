package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// AssertValidResult checks the properties every blended result must hold
// under the given blend config: a bounded index, a tier consistent with the
// boundaries, and a reason chain explaining it.
func AssertValidResult(t *testing.T, r *model.BlendedRiskResult, cfg policy.BlendConfig) {
	t.Helper()
	require.NotNil(t, r, "expected a blended result")

	assert.GreaterOrEqual(t, r.PredictiveRiskIndex, 0.0)
	assert.LessOrEqual(t, r.PredictiveRiskIndex, 100.0)
	assert.Equal(t,
		valueobject.TierFromIndex(r.PredictiveRiskIndex, cfg.CriticalTier, cfg.HighTier, cfg.MediumTier),
		r.PredictiveTier,
		"tier does not match index %.1f", r.PredictiveRiskIndex,
	)
	assert.GreaterOrEqual(t, r.TrendScore, 0)
	assert.LessOrEqual(t, r.TrendScore, 100)
	assert.NotEmpty(t, r.ReasonChain)
	assert.False(t, r.ComputedAt.IsZero())
}

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	require.Error(t, err)
	assert.Contains(t, err.Error(), expected)
}
