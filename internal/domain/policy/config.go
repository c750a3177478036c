// Package policy holds the tunable thresholds, points and weights of the
// candidate risk pipeline. A Config is a plain value: it carries no maps or
// slices, so every copy handed to an analyzer is independent of the original.
package policy

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Config is the full pipeline configuration for one deployment or fleet context.
type Config struct {
	Trend       TrendConfig       `json:"trend" yaml:"trend"`
	Correlation CorrelationConfig `json:"correlation" yaml:"correlation"`
	Blend       BlendConfig       `json:"blend" yaml:"blend"`
	WhatIf      WhatIfConfig      `json:"what_if" yaml:"what_if"`
}

// TrendConfig configures the six temporal patterns.
type TrendConfig struct {
	EscalatingInstabilityPoints       int `json:"escalating_instability_points" yaml:"escalating_instability_points" validate:"gte=0,lte=100"`
	SwitchingAccelerationPoints       int `json:"switching_acceleration_points" yaml:"switching_acceleration_points" validate:"gte=0,lte=100"`
	GapGrowthPoints                   int `json:"gap_growth_points" yaml:"gap_growth_points" validate:"gte=0,lte=100"`
	PromotionPressurePoints           int `json:"promotion_pressure_points" yaml:"promotion_pressure_points" validate:"gte=0,lte=100"`
	ComplianceDriftPoints             int `json:"compliance_drift_points" yaml:"compliance_drift_points" validate:"gte=0,lte=100"`
	BehavioralTechnicalMismatchPoints int `json:"behavioral_technical_mismatch_points" yaml:"behavioral_technical_mismatch_points" validate:"gte=0,lte=100"`

	// EscalatingMinDelta is the minimum first-to-last rise of the 0-1 risk score.
	EscalatingMinDelta float64 `json:"escalating_min_delta" yaml:"escalating_min_delta" validate:"gt=0,lte=1"`
	// EscalatingMinRisingRatio is the share of consecutive transitions that must rise.
	EscalatingMinRisingRatio float64 `json:"escalating_min_rising_ratio" yaml:"escalating_min_rising_ratio" validate:"gt=0,lte=1"`
	SwitchingMinIncrease     int     `json:"switching_min_increase" yaml:"switching_min_increase" validate:"gte=1"`
	GapGrowthMinMonths       float64 `json:"gap_growth_min_months" yaml:"gap_growth_min_months" validate:"gt=0"`
	ComplianceDriftMinDrop   float64 `json:"compliance_drift_min_drop" yaml:"compliance_drift_min_drop" validate:"gt=0,lte=100"`
	MismatchMinGap           float64 `json:"mismatch_min_gap" yaml:"mismatch_min_gap" validate:"gt=0,lte=100"`

	// WorseningScore is the trend score at or above which direction is worsening.
	WorseningScore int `json:"worsening_score" yaml:"worsening_score" validate:"gte=0,lte=100"`
	// DirectionDeadZone is the +- band around a zero risk delta that reads as stable.
	DirectionDeadZone float64 `json:"direction_dead_zone" yaml:"direction_dead_zone" validate:"gte=0,lt=1"`
}

// CorrelationConfig configures the four cross-engine patterns.
type CorrelationConfig struct {
	ExpertUnstableMinDepth     float64 `json:"expert_unstable_min_depth" yaml:"expert_unstable_min_depth" validate:"gte=0,lte=100"`
	ExpertUnstableMaxStability float64 `json:"expert_unstable_max_stability" yaml:"expert_unstable_max_stability" validate:"gte=0"`

	CompliantLowExperienceMinCompliance float64 `json:"compliant_low_experience_min_compliance" yaml:"compliant_low_experience_min_compliance" validate:"gte=0,lte=100"`
	CompliantLowExperienceMaxSeaDays    float64 `json:"compliant_low_experience_max_sea_days" yaml:"compliant_low_experience_max_sea_days" validate:"gte=0"`

	StableButWeakMinStability float64 `json:"stable_but_weak_min_stability" yaml:"stable_but_weak_min_stability" validate:"gte=0"`
	StableButWeakMaxDepth     float64 `json:"stable_but_weak_max_depth" yaml:"stable_but_weak_max_depth" validate:"gte=0,lte=100"`

	HighSkillHighRiskMinRisk  float64 `json:"high_skill_high_risk_min_risk" yaml:"high_skill_high_risk_min_risk" validate:"gte=0,lte=1"`
	HighSkillHighRiskMinDepth float64 `json:"high_skill_high_risk_min_depth" yaml:"high_skill_high_risk_min_depth" validate:"gte=0,lte=100"`

	WarningWeight float64 `json:"warning_weight" yaml:"warning_weight" validate:"gte=0,lte=1"`
	InfoWeight    float64 `json:"info_weight" yaml:"info_weight" validate:"gte=0,lte=1"`
	MaxWeight     float64 `json:"max_weight" yaml:"max_weight" validate:"gte=0,lte=0.6"`
}

// BlendConfig configures the predictive index blend, tiers and policy ladder.
type BlendConfig struct {
	RiskWeight        float64 `json:"risk_weight" yaml:"risk_weight" validate:"gte=0,lte=1"`
	TrendWeight       float64 `json:"trend_weight" yaml:"trend_weight" validate:"gte=0,lte=1"`
	CorrelationWeight float64 `json:"correlation_weight" yaml:"correlation_weight" validate:"gte=0,lte=1"`

	CriticalTier float64 `json:"critical_tier" yaml:"critical_tier" validate:"gt=0,lte=100"`
	HighTier     float64 `json:"high_tier" yaml:"high_tier" validate:"gt=0,lte=100"`
	MediumTier   float64 `json:"medium_tier" yaml:"medium_tier" validate:"gt=0,lte=100"`

	ConfirmThreshold float64 `json:"confirm_threshold" yaml:"confirm_threshold" validate:"gt=0,lte=100"`
	ReviewThreshold  float64 `json:"review_threshold" yaml:"review_threshold" validate:"gt=0,lte=100"`

	// HistoryWindowMonths bounds the snapshots considered for trend analysis.
	HistoryWindowMonths int `json:"history_window_months" yaml:"history_window_months" validate:"gte=1,lte=120"`
}

// WhatIfConfig configures the remediation simulator.
type WhatIfConfig struct {
	LowVerificationConfidence float64 `json:"low_verification_confidence" yaml:"low_verification_confidence" validate:"gte=0,lte=1"`
	CareerGapMonths           float64 `json:"career_gap_months" yaml:"career_gap_months" validate:"gte=0"`
	MaxActions                int     `json:"max_actions" yaml:"max_actions" validate:"gte=1,lte=10"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Trend: TrendConfig{
			EscalatingInstabilityPoints:       20,
			SwitchingAccelerationPoints:       20,
			GapGrowthPoints:                   15,
			PromotionPressurePoints:           15,
			ComplianceDriftPoints:             25,
			BehavioralTechnicalMismatchPoints: 10,
			EscalatingMinDelta:                0.10,
			EscalatingMinRisingRatio:          0.6,
			SwitchingMinIncrease:              2,
			GapGrowthMinMonths:                3,
			ComplianceDriftMinDrop:            10,
			MismatchMinGap:                    25,
			WorseningScore:                    30,
			DirectionDeadZone:                 0.05,
		},
		Correlation: CorrelationConfig{
			ExpertUnstableMinDepth:              75,
			ExpertUnstableMaxStability:          4.0,
			CompliantLowExperienceMinCompliance: 80,
			CompliantLowExperienceMaxSeaDays:    365,
			StableButWeakMinStability:           7.0,
			StableButWeakMaxDepth:               50,
			HighSkillHighRiskMinRisk:            0.6,
			HighSkillHighRiskMinDepth:           70,
			WarningWeight:                       0.15,
			InfoWeight:                          0.05,
			MaxWeight:                           0.6,
		},
		Blend: BlendConfig{
			RiskWeight:          0.45,
			TrendWeight:         0.35,
			CorrelationWeight:   0.20,
			CriticalTier:        75,
			HighTier:            60,
			MediumTier:          40,
			ConfirmThreshold:    75,
			ReviewThreshold:     60,
			HistoryWindowMonths: 6,
		},
		WhatIf: WhatIfConfig{
			LowVerificationConfidence: 0.6,
			CareerGapMonths:           6,
			MaxActions:                3,
		},
	}
}

var weightTolerance = decimal.RequireFromString("0.001")

// Validate checks field ranges and the cross-field rules: blend weights sum
// to 1.0, tier boundaries are strictly ordered and the confirm threshold is
// not below the review threshold.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid policy config: %w", err)
	}

	var errs []error

	sum := decimal.NewFromFloat(c.Blend.RiskWeight).
		Add(decimal.NewFromFloat(c.Blend.TrendWeight)).
		Add(decimal.NewFromFloat(c.Blend.CorrelationWeight))
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		errs = append(errs, fmt.Errorf("blend weights must sum to 1.0, got %s", sum.String()))
	}

	if !(c.Blend.MediumTier < c.Blend.HighTier && c.Blend.HighTier < c.Blend.CriticalTier) {
		errs = append(errs, fmt.Errorf("tier boundaries must satisfy medium < high < critical, got %.1f/%.1f/%.1f",
			c.Blend.MediumTier, c.Blend.HighTier, c.Blend.CriticalTier))
	}

	if c.Blend.ConfirmThreshold < c.Blend.ReviewThreshold {
		errs = append(errs, fmt.Errorf("confirm threshold %.1f is below review threshold %.1f",
			c.Blend.ConfirmThreshold, c.Blend.ReviewThreshold))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid policy config: %w", errors.Join(errs...))
	}
	return nil
}
