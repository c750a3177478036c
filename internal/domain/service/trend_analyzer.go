package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

// Temporal pattern names.
const (
	PatternEscalatingInstability       = "escalating_instability"
	PatternSwitchingAcceleration       = "switching_acceleration"
	PatternGapGrowth                   = "gap_growth"
	PatternPromotionPressure           = "promotion_pressure"
	PatternComplianceDrift             = "compliance_drift"
	PatternBehavioralTechnicalMismatch = "behavioral_technical_mismatch"
)

const maxTrendScore = 100

// TrendAnalyzer detects temporal risk patterns across a candidate's snapshot
// history. It is stateless; every call is a pure function of its arguments.
type TrendAnalyzer struct{}

// NewTrendAnalyzer creates a new TrendAnalyzer instance.
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// Analyze evaluates the six patterns over history, which must be ordered by
// computed_at ascending. Fewer than two snapshots yield a zero, stable result.
// Each pattern only looks at snapshots that carry the values it needs, so
// sparse history narrows a pattern instead of biasing it.
func (a *TrendAnalyzer) Analyze(history []model.SnapshotInputs, cfg policy.TrendConfig) model.TrendResult {
	result := model.TrendResult{
		TriggeredPatterns: make([]model.PatternRecord, 0),
		Direction:         valueobject.TrendStable,
		SnapshotCount:     len(history),
	}
	if len(history) < 2 {
		return result
	}

	checks := []func([]model.SnapshotInputs, policy.TrendConfig) (model.PatternRecord, bool){
		escalatingInstability,
		switchingAcceleration,
		gapGrowth,
		promotionPressure,
		complianceDrift,
		behavioralTechnicalMismatch,
	}

	score := 0
	for _, check := range checks {
		if rec, ok := check(history, cfg); ok {
			score += rec.Points
			result.TriggeredPatterns = append(result.TriggeredPatterns, rec)
		}
	}
	if score > maxTrendScore {
		score = maxTrendScore
	}
	result.TrendScore = score
	result.Direction = trendDirection(history, score, cfg)

	return result
}

func escalatingInstability(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	series := floatSeries(history, func(in model.SnapshotInputs) *float64 { return in.RiskScore })
	if len(series) < 2 {
		return model.PatternRecord{}, false
	}

	delta := delta(series[0], series[len(series)-1])
	transitions := len(series) - 1
	rising := 0
	for i := 1; i < len(series); i++ {
		if decimal.NewFromFloat(series[i]).GreaterThan(decimal.NewFromFloat(series[i-1])) {
			rising++
		}
	}
	ratio := decimal.NewFromInt(int64(rising)).Div(decimal.NewFromInt(int64(transitions)))

	if delta.LessThan(decimal.NewFromFloat(cfg.EscalatingMinDelta)) ||
		ratio.LessThan(decimal.NewFromFloat(cfg.EscalatingMinRisingRatio)) {
		return model.PatternRecord{}, false
	}

	return model.PatternRecord{
		Name:   PatternEscalatingInstability,
		Points: cfg.EscalatingInstabilityPoints,
		Reason: fmt.Sprintf("Risk score increased by %s across %d snapshots (%d/%d transitions rising)",
			delta.StringFixed(2), len(series), rising, transitions),
		SupportingData: map[string]float64{
			"first_risk_score":   series[0],
			"last_risk_score":    series[len(series)-1],
			"delta":              delta.InexactFloat64(),
			"rising_transitions": float64(rising),
			"transitions":        float64(transitions),
		},
	}, true
}

func switchingAcceleration(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	var series []int
	for _, in := range history {
		if in.RecentUniqueCompanies != nil {
			series = append(series, *in.RecentUniqueCompanies)
		}
	}
	if len(series) < 2 {
		return model.PatternRecord{}, false
	}

	first, last := series[0], series[len(series)-1]
	growth := last - first
	if growth < cfg.SwitchingMinIncrease {
		return model.PatternRecord{}, false
	}

	return model.PatternRecord{
		Name:   PatternSwitchingAcceleration,
		Points: cfg.SwitchingAccelerationPoints,
		Reason: fmt.Sprintf("Unique companies in the last 3 years grew from %d to %d (+%d) across %d snapshots",
			first, last, growth, len(series)),
		SupportingData: map[string]float64{
			"first_companies": float64(first),
			"last_companies":  float64(last),
			"growth":          float64(growth),
		},
	}, true
}

func gapGrowth(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	series := floatSeries(history, func(in model.SnapshotInputs) *float64 { return in.GapMonthsTotal })
	if len(series) < 2 {
		return model.PatternRecord{}, false
	}

	growth := delta(series[0], series[len(series)-1])
	if growth.LessThan(decimal.NewFromFloat(cfg.GapGrowthMinMonths)) {
		return model.PatternRecord{}, false
	}

	return model.PatternRecord{
		Name:   PatternGapGrowth,
		Points: cfg.GapGrowthPoints,
		Reason: fmt.Sprintf("Total career gap grew from %s to %s months (+%s)",
			fixed1(series[0]), fixed1(series[len(series)-1]), growth.StringFixed(1)),
		SupportingData: map[string]float64{
			"first_gap_months": series[0],
			"last_gap_months":  series[len(series)-1],
			"growth_months":    growth.InexactFloat64(),
		},
	}, true
}

// promotionPressure compares the first half of the history with the second.
// With an odd count the middle snapshot belongs to the second half.
func promotionPressure(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	mid := len(history) / 2
	firstHalf, secondHalf := history[:mid], history[mid:]

	firstRate, okA := anomalyRate(firstHalf)
	secondRate, okB := anomalyRate(secondHalf)
	firstStability, okC := meanOf(firstHalf, func(in model.SnapshotInputs) *float64 { return in.StabilityIndex })
	secondStability, okD := meanOf(secondHalf, func(in model.SnapshotInputs) *float64 { return in.StabilityIndex })
	if !okA || !okB || !okC || !okD {
		return model.PatternRecord{}, false
	}

	if !secondRate.GreaterThan(firstRate) || !secondStability.LessThan(firstStability) {
		return model.PatternRecord{}, false
	}

	hundred := decimal.NewFromInt(100)
	return model.PatternRecord{
		Name:   PatternPromotionPressure,
		Points: cfg.PromotionPressurePoints,
		Reason: fmt.Sprintf("Rank anomalies rose from %s%% to %s%% of snapshots while average stability fell from %s to %s",
			firstRate.Mul(hundred).StringFixed(0), secondRate.Mul(hundred).StringFixed(0),
			firstStability.StringFixed(1), secondStability.StringFixed(1)),
		SupportingData: map[string]float64{
			"first_half_anomaly_rate":  firstRate.InexactFloat64(),
			"second_half_anomaly_rate": secondRate.InexactFloat64(),
			"first_half_stability":     firstStability.InexactFloat64(),
			"second_half_stability":    secondStability.InexactFloat64(),
		},
	}, true
}

func complianceDrift(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	series := floatSeries(history, func(in model.SnapshotInputs) *float64 { return in.ComplianceScore })
	if len(series) < 2 {
		return model.PatternRecord{}, false
	}

	drop := delta(series[len(series)-1], series[0])
	if drop.LessThan(decimal.NewFromFloat(cfg.ComplianceDriftMinDrop)) {
		return model.PatternRecord{}, false
	}

	return model.PatternRecord{
		Name:   PatternComplianceDrift,
		Points: cfg.ComplianceDriftPoints,
		Reason: fmt.Sprintf("Compliance score dropped %s points from %s to %s",
			drop.StringFixed(1), fixed1(series[0]), fixed1(series[len(series)-1])),
		SupportingData: map[string]float64{
			"first_compliance": series[0],
			"last_compliance":  series[len(series)-1],
			"drop":             drop.InexactFloat64(),
		},
	}, true
}

func behavioralTechnicalMismatch(history []model.SnapshotInputs, cfg policy.TrendConfig) (model.PatternRecord, bool) {
	latest := history[len(history)-1]
	if latest.CompetencyScore == nil || latest.TechnicalDepthIndex == nil {
		return model.PatternRecord{}, false
	}

	gap := delta(*latest.TechnicalDepthIndex, *latest.CompetencyScore).Abs()
	if gap.LessThan(decimal.NewFromFloat(cfg.MismatchMinGap)) {
		return model.PatternRecord{}, false
	}

	return model.PatternRecord{
		Name:   PatternBehavioralTechnicalMismatch,
		Points: cfg.BehavioralTechnicalMismatchPoints,
		Reason: fmt.Sprintf("Competency score %s and technical depth %s differ by %s points on the latest snapshot",
			fixed1(*latest.CompetencyScore), fixed1(*latest.TechnicalDepthIndex), gap.StringFixed(1)),
		SupportingData: map[string]float64{
			"competency_score":      *latest.CompetencyScore,
			"technical_depth_index": *latest.TechnicalDepthIndex,
			"gap":                   gap.InexactFloat64(),
		},
	}, true
}

func trendDirection(history []model.SnapshotInputs, score int, cfg policy.TrendConfig) valueobject.TrendDirection {
	if score >= cfg.WorseningScore {
		return valueobject.TrendWorsening
	}

	series := floatSeries(history, func(in model.SnapshotInputs) *float64 { return in.RiskScore })
	if len(series) < 2 {
		return valueobject.TrendStable
	}

	d := delta(series[0], series[len(series)-1])
	zone := decimal.NewFromFloat(cfg.DirectionDeadZone)
	switch {
	case d.GreaterThan(zone):
		return valueobject.TrendWorsening
	case d.LessThan(zone.Neg()):
		return valueobject.TrendImproving
	default:
		return valueobject.TrendStable
	}
}

func floatSeries(history []model.SnapshotInputs, get func(model.SnapshotInputs) *float64) []float64 {
	var out []float64
	for _, in := range history {
		if v := get(in); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// delta returns to - from in exact decimal arithmetic so that thresholds such
// as 0.35 - 0.25 >= 0.10 hold as written.
func delta(from, to float64) decimal.Decimal {
	return decimal.NewFromFloat(to).Sub(decimal.NewFromFloat(from))
}

func anomalyRate(half []model.SnapshotInputs) (decimal.Decimal, bool) {
	seen, flagged := 0, 0
	for _, in := range half {
		if in.RankAnomalyFlag == nil {
			continue
		}
		seen++
		if *in.RankAnomalyFlag {
			flagged++
		}
	}
	if seen == 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(flagged)).Div(decimal.NewFromInt(int64(seen))), true
}

func meanOf(half []model.SnapshotInputs, get func(model.SnapshotInputs) *float64) (decimal.Decimal, bool) {
	values := floatSeries(half, get)
	if len(values) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))), true
}

func fixed1(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
