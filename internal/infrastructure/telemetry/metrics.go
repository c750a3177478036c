package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
)

const meterName = "github.com/talentqx/crewrisk"

var _ port.MetricsRecorder = (*Recorder)(nil)

// Recorder publishes evaluation outcomes as OpenTelemetry instruments.
type Recorder struct {
	evaluations  metric.Int64Counter
	riskIndex    metric.Float64Histogram
	policyImpact metric.Int64Counter
	patterns     metric.Int64Counter
}

// NewRecorder registers the evaluation instruments on provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	evaluations, err1 := meter.Int64Counter("crewrisk_evaluations_total",
		metric.WithDescription("Evaluation cycles by outcome"))
	riskIndex, err2 := meter.Float64Histogram("crewrisk_predictive_index",
		metric.WithDescription("Predictive risk index of computed evaluations"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	policyImpact, err3 := meter.Int64Counter("crewrisk_policy_impact_total",
		metric.WithDescription("Computed evaluations by policy impact and tier"))
	patterns, err4 := meter.Int64Counter("crewrisk_triggered_patterns_total",
		metric.WithDescription("Temporal patterns triggered by name"))
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}

	return &Recorder{
		evaluations:  evaluations,
		riskIndex:    riskIndex,
		policyImpact: policyImpact,
		patterns:     patterns,
	}, nil
}

// RecordEvaluation implements port.MetricsRecorder.
func (r *Recorder) RecordEvaluation(ctx context.Context, outcome string, result *model.BlendedRiskResult) {
	r.evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if result == nil {
		return
	}

	tier := attribute.String("tier", result.PredictiveTier.String())
	r.riskIndex.Record(ctx, result.PredictiveRiskIndex, metric.WithAttributes(tier))
	r.policyImpact.Add(ctx, 1, metric.WithAttributes(
		attribute.String("impact", result.PolicyImpact.String()),
		tier,
	))
	for _, p := range result.TriggeredPatterns {
		r.patterns.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", p.Name)))
	}
}
