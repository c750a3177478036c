package port

import (
	"context"

	"github.com/talentqx/crewrisk/internal/domain/model"
)

// Evaluation outcome labels.
const (
	OutcomeComputed         = "computed"
	OutcomeSkippedNoProfile = "skipped_no_profile"
	OutcomeFailed           = "failed"
)

// MetricsRecorder records evaluation telemetry.
type MetricsRecorder interface {
	RecordEvaluation(ctx context.Context, outcome string, result *model.BlendedRiskResult)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

// RecordEvaluation implements MetricsRecorder.
func (NopMetrics) RecordEvaluation(context.Context, string, *model.BlendedRiskResult) {}
