package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
)

const tracerName = "github.com/talentqx/crewrisk/internal/application/usecase"

// EvaluateCandidate runs one full evaluation cycle for a candidate:
// correlation, trend over the trailing window, blend, then an atomic commit
// of the new snapshot, the refreshed profile caches and the audit events.
type EvaluateCandidate struct {
	store       port.EvaluationStore
	policies    *policy.Set
	trend       *service.TrendAnalyzer
	correlation *service.CorrelationAnalyzer
	blender     *service.RiskBlender
	metrics     port.MetricsRecorder
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
}

// NewEvaluateCandidate creates a new EvaluateCandidate use case.
func NewEvaluateCandidate(
	store port.EvaluationStore,
	policies *policy.Set,
	trend *service.TrendAnalyzer,
	correlation *service.CorrelationAnalyzer,
	blender *service.RiskBlender,
	metrics port.MetricsRecorder,
	logger *slog.Logger,
) *EvaluateCandidate {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &EvaluateCandidate{
		store:       store,
		policies:    policies,
		trend:       trend,
		correlation: correlation,
		blender:     blender,
		metrics:     metrics,
		tracer:      otel.Tracer(tracerName),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the evaluation clock.
func (uc *EvaluateCandidate) WithClock(now func() time.Time) *EvaluateCandidate {
	uc.now = now
	return uc
}

// Execute evaluates the candidate and reports the outcome:
//
//   - computed: a snapshot was committed and Result is set.
//   - skipped_no_profile: the candidate has no profile yet; nothing happened.
//   - failed: nothing was committed and the cached result is unchanged. The
//     returned error carries the cause.
//
// Panics inside the pipeline are recovered and reported as failed.
func (uc *EvaluateCandidate) Execute(ctx context.Context, req dto.CandidateRequest) (resp dto.EvaluateCandidateResponse, err error) {
	resp.CandidateID = req.CandidateID

	ctx, span := uc.tracer.Start(ctx, "EvaluateCandidate",
		trace.WithAttributes(attribute.String("candidate_id", req.CandidateID.String())))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panicked: %v", r)
			resp = uc.fail(ctx, span, req.CandidateID, err)
		}
	}()

	if req.CandidateID == uuid.Nil {
		err = fmt.Errorf("candidate_id is required: %w", port.ErrInvalidInput)
		return uc.fail(ctx, span, req.CandidateID, err), err
	}

	profile, err := uc.store.FindByCandidateID(ctx, req.CandidateID)
	if errors.Is(err, port.ErrProfileNotFound) {
		uc.logger.Debug("evaluation skipped, no candidate profile", "candidate_id", req.CandidateID)
		uc.metrics.RecordEvaluation(ctx, port.OutcomeSkippedNoProfile, nil)
		span.SetAttributes(attribute.String("outcome", port.OutcomeSkippedNoProfile))
		resp.Outcome = port.OutcomeSkippedNoProfile
		resp.Reason = "candidate profile not found"
		return resp, nil
	}
	if err != nil {
		err = fmt.Errorf("failed to load profile: %w", err)
		return uc.fail(ctx, span, req.CandidateID, err), err
	}

	snapshot, err := uc.evaluate(ctx, profile)
	if err != nil {
		return uc.fail(ctx, span, req.CandidateID, err), err
	}

	result := snapshot.Outputs()
	uc.metrics.RecordEvaluation(ctx, port.OutcomeComputed, &result)
	span.SetAttributes(
		attribute.String("outcome", port.OutcomeComputed),
		attribute.Float64("predictive_risk_index", result.PredictiveRiskIndex),
		attribute.String("tier", result.PredictiveTier.String()),
	)
	uc.logger.Info("candidate evaluated",
		"candidate_id", req.CandidateID,
		"snapshot_id", snapshot.ID(),
		"context_tag", snapshot.ContextTag(),
		"predictive_risk_index", result.PredictiveRiskIndex,
		"tier", result.PredictiveTier.String(),
		"policy_impact", result.PolicyImpact.String(),
		"trend_direction", result.TrendDirection.String(),
	)

	resp.Outcome = port.OutcomeComputed
	resp.Result = &result
	resp.SnapshotID = snapshot.ID()
	return resp, nil
}

func (uc *EvaluateCandidate) evaluate(ctx context.Context, profile *model.CandidateProfile) (*model.RiskSnapshot, error) {
	cfg := uc.policies.For(profile.ContextTag())
	now := uc.now()
	engines := profile.Engines()

	_, corrSpan := uc.tracer.Start(ctx, "CorrelationAnalyzer.Analyze")
	correlation := uc.correlation.Analyze(service.CorrelationInputsFrom(engines), cfg.Correlation)
	corrSpan.End()

	current := engines.CurrentInputs(&correlation.RiskWeight)

	since := now.AddDate(0, -cfg.Blend.HistoryWindowMonths, 0)
	prior, err := uc.store.ListSince(ctx, profile.CandidateID(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot history: %w", err)
	}

	history := make([]model.SnapshotInputs, 0, len(prior)+1)
	for _, s := range prior {
		history = append(history, s.Inputs())
	}
	history = append(history, current)

	_, trendSpan := uc.tracer.Start(ctx, "TrendAnalyzer.Analyze")
	trend := uc.trend.Analyze(history, cfg.Trend)
	trendSpan.End()

	result := uc.blender.Blend(service.BlendInput{
		Current:    current,
		Trend:      trend,
		ContextTag: profile.ContextTag(),
		ComputedAt: now,
	}, cfg.Blend)

	snapshot, err := model.NewRiskSnapshot(profile.CandidateID(), profile.ContextTag(), current, result, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := profile.ApplyEvaluation(snapshot, correlation); err != nil {
		return nil, fmt.Errorf("failed to apply evaluation: %w", err)
	}

	if err := uc.store.CommitEvaluation(ctx, profile, snapshot, profile.DomainEvents()); err != nil {
		return nil, fmt.Errorf("failed to commit evaluation: %w", err)
	}
	profile.MarkPersisted()

	return snapshot, nil
}

func (uc *EvaluateCandidate) fail(ctx context.Context, span trace.Span, candidateID uuid.UUID, err error) dto.EvaluateCandidateResponse {
	uc.logger.Error("candidate evaluation failed", "candidate_id", candidateID, "error", err)
	uc.metrics.RecordEvaluation(ctx, port.OutcomeFailed, nil)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("outcome", port.OutcomeFailed))

	return dto.EvaluateCandidateResponse{
		CandidateID: candidateID,
		Outcome:     port.OutcomeFailed,
		Reason:      err.Error(),
	}
}
