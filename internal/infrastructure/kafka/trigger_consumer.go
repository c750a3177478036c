package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/port"
	pkgkafka "github.com/talentqx/crewrisk/pkg/kafka"
)

// maxAttempts bounds retries of an evaluation that lost an optimistic
// concurrency race.
const maxAttempts = 3

type engineRecorder interface {
	Execute(ctx context.Context, req dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error)
}

type candidateEvaluator interface {
	Execute(ctx context.Context, req dto.CandidateRequest) (dto.EvaluateCandidateResponse, error)
}

// TriggerHandler turns engine-output messages into a profile update followed
// by one evaluation cycle.
type TriggerHandler struct {
	record   engineRecorder
	evaluate candidateEvaluator
	logger   *slog.Logger
}

// NewTriggerHandler creates the handler for the engine-outputs topic.
func NewTriggerHandler(record engineRecorder, evaluate candidateEvaluator, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{record: record, evaluate: evaluate, logger: logger}
}

// Handle implements pkgkafka.Handler. Malformed messages are logged and
// acknowledged so they do not block the partition.
func (h *TriggerHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var req dto.RecordEngineOutputsRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		h.logger.Warn("dropping malformed engine output message",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if _, err := h.record.Execute(ctx, req); err != nil {
		if errors.Is(err, port.ErrInvalidInput) {
			h.logger.Warn("dropping invalid engine output message",
				slog.String("candidate_id", req.CandidateID.String()),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("failed to record engine outputs: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := h.evaluate.Execute(ctx, dto.CandidateRequest{CandidateID: req.CandidateID})
		if err == nil {
			h.logger.Debug("evaluation triggered",
				slog.String("candidate_id", req.CandidateID.String()),
				slog.String("outcome", resp.Outcome),
			)
			return nil
		}
		if !errors.Is(err, port.ErrConcurrentEvaluation) {
			return fmt.Errorf("failed to evaluate candidate %s: %w", req.CandidateID, err)
		}
		lastErr = err
	}
	return fmt.Errorf("failed to evaluate candidate %s after %d attempts: %w", req.CandidateID, maxAttempts, lastErr)
}

// NewTriggerConsumer wires the handler to a consumer of topic.
func NewTriggerConsumer(cfg pkgkafka.Config, topic string, handler *TriggerHandler, logger *slog.Logger) (*pkgkafka.Consumer, error) {
	return pkgkafka.NewConsumer(cfg, topic, handler.Handle, logger)
}
