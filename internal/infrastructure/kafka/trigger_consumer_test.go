package kafka_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/infrastructure/kafka"
	pkgkafka "github.com/talentqx/crewrisk/pkg/kafka"
)

type mockRecorder struct {
	executeFunc func(ctx context.Context, req dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error)
	calls       []dto.RecordEngineOutputsRequest
}

func (m *mockRecorder) Execute(ctx context.Context, req dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error) {
	m.calls = append(m.calls, req)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return dto.ProfileResponse{CandidateID: req.CandidateID}, nil
}

type mockEvaluator struct {
	executeFunc func(ctx context.Context, req dto.CandidateRequest) (dto.EvaluateCandidateResponse, error)
	calls       int
}

func (m *mockEvaluator) Execute(ctx context.Context, req dto.CandidateRequest) (dto.EvaluateCandidateResponse, error) {
	m.calls++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return dto.EvaluateCandidateResponse{CandidateID: req.CandidateID, Outcome: "computed"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func message(candidateID uuid.UUID) pkgkafka.Message {
	return pkgkafka.Message{
		Key: []byte(candidateID.String()),
		Value: []byte(fmt.Sprintf(`{
			"candidate_id": %q,
			"context_tag": "offshore",
			"engines": {"compliance": {"compliance_score": 64}}
		}`, candidateID)),
	}
}

func TestTriggerHandler_Handle(t *testing.T) {
	candidateID := uuid.New()

	t.Run("records then evaluates", func(t *testing.T) {
		recorder := &mockRecorder{}
		evaluator := &mockEvaluator{}
		handler := kafka.NewTriggerHandler(recorder, evaluator, testLogger())

		require.NoError(t, handler.Handle(context.Background(), message(candidateID)))

		require.Len(t, recorder.calls, 1)
		assert.Equal(t, candidateID, recorder.calls[0].CandidateID)
		assert.Equal(t, "offshore", recorder.calls[0].ContextTag)
		require.NotNil(t, recorder.calls[0].Engines.Compliance)
		assert.Equal(t, 1, evaluator.calls)
	})

	t.Run("malformed payload is acknowledged", func(t *testing.T) {
		recorder := &mockRecorder{}
		evaluator := &mockEvaluator{}
		handler := kafka.NewTriggerHandler(recorder, evaluator, testLogger())

		err := handler.Handle(context.Background(), pkgkafka.Message{Value: []byte("{not json")})
		require.NoError(t, err)
		assert.Empty(t, recorder.calls)
		assert.Zero(t, evaluator.calls)
	})

	t.Run("invalid input is acknowledged", func(t *testing.T) {
		recorder := &mockRecorder{
			executeFunc: func(context.Context, dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error) {
				return dto.ProfileResponse{}, fmt.Errorf("%w: score out of range", port.ErrInvalidInput)
			},
		}
		evaluator := &mockEvaluator{}
		handler := kafka.NewTriggerHandler(recorder, evaluator, testLogger())

		require.NoError(t, handler.Handle(context.Background(), message(candidateID)))
		assert.Zero(t, evaluator.calls)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		recorder := &mockRecorder{
			executeFunc: func(context.Context, dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error) {
				return dto.ProfileResponse{}, errors.New("connection refused")
			},
		}
		handler := kafka.NewTriggerHandler(recorder, &mockEvaluator{}, testLogger())

		err := handler.Handle(context.Background(), message(candidateID))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record engine outputs")
	})

	t.Run("retries lost concurrency races", func(t *testing.T) {
		evaluator := &mockEvaluator{}
		evaluator.executeFunc = func(_ context.Context, req dto.CandidateRequest) (dto.EvaluateCandidateResponse, error) {
			if evaluator.calls < 3 {
				return dto.EvaluateCandidateResponse{}, port.ErrConcurrentEvaluation
			}
			return dto.EvaluateCandidateResponse{CandidateID: req.CandidateID, Outcome: "computed"}, nil
		}
		handler := kafka.NewTriggerHandler(&mockRecorder{}, evaluator, testLogger())

		require.NoError(t, handler.Handle(context.Background(), message(candidateID)))
		assert.Equal(t, 3, evaluator.calls)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		evaluator := &mockEvaluator{
			executeFunc: func(context.Context, dto.CandidateRequest) (dto.EvaluateCandidateResponse, error) {
				return dto.EvaluateCandidateResponse{}, port.ErrConcurrentEvaluation
			},
		}
		handler := kafka.NewTriggerHandler(&mockRecorder{}, evaluator, testLogger())

		err := handler.Handle(context.Background(), message(candidateID))
		require.ErrorIs(t, err, port.ErrConcurrentEvaluation)
		assert.Equal(t, 3, evaluator.calls)
	})

	t.Run("other evaluation errors are not retried", func(t *testing.T) {
		evaluator := &mockEvaluator{
			executeFunc: func(context.Context, dto.CandidateRequest) (dto.EvaluateCandidateResponse, error) {
				return dto.EvaluateCandidateResponse{}, errors.New("boom")
			},
		}
		handler := kafka.NewTriggerHandler(&mockRecorder{}, evaluator, testLogger())

		require.Error(t, handler.Handle(context.Background(), message(candidateID)))
		assert.Equal(t, 1, evaluator.calls)
	})
}
