package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/application/usecase"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
	"github.com/talentqx/crewrisk/internal/domain/valueobject"
)

func evaluatedProfile(t *testing.T, store *mockStore) *model.CandidateProfile {
	t.Helper()
	profile := seedProfile(t, store, "", model.EngineDetails{
		Technical: &model.TechnicalDetail{
			TechnicalDepthIndex: model.Ptr(80.0),
			MissingCertificates: []string{"GMDSS"},
		},
		Stability: &model.StabilityDetail{RiskScore: model.Ptr(0.8), StabilityIndex: model.Ptr(3.0)},
	})
	_, err := newEvaluateCandidate(store, policy.DefaultSet(), &mockMetrics{}).
		Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})
	require.NoError(t, err)
	return profile
}

func TestGetPredictiveRisk_Execute(t *testing.T) {
	t.Run("not available without a profile", func(t *testing.T) {
		uc := usecase.NewGetPredictiveRisk(newMockStore())

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: uuid.New()})

		require.NoError(t, err)
		assert.False(t, resp.Available)
		assert.Nil(t, resp.Result)
	})

	t.Run("not available before the first evaluation", func(t *testing.T) {
		store := newMockStore()
		profile := seedProfile(t, store, "", model.EngineDetails{
			Stability: &model.StabilityDetail{RiskScore: model.Ptr(0.3)},
		})
		uc := usecase.NewGetPredictiveRisk(store)

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})

		require.NoError(t, err)
		assert.False(t, resp.Available)
	})

	t.Run("returns the cached result", func(t *testing.T) {
		store := newMockStore()
		profile := evaluatedProfile(t, store)
		uc := usecase.NewGetPredictiveRisk(store)

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})

		require.NoError(t, err)
		assert.True(t, resp.Available)
		require.NotNil(t, resp.Result)
		require.NotNil(t, resp.Correlation)
		assert.Equal(t, store.snapshots[0].ID(), resp.SnapshotID)
		assert.InDelta(t, 42.0, resp.Result.PredictiveRiskIndex, 1e-9)
	})
}

func TestExplainCandidate_Execute(t *testing.T) {
	t.Run("explains an evaluated profile in rationale order", func(t *testing.T) {
		store := newMockStore()
		profile := evaluatedProfile(t, store)
		uc := usecase.NewExplainCandidate(store, policy.DefaultSet(), service.NewRationaleBuilder())

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})

		require.NoError(t, err)
		engines := make([]valueobject.Engine, len(resp.Rationales))
		for i, r := range resp.Rationales {
			engines[i] = r.Engine
		}
		assert.Equal(t, []valueobject.Engine{
			valueobject.EngineTechnical,
			valueobject.EngineStability,
			valueobject.EngineCorrelation,
			valueobject.EnginePredictiveRisk,
		}, engines)
	})

	t.Run("reports the evaluation behind the predictive rationale", func(t *testing.T) {
		store := newMockStore()
		profile := evaluatedProfile(t, store)
		uc := usecase.NewExplainCandidate(store, policy.DefaultSet(), service.NewRationaleBuilder())

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})
		require.NoError(t, err)
		require.NotNil(t, resp.SnapshotID)
		assert.Equal(t, store.snapshots[0].ID(), *resp.SnapshotID)
		require.NotNil(t, resp.EvaluatedAt)
		assert.True(t, evaluationTime.Equal(*resp.EvaluatedAt))
		assert.False(t, resp.EvaluationPending)

		require.NoError(t, profile.RecordEngineOutputs(model.EngineDetails{
			Stability: &model.StabilityDetail{RiskScore: model.Ptr(0.2)},
		}, ""))

		resp, err = uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})
		require.NoError(t, err)
		assert.True(t, resp.EvaluationPending, "engine outputs recorded after the evaluation")
		assert.Equal(t, store.snapshots[0].ID(), *resp.SnapshotID)
	})

	t.Run("unevaluated profile has no basis", func(t *testing.T) {
		store := newMockStore()
		profile := seedProfile(t, store, "", model.EngineDetails{
			Stability: &model.StabilityDetail{RiskScore: model.Ptr(0.3)},
		})
		uc := usecase.NewExplainCandidate(store, policy.DefaultSet(), service.NewRationaleBuilder())

		resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})
		require.NoError(t, err)
		assert.Nil(t, resp.SnapshotID)
		assert.Nil(t, resp.EvaluatedAt)
		assert.True(t, resp.EvaluationPending)
	})

	t.Run("unknown candidate is not found", func(t *testing.T) {
		uc := usecase.NewExplainCandidate(newMockStore(), policy.DefaultSet(), service.NewRationaleBuilder())

		_, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: uuid.New()})

		assert.ErrorIs(t, err, port.ErrProfileNotFound)
	})
}

func TestSimulateWhatIf_Execute(t *testing.T) {
	store := newMockStore()
	profile := evaluatedProfile(t, store)
	uc := usecase.NewSimulateWhatIf(store, policy.DefaultSet(), service.NewWhatIfSimulator())

	resp, err := uc.Execute(context.Background(), dto.CandidateRequest{CandidateID: profile.CandidateID()})

	require.NoError(t, err)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "Obtain missing certificates", resp.Actions[0].Action)
	require.NotNil(t, resp.SnapshotID)
	assert.Equal(t, profile.LastSnapshotID(), *resp.SnapshotID)
	assert.False(t, resp.EvaluationPending)

	_, err = uc.Execute(context.Background(), dto.CandidateRequest{})
	assert.ErrorIs(t, err, port.ErrInvalidInput)
}

func TestGetRiskHistory_Execute(t *testing.T) {
	t.Run("defaults to the trailing window", func(t *testing.T) {
		store := newMockStore()
		profile := evaluatedProfile(t, store)
		uc := usecase.NewGetRiskHistory(store, policy.DefaultSet())

		before := time.Now().UTC().AddDate(0, -6, 0)
		resp, err := uc.Execute(context.Background(), dto.GetRiskHistoryRequest{CandidateID: profile.CandidateID()})

		require.NoError(t, err)
		assert.False(t, resp.Since.Before(before))
		assert.Equal(t, store.lastSince, resp.Since)
	})

	t.Run("honours an explicit since", func(t *testing.T) {
		store := newMockStore()
		candidateID := uuid.New()
		seedSnapshot(t, store, candidateID, 0.2, evaluationTime.AddDate(0, -2, 0))
		seedSnapshot(t, store, candidateID, 0.3, evaluationTime.AddDate(0, -1, 0))
		uc := usecase.NewGetRiskHistory(store, policy.DefaultSet())

		resp, err := uc.Execute(context.Background(), dto.GetRiskHistoryRequest{
			CandidateID: candidateID,
			Since:       evaluationTime.AddDate(0, -1, -1),
		})

		require.NoError(t, err)
		require.Len(t, resp.Snapshots, 1)
		assert.InDelta(t, 0.3, *resp.Snapshots[0].Inputs.RiskScore, 1e-9)
	})
}
