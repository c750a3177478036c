package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/port"
)

// GetPredictiveRisk returns a candidate's cached predictive result.
type GetPredictiveRisk struct {
	repo port.ProfileRepository
}

// NewGetPredictiveRisk creates a new GetPredictiveRisk use case.
func NewGetPredictiveRisk(repo port.ProfileRepository) *GetPredictiveRisk {
	return &GetPredictiveRisk{repo: repo}
}

// Execute returns Available=false when the candidate has no profile or has
// not been evaluated yet. Neither case is an error.
func (uc *GetPredictiveRisk) Execute(ctx context.Context, req dto.CandidateRequest) (dto.PredictiveRiskResponse, error) {
	if req.CandidateID == uuid.Nil {
		return dto.PredictiveRiskResponse{}, fmt.Errorf("candidate_id is required: %w", port.ErrInvalidInput)
	}

	resp := dto.PredictiveRiskResponse{CandidateID: req.CandidateID}

	profile, err := uc.repo.FindByCandidateID(ctx, req.CandidateID)
	if errors.Is(err, port.ErrProfileNotFound) {
		return resp, nil
	}
	if err != nil {
		return dto.PredictiveRiskResponse{}, fmt.Errorf("failed to load profile: %w", err)
	}

	result := profile.PredictiveResult()
	if result == nil {
		return resp, nil
	}

	resp.Available = true
	resp.Result = result
	resp.Correlation = profile.Correlation()
	resp.SnapshotID = profile.LastSnapshotID()
	return resp, nil
}
