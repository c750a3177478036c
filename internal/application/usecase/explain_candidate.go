package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
)

// ExplainCandidate builds the per-engine rationale for a candidate.
type ExplainCandidate struct {
	repo     port.ProfileRepository
	policies *policy.Set
	builder  *service.RationaleBuilder
}

// NewExplainCandidate creates a new ExplainCandidate use case.
func NewExplainCandidate(repo port.ProfileRepository, policies *policy.Set, builder *service.RationaleBuilder) *ExplainCandidate {
	return &ExplainCandidate{repo: repo, policies: policies, builder: builder}
}

// Execute explains the profile's current state. It never modifies it.
// Engine rationales use the latest recorded outputs while the correlation
// and predictive ones use the last evaluation; the response's ResultBasis
// says which evaluation that is and whether it is behind the engines.
func (uc *ExplainCandidate) Execute(ctx context.Context, req dto.CandidateRequest) (dto.ExplainCandidateResponse, error) {
	profile, err := loadProfile(ctx, uc.repo, req.CandidateID)
	if err != nil {
		return dto.ExplainCandidateResponse{}, err
	}

	rationales := uc.builder.Build(service.RationaleInput{
		Engines:     profile.Engines(),
		Correlation: profile.Correlation(),
		Predictive:  profile.PredictiveResult(),
	}, uc.policies.For(profile.ContextTag()))

	return dto.ExplainCandidateResponse{
		CandidateID: req.CandidateID,
		Rationales:  rationales,
		ResultBasis: resultBasis(profile),
	}, nil
}

func resultBasis(profile *model.CandidateProfile) dto.ResultBasis {
	basis := dto.ResultBasis{EvaluationPending: profile.EvaluationPending()}
	if predictive := profile.PredictiveResult(); predictive != nil {
		id := profile.LastSnapshotID()
		at := predictive.ComputedAt
		basis.SnapshotID = &id
		basis.EvaluatedAt = &at
	}
	return basis
}

func loadProfile(ctx context.Context, repo port.ProfileRepository, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	if candidateID == uuid.Nil {
		return nil, fmt.Errorf("candidate_id is required: %w", port.ErrInvalidInput)
	}
	profile, err := repo.FindByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}
