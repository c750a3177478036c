package usecase

import (
	"context"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
)

// SimulateWhatIf ranks remediation actions for a candidate.
type SimulateWhatIf struct {
	repo      port.ProfileRepository
	policies  *policy.Set
	simulator *service.WhatIfSimulator
}

// NewSimulateWhatIf creates a new SimulateWhatIf use case.
func NewSimulateWhatIf(repo port.ProfileRepository, policies *policy.Set, simulator *service.WhatIfSimulator) *SimulateWhatIf {
	return &SimulateWhatIf{repo: repo, policies: policies, simulator: simulator}
}

// Execute runs the simulator over the profile's current state: the latest
// engine outputs and the last evaluation, identified by the response's
// ResultBasis.
func (uc *SimulateWhatIf) Execute(ctx context.Context, req dto.CandidateRequest) (dto.SimulateWhatIfResponse, error) {
	profile, err := loadProfile(ctx, uc.repo, req.CandidateID)
	if err != nil {
		return dto.SimulateWhatIfResponse{}, err
	}

	actions := uc.simulator.Simulate(service.WhatIfInput{
		Engines:    profile.Engines(),
		Predictive: profile.PredictiveResult(),
	}, uc.policies.For(profile.ContextTag()))

	return dto.SimulateWhatIfResponse{
		CandidateID: req.CandidateID,
		Actions:     actions,
		ResultBasis: resultBasis(profile),
	}, nil
}
