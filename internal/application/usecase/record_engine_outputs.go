package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
)

// RecordEngineOutputs merges fresh upstream engine payloads into a
// candidate's profile, creating the profile on first contact.
type RecordEngineOutputs struct {
	repo   port.ProfileRepository
	logger *slog.Logger
}

// NewRecordEngineOutputs creates a new RecordEngineOutputs use case.
func NewRecordEngineOutputs(repo port.ProfileRepository, logger *slog.Logger) *RecordEngineOutputs {
	return &RecordEngineOutputs{repo: repo, logger: logger}
}

// Execute loads or creates the profile, merges the payloads and saves it.
func (uc *RecordEngineOutputs) Execute(ctx context.Context, req dto.RecordEngineOutputsRequest) (dto.ProfileResponse, error) {
	if req.CandidateID == uuid.Nil {
		return dto.ProfileResponse{}, fmt.Errorf("candidate_id is required: %w", port.ErrInvalidInput)
	}

	profile, err := uc.repo.FindByCandidateID(ctx, req.CandidateID)
	switch {
	case errors.Is(err, port.ErrProfileNotFound):
		profile, err = model.NewCandidateProfile(req.CandidateID, req.ContextTag)
		if err != nil {
			return dto.ProfileResponse{}, fmt.Errorf("failed to create profile: %w", err)
		}
		uc.logger.Info("candidate profile created", "candidate_id", req.CandidateID, "context_tag", req.ContextTag)
	case err != nil:
		return dto.ProfileResponse{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := profile.RecordEngineOutputs(req.Engines, req.ContextTag); err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("failed to record engine outputs: %w", errors.Join(port.ErrInvalidInput, err))
	}

	if err := uc.repo.Save(ctx, profile); err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("failed to save profile: %w", err)
	}
	profile.MarkPersisted()

	return dto.FromProfile(profile), nil
}
