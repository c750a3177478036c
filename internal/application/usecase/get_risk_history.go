package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
)

// historyReader is the read side GetRiskHistory needs.
type historyReader interface {
	port.SnapshotStore
	port.ProfileRepository
}

// GetRiskHistory lists a candidate's snapshots for audit.
type GetRiskHistory struct {
	store    historyReader
	policies *policy.Set
}

// NewGetRiskHistory creates a new GetRiskHistory use case.
func NewGetRiskHistory(store port.EvaluationStore, policies *policy.Set) *GetRiskHistory {
	return &GetRiskHistory{store: store, policies: policies}
}

// Execute returns snapshots oldest first. Without an explicit Since it uses
// the history window of the candidate's fleet context.
func (uc *GetRiskHistory) Execute(ctx context.Context, req dto.GetRiskHistoryRequest) (dto.RiskHistoryResponse, error) {
	if req.CandidateID == uuid.Nil {
		return dto.RiskHistoryResponse{}, fmt.Errorf("candidate_id is required: %w", port.ErrInvalidInput)
	}

	since := req.Since
	if since.IsZero() {
		cfg := uc.policies.Base()
		profile, err := uc.store.FindByCandidateID(ctx, req.CandidateID)
		switch {
		case err == nil:
			cfg = uc.policies.For(profile.ContextTag())
		case !errors.Is(err, port.ErrProfileNotFound):
			return dto.RiskHistoryResponse{}, fmt.Errorf("failed to load profile: %w", err)
		}
		since = time.Now().UTC().AddDate(0, -cfg.Blend.HistoryWindowMonths, 0)
	}

	snapshots, err := uc.store.ListSince(ctx, req.CandidateID, since)
	if err != nil {
		return dto.RiskHistoryResponse{}, fmt.Errorf("failed to list snapshots: %w", err)
	}

	resp := dto.RiskHistoryResponse{
		CandidateID: req.CandidateID,
		Since:       since,
		Snapshots:   make([]dto.SnapshotResponse, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		resp.Snapshots = append(resp.Snapshots, dto.FromSnapshot(s))
	}
	return resp, nil
}
