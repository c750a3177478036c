package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/application/usecase"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/pkg/auth"
)

var (
	writerRoles  = []string{auth.RoleAdmin, auth.RoleOperator, auth.RoleAPIClient}
	readerRoles  = []string{auth.RoleAdmin, auth.RoleOperator, auth.RoleReviewer, auth.RoleAuditor, auth.RoleAPIClient}
	historyRoles = []string{auth.RoleAdmin, auth.RoleReviewer, auth.RoleAuditor}
)

// Compile-time assertion that CrewRiskHandler implements CrewRiskServiceServer.
var _ CrewRiskServiceServer = (*CrewRiskHandler)(nil)

// CrewRiskHandler implements the gRPC CrewRiskServiceServer interface.
type CrewRiskHandler struct {
	UnimplementedCrewRiskServiceServer
	recordEngineOutputs *usecase.RecordEngineOutputs
	evaluateCandidate   *usecase.EvaluateCandidate
	getPredictiveRisk   *usecase.GetPredictiveRisk
	explainCandidate    *usecase.ExplainCandidate
	simulateWhatIf      *usecase.SimulateWhatIf
	getRiskHistory      *usecase.GetRiskHistory
	logger              *slog.Logger
}

// UseCases groups the application operations the handler serves.
type UseCases struct {
	RecordEngineOutputs *usecase.RecordEngineOutputs
	EvaluateCandidate   *usecase.EvaluateCandidate
	GetPredictiveRisk   *usecase.GetPredictiveRisk
	ExplainCandidate    *usecase.ExplainCandidate
	SimulateWhatIf      *usecase.SimulateWhatIf
	GetRiskHistory      *usecase.GetRiskHistory
}

// NewCrewRiskHandler creates a new gRPC handler.
func NewCrewRiskHandler(uc UseCases, logger *slog.Logger) *CrewRiskHandler {
	return &CrewRiskHandler{
		recordEngineOutputs: uc.RecordEngineOutputs,
		evaluateCandidate:   uc.EvaluateCandidate,
		getPredictiveRisk:   uc.GetPredictiveRisk,
		explainCandidate:    uc.ExplainCandidate,
		simulateWhatIf:      uc.SimulateWhatIf,
		getRiskHistory:      uc.GetRiskHistory,
		logger:              logger,
	}
}

// Request/response messages.

// RecordEngineOutputsRequest carries one or more engine payloads.
type RecordEngineOutputsRequest struct {
	CandidateID string              `json:"candidate_id"`
	ContextTag  string              `json:"context_tag,omitempty"`
	Engines     model.EngineDetails `json:"engines"`
	// Evaluate runs an evaluation cycle right after the update.
	Evaluate bool `json:"evaluate,omitempty"`
}

// RecordEngineOutputsResponse reports the updated profile.
type RecordEngineOutputsResponse struct {
	Profile    dto.ProfileResponse            `json:"profile"`
	Evaluation *dto.EvaluateCandidateResponse `json:"evaluation,omitempty"`
}

// CandidateRequest identifies a candidate.
type CandidateRequest struct {
	CandidateID string `json:"candidate_id"`
}

// EvaluateCandidateResponse reports the evaluation outcome.
type EvaluateCandidateResponse struct {
	Evaluation dto.EvaluateCandidateResponse `json:"evaluation"`
}

// GetPredictiveRiskResponse is the cached predictive result. EvaluatedAt is
// the computed_at of the snapshot it was taken from, nil when unavailable.
type GetPredictiveRiskResponse struct {
	Predictive  dto.PredictiveRiskResponse `json:"predictive"`
	EvaluatedAt *timestamppb.Timestamp     `json:"evaluated_at,omitempty"`
}

// ExplainCandidateResponse is the per-engine rationale.
type ExplainCandidateResponse struct {
	Explanation dto.ExplainCandidateResponse `json:"explanation"`
}

// SimulateWhatIfResponse lists the remediation actions.
type SimulateWhatIfResponse struct {
	Simulation dto.SimulateWhatIfResponse `json:"simulation"`
}

// GetRiskHistoryRequest selects snapshots. A nil Since means the configured
// trailing window.
type GetRiskHistoryRequest struct {
	CandidateID string                 `json:"candidate_id"`
	Since       *timestamppb.Timestamp `json:"since,omitempty"`
}

// GetRiskHistoryResponse lists snapshots oldest first.
type GetRiskHistoryResponse struct {
	History dto.RiskHistoryResponse `json:"history"`
}

// RecordEngineOutputs merges engine payloads into the candidate profile.
func (h *CrewRiskHandler) RecordEngineOutputs(ctx context.Context, req *RecordEngineOutputsRequest) (*RecordEngineOutputsResponse, error) {
	if err := auth.CheckRole(ctx, writerRoles...); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	candidateID, err := parseCandidateID(req.CandidateID)
	if err != nil {
		return nil, err
	}

	profile, err := h.recordEngineOutputs.Execute(ctx, dto.RecordEngineOutputsRequest{
		CandidateID: candidateID,
		ContextTag:  req.ContextTag,
		Engines:     req.Engines,
	})
	if err != nil {
		return nil, h.toStatus("record engine outputs", candidateID, err)
	}

	resp := &RecordEngineOutputsResponse{Profile: profile}
	if req.Evaluate {
		evaluation, err := h.evaluateCandidate.Execute(ctx, dto.CandidateRequest{CandidateID: candidateID})
		if err != nil {
			return nil, h.toStatus("evaluate candidate", candidateID, err)
		}
		resp.Evaluation = &evaluation
	}
	return resp, nil
}

// EvaluateCandidate runs one evaluation cycle.
func (h *CrewRiskHandler) EvaluateCandidate(ctx context.Context, req *CandidateRequest) (*EvaluateCandidateResponse, error) {
	if err := auth.CheckRole(ctx, writerRoles...); err != nil {
		return nil, err
	}
	candidateID, err := candidateFrom(req)
	if err != nil {
		return nil, err
	}

	evaluation, err := h.evaluateCandidate.Execute(ctx, dto.CandidateRequest{CandidateID: candidateID})
	if err != nil {
		return nil, h.toStatus("evaluate candidate", candidateID, err)
	}
	return &EvaluateCandidateResponse{Evaluation: evaluation}, nil
}

// GetPredictiveRisk returns the cached predictive result.
func (h *CrewRiskHandler) GetPredictiveRisk(ctx context.Context, req *CandidateRequest) (*GetPredictiveRiskResponse, error) {
	if err := auth.CheckRole(ctx, readerRoles...); err != nil {
		return nil, err
	}
	candidateID, err := candidateFrom(req)
	if err != nil {
		return nil, err
	}

	predictive, err := h.getPredictiveRisk.Execute(ctx, dto.CandidateRequest{CandidateID: candidateID})
	if err != nil {
		return nil, h.toStatus("get predictive risk", candidateID, err)
	}
	resp := &GetPredictiveRiskResponse{Predictive: predictive}
	if predictive.Available && predictive.Result != nil {
		resp.EvaluatedAt = timestamppb.New(predictive.Result.ComputedAt)
	}
	return resp, nil
}

// ExplainCandidate returns the per-engine rationale.
func (h *CrewRiskHandler) ExplainCandidate(ctx context.Context, req *CandidateRequest) (*ExplainCandidateResponse, error) {
	if err := auth.CheckRole(ctx, readerRoles...); err != nil {
		return nil, err
	}
	candidateID, err := candidateFrom(req)
	if err != nil {
		return nil, err
	}

	explanation, err := h.explainCandidate.Execute(ctx, dto.CandidateRequest{CandidateID: candidateID})
	if err != nil {
		return nil, h.toStatus("explain candidate", candidateID, err)
	}
	return &ExplainCandidateResponse{Explanation: explanation}, nil
}

// SimulateWhatIf returns ranked remediation actions.
func (h *CrewRiskHandler) SimulateWhatIf(ctx context.Context, req *CandidateRequest) (*SimulateWhatIfResponse, error) {
	if err := auth.CheckRole(ctx, readerRoles...); err != nil {
		return nil, err
	}
	candidateID, err := candidateFrom(req)
	if err != nil {
		return nil, err
	}

	simulation, err := h.simulateWhatIf.Execute(ctx, dto.CandidateRequest{CandidateID: candidateID})
	if err != nil {
		return nil, h.toStatus("simulate what-if", candidateID, err)
	}
	return &SimulateWhatIfResponse{Simulation: simulation}, nil
}

// GetRiskHistory lists snapshots for audit.
func (h *CrewRiskHandler) GetRiskHistory(ctx context.Context, req *GetRiskHistoryRequest) (*GetRiskHistoryResponse, error) {
	if err := auth.CheckRole(ctx, historyRoles...); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	candidateID, err := parseCandidateID(req.CandidateID)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if req.Since != nil {
		if err := req.Since.CheckValid(); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid since: %v", err)
		}
		since = req.Since.AsTime()
	}

	history, err := h.getRiskHistory.Execute(ctx, dto.GetRiskHistoryRequest{CandidateID: candidateID, Since: since})
	if err != nil {
		return nil, h.toStatus("get risk history", candidateID, err)
	}
	return &GetRiskHistoryResponse{History: history}, nil
}

func candidateFrom(req *CandidateRequest) (uuid.UUID, error) {
	if req == nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return parseCandidateID(req.CandidateID)
}

func parseCandidateID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid candidate_id: %v", err)
	}
	if id == uuid.Nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "candidate_id is required")
	}
	return id, nil
}

// toStatus maps application errors to gRPC status codes. Unexpected errors
// are logged and surfaced as Internal without detail.
func (h *CrewRiskHandler) toStatus(op string, candidateID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, port.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, port.ErrProfileNotFound):
		return status.Error(codes.NotFound, "candidate profile not found")
	case errors.Is(err, port.ErrConcurrentEvaluation):
		return status.Error(codes.Aborted, "candidate profile modified concurrently, retry")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}

	h.logger.Error("failed to "+op,
		slog.String("candidate_id", candidateID.String()),
		slog.String("error", err.Error()),
	)
	return status.Error(codes.Internal, "internal error")
}
