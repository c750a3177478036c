package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talentqx/crewrisk/internal/application/dto"
	"github.com/talentqx/crewrisk/internal/application/usecase"
	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
	"github.com/talentqx/crewrisk/internal/infrastructure/memory"
)

// caseFile is an offline evaluation case: the current engine payloads plus
// earlier snapshot inputs of the same candidate.
type caseFile struct {
	EvaluatedAt time.Time           `json:"evaluated_at,omitempty"`
	ContextTag  string              `json:"context_tag,omitempty"`
	Engines     model.EngineDetails `json:"engines"`
	History     []historyEntry      `json:"history,omitempty"`
}

type historyEntry struct {
	ComputedAt time.Time            `json:"computed_at"`
	Inputs     model.SnapshotInputs `json:"inputs"`
}

// report is the JSON document analyze prints.
type report struct {
	Predictive  *model.BlendedRiskResult `json:"predictive"`
	Correlation *model.CorrelationResult `json:"correlation"`
	Rationales  []model.Rationale        `json:"rationales"`
	Actions     []model.WhatIfAction     `json:"what_if"`
}

func newAnalyzeCmd() *cobra.Command {
	var inputPath, policyPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Evaluate a case file in memory and print the risk report",
		Long: `Runs correlation, trend, blend, rationale and what-if over a JSON case
file without touching any store, and prints the report as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := readCase(inputPath)
			if err != nil {
				return err
			}
			policies, err := loadPolicies(policyPath)
			if err != nil {
				return err
			}
			r, err := analyze(cmd.Context(), c, policies)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "case file (JSON), - for stdin")
	cmd.Flags().StringVarP(&policyPath, "policy", "p", "", "risk policy file (YAML); defaults apply when empty")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func readCase(path string) (caseFile, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return caseFile{}, fmt.Errorf("failed to read case file: %w", err)
	}

	var c caseFile
	if err := json.Unmarshal(data, &c); err != nil {
		return caseFile{}, fmt.Errorf("failed to parse case file: %w", err)
	}
	return c, nil
}

func loadPolicies(path string) (*policy.Set, error) {
	if path == "" {
		return policy.DefaultSet(), nil
	}
	return policy.LoadFile(path)
}

// analyze replays the case through the same use cases the service runs,
// backed by a throwaway in-memory store.
func analyze(ctx context.Context, c caseFile, policies *policy.Set) (report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	at := c.EvaluatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	candidateID := uuid.New()

	for _, h := range c.History {
		snapshot, err := model.NewRiskSnapshot(candidateID, c.ContextTag, h.Inputs, model.BlendedRiskResult{}, h.ComputedAt)
		if err != nil {
			return report{}, fmt.Errorf("invalid history entry: %w", err)
		}
		if err := store.Append(ctx, snapshot); err != nil {
			return report{}, err
		}
	}

	req := dto.CandidateRequest{CandidateID: candidateID}
	if _, err := usecase.NewRecordEngineOutputs(store, logger).Execute(ctx, dto.RecordEngineOutputsRequest{
		CandidateID: candidateID,
		ContextTag:  c.ContextTag,
		Engines:     c.Engines,
	}); err != nil {
		return report{}, err
	}

	evaluation, err := usecase.NewEvaluateCandidate(store, policies,
		service.NewTrendAnalyzer(), service.NewCorrelationAnalyzer(), service.NewRiskBlender(),
		port.NopMetrics{}, logger,
	).WithClock(func() time.Time { return at }).Execute(ctx, req)
	if err != nil {
		return report{}, err
	}

	predictive, err := usecase.NewGetPredictiveRisk(store).Execute(ctx, req)
	if err != nil {
		return report{}, err
	}
	explanation, err := usecase.NewExplainCandidate(store, policies, service.NewRationaleBuilder()).Execute(ctx, req)
	if err != nil {
		return report{}, err
	}
	simulation, err := usecase.NewSimulateWhatIf(store, policies, service.NewWhatIfSimulator()).Execute(ctx, req)
	if err != nil {
		return report{}, err
	}

	return report{
		Predictive:  evaluation.Result,
		Correlation: predictive.Correlation,
		Rationales:  explanation.Rationales,
		Actions:     simulation.Actions,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
