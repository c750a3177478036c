package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/pkg/testutil"
)

const sampleCase = `{
  "evaluated_at": "2026-06-01T00:00:00Z",
  "context_tag": "offshore",
  "engines": {
    "technical": {
      "technical_score": 0.8,
      "technical_depth_index": 78,
      "total_sea_days": 900,
      "missing_certificates": ["BOSIET"]
    },
    "stability": {
      "stability_index": 4.2,
      "risk_score": 0.62,
      "contract_summary": {"total_gap_months": 7, "recent_unique_companies_3y": 5}
    },
    "compliance": {"compliance_score": 64, "critical_flag_count": 1}
  },
  "history": [
    {"computed_at": "2026-03-01T00:00:00Z", "inputs": {"risk_score": 0.30, "compliance_score": 80}},
    {"computed_at": "2026-04-01T00:00:00Z", "inputs": {"risk_score": 0.41, "compliance_score": 74}},
    {"computed_at": "2026-05-01T00:00:00Z", "inputs": {"risk_score": 0.52, "compliance_score": 70}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCmd(t *testing.T) {
	t.Run("prints the full report", func(t *testing.T) {
		out, err := run(t, "analyze", "--input", writeFile(t, "case.json", sampleCase))
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))

		predictive, ok := got["predictive"].(map[string]any)
		require.True(t, ok, "predictive section missing: %s", out)
		assert.Contains(t, predictive, "predictive_risk_index")
		assert.Contains(t, predictive, "predictive_tier")
		assert.Equal(t, "offshore", predictive["context_tag"])
		assert.InDelta(t, 4, predictive["snapshot_count"], 0)

		assert.Contains(t, got, "correlation")
		assert.NotEmpty(t, got["rationales"])

		actions, ok := got["what_if"].([]any)
		require.True(t, ok)
		require.NotEmpty(t, actions)
		first := actions[0].(map[string]any)
		assert.Equal(t, "Obtain missing certificates", first["action"])
	})

	t.Run("applies a policy file", func(t *testing.T) {
		policyPath := writeFile(t, "policy.yaml", "what_if:\n  max_actions: 1\n")
		out, err := run(t, "analyze", "-i", writeFile(t, "case.json", sampleCase), "-p", policyPath)
		require.NoError(t, err)

		var got struct {
			Actions []json.RawMessage `json:"what_if"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Len(t, got.Actions, 1)
	})

	t.Run("requires input", func(t *testing.T) {
		_, err := run(t, "analyze")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input")
	})

	t.Run("rejects malformed case", func(t *testing.T) {
		_, err := run(t, "analyze", "--input", writeFile(t, "case.json", "{not json"))
		testutil.AssertErrorContains(t, err, "failed to parse case file")
	})

	t.Run("rejects out of range engine output", func(t *testing.T) {
		bad := `{"engines": {"stability": {"risk_score": 1.7}}}`
		_, err := run(t, "analyze", "--input", writeFile(t, "case.json", bad))
		require.Error(t, err)
	})
}

func TestPolicyValidateCmd(t *testing.T) {
	t.Run("prints effective config per context", func(t *testing.T) {
		path := writeFile(t, "policy.yaml", `
what_if:
  max_actions: 4
contexts:
  tanker:
    what_if:
      max_actions: 2
`)
		out, err := run(t, "policy", "validate", "--file", path)
		require.NoError(t, err)

		var got map[string]struct {
			WhatIf struct {
				MaxActions int `json:"max_actions"`
			} `json:"what_if"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Contains(t, got, "default")
		require.Contains(t, got, "tanker")
		assert.Equal(t, 4, got["default"].WhatIf.MaxActions)
		assert.Equal(t, 2, got["tanker"].WhatIf.MaxActions)
	})

	t.Run("rejects invalid weights", func(t *testing.T) {
		path := writeFile(t, "policy.yaml", "blend:\n  risk_weight: 0.9\n")
		_, err := run(t, "policy", "validate", "-f", path)
		assert.Error(t, err)
	})

	t.Run("requires file flag", func(t *testing.T) {
		_, err := run(t, "policy", "validate")
		assert.Error(t, err)
	})
}
