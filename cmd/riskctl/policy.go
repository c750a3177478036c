package main

import (
	"github.com/spf13/cobra"

	"github.com/talentqx/crewrisk/internal/domain/policy"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect risk policy files",
	}
	cmd.AddCommand(newPolicyValidateCmd())
	return cmd
}

func newPolicyValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a policy file and print the effective config per context",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := policy.LoadFile(path)
			if err != nil {
				return err
			}

			effective := map[string]policy.Config{"default": set.Base()}
			for _, tag := range set.Contexts() {
				effective[tag] = set.For(tag)
			}
			return writeJSON(cmd.OutOrStdout(), effective)
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "risk policy file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
