// Command riskctl is the operator CLI for the candidate risk pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Operate the crewrisk candidate risk pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAnalyzeCmd(),
		newPolicyCmd(),
		newMigrateCmd(postgresMigrator),
		newTokenCmd(),
		newDevCmd(),
	)
	return root
}
