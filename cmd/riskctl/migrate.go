package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pgstore "github.com/talentqx/crewrisk/internal/infrastructure/postgres"
)

// migrator is the schema surface of the postgres store.
type migrator struct {
	up      func(dsn string) error
	down    func(dsn string, steps int) error
	version func(dsn string) (uint, bool, error)
}

var postgresMigrator = migrator{
	up:      pgstore.Migrate,
	down:    pgstore.Rollback,
	version: pgstore.SchemaVersion,
}

func newMigrateCmd(m migrator) *cobra.Command {
	var (
		dsn  string
		down int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the PostgreSQL schema",
		Long: `Applies pending schema migrations, or with --down N reverts the last N.
The DSN falls back to the DATABASE_URL environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			if dsn == "" {
				return errors.New("a database DSN is required (--dsn or DATABASE_URL)")
			}
			if down < 0 {
				return fmt.Errorf("--down must be positive, got %d", down)
			}

			var err error
			if down > 0 {
				err = m.down(dsn, down)
			} else {
				err = m.up(dsn)
			}
			if err != nil {
				return err
			}

			version, dirty, err := m.version(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection URL")
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	return cmd
}
