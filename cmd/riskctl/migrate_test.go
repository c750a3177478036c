package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchema struct {
	version uint
	calls   []string
	err     error
}

func (f *fakeSchema) migrator() migrator {
	return migrator{
		up: func(string) error {
			f.calls = append(f.calls, "up")
			f.version = 2
			return f.err
		},
		down: func(_ string, steps int) error {
			f.calls = append(f.calls, "down")
			f.version -= uint(steps)
			return f.err
		},
		version: func(string) (uint, bool, error) { return f.version, false, nil },
	}
}

func runMigrate(t *testing.T, m migrator, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newMigrateCmd(m)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCmd(t *testing.T) {
	t.Run("applies pending migrations", func(t *testing.T) {
		schema := &fakeSchema{}
		out, err := runMigrate(t, schema.migrator(), "--dsn", "postgres://localhost/crewrisk")
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, schema.calls)
		assert.Contains(t, out, "schema version 2 (dirty=false)")
	})

	t.Run("rolls back", func(t *testing.T) {
		schema := &fakeSchema{version: 2}
		out, err := runMigrate(t, schema.migrator(), "--dsn", "postgres://localhost/crewrisk", "--down", "1")
		require.NoError(t, err)
		assert.Equal(t, []string{"down"}, schema.calls)
		assert.Contains(t, out, "schema version 1")
	})

	t.Run("reads DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/crewrisk")
		schema := &fakeSchema{}
		_, err := runMigrate(t, schema.migrator())
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, schema.calls)
	})

	t.Run("requires a dsn", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		schema := &fakeSchema{}
		_, err := runMigrate(t, schema.migrator())
		require.Error(t, err)
		assert.Empty(t, schema.calls)
	})

	t.Run("rejects negative rollback", func(t *testing.T) {
		schema := &fakeSchema{}
		_, err := runMigrate(t, schema.migrator(), "--dsn", "x", "--down", "-1")
		require.Error(t, err)
		assert.Empty(t, schema.calls)
	})

	t.Run("surfaces migrator errors", func(t *testing.T) {
		schema := &fakeSchema{err: errors.New("dirty database version 1")}
		_, err := runMigrate(t, schema.migrator(), "--dsn", "x")
		assert.ErrorContains(t, err, "dirty database")
	})
}
