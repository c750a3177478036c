package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	pgutil "github.com/talentqx/crewrisk/pkg/postgres"
)

// PostgresContainer is a disposable PostgreSQL 16 server with a ready pool.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	DSN       string
}

// NewPostgresContainer starts the server and connects a pool to it.
// Callers register Cleanup themselves.
func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("crewrisk"),
		postgres.WithUsername("crewrisk"),
		postgres.WithPassword("crewrisk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=crewrisk-test")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pgxpool: %v", err)
	}
	if err := pgutil.Ping(ctx, pool); err != nil {
		t.Fatalf("failed to reach postgres: %v", err)
	}

	return &PostgresContainer{Container: container, Pool: pool, DSN: dsn}
}

// Migrate applies a schema through the given migration runner, typically a
// store's embedded migrations.
func (pc *PostgresContainer) Migrate(t *testing.T, migrate func(dsn string) error) {
	t.Helper()
	if err := migrate(pc.DSN); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}

// Cleanup closes the pool and terminates the container.
func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()

	if pc.Pool != nil {
		pc.Pool.Close()
	}
	if pc.Container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pc.Container.Terminate(ctx); err != nil {
		t.Logf("warning: failed to terminate postgres container: %v", err)
	}
}
