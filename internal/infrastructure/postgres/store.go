package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/infrastructure/persistence"
	"github.com/talentqx/crewrisk/pkg/events"
	pgutil "github.com/talentqx/crewrisk/pkg/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations.
func Migrate(dsn string) error {
	return pgutil.MigrateUp(dsn, migrations, "migrations")
}

// Rollback reverts the last steps embedded migrations.
func Rollback(dsn string, steps int) error {
	return pgutil.MigrateDown(dsn, migrations, "migrations", steps)
}

// SchemaVersion reports the applied embedded migration version.
func SchemaVersion(dsn string) (uint, bool, error) {
	return pgutil.SchemaVersion(dsn, migrations, "migrations")
}

var _ port.EvaluationStore = (*Store)(nil)

// Store implements port.EvaluationStore using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL-backed evaluation store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const insertSnapshotSQL = `
	INSERT INTO risk_snapshots (id, candidate_id, computed_at, context_tag, inputs, outputs)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Append inserts a snapshot. The table rejects updates and deletes.
func (s *Store) Append(ctx context.Context, snapshot *model.RiskSnapshot) error {
	if snapshot == nil {
		return port.ErrInvalidInput
	}
	return insertSnapshot(ctx, s.pool, snapshot)
}

func insertSnapshot(ctx context.Context, q pgutil.Querier, snapshot *model.RiskSnapshot) error {
	inputs, err := json.Marshal(snapshot.Inputs())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot inputs: %w", err)
	}
	outputs, err := json.Marshal(snapshot.Outputs())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot outputs: %w", err)
	}

	_, err = q.Exec(ctx, insertSnapshotSQL,
		snapshot.ID(),
		snapshot.CandidateID(),
		snapshot.ComputedAt(),
		snapshot.ContextTag(),
		inputs,
		outputs,
	)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return port.ErrDuplicateSnapshot
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListSince returns snapshots computed at or after since, oldest first.
func (s *Store) ListSince(ctx context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error) {
	const query = `
		SELECT id, candidate_id, computed_at, context_tag, inputs, outputs
		FROM risk_snapshots
		WHERE candidate_id = $1 AND computed_at >= $2
		ORDER BY computed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, candidateID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]*model.RiskSnapshot, 0)
	for rows.Next() {
		var (
			doc     persistence.SnapshotDocument
			inputs  []byte
			outputs []byte
		)
		if err := rows.Scan(&doc.ID, &doc.CandidateID, &doc.ComputedAt, &doc.ContextTag, &inputs, &outputs); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if err := json.Unmarshal(inputs, &doc.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s inputs: %w", doc.ID, err)
		}
		if err := json.Unmarshal(outputs, &doc.Outputs); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s outputs: %w", doc.ID, err)
		}
		snapshots = append(snapshots, doc.Snapshot())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// FindByCandidateID retrieves the profile of a candidate.
func (s *Store) FindByCandidateID(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	const query = `
		SELECT id, candidate_id, context_tag, engines, correlation, predictive,
			last_snapshot_id, version, created_at, updated_at
		FROM candidate_profiles
		WHERE candidate_id = $1
	`

	var (
		doc            persistence.ProfileDocument
		engines        []byte
		correlation    []byte
		predictive     []byte
		lastSnapshotID *uuid.UUID
	)
	err := s.pool.QueryRow(ctx, query, candidateID).Scan(
		&doc.ID, &doc.CandidateID, &doc.ContextTag,
		&engines, &correlation, &predictive,
		&lastSnapshotID, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	if err := json.Unmarshal(engines, &doc.Engines); err != nil {
		return nil, fmt.Errorf("failed to decode engines: %w", err)
	}
	if correlation != nil {
		doc.Correlation = &model.CorrelationResult{}
		if err := json.Unmarshal(correlation, doc.Correlation); err != nil {
			return nil, fmt.Errorf("failed to decode correlation: %w", err)
		}
	}
	if predictive != nil {
		doc.Predictive = &model.BlendedRiskResult{}
		if err := json.Unmarshal(predictive, doc.Predictive); err != nil {
			return nil, fmt.Errorf("failed to decode predictive result: %w", err)
		}
	}
	if lastSnapshotID != nil {
		doc.LastSnapshotID = *lastSnapshotID
	}

	return doc.Profile(), nil
}

// Save upserts the profile with optimistic concurrency control.
func (s *Store) Save(ctx context.Context, profile *model.CandidateProfile) error {
	if profile == nil {
		return port.ErrInvalidInput
	}
	return upsertProfile(ctx, s.pool, profile)
}

func upsertProfile(ctx context.Context, q pgutil.Querier, profile *model.CandidateProfile) error {
	const upsertSQL = `
		INSERT INTO candidate_profiles (
			id, candidate_id, context_tag, engines, correlation, predictive,
			last_snapshot_id, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (candidate_id) DO UPDATE SET
			context_tag = EXCLUDED.context_tag,
			engines = EXCLUDED.engines,
			correlation = EXCLUDED.correlation,
			predictive = EXCLUDED.predictive,
			last_snapshot_id = EXCLUDED.last_snapshot_id,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE candidate_profiles.version = $11
	`

	doc := persistence.FromProfile(profile)
	engines, err := json.Marshal(doc.Engines)
	if err != nil {
		return fmt.Errorf("failed to marshal engines: %w", err)
	}
	correlation, err := marshalOptional(doc.Correlation)
	if err != nil {
		return fmt.Errorf("failed to marshal correlation: %w", err)
	}
	predictive, err := marshalOptional(doc.Predictive)
	if err != nil {
		return fmt.Errorf("failed to marshal predictive result: %w", err)
	}

	var lastSnapshotID *uuid.UUID
	if doc.LastSnapshotID != uuid.Nil {
		lastSnapshotID = &doc.LastSnapshotID
	}

	result, err := q.Exec(ctx, upsertSQL,
		doc.ID,
		doc.CandidateID,
		doc.ContextTag,
		engines,
		correlation,
		predictive,
		lastSnapshotID,
		doc.Version,
		doc.CreatedAt,
		doc.UpdatedAt,
		profile.LoadedVersion(),
	)
	if pgutil.IsConcurrencyConflict(err) {
		return port.ErrConcurrentEvaluation
	}
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return port.ErrConcurrentEvaluation
	}
	return nil
}

func marshalOptional[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// CommitEvaluation writes the snapshot, the profile and the outbox rows in
// one transaction.
func (s *Store) CommitEvaluation(ctx context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error {
	if profile == nil || snapshot == nil {
		return port.ErrInvalidInput
	}

	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return fmt.Errorf("failed to build outbox entries: %w", err)
	}

	err = pgutil.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertSnapshot(ctx, tx, snapshot); err != nil {
			return err
		}
		if err := upsertProfile(ctx, tx, profile); err != nil {
			return err
		}

		const insertOutboxSQL = `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for _, entry := range entries {
			if _, err := tx.Exec(ctx, insertOutboxSQL,
				entry.ID, entry.AggregateID, entry.AggregateType, entry.EventType, entry.Payload, entry.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert outbox event: %w", err)
			}
		}
		return nil
	})
	if pgutil.IsConcurrencyConflict(err) {
		return port.ErrConcurrentEvaluation
	}
	return err
}

// FetchUnpublished returns up to batchSize unpublished outbox entries, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	const query = `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}

	return entries, nil
}

// MarkPublished stamps the given outbox entries as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE outbox SET published_at = now() WHERE id = ANY($1) AND published_at IS NULL`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entries published: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return pgutil.Ping(ctx, s.pool)
}
