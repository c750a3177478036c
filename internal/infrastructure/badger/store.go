package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/talentqx/crewrisk/internal/domain/model"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/infrastructure/persistence"
	"github.com/talentqx/crewrisk/pkg/events"
)

// Key layout:
//
//	snap/<candidate>/<computed_at nanos>/<snapshot>  snapshot document
//	snapid/<snapshot>                                 duplicate guard
//	profile/<candidate>                               profile document
//	outbox/pending/<created nanos>/<entry>            unpublished entry
//	outbox/index/<entry>                              pending key of an entry
//	outbox/published/<entry>                          delivered entry
const (
	prefixSnapshot        = "snap/"
	prefixSnapshotID      = "snapid/"
	prefixProfile         = "profile/"
	prefixOutboxPending   = "outbox/pending/"
	prefixOutboxIndex     = "outbox/index/"
	prefixOutboxPublished = "outbox/published/"
)

var _ port.EvaluationStore = (*Store)(nil)

// Store implements port.EvaluationStore on BadgerDB.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a Badger-backed evaluation store.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

func timeKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UTC().UnixNano())
}

func snapshotPrefix(candidateID uuid.UUID) []byte {
	return []byte(prefixSnapshot + candidateID.String() + "/")
}

func snapshotKey(s *model.RiskSnapshot) []byte {
	return append(snapshotPrefix(s.CandidateID()), []byte(timeKey(s.ComputedAt())+"/"+s.ID().String())...)
}

func profileKey(candidateID uuid.UUID) []byte {
	return []byte(prefixProfile + candidateID.String())
}

// Append inserts a snapshot.
func (s *Store) Append(ctx context.Context, snapshot *model.RiskSnapshot) error {
	if snapshot == nil {
		return port.ErrInvalidInput
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		return putSnapshot(txn, snapshot)
	})
}

func putSnapshot(txn *badger.Txn, snapshot *model.RiskSnapshot) error {
	idKey := []byte(prefixSnapshotID + snapshot.ID().String())
	if _, err := txn.Get(idKey); err == nil {
		return port.ErrDuplicateSnapshot
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check snapshot %s: %w", snapshot.ID(), err)
	}

	data, err := persistence.MarshalSnapshot(snapshot)
	if err != nil {
		return err
	}
	if err := txn.Set(snapshotKey(snapshot), data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := txn.Set(idKey, nil); err != nil {
		return fmt.Errorf("failed to write snapshot index: %w", err)
	}
	return nil
}

// ListSince returns snapshots computed at or after since, oldest first.
// Keys sort by computed_at, so this is a single forward seek.
func (s *Store) ListSince(ctx context.Context, candidateID uuid.UUID, since time.Time) ([]*model.RiskSnapshot, error) {
	prefix := snapshotPrefix(candidateID)
	seek := prefix
	if since.After(time.Unix(0, 0)) {
		seek = append(append([]byte(nil), prefix...), []byte(timeKey(since))...)
	}

	snapshots := make([]*model.RiskSnapshot, 0)
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				snapshot, err := persistence.UnmarshalSnapshot(val)
				if err != nil {
					return err
				}
				snapshots = append(snapshots, snapshot)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// FindByCandidateID retrieves the profile of a candidate.
func (s *Store) FindByCandidateID(ctx context.Context, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	var profile *model.CandidateProfile
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		p, err := getProfile(txn, candidateID)
		profile = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func getProfile(txn *badger.Txn, candidateID uuid.UUID) (*model.CandidateProfile, error) {
	item, err := txn.Get(profileKey(candidateID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, port.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile *model.CandidateProfile
	err = item.Value(func(val []byte) error {
		p, err := persistence.UnmarshalProfile(val)
		profile = p
		return err
	})
	return profile, err
}

// Save writes the profile if the stored version matches its loaded version.
func (s *Store) Save(ctx context.Context, profile *model.CandidateProfile) error {
	if profile == nil {
		return port.ErrInvalidInput
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		return putProfile(txn, profile)
	})
}

func putProfile(txn *badger.Txn, profile *model.CandidateProfile) error {
	stored, err := getProfile(txn, profile.CandidateID())
	switch {
	case errors.Is(err, port.ErrProfileNotFound):
		if profile.LoadedVersion() != 0 {
			return port.ErrConcurrentEvaluation
		}
	case err != nil:
		return err
	case stored.Version() != profile.LoadedVersion():
		return port.ErrConcurrentEvaluation
	}

	data, err := persistence.MarshalProfile(profile)
	if err != nil {
		return err
	}
	if err := txn.Set(profileKey(profile.CandidateID()), data); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// CommitEvaluation writes the snapshot, the profile and the outbox entries
// in one Badger transaction.
func (s *Store) CommitEvaluation(ctx context.Context, profile *model.CandidateProfile, snapshot *model.RiskSnapshot, evts []events.DomainEvent) error {
	if profile == nil || snapshot == nil {
		return port.ErrInvalidInput
	}

	entries, err := events.NewOutboxEntries(evts)
	if err != nil {
		return fmt.Errorf("failed to build outbox entries: %w", err)
	}

	return s.update(ctx, func(txn *badger.Txn) error {
		if err := putSnapshot(txn, snapshot); err != nil {
			return err
		}
		if err := putProfile(txn, profile); err != nil {
			return err
		}
		for _, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal outbox entry: %w", err)
			}
			pending := []byte(prefixOutboxPending + timeKey(entry.CreatedAt) + "/" + entry.ID.String())
			if err := txn.Set(pending, data); err != nil {
				return fmt.Errorf("failed to write outbox entry: %w", err)
			}
			if err := txn.Set([]byte(prefixOutboxIndex+entry.ID.String()), pending); err != nil {
				return fmt.Errorf("failed to write outbox index: %w", err)
			}
		}
		return nil
	})
}

// FetchUnpublished returns up to batchSize pending entries, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	var entries []events.OutboxEntry
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixOutboxPending)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(entries) < batchSize; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry events.OutboxEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("failed to decode outbox entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkPublished moves the given entries from pending to published.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	now := s.now().UTC()
	return s.update(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			indexKey := []byte(prefixOutboxIndex + id.String())
			item, err := txn.Get(indexKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to read outbox index: %w", err)
			}
			pending, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read outbox index: %w", err)
			}

			entryItem, err := txn.Get(pending)
			if err != nil {
				return fmt.Errorf("failed to read outbox entry %s: %w", id, err)
			}
			raw, err := entryItem.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read outbox entry %s: %w", id, err)
			}
			var entry events.OutboxEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return fmt.Errorf("failed to decode outbox entry %s: %w", id, err)
			}
			entry.PublishedAt = &now

			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal outbox entry: %w", err)
			}
			if err := txn.Set([]byte(prefixOutboxPublished+id.String()), data); err != nil {
				return fmt.Errorf("failed to write published entry: %w", err)
			}
			if err := txn.Delete(pending); err != nil {
				return fmt.Errorf("failed to delete pending entry: %w", err)
			}
			if err := txn.Delete(indexKey); err != nil {
				return fmt.Errorf("failed to delete outbox index: %w", err)
			}
		}
		return nil
	})
}

// Ping verifies the database accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(profileKey(uuid.Nil))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// update runs fn in a write transaction. Conflicting concurrent writers
// surface as ErrConcurrentEvaluation.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	err := s.db.WithTxn(ctx, fn)
	if errors.Is(err, badger.ErrConflict) {
		return port.ErrConcurrentEvaluation
	}
	return err
}
