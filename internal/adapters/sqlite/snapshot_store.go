// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/eisen/internal/ports/secondary"
)

// SnapshotStore implements secondary.SnapshotStore with SQLite.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a new SQLite snapshot store.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

var _ secondary.SnapshotStore = (*SnapshotStore)(nil)

// Get retrieves the payload stored under key.
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM snapshots WHERE key = ?",
		key,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	return payload, true, nil
}

// Put replaces the payload stored under key.
func (s *SnapshotStore) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", key, err)
	}

	return nil
}

// UpdatedAt returns when key was last written.
func (s *SnapshotStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM snapshots WHERE key = ?",
		key,
	).Scan(&updatedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	return updatedAt.Time, nil
}
