// Package snapshot persists in-progress attempt state so an interrupted
// session can resume where it left off. One row per (exam, user) pair in
// a single-file SQLite database; the payload is the JSON-encoded
// snapshot, written on every session mutation and deleted on a
// successful final submit.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/exam-portal/portal-client/internal/model"
)

// ErrNoSnapshot means no snapshot exists for the (exam, user) pair.
var ErrNoSnapshot = errors.New("snapshot: not found")

const schema = `
CREATE TABLE IF NOT EXISTS attempt_snapshots (
	exam_id    INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	payload    TEXT    NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (exam_id, user_id)
)`

// Store is the SQLite-backed snapshot store.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the snapshot database at path and ensures the
// schema exists.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{
		db:  db,
		log: log.With().Str("component", "snapshot_store").Logger(),
	}, nil
}

// Save upserts the snapshot for the (exam, user) pair.
func (s *Store) Save(ctx context.Context, examID, userID int64, snap *model.AttemptSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempt_snapshots (exam_id, user_id, payload, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (exam_id, user_id) DO UPDATE
		 SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		examID, userID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for the (exam, user) pair. A corrupt payload
// is discarded, its row removed, and ErrNoSnapshot returned, so the
// session proceeds as if no snapshot existed.
func (s *Store) Load(ctx context.Context, examID, userID int64) (*model.AttemptSnapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM attempt_snapshots WHERE exam_id = ? AND user_id = ?`,
		examID, userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap model.AttemptSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		s.log.Warn().Err(err).
			Int64("exam_id", examID).
			Int64("user_id", userID).
			Msg("Discarding corrupt snapshot")
		if delErr := s.Delete(ctx, examID, userID); delErr != nil {
			s.log.Error().Err(delErr).Msg("Failed to remove corrupt snapshot")
		}
		return nil, ErrNoSnapshot
	}
	if snap.Answers == nil {
		snap.Answers = make(map[int64]int)
	}
	return &snap, nil
}

// Delete removes the snapshot for the (exam, user) pair. Deleting a
// missing snapshot is not an error.
func (s *Store) Delete(ctx context.Context, examID, userID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM attempt_snapshots WHERE exam_id = ? AND user_id = ?`,
		examID, userID,
	); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
