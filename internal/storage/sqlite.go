//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveTrial(ctx context.Context, layout string, trialID int, records Trajectory) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTrial(layout, trialID, records)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO trials (layout, trial_id, schema_version, codec_version, transitions, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(layout, trial_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			transitions = excluded.transitions,
			payload = excluded.payload
	`, layout, trialID, CurrentSchemaVersion, CurrentCodecVersion, len(records), payload)
	return err
}

func (s *SQLiteStore) LoadTrial(ctx context.Context, layout string, trialID int) (Trajectory, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM trials WHERE layout = ? AND trial_id = ?`, layout, trialID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	record, err := DecodeTrial(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode trial %s.%d: %w", layout, trialID, err)
	}
	return record.Transitions, true, nil
}

func (s *SQLiteStore) TrialIDs(ctx context.Context, layout string) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT trial_id FROM trials WHERE layout = ? ORDER BY trial_id`, layout)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) SaveCombined(ctx context.Context, layout string, records Trajectory) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTrial(layout, 0, records)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO combined (layout, payload)
		VALUES (?, ?)
		ON CONFLICT(layout) DO UPDATE SET payload = excluded.payload
	`, layout, payload)
	return err
}

func (s *SQLiteStore) LoadCombined(ctx context.Context, layout string) (Trajectory, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM combined WHERE layout = ?`, layout).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	record, err := DecodeTrial(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode combined %s: %w", layout, err)
	}
	return record.Transitions, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trials (
			layout TEXT NOT NULL,
			trial_id INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			transitions INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (layout, trial_id)
		);
		CREATE TABLE IF NOT EXISTS combined (
			layout TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
