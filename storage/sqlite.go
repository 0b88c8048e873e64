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
		return fmt.Errorf("open %s: %w", s.path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s: %w", s.path, err)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("create tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveBrain(ctx context.Context, record BrainRecord) error {
	if err := validate(record); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO brains (id, parent_id, generation, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			generation = excluded.generation,
			payload = excluded.payload
	`, record.ID, record.ParentID, record.Generation, record.Payload)
	if err != nil {
		return fmt.Errorf("save brain %s: %w", record.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetBrain(ctx context.Context, id string) (BrainRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return BrainRecord{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, parent_id, generation, payload FROM brains WHERE id = ?
	`, id)
	return scanBrain(row, id)
}

func (s *SQLiteStore) LatestBrain(ctx context.Context) (BrainRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return BrainRecord{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, parent_id, generation, payload FROM brains
		ORDER BY generation DESC, rowid DESC
		LIMIT 1
	`)
	return scanBrain(row, "latest")
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
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func scanBrain(row *sql.Row, key string) (BrainRecord, bool, error) {
	var record BrainRecord
	err := row.Scan(&record.ID, &record.ParentID, &record.Generation, &record.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BrainRecord{}, false, nil
		}
		return BrainRecord{}, false, fmt.Errorf("get brain %s: %w", key, err)
	}
	return record, true, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS brains (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS brains_generation ON brains (generation);
	`)
	return err
}
