package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"CandleWatch/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the selection in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	// id is pinned to 1 so the table can never grow past one row.
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS selection_state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		pair       TEXT NOT NULL,
		timeframe  TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Load() (model.Selection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sel model.Selection
	err := s.db.QueryRow(`SELECT pair, timeframe FROM selection_state WHERE id = 1`).
		Scan(&sel.Pair, &sel.Timeframe)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Selection{}, false, nil
	}
	if err != nil {
		return model.Selection{}, false, fmt.Errorf("load selection: %w", err)
	}
	return sel, true, nil
}

func (s *SQLiteStore) Save(sel model.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO selection_state (id, pair, timeframe, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pair = excluded.pair,
			timeframe = excluded.timeframe,
			updated_at = excluded.updated_at`,
		string(sel.Pair), string(sel.Timeframe), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
