package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database holding trackers and last-alert states.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	createTrackersTable := `
	CREATE TABLE IF NOT EXISTS trackers (
		market TEXT NOT NULL,
		avg_price REAL NOT NULL,
		up_threshold REAL NOT NULL,
		down_threshold REAL NOT NULL,
		channel_id TEXT NOT NULL,
		PRIMARY KEY (market, channel_id)
	);`
	if _, err := db.Exec(createTrackersTable); err != nil {
		return nil, fmt.Errorf("failed to create trackers table: %w", err)
	}

	createLastAlertTable := `
	CREATE TABLE IF NOT EXISTS last_alert (
		market TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		last_state TEXT NOT NULL,
		last_ts INTEGER NOT NULL,
		PRIMARY KEY (market, channel_id)
	);`
	if _, err := db.Exec(createLastAlertTable); err != nil {
		return nil, fmt.Errorf("failed to create last_alert table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
