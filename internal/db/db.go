// Package db opens the journal database and applies its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate applies every migration in order. Each one is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration error: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS player_sessions (
		id TEXT PRIMARY KEY,
		player TEXT NOT NULL,
		action TEXT NOT NULL CHECK (action IN ('join', 'quit')),
		recorded_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_player_sessions_time ON player_sessions(recorded_at)`,
	`CREATE TABLE IF NOT EXISTS power_events (
		id TEXT PRIMARY KEY,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_power_events_time ON power_events(recorded_at)`,
}
