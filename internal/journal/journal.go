// Package journal records player sessions and power transitions.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit caps history reads when no limit is given.
const DefaultLimit = 50

type PlayerEvent struct {
	ID         string    `json:"id"`
	Player     string    `json:"player"`
	Action     string    `json:"action"`
	RecordedAt time.Time `json:"recorded_at"`
}

type PowerEvent struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (j *Journal) RecordPlayer(ctx context.Context, player, action string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO player_sessions (id, player, action, recorded_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), player, action, j.now(),
	)
	if err != nil {
		return fmt.Errorf("record player %s: %w", player, err)
	}
	return nil
}

func (j *Journal) RecordPower(ctx context.Context, from, to string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO power_events (id, from_state, to_state, recorded_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), from, to, j.now(),
	)
	if err != nil {
		return fmt.Errorf("record power: %w", err)
	}
	return nil
}

// Players returns the latest player events, newest first.
func (j *Journal) Players(ctx context.Context, limit int) ([]PlayerEvent, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, player, action, recorded_at FROM player_sessions ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
		clamp(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	events := []PlayerEvent{}
	for rows.Next() {
		var e PlayerEvent
		if err := rows.Scan(&e.ID, &e.Player, &e.Action, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan player event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Power returns the latest power transitions, newest first.
func (j *Journal) Power(ctx context.Context, limit int) ([]PowerEvent, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, from_state, to_state, recorded_at FROM power_events ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
		clamp(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query power events: %w", err)
	}
	defer rows.Close()

	events := []PowerEvent{}
	for rows.Next() {
		var e PowerEvent
		if err := rows.Scan(&e.ID, &e.From, &e.To, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan power event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func clamp(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultLimit
	}
	return limit
}
