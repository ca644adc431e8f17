// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/quickly-meet/cliparse"
)

// Open connects to the configured database and verifies the connection.
// The sqlite driver is opened with foreign keys on and a busy timeout so
// concurrent requests wait instead of failing.
func Open(cfg cliparse.Config) (*sqlx.DB, error) {
	driver, dsn := cfg.DatabaseType, cfg.DatabaseURL
	if driver == cliparse.DatabaseSQLite {
		dsn = SQLiteDSN(dsn)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == cliparse.DatabaseSQLite {
		// One writer at a time; sqlite serializes writes anyway.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// SQLiteDSN appends the pragmas the store relies on to a sqlite path.
func SQLiteDSN(path string) string {
	sep := "?"
	for i := 0; i < len(path); i++ {
		if path[i] == '?' {
			sep = "&"
			break
		}
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Portable between PostgreSQL and SQLite: no NOW(), no SERIAL, no JSONB.
const schema = `
-- Events
CREATE TABLE IF NOT EXISTS event (
    event_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    location TEXT,
    notes TEXT,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'locked', 'cancelled')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ttl TIMESTAMP NOT NULL,
    locked_time_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_event_ttl ON event(ttl);

-- Time Slots
CREATE TABLE IF NOT EXISTS time_slot (
    timeslot_id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES event(event_id) ON DELETE CASCADE,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP,
    label TEXT,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_time_slot_event_id ON time_slot(event_id);

-- Participants (one row per browser token per event)
CREATE TABLE IF NOT EXISTS participant (
    participant_token TEXT NOT NULL,
    event_id TEXT NOT NULL REFERENCES event(event_id) ON DELETE CASCADE,
    is_organizer BOOLEAN NOT NULL DEFAULT FALSE,
    display_name TEXT,
    last_active TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (participant_token, event_id)
);

CREATE INDEX IF NOT EXISTS idx_participant_organizer ON participant(participant_token, is_organizer);

-- Votes
CREATE TABLE IF NOT EXISTS vote (
    vote_id TEXT PRIMARY KEY,
    timeslot_id TEXT NOT NULL REFERENCES time_slot(timeslot_id) ON DELETE CASCADE,
    participant_token TEXT NOT NULL,
    event_id TEXT NOT NULL REFERENCES event(event_id) ON DELETE CASCADE,
    availability TEXT NOT NULL CHECK (availability IN ('available', 'maybe', 'unavailable')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (participant_token, event_id) REFERENCES participant(participant_token, event_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_vote_timeslot_id ON vote(timeslot_id);
CREATE INDEX IF NOT EXISTS idx_vote_event_id ON vote(event_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_vote_slot_participant ON vote(timeslot_id, participant_token);
`
