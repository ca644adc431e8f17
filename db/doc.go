// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open picks the driver from the config (sqlite via modernc.org/sqlite,
postgres via lib/pq) and returns a *sqlx.DB:

	conn, err := db.Open(cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on both PostgreSQL and SQLite.

# Tables

  - event: Event metadata, lifecycle state, TTL and locked slot
  - time_slot: Candidate times, ordered by position
  - participant: One row per (participant_token, event_id)
  - vote: One availability row per (timeslot_id, participant_token)

# Relationships

	event 1──* time_slot
	event 1──* participant
	time_slot 1──* vote
	participant 1──* vote

All foreign keys use ON DELETE CASCADE.

Vote uniqueness per (slot, participant) is maintained by the read-then-write
upsert in the store, not by a constraint; concurrent identical submissions
are last-write-wins.
*/
package db
