// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Meet API server.

Quickly Meet finds a meeting time without accounts. An organizer proposes
candidate time slots, participants mark each one available, maybe, or
unavailable, and the organizer locks the slot the tally recommends.

# Starting the Server

	DATABASE_URL=quickly-meet.db go run . serve

Or with flags:

	go run . serve -p 3318 -t postgres -d "postgres://..."

A .env file in the working directory is loaded first if present.

Expired events are removed hourly by the server, or on demand:

	go run . reap -d quickly-meet.db

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite path or PostgreSQL connection string

Optional settings:

  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - PORT (-p): Server port (default: 3318)
  - BASE_URL (--base-url): Public URL used in share links
  - EVENT_TTL (--ttl): How long events live (default: 2160h)
  - REQUEST_TIMEOUT (--timeout): Per-request store deadline (default: 10s)
  - REDIS_URL (--redis): Share vote changes between instances
  - LOG_LEVEL (--log-level): debug, info, warn, error
  - SECURE_COOKIES (--secure-cookies): Mark participant cookies Secure

# Architecture

  - scheduling: Event lifecycle, vote submission, authorization
  - tally: Vote counting, ranking and recommendation
  - store: SQL persistence (sqlx over sqlite or postgres)
  - realtime: Vote change feeds (in-process or redis) and live views
  - export: iCalendar invites and CSV tallies
  - handlers, router, middleware: HTTP layer
  - models: Request/response and domain types
  - auth: Token and identifier generation
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
