// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: sqlite file or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - BaseURL: public origin used to build share links
  - EventTTL: lifetime of a new event (default: 90 days)
  - RequestTimeout: deadline applied to each request's store calls
  - RedisURL: optional, switches the vote change feed to Redis pub/sub
  - LogLevel: debug, info, warn or error
  - SecureCookies: mark the participant cookie Secure

# Sources

The environment is read first with envconfig, then flags override it:

	PORT            → -p
	DATABASE_URL    → -d
	DATABASE_TYPE   → -t
	BASE_URL        → -base-url
	EVENT_TTL       → -ttl
	REQUEST_TIMEOUT → -timeout
	REDIS_URL       → -redis
	LOG_LEVEL       → -log-level
	SECURE_COOKIES  → -secure-cookies

# Validation

ParseFlags returns an error if DATABASE_URL is missing, the database type
is unknown, or a port or duration is out of range.
*/
package cliparse
