// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Load builds the same Config without flags, for subcommands that only need
the database and secret.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - TokenSecret: Secret for signing capability tokens (required)
  - TokenTTL: Lifetime of issued tokens (default: 12h)
  - LockScope: meeting or global (default: meeting)
  - EventBuffer: Per-subscriber event buffer (default: 64)
  - Debug: Debug logging

# Sources

Lowest to highest precedence:

	defaults
	YAML file        -c or CONFIG_FILE
	.env file        (never overrides the real environment)
	environment      PORT, DATABASE_URL, DATABASE_TYPE, TOKEN_SECRET,
	                 TOKEN_TTL, LOCK_SCOPE, EVENT_BUFFER, DEBUG
	flags            -p, -d, -t, --token-secret, --lock-scope,
	                 --event-buffer, --debug

# Validation

ParseFlags returns an error if DATABASE_URL or TOKEN_SECRET is missing, or if
the database type, lock scope, port or event buffer is out of range.
*/
package cliparse
