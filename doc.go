// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the quorumvote command.

quorumvote runs shareholder meetings: it keeps the attendance register,
computes quorum from the shares present in person or online, and accepts
votes only while quorum holds. Votes are weighted by shares.

# Commands

	quorumvote serve  [-p port] [-d url] [-t sqlite|postgres] [-c config.yaml]
	quorumvote token  <user-id> [--admin] [--ttl 2h]
	quorumvote import <meeting-id> <attendance.csv>
	quorumvote status <meeting-id>

serve runs the HTTP API with /metrics for Prometheus. token prints a signed
capability carrying the user's current role assignments. import and status
work directly against the database.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - TOKEN_SECRET (--token-secret): Secret for signing capability tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - LOCK_SCOPE: meeting or global (default: meeting)

See package cliparse for the full list and precedence.

# Architecture

  - handlers: HTTP request handlers (meetings, attendance, voting, events)
  - router: Route definitions and service wiring
  - middleware: Logging, CORS, JSON helpers, capability checks
  - meeting, attendance, quorum, ledger: the core services
  - serializer: Per-meeting write lock
  - event: Meeting event bus
  - auth: Capability tokens
  - db: Connection and schema
  - models: Domain types and errors

See package documentation for each component.
*/
package main
