// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the store and creates its schema.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open(db.TypeSQLite, "quorum.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite (modernc.org/sqlite) is opened with foreign keys, WAL and a busy timeout,
and limited to one open connection. PostgreSQL uses github.com/lib/pq.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - meeting: name, date, quorum threshold
  - question: prompts of a meeting, ordered by position
  - option: answers of a question, ordered by position
  - attendance: shareholder rows with shares and state
  - role_assignment: (meeting, user, role), unique per triple
  - vote: append-only ledger

# Relationships

	meeting 1──* question 1──* option
	meeting 1──* attendance
	meeting 1──* role_assignment
	meeting 1──* vote *──1 option

All foreign keys use ON DELETE CASCADE.
*/
package db
