// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Statements are kept portable between PostgreSQL and SQLite: TEXT ids,
// CURRENT_TIMESTAMP defaults and $n placeholders work on both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS meeting (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    date TEXT,
    quorum_threshold DOUBLE PRECISION NOT NULL DEFAULT 0
        CHECK (quorum_threshold >= 0 AND quorum_threshold <= 100),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	`CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    meeting_id TEXT NOT NULL REFERENCES meeting(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_question_meeting_id ON question(meeting_id, position)`,

	`CREATE TABLE IF NOT EXISTS option (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_option_question_id ON option(question_id, position)`,

	`CREATE TABLE IF NOT EXISTS attendance (
    id TEXT PRIMARY KEY,
    meeting_id TEXT NOT NULL REFERENCES meeting(id) ON DELETE CASCADE,
    holder TEXT NOT NULL DEFAULT '',
    representative TEXT NOT NULL DEFAULT '',
    proxy TEXT NOT NULL DEFAULT '',
    shares BIGINT NOT NULL DEFAULT 0 CHECK (shares >= 0),
    state TEXT NOT NULL DEFAULT 'ABSENT' CHECK (state IN ('IN_PERSON', 'VIRTUAL', 'ABSENT')),
    position INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_meeting_id ON attendance(meeting_id, position)`,

	`CREATE TABLE IF NOT EXISTS role_assignment (
    meeting_id TEXT NOT NULL REFERENCES meeting(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('attendance-operator', 'voter')),
    PRIMARY KEY (meeting_id, user_id, role)
)`,
	`CREATE INDEX IF NOT EXISTS idx_role_assignment_user_id ON role_assignment(user_id)`,

	`CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    meeting_id TEXT NOT NULL REFERENCES meeting(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    option_id TEXT NOT NULL REFERENCES option(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    shares BIGINT NOT NULL,
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_meeting_id ON vote(meeting_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_option_id ON vote(option_id)`,
}
