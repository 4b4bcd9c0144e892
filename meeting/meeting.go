// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package meeting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/serializer"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Registry manages meetings, their questions and role assignments.
type Registry struct {
	db     *sql.DB
	lock   *serializer.Serializer
	logger *slog.Logger
}

func NewRegistry(conn *sql.DB, lock *serializer.Serializer, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{db: conn, lock: lock, logger: logger}
}

// Create stores a new meeting together with its initial questions, if any.
func (r *Registry) Create(ctx context.Context, req models.CreateMeetingRequest) (*models.Meeting, []models.Question, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, models.NewValidationError("name", "is required")
	}
	if err := validateThreshold(req.QuorumThreshold); err != nil {
		return nil, nil, err
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return nil, nil, err
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, nil, err
	}

	m := &models.Meeting{
		ID:              uuid.NewString(),
		Name:            name,
		Date:            date,
		QuorumThreshold: req.QuorumThreshold,
		CreatedAt:       time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, models.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meeting (id, name, date, quorum_threshold, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Name, m.Date, m.QuorumThreshold, m.CreatedAt)
	if err != nil {
		return nil, nil, models.StorageError("insert meeting", err)
	}

	questions, err := insertQuestions(ctx, tx, m.ID, req.Questions)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, models.StorageError("commit meeting", err)
	}

	r.logger.Info("meeting created", "meeting_id", m.ID, "questions", len(questions))
	return m, questions, nil
}

// Get returns a meeting by id.
func (r *Registry) Get(ctx context.Context, id string) (*models.Meeting, error) {
	return loadMeeting(ctx, r.db, id)
}

// Update renames a meeting or changes its date or quorum threshold. It holds
// the meeting's write lock so a threshold change never lands in the middle of
// a vote.
func (r *Registry) Update(ctx context.Context, id string, req models.UpdateMeetingRequest) (*models.Meeting, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, models.NewValidationError("name", "must not be empty")
	}
	if req.QuorumThreshold != nil {
		if err := validateThreshold(*req.QuorumThreshold); err != nil {
			return nil, err
		}
	}
	var date string
	if req.Date != nil {
		d, err := normalizeDate(*req.Date)
		if err != nil {
			return nil, err
		}
		date = d
	}
	ctx = context.WithoutCancel(ctx)

	var m *models.Meeting
	err := r.lock.Do(id, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return models.StorageError("begin transaction", err)
		}
		defer tx.Rollback()

		m, err = loadMeeting(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			m.Name = strings.TrimSpace(*req.Name)
		}
		if req.Date != nil {
			m.Date = date
		}
		if req.QuorumThreshold != nil {
			m.QuorumThreshold = *req.QuorumThreshold
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE meeting SET name = $1, date = $2, quorum_threshold = $3
			WHERE id = $4
		`, m.Name, m.Date, m.QuorumThreshold, id)
		if err != nil {
			return models.StorageError("update meeting", err)
		}
		if err := tx.Commit(); err != nil {
			return models.StorageError("commit meeting", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("meeting updated", "meeting_id", id)
	return m, nil
}

// Delete removes a meeting with its questions, attendance, assignments and
// votes.
func (r *Registry) Delete(ctx context.Context, id string) error {
	ctx = context.WithoutCancel(ctx)
	err := r.lock.Do(id, func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM meeting WHERE id = $1`, id)
		if err != nil {
			return models.StorageError("delete meeting", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return models.StorageError("delete meeting", err)
		}
		if n == 0 {
			return fmt.Errorf("meeting %s: %w", id, models.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("meeting deleted", "meeting_id", id)
	return nil
}

func loadMeeting(ctx context.Context, q db.Querier, id string) (*models.Meeting, error) {
	var (
		m    models.Meeting
		date sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, date, quorum_threshold, created_at
		FROM meeting
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &date, &m.QuorumThreshold, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("meeting %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, models.StorageError("load meeting", err)
	}
	m.Date = date.String
	return &m, nil
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return models.NewValidationError("quorum_threshold", "must be between 0 and 100")
	}
	return nil
}

func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", models.NewValidationError("date", "must be formatted YYYY-MM-DD")
	}
	return raw, nil
}
