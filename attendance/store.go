// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/serializer"
	"github.com/google/uuid"
)

// Store holds the attendance rows of every meeting.
type Store struct {
	db     *sql.DB
	lock   *serializer.Serializer
	bus    event.Publisher
	logger *slog.Logger
}

// NewStore creates a Store. bus may be nil, in which case state changes are
// not published.
func NewStore(conn *sql.DB, lock *serializer.Serializer, bus event.Publisher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: conn, lock: lock, bus: bus, logger: logger}
}

const recordColumns = `id, meeting_id, holder, representative, proxy, shares, state, position`

// ReplaceAll discards the meeting's attendance and stores records in their
// given order. States are normalized (unknown values become ABSENT) and
// negative shares are clamped to zero. No event is published.
func (s *Store) ReplaceAll(ctx context.Context, meetingID string, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	ctx = context.WithoutCancel(ctx)

	stored := make([]models.AttendanceRecord, len(records))
	for i, r := range records {
		r.ID = uuid.NewString()
		r.MeetingID = meetingID
		r.State = models.NormalizeState(string(r.State))
		if r.Shares < 0 {
			r.Shares = 0
		}
		r.Position = i
		stored[i] = r
	}

	err := s.lock.Do(meetingID, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return models.StorageError("begin transaction", err)
		}
		defer tx.Rollback()

		if err := requireMeeting(ctx, tx, meetingID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE meeting_id = $1`, meetingID); err != nil {
			return models.StorageError("delete attendance", err)
		}

		for _, r := range stored {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO attendance (id, meeting_id, holder, representative, proxy, shares, state, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, r.ID, r.MeetingID, r.Holder, r.Representative, r.Proxy, r.Shares, string(r.State), r.Position)
			if err != nil {
				return models.StorageError("insert attendance", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return models.StorageError("commit attendance", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance replaced", "meeting_id", meetingID, "rows", len(stored))
	return stored, nil
}

// UpdateState sets the state of a single record. The new state must be one of
// the three enum values. A record that does not belong to the meeting is
// ErrNotFound and publishes nothing.
func (s *Store) UpdateState(ctx context.Context, meetingID, recordID, newState string) (*models.AttendanceRecord, error) {
	state, err := models.ParseState(newState)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	var rec models.AttendanceRecord
	err = s.lock.Do(meetingID, func() error {
		row := s.db.QueryRowContext(ctx, `
			UPDATE attendance SET state = $1
			WHERE id = $2 AND meeting_id = $3
			RETURNING `+recordColumns,
			string(state), recordID, meetingID)
		if err := scanRecord(row, &rec); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("attendance record %s: %w", recordID, models.ErrNotFound)
			}
			return models.StorageError("update attendance state", err)
		}
		// published under the lock so events follow commit order
		s.publishState(meetingID, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance state changed",
		"meeting_id", meetingID,
		"record_id", recordID,
		"state", state)
	return &rec, nil
}

// SetAllStates moves every record of the meeting to one state in a single
// transaction and publishes a state-changed event per record, in import
// order. The state must be one of the three enum values.
func (s *Store) SetAllStates(ctx context.Context, meetingID, newState string) ([]models.AttendanceRecord, error) {
	state, err := models.ParseState(newState)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	var records []models.AttendanceRecord
	err = s.lock.Do(meetingID, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return models.StorageError("begin transaction", err)
		}
		defer tx.Rollback()

		if err := requireMeeting(ctx, tx, meetingID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE attendance SET state = $1 WHERE meeting_id = $2`,
			string(state), meetingID); err != nil {
			return models.StorageError("update attendance states", err)
		}
		records, err = listRecords(ctx, tx, meetingID)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return models.StorageError("commit attendance states", err)
		}

		for _, rec := range records {
			s.publishState(meetingID, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance states set",
		"meeting_id", meetingID,
		"state", state,
		"rows", len(records))
	return records, nil
}

func (s *Store) publishState(meetingID string, rec models.AttendanceRecord) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.NewEvent(event.StateChanged, meetingID, event.StateChangedData{
		RecordID: rec.ID,
		NewState: rec.State,
	}))
}

// Summary returns count and share totals per state for an existing meeting.
func (s *Store) Summary(ctx context.Context, meetingID string) (*models.AttendanceSummary, error) {
	if err := requireMeeting(ctx, s.db, meetingID); err != nil {
		return nil, err
	}
	return LoadSummary(ctx, s.db, meetingID)
}

// List returns the meeting's rows in import order.
func (s *Store) List(ctx context.Context, meetingID string) ([]models.AttendanceRecord, error) {
	if err := requireMeeting(ctx, s.db, meetingID); err != nil {
		return nil, err
	}
	return listRecords(ctx, s.db, meetingID)
}

func listRecords(ctx context.Context, q db.Querier, meetingID string) ([]models.AttendanceRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance
		WHERE meeting_id = $1
		ORDER BY position
	`, meetingID)
	if err != nil {
		return nil, models.StorageError("list attendance", err)
	}
	defer rows.Close()

	records := []models.AttendanceRecord{}
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, models.StorageError("scan attendance", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list attendance", err)
	}
	return records, nil
}

// LoadSummary aggregates attendance per state using q, which may be a
// transaction. All three states are always present.
func LoadSummary(ctx context.Context, q db.Querier, meetingID string) (*models.AttendanceSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT state, COUNT(*), COALESCE(SUM(shares), 0)
		FROM attendance
		WHERE meeting_id = $1
		GROUP BY state
	`, meetingID)
	if err != nil {
		return nil, models.StorageError("summarize attendance", err)
	}
	defer rows.Close()

	summary := &models.AttendanceSummary{
		MeetingID: meetingID,
		PerState:  make(map[models.AttendanceState]models.StateTotals, len(models.AllStates)),
	}
	for _, st := range models.AllStates {
		summary.PerState[st] = models.StateTotals{}
	}

	for rows.Next() {
		var (
			state  string
			totals models.StateTotals
		)
		if err := rows.Scan(&state, &totals.Count, &totals.Shares); err != nil {
			return nil, models.StorageError("scan attendance summary", err)
		}
		summary.PerState[models.AttendanceState(state)] = totals
		summary.Totals.Count += totals.Count
		summary.Totals.Shares += totals.Shares
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("summarize attendance", err)
	}
	return summary, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, rec *models.AttendanceRecord) error {
	var state string
	if err := row.Scan(&rec.ID, &rec.MeetingID, &rec.Holder, &rec.Representative,
		&rec.Proxy, &rec.Shares, &state, &rec.Position); err != nil {
		return err
	}
	rec.State = models.AttendanceState(state)
	return nil
}

func requireMeeting(ctx context.Context, q db.Querier, meetingID string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM meeting WHERE id = $1`, meetingID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("meeting %s: %w", meetingID, models.ErrNotFound)
	}
	if err != nil {
		return models.StorageError("load meeting", err)
	}
	return nil
}
