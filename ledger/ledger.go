// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
	"github.com/danielhkuo/quorumvote/serializer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger is the append-only vote store.
type Ledger struct {
	db      *sql.DB
	lock    *serializer.Serializer
	bus     event.Publisher
	logger  *slog.Logger
	metrics *ledgerMetrics
}

type ledgerMetrics struct {
	cast     prometheus.Counter
	rejected *prometheus.CounterVec
}

// NewLedger creates a Ledger. bus and promRegistry may be nil.
func NewLedger(conn *sql.DB, lock *serializer.Serializer, bus event.Publisher, promRegistry prometheus.Registerer, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{db: conn, lock: lock, bus: bus, logger: logger}
	if promRegistry != nil {
		factory := promauto.With(promRegistry)
		l.metrics = &ledgerMetrics{
			cast: factory.NewCounter(prometheus.CounterOpts{
				Name: "quorumvote_votes_cast_total",
				Help: "votes appended to the ledger",
			}),
			rejected: factory.NewCounterVec(prometheus.CounterOpts{
				Name: "quorumvote_votes_rejected_total",
				Help: "votes refused, by reason",
			}, []string{"reason"}),
		}
	}
	return l
}

// CastVote appends a vote if the meeting currently has quorum.
//
// The declared shares are not checked against the voter's attendance and a
// voter may vote on the same question more than once.
func (l *Ledger) CastVote(ctx context.Context, in models.VoteInput) (*models.Vote, error) {
	if err := validateVote(in); err != nil {
		l.reject("invalid")
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	vote := &models.Vote{
		ID:         uuid.NewString(),
		MeetingID:  in.MeetingID,
		QuestionID: in.QuestionID,
		OptionID:   in.OptionID,
		VoterID:    in.VoterID,
		Shares:     in.Shares,
	}

	err := l.lock.Do(in.MeetingID, func() error {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return models.StorageError("begin transaction", err)
		}
		defer tx.Rollback()

		q, err := quorum.ComputeWith(ctx, tx, in.MeetingID)
		if err != nil {
			return err
		}

		var exists int
		err = tx.QueryRowContext(ctx, `
			SELECT 1
			FROM option o
			JOIN question q ON q.id = o.question_id
			WHERE o.id = $1 AND q.id = $2 AND q.meeting_id = $3
		`, in.OptionID, in.QuestionID, in.MeetingID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("option %s of question %s: %w", in.OptionID, in.QuestionID, models.ErrNotFound)
		}
		if err != nil {
			return models.StorageError("load option", err)
		}

		if !q.Met {
			return &models.QuorumError{
				CurrentPercent:   q.CurrentPercent,
				ThresholdPercent: q.ThresholdPercent,
				TotalShares:      q.TotalShares,
			}
		}

		vote.CastAt = time.Now().UTC()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO vote (id, meeting_id, question_id, option_id, voter_id, shares, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, vote.ID, vote.MeetingID, vote.QuestionID, vote.OptionID, vote.VoterID, vote.Shares, vote.CastAt)
		if err != nil {
			return models.StorageError("insert vote", err)
		}

		if err := tx.Commit(); err != nil {
			return models.StorageError("commit vote", err)
		}

		if l.bus != nil {
			l.bus.Publish(event.NewEvent(event.VoteRegistered, vote.MeetingID, event.VoteRegisteredData{
				QuestionID: vote.QuestionID,
				OptionID:   vote.OptionID,
				Shares:     vote.Shares,
			}))
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrQuorumNotMet):
			l.reject("quorum")
		case errors.Is(err, models.ErrNotFound):
			l.reject("not-found")
		default:
			l.reject("storage")
		}
		return nil, err
	}

	if l.metrics != nil {
		l.metrics.cast.Inc()
	}
	l.logger.Info("vote registered",
		"meeting_id", vote.MeetingID,
		"vote_id", vote.ID,
		"question_id", vote.QuestionID,
		"shares", vote.Shares)
	return vote, nil
}

func (l *Ledger) reject(reason string) {
	if l.metrics != nil {
		l.metrics.rejected.WithLabelValues(reason).Inc()
	}
}

func validateVote(in models.VoteInput) error {
	ids := []struct {
		field string
		value string
	}{
		{"meeting_id", in.MeetingID},
		{"question_id", in.QuestionID},
		{"option_id", in.OptionID},
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id.value); err != nil {
			return models.NewValidationError(id.field, "must be a valid id")
		}
	}
	if strings.TrimSpace(in.VoterID) == "" {
		return models.NewValidationError("voter_id", "is required")
	}
	if in.Shares < 0 {
		return models.NewValidationError("shares", "must not be negative")
	}
	return nil
}

// Count returns the number of votes recorded for a meeting.
func (l *Ledger) Count(ctx context.Context, meetingID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE meeting_id = $1`, meetingID).Scan(&n)
	if err != nil {
		return 0, models.StorageError("count votes", err)
	}
	return n, nil
}
