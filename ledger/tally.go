// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"

	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
)

// Results tallies the votes of every question of a meeting. Percentages are
// taken against the active shares at the time of the call, read from the
// same snapshot as the vote sums.
func (l *Ledger) Results(ctx context.Context, meetingID string) (*models.Results, error) {
	tx, err := l.db.BeginTx(ctx, db.ReadSnapshot(l.db))
	if err != nil {
		return nil, models.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	q, err := quorum.ComputeWith(ctx, tx, meetingID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT q.id, q.text, o.id, o.text, COALESCE(SUM(v.shares), 0)
		FROM question q
		LEFT JOIN option o ON o.question_id = q.id
		LEFT JOIN vote v ON v.option_id = o.id
		WHERE q.meeting_id = $1
		GROUP BY q.id, q.text, q.position, o.id, o.text, o.position
		ORDER BY q.position, q.id, o.position
	`, meetingID)
	if err != nil {
		return nil, models.StorageError("tally votes", err)
	}
	defer rows.Close()

	results := &models.Results{
		MeetingID:    meetingID,
		ActiveShares: q.ActiveShares,
		Questions:    []models.QuestionResult{},
	}

	for rows.Next() {
		var (
			questionID, questionText string
			optionID, optionText     sql.NullString
			shares                   int64
		)
		if err := rows.Scan(&questionID, &questionText, &optionID, &optionText, &shares); err != nil {
			return nil, models.StorageError("scan tally", err)
		}

		n := len(results.Questions)
		if n == 0 || results.Questions[n-1].ID != questionID {
			results.Questions = append(results.Questions, models.QuestionResult{
				ID:      questionID,
				Text:    questionText,
				Options: []models.OptionResult{},
			})
			n++
		}
		if !optionID.Valid {
			continue
		}
		results.Questions[n-1].Options = append(results.Questions[n-1].Options, models.OptionResult{
			ID:         optionID.String,
			Text:       optionText.String,
			Shares:     shares,
			Percentage: quorum.Percent(shares, q.ActiveShares),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("tally votes", err)
	}

	return results, nil
}
