// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package meeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/google/uuid"
)

// ReplaceQuestions swaps the whole question set of a meeting. Once a vote has
// been cast the set is frozen, since dropping options would drop their votes.
func (r *Registry) ReplaceQuestions(ctx context.Context, meetingID string, reqs []models.QuestionRequest) ([]models.Question, error) {
	if len(reqs) == 0 {
		return nil, models.NewValidationError("questions", "at least one question is required")
	}
	if err := validateQuestions(reqs); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	var questions []models.Question
	err := r.lock.Do(meetingID, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return models.StorageError("begin transaction", err)
		}
		defer tx.Rollback()

		if _, err := loadMeeting(ctx, tx, meetingID); err != nil {
			return err
		}

		var votes int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE meeting_id = $1`, meetingID).Scan(&votes); err != nil {
			return models.StorageError("count votes", err)
		}
		if votes > 0 {
			return models.NewValidationError("questions", "cannot change after voting has started")
		}

		// options cascade with their question
		if _, err := tx.ExecContext(ctx, `DELETE FROM question WHERE meeting_id = $1`, meetingID); err != nil {
			return models.StorageError("delete questions", err)
		}

		questions, err = insertQuestions(ctx, tx, meetingID, reqs)
		if err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return models.StorageError("commit questions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("questions replaced", "meeting_id", meetingID, "questions", len(questions))
	return questions, nil
}

// Questions returns the meeting's questions and options in creation order.
func (r *Registry) Questions(ctx context.Context, meetingID string) ([]models.Question, error) {
	if _, err := loadMeeting(ctx, r.db, meetingID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT q.id, q.text, o.id, o.text
		FROM question q
		JOIN option o ON o.question_id = q.id
		WHERE q.meeting_id = $1
		ORDER BY q.position, q.id, o.position
	`, meetingID)
	if err != nil {
		return nil, models.StorageError("list questions", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var questionID, questionText, optionID, optionText string
		if err := rows.Scan(&questionID, &questionText, &optionID, &optionText); err != nil {
			return nil, models.StorageError("scan questions", err)
		}
		n := len(questions)
		if n == 0 || questions[n-1].ID != questionID {
			questions = append(questions, models.Question{
				ID:        questionID,
				MeetingID: meetingID,
				Text:      questionText,
			})
			n++
		}
		questions[n-1].Options = append(questions[n-1].Options, models.Option{
			ID:         optionID,
			QuestionID: questionID,
			Text:       optionText,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list questions", err)
	}
	return questions, nil
}

func validateQuestions(reqs []models.QuestionRequest) error {
	for i, q := range reqs {
		if strings.TrimSpace(q.Text) == "" {
			return models.NewValidationError(fmt.Sprintf("questions[%d].text", i), "is required")
		}
		if len(q.Options) == 0 {
			return models.NewValidationError(fmt.Sprintf("questions[%d].options", i), "at least one option is required")
		}
		for j, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return models.NewValidationError(fmt.Sprintf("questions[%d].options[%d]", i, j), "must not be empty")
			}
		}
	}
	return nil
}

func insertQuestions(ctx context.Context, q db.Querier, meetingID string, reqs []models.QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(reqs))
	for i, req := range reqs {
		question := models.Question{
			ID:        uuid.NewString(),
			MeetingID: meetingID,
			Text:      strings.TrimSpace(req.Text),
			Options:   make([]models.Option, 0, len(req.Options)),
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO question (id, meeting_id, text, position)
			VALUES ($1, $2, $3, $4)
		`, question.ID, meetingID, question.Text, i)
		if err != nil {
			return nil, models.StorageError("insert question", err)
		}

		for j, label := range req.Options {
			opt := models.Option{
				ID:         uuid.NewString(),
				QuestionID: question.ID,
				Text:       strings.TrimSpace(label),
			}
			_, err := q.ExecContext(ctx, `
				INSERT INTO option (id, question_id, text, position)
				VALUES ($1, $2, $3, $4)
			`, opt.ID, opt.QuestionID, opt.Text, j)
			if err != nil {
				return nil, models.StorageError("insert option", err)
			}
			question.Options = append(question.Options, opt)
		}
		questions = append(questions, question)
	}
	return questions, nil
}
