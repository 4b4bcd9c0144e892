// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quorum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/quorumvote/attendance"
	"github.com/danielhkuo/quorumvote/db"
	"github.com/danielhkuo/quorumvote/models"
)

// Compute derives the quorum of a meeting from its attendance summary.
// A meeting without shares never has quorum, whatever the threshold.
func Compute(summary *models.AttendanceSummary, threshold float64) *models.QuorumSummary {
	result := &models.QuorumSummary{
		MeetingID:        summary.MeetingID,
		ThresholdPercent: threshold,
		PerState:         make(map[models.AttendanceState]models.StateQuorum, len(models.AllStates)),
	}

	for _, state := range models.AllStates {
		shares := summary.PerState[state].Shares
		result.TotalShares += shares
		if state.Active() {
			result.ActiveShares += shares
		}
	}

	result.CurrentPercent = Percent(result.ActiveShares, result.TotalShares)
	result.Met = result.TotalShares > 0 && result.CurrentPercent >= threshold

	for _, state := range models.AllStates {
		shares := summary.PerState[state].Shares
		result.PerState[state] = models.StateQuorum{
			Shares:      shares,
			PctOfTotal:  Percent(shares, result.TotalShares),
			PctOfActive: Percent(shares, result.ActiveShares),
		}
	}

	return result
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Calculator loads attendance and the meeting threshold from the store.
type Calculator struct {
	db *sql.DB
}

func NewCalculator(conn *sql.DB) *Calculator {
	return &Calculator{db: conn}
}

// Compute returns the live quorum of a meeting.
func (c *Calculator) Compute(ctx context.Context, meetingID string) (*models.QuorumSummary, error) {
	return ComputeWith(ctx, c.db, meetingID)
}

// ComputeWith evaluates quorum through q, so a write transaction can check
// quorum against its own snapshot.
func ComputeWith(ctx context.Context, q db.Querier, meetingID string) (*models.QuorumSummary, error) {
	var threshold float64
	err := q.QueryRowContext(ctx, `SELECT quorum_threshold FROM meeting WHERE id = $1`, meetingID).Scan(&threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, models.ErrNotFound)
	}
	if err != nil {
		return nil, models.StorageError("load quorum threshold", err)
	}

	summary, err := attendance.LoadSummary(ctx, q, meetingID)
	if err != nil {
		return nil, err
	}
	return Compute(summary, threshold), nil
}
