// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package quorum

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/testutil"
)

func summaryOf(inPerson, virtual, absent int64) *models.AttendanceSummary {
	return &models.AttendanceSummary{
		MeetingID: "m1",
		PerState: map[models.AttendanceState]models.StateTotals{
			models.StateInPerson: {Count: 1, Shares: inPerson},
			models.StateVirtual:  {Count: 1, Shares: virtual},
			models.StateAbsent:   {Count: 1, Shares: absent},
		},
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		summary   *models.AttendanceSummary
		threshold float64
		total     int64
		active    int64
		percent   float64
		met       bool
	}{
		{"half present above threshold", summaryOf(300, 200, 500), 40, 1000, 500, 50, true},
		{"exactly at threshold", summaryOf(300, 200, 500), 50, 1000, 500, 50, true},
		{"below threshold", summaryOf(300, 200, 500), 50.01, 1000, 500, 50, false},
		{"everyone absent", summaryOf(0, 0, 10), 0, 10, 0, 0, true},
		{"no shares at threshold zero", summaryOf(0, 0, 0), 0, 0, 0, 0, false},
		{"no shares at threshold 50", summaryOf(0, 0, 0), 50, 0, 0, 0, false},
		{"empty summary", &models.AttendanceSummary{}, 0, 0, 0, 0, false},
		{"all virtual", summaryOf(0, 70, 0), 100, 70, 70, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.summary, tt.threshold)
			assert.Equal(t, tt.total, got.TotalShares)
			assert.Equal(t, tt.active, got.ActiveShares)
			assert.InDelta(t, tt.percent, got.CurrentPercent, 1e-9)
			assert.Equal(t, tt.met, got.Met)
			assert.Equal(t, tt.threshold, got.ThresholdPercent)
			assert.Len(t, got.PerState, 3)
		})
	}
}

func TestComputePerStateBreakdown(t *testing.T) {
	got := Compute(summaryOf(300, 200, 500), 40)

	assert.Equal(t, models.StateQuorum{Shares: 300, PctOfTotal: 30, PctOfActive: 60}, got.PerState[models.StateInPerson])
	assert.Equal(t, models.StateQuorum{Shares: 200, PctOfTotal: 20, PctOfActive: 40}, got.PerState[models.StateVirtual])
	assert.Equal(t, models.StateQuorum{Shares: 500, PctOfTotal: 50, PctOfActive: 100}, got.PerState[models.StateAbsent])

	// zero denominators give zero percentages
	none := Compute(summaryOf(0, 0, 0), 0)
	for _, st := range none.PerState {
		assert.Zero(t, st.PctOfTotal)
		assert.Zero(t, st.PctOfActive)
	}
	absentOnly := Compute(summaryOf(0, 0, 10), 0)
	assert.Equal(t, float64(100), absentOnly.PerState[models.StateAbsent].PctOfTotal)
	assert.Zero(t, absentOnly.PerState[models.StateAbsent].PctOfActive)
}

func TestCalculatorComputeFromStore(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	meetingID := testutil.CreateTestMeeting(t, conn, 40)
	testutil.AddTestAttendance(t, conn, meetingID,
		testutil.Row(300, models.StateInPerson),
		testutil.Row(200, models.StateVirtual),
		testutil.Row(500, models.StateAbsent),
	)

	calc := NewCalculator(conn)
	ctx := context.Background()

	first, err := calc.Compute(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, meetingID, first.MeetingID)
	assert.Equal(t, int64(1000), first.TotalShares)
	assert.Equal(t, int64(500), first.ActiveShares)
	assert.Equal(t, float64(50), first.CurrentPercent)
	assert.Equal(t, float64(40), first.ThresholdPercent)
	assert.True(t, first.Met)

	// idempotent with no intervening writes
	second, err := calc.Compute(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculatorZeroShares(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	meetingID := testutil.CreateTestMeeting(t, conn, 0)

	got, err := NewCalculator(conn).Compute(context.Background(), meetingID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalShares)
	assert.Zero(t, got.CurrentPercent)
	assert.False(t, got.Met)
}

func TestCalculatorUnknownMeeting(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	_, err := NewCalculator(conn).Compute(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
