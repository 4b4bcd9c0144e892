// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/serializer"
	"github.com/danielhkuo/quorumvote/testutil"
)

// recordingPublisher captures published events synchronously.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(evt event.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return true
}

func (p *recordingPublisher) Events() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

func newTestStore(t *testing.T) (*Store, *recordingPublisher, string) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	lock, err := serializer.New(serializer.ScopeMeeting, nil)
	require.NoError(t, err)
	pub := &recordingPublisher{}
	meetingID := testutil.CreateTestMeeting(t, conn, 50)
	return NewStore(conn, lock, pub, nil), pub, meetingID
}

func TestReplaceAllStoresExactlyTheImportedRows(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{
		{Holder: "Old", Shares: 999, State: models.StateInPerson},
	})
	require.NoError(t, err)

	rows := []models.AttendanceRow{
		{Holder: "Ana", Representative: "Luis", Shares: "300", Attendance: "presencial"},
		{Holder: "Bea", Proxy: "Carla", Shares: 200.0, Attendance: " virtual "},
		{Holder: "Ceci", Shares: "lots", Attendance: "maybe"},
		{Holder: "Dan", Shares: -40, Attendance: ""},
	}
	stored, err := store.ReplaceAll(ctx, meetingID, FromRows(rows))
	require.NoError(t, err)
	require.Len(t, stored, 4)

	list, err := store.List(ctx, meetingID)
	require.NoError(t, err)
	require.Len(t, list, 4)

	want := []struct {
		holder string
		shares int64
		state  models.AttendanceState
	}{
		{"Ana", 300, models.StateInPerson},
		{"Bea", 200, models.StateVirtual},
		{"Ceci", 0, models.StateAbsent},
		{"Dan", 0, models.StateAbsent},
	}
	for i, w := range want {
		assert.Equal(t, w.holder, list[i].Holder)
		assert.Equal(t, w.shares, list[i].Shares)
		assert.Equal(t, w.state, list[i].State)
		assert.True(t, list[i].State.Valid())
		assert.Equal(t, stored[i].ID, list[i].ID)
	}
	assert.Equal(t, "Luis", list[0].Representative)
	assert.Equal(t, "Carla", list[1].Proxy)

	assert.Empty(t, pub.Events(), "bulk import must not publish events")
}

func TestReplaceAllNormalizesRecordsPassedDirectly(t *testing.T) {
	store, _, meetingID := newTestStore(t)

	stored, err := store.ReplaceAll(context.Background(), meetingID, []models.AttendanceRecord{
		{Holder: "X", Shares: -5, State: "late"},
		{Holder: "Y", Shares: 5, State: "in_person"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored[0].Shares)
	assert.Equal(t, models.StateAbsent, stored[0].State)
	assert.Equal(t, models.StateInPerson, stored[1].State)
}

func TestReplaceAllUnknownMeeting(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.ReplaceAll(context.Background(), uuid.NewString(), nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReplaceAllSurvivesCanceledContext(t *testing.T) {
	store, _, meetingID := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{{Holder: "A", Shares: 1}})
	require.NoError(t, err)

	list, err := store.List(context.Background(), meetingID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateState(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	stored, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{
		{Holder: "Ana", Shares: 100, State: models.StateAbsent},
	})
	require.NoError(t, err)
	recordID := stored[0].ID

	rec, err := store.UpdateState(ctx, meetingID, recordID, "virtual")
	require.NoError(t, err)
	assert.Equal(t, models.StateVirtual, rec.State)
	assert.Equal(t, "Ana", rec.Holder)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.StateChanged, events[0].Type)
	assert.Equal(t, meetingID, events[0].MeetingID)
	assert.Equal(t, event.StateChangedData{RecordID: recordID, NewState: models.StateVirtual}, events[0].Data)
}

func TestUpdateStateRejectsUnknownState(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	stored, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{{Holder: "Ana", Shares: 1}})
	require.NoError(t, err)

	for _, bad := range []string{"", "LATE", "PRESENCIAL"} {
		_, err := store.UpdateState(ctx, meetingID, stored[0].ID, bad)
		assert.ErrorIs(t, err, models.ErrInvalidState, "state %q", bad)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
	assert.Empty(t, pub.Events())
}

func TestUpdateStateNotFoundPublishesNothing(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpdateState(ctx, meetingID, uuid.NewString(), "VIRTUAL")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// a record of another meeting is not reachable through this one
	other := testutil.CreateTestMeeting(t, store.db, 0)
	stored, err := store.ReplaceAll(ctx, other, []models.AttendanceRecord{{Holder: "Z", Shares: 1}})
	require.NoError(t, err)
	_, err = store.UpdateState(ctx, meetingID, stored[0].ID, "VIRTUAL")
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Empty(t, pub.Events())
}

func TestSetAllStates(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	stored, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{
		{Holder: "A", Shares: 300, State: models.StateAbsent},
		{Holder: "B", Shares: 200, State: models.StateVirtual},
		{Holder: "C", Shares: 500, State: models.StateInPerson},
	})
	require.NoError(t, err)

	updated, err := store.SetAllStates(ctx, meetingID, " presencial ")
	assert.ErrorIs(t, err, models.ErrInvalidState, "aliases are an import feature only")
	assert.Nil(t, updated)

	updated, err = store.SetAllStates(ctx, meetingID, "in_person")
	require.NoError(t, err)
	require.Len(t, updated, 3)

	summary, err := store.Summary(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTotals{Count: 3, Shares: 1000}, summary.PerState[models.StateInPerson])

	events := pub.Events()
	require.Len(t, events, 3)
	for i, evt := range events {
		assert.Equal(t, event.StateChanged, evt.Type)
		assert.Equal(t, meetingID, evt.MeetingID)
		assert.Equal(t, event.StateChangedData{RecordID: stored[i].ID, NewState: models.StateInPerson}, evt.Data)
	}
}

func TestSetAllStatesUnknownMeeting(t *testing.T) {
	store, pub, _ := newTestStore(t)

	_, err := store.SetAllStates(context.Background(), uuid.NewString(), "ABSENT")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, pub.Events())
}

func TestSetAllStatesEmptyMeeting(t *testing.T) {
	store, pub, meetingID := newTestStore(t)

	updated, err := store.SetAllStates(context.Background(), meetingID, "VIRTUAL")
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Empty(t, pub.Events())
}

func TestStateEventsFollowCommitOrder(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	stored, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{{Holder: "A", Shares: 10}})
	require.NoError(t, err)
	recordID := stored[0].ID

	states := []string{"IN_PERSON", "VIRTUAL", "ABSENT"}
	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%10 == 0 {
				_, err := store.SetAllStates(ctx, meetingID, states[i%3])
				assert.NoError(t, err)
				return
			}
			_, err := store.UpdateState(ctx, meetingID, recordID, states[i%3])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.List(ctx, meetingID)
	require.NoError(t, err)
	events := pub.Events()
	require.Len(t, events, 60)

	// the last event published is the last state committed
	last := events[len(events)-1].Data.(event.StateChangedData)
	assert.Equal(t, list[0].State, last.NewState)
}

func TestSummary(t *testing.T) {
	store, _, meetingID := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Summary(ctx, meetingID)
	require.NoError(t, err)
	assert.Len(t, empty.PerState, 3)
	assert.Equal(t, models.StateTotals{}, empty.Totals)

	_, err = store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{
		{Holder: "A", Shares: 300, State: models.StateInPerson},
		{Holder: "B", Shares: 200, State: models.StateVirtual},
		{Holder: "C", Shares: 250, State: models.StateAbsent},
		{Holder: "D", Shares: 250, State: models.StateAbsent},
	})
	require.NoError(t, err)

	summary, err := store.Summary(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTotals{Count: 1, Shares: 300}, summary.PerState[models.StateInPerson])
	assert.Equal(t, models.StateTotals{Count: 1, Shares: 200}, summary.PerState[models.StateVirtual])
	assert.Equal(t, models.StateTotals{Count: 2, Shares: 500}, summary.PerState[models.StateAbsent])
	assert.Equal(t, models.StateTotals{Count: 4, Shares: 1000}, summary.Totals)

	var sum int64
	for _, st := range summary.PerState {
		sum += st.Shares
	}
	assert.Equal(t, summary.Totals.Shares, sum)

	_, err = store.Summary(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentUpdateStateOnDifferentRecords(t *testing.T) {
	store, pub, meetingID := newTestStore(t)
	ctx := context.Background()

	stored, err := store.ReplaceAll(ctx, meetingID, []models.AttendanceRecord{
		{Holder: "A", Shares: 10},
		{Holder: "B", Shares: 20},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, state := range []string{"IN_PERSON", "VIRTUAL"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.UpdateState(ctx, meetingID, stored[i].ID, state)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	list, err := store.List(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, models.StateInPerson, list[0].State)
	assert.Equal(t, models.StateVirtual, list[1].State)
	assert.Len(t, pub.Events(), 2)
}

func TestConcurrentReplaceAllNeverInterleaves(t *testing.T) {
	store, _, meetingID := newTestStore(t)
	ctx := context.Background()

	const writers = 6
	const rowsPerSet = 25

	sets := make([][]models.AttendanceRecord, writers)
	for w := range writers {
		for r := range rowsPerSet {
			sets[w] = append(sets[w], models.AttendanceRecord{
				Holder: fmt.Sprintf("set%d-row%d", w, r),
				Shares: int64(w + 1),
				State:  models.StateInPerson,
			})
		}
	}

	stop := make(chan struct{})
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	var torn []string
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			list, err := store.List(ctx, meetingID)
			if err != nil {
				continue
			}
			if len(list) != 0 && len(list) != rowsPerSet {
				torn = append(torn, fmt.Sprintf("saw %d rows", len(list)))
				continue
			}
			for _, rec := range list {
				if rec.Shares != list[0].Shares {
					torn = append(torn, "mixed rows from two imports")
					break
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ReplaceAll(ctx, meetingID, sets[w])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(stop)
	readerWg.Wait()

	assert.Empty(t, torn)

	summary, err := store.Summary(ctx, meetingID)
	require.NoError(t, err)
	assert.Equal(t, rowsPerSet, summary.Totals.Count)
}
