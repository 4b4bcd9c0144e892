// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/quorumvote/attendance"
	"github.com/danielhkuo/quorumvote/auth"
	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/ledger"
	"github.com/danielhkuo/quorumvote/meeting"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
	"github.com/danielhkuo/quorumvote/serializer"
	"github.com/danielhkuo/quorumvote/testutil"
)

// testEnv wires every handler over one test database and a live bus
type testEnv struct {
	db         *sql.DB
	bus        *event.Bus
	meetings   *MeetingHandler
	attendance *AttendanceHandler
	voting     *VotingHandler
	events     *EventHandler
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	reg := prometheus.NewRegistry()

	lock, err := serializer.New(cfg.LockScope, reg)
	if err != nil {
		t.Fatalf("Failed to create serializer: %v", err)
	}
	bus := event.NewBus(cfg.EventBuffer, reg, nil)
	t.Cleanup(bus.Close)

	registry := meeting.NewRegistry(db, lock, nil)
	store := attendance.NewStore(db, lock, bus, nil)

	return &testEnv{
		db:         db,
		bus:        bus,
		meetings:   NewMeetingHandler(registry),
		attendance: NewAttendanceHandler(store, quorum.NewCalculator(db)),
		voting:     NewVotingHandler(ledger.NewLedger(db, lock, bus, reg, nil)),
		events:     NewEventHandler(bus, registry),
	}
}

// as attaches a verified capability, as RequireCapability would
func as(req *http.Request, c auth.Capability) *http.Request {
	return req.WithContext(auth.WithCapability(req.Context(), &c))
}

func voterCap(userID, meetingID string) auth.Capability {
	return auth.Capability{UserID: userID, Roles: map[string][]models.Role{meetingID: {models.RoleVoter}}}
}
