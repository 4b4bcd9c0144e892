// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/quorumvote/attendance"
	"github.com/danielhkuo/quorumvote/cliparse"
	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/handlers"
	"github.com/danielhkuo/quorumvote/ledger"
	"github.com/danielhkuo/quorumvote/meeting"
	"github.com/danielhkuo/quorumvote/middleware"
	"github.com/danielhkuo/quorumvote/models"
	"github.com/danielhkuo/quorumvote/quorum"
	"github.com/danielhkuo/quorumvote/serializer"
)

// Services are the core components shared by the HTTP layer and the CLI.
type Services struct {
	Meetings   *meeting.Registry
	Attendance *attendance.Store
	Quorum     *quorum.Calculator
	Ledger     *ledger.Ledger
	Bus        *event.Bus
	Metrics    prometheus.Gatherer
}

// NewServices wires the core components over one database connection. All
// writers share a single serializer; metrics register with reg.
func NewServices(conn *sql.DB, cfg cliparse.Config, reg *prometheus.Registry, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lock, err := serializer.New(cfg.LockScope, reg)
	if err != nil {
		return nil, err
	}
	bus := event.NewBus(cfg.EventBuffer, reg, logger)

	return &Services{
		Meetings:   meeting.NewRegistry(conn, lock, logger),
		Attendance: attendance.NewStore(conn, lock, bus, logger),
		Quorum:     quorum.NewCalculator(conn),
		Ledger:     ledger.NewLedger(conn, lock, bus, reg, logger),
		Bus:        bus,
		Metrics:    reg,
	}, nil
}

// Close stops event delivery and ends open event streams.
func (s *Services) Close() {
	s.Bus.Close()
}

func NewRouter(svc *Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	meetingHandler := handlers.NewMeetingHandler(svc.Meetings)
	attendanceHandler := handlers.NewAttendanceHandler(svc.Attendance, svc.Quorum)
	votingHandler := handlers.NewVotingHandler(svc.Ledger)
	eventHandler := handlers.NewEventHandler(svc.Bus, svc.Meetings)

	authed := middleware.RequireCapability(cfg.TokenSecret)
	anyone := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authed(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authed(middleware.RequireAdmin(h)))
	}
	role := func(h http.HandlerFunc, roles ...models.Role) http.HandlerFunc {
		return middleware.WithLogging(authed(middleware.RequireRole(roles...)(h)))
	}
	operator := models.RoleOperator
	voter := models.RoleVoter

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(svc.Metrics, promhttp.HandlerOpts{}))

	// Meetings (admin)
	mux.HandleFunc("POST /meetings", admin(meetingHandler.CreateMeeting))
	mux.HandleFunc("GET /meetings/{id}", anyone(meetingHandler.GetMeeting))
	mux.HandleFunc("PATCH /meetings/{id}", admin(meetingHandler.UpdateMeeting))
	mux.HandleFunc("DELETE /meetings/{id}", admin(meetingHandler.DeleteMeeting))
	mux.HandleFunc("PUT /meetings/{id}/questions", admin(meetingHandler.ReplaceQuestions))
	mux.HandleFunc("GET /meetings/{id}/questions", anyone(meetingHandler.GetQuestions))
	mux.HandleFunc("POST /meetings/{id}/assignments", admin(meetingHandler.AssignRoles))
	mux.HandleFunc("GET /meetings/{id}/assignments", admin(meetingHandler.GetAssignments))

	// Attendance (operators)
	mux.HandleFunc("PUT /meetings/{id}/attendance", role(attendanceHandler.ReplaceAttendance, operator))
	mux.HandleFunc("POST /meetings/{id}/attendance/import", role(attendanceHandler.ImportAttendance, operator))
	mux.HandleFunc("GET /meetings/{id}/attendance", role(attendanceHandler.ListAttendance, operator))
	mux.HandleFunc("GET /meetings/{id}/attendance/export", role(attendanceHandler.ExportAttendance, operator))
	mux.HandleFunc("POST /meetings/{id}/attendance/state", role(attendanceHandler.SetAllStates, operator))
	mux.HandleFunc("POST /meetings/{id}/attendance/{recordID}/state", role(attendanceHandler.UpdateState, operator))

	// Read models (operators and voters)
	mux.HandleFunc("GET /meetings/{id}/attendance/summary", role(attendanceHandler.GetSummary, operator, voter))
	mux.HandleFunc("GET /meetings/{id}/quorum", role(attendanceHandler.GetQuorum, operator, voter))
	mux.HandleFunc("GET /meetings/{id}/results", role(votingHandler.GetResults, operator, voter))
	mux.HandleFunc("GET /meetings/{id}/events", role(eventHandler.Stream, operator, voter))

	// Voting
	mux.HandleFunc("POST /meetings/{id}/votes", role(votingHandler.CastVote, voter))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quorumvote API v1"))
	})

	return mux
}
