// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the quorumvote API.

# Wiring

NewServices builds the core components over one connection, sharing a
single write serializer and event bus:

	svc, err := router.NewServices(db, cfg, promRegistry, logger)
	defer svc.Close()
	mux := router.NewRouter(svc, cfg)

# Endpoints

Unauthenticated:

	GET /health
	GET /metrics
	GET /

Every other route needs "Authorization: Bearer <token>".

Meetings (admin, except reads):

	POST   /meetings
	GET    /meetings/{id}               - any capability
	PATCH  /meetings/{id}
	DELETE /meetings/{id}
	PUT    /meetings/{id}/questions
	GET    /meetings/{id}/questions     - any capability
	POST   /meetings/{id}/assignments
	GET    /meetings/{id}/assignments

Attendance (attendance-operator):

	PUT  /meetings/{id}/attendance
	POST /meetings/{id}/attendance/import
	GET  /meetings/{id}/attendance
	GET  /meetings/{id}/attendance/export
	POST /meetings/{id}/attendance/state
	POST /meetings/{id}/attendance/{recordID}/state

Read models (attendance-operator or voter):

	GET /meetings/{id}/attendance/summary
	GET /meetings/{id}/quorum
	GET /meetings/{id}/results
	GET /meetings/{id}/events

Voting (voter):

	POST /meetings/{id}/votes

Admins pass every role check.
*/
package router
