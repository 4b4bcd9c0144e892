// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the quorumvote API.

# Handler Types

Each handler is a thin struct over the core services:

  - MeetingHandler: meetings, questions and role assignments
  - AttendanceHandler: attendance import/export, state changes, summary, quorum
  - VotingHandler: vote casting and results
  - EventHandler: Server-Sent Events per meeting

	meetingHandler := handlers.NewMeetingHandler(registry)

Handlers do not check roles; the router wraps them with
middleware.RequireCapability and RequireAdmin/RequireRole. Errors go
through middleware.WriteError.

# Attendance

	PUT  /meetings/{id}/attendance                    → ReplaceAttendance (JSON rows)
	POST /meetings/{id}/attendance/import             → ImportAttendance (CSV body)
	GET  /meetings/{id}/attendance/export             → ExportAttendance
	POST /meetings/{id}/attendance/state              → SetAllStates
	POST /meetings/{id}/attendance/{recordID}/state   → UpdateState

Both import paths replace every row of the meeting at once. Rows are
normalized rather than rejected; only a CSV missing its holder or shares
column fails.

# Voting

	POST /meetings/{id}/votes → CastVote

The voter id is the capability's user. Shares may be sent as a JSON number
or a numeric string. Without quorum the answer is 409 and nothing is stored.

# Events

	GET /meetings/{id}/events → Stream

Each event is written as

	event: state-changed
	data: {"type":"state-changed","meeting_id":"...","timestamp":"...","data":{...}}

Idle streams get a comment line every 15 seconds. A slow client loses
events; it never holds up a writer.
*/
package handlers
