// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain types and errors for the API.

# Domain Types

  - Meeting: name, date and quorum threshold (percent, 0-100)
  - AttendanceRecord: holder, representative, proxy, shares and state
  - Question / Option: the ballot of a meeting, kept in creation order
  - RoleAssignment: (meeting, user, role) binding
  - Vote: append-only ledger row

# Summaries

  - AttendanceSummary: count and shares per state plus totals
  - QuorumSummary: total/active shares, threshold, current percent, met flag
  - Results: per-question, per-option share tallies

# Attendance States

	StateInPerson = "IN_PERSON"
	StateVirtual  = "VIRTUAL"
	StateAbsent   = "ABSENT"

ParseState is strict and used for single edits. NormalizeState is lenient and
used for imports: unknown text becomes ABSENT. CoerceShares turns any imported
value into a non-negative integer, ParseShares rejects non-integers.

# Roles

	RoleOperator = "attendance-operator"
	RoleVoter    = "voter"

# Errors

Sentinels for errors.Is:

	ErrInvalidInput  - malformed input (ValidationError)
	ErrInvalidState  - unrecognized attendance state, wraps ErrInvalidInput
	ErrNotFound      - meeting, record, question or option missing
	ErrQuorumNotMet  - vote rejected by the quorum gate (QuorumError)
	ErrStorage       - the store failed; see StorageError
*/
package models
