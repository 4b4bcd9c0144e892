// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package attendance stores the shareholder attendance of each meeting.

# Import

An import replaces the meeting's whole attendance set. Rows go through FromRows
first, which never rejects: unknown attendance values become ABSENT and shares
that do not parse become 0.

	rows, err := attendance.ReadCSV(file)
	stored, err := store.ReplaceAll(ctx, meetingID, attendance.FromRows(rows))

ReadCSV accepts the shareholder registry headings (ACCIONISTA, REPRESENTANTE
LEGAL, APODERADO, No. ACCIONES, ASISTENCIA) as well as English ones.

# State Changes

UpdateState is strict. The new state must be IN_PERSON, VIRTUAL or ABSENT,
and the record must belong to the meeting. Successful changes are published
as state-changed events; bulk imports are not.

SetAllStates moves every record of a meeting to one state at once and
publishes one state-changed event per record, in import order.

# Concurrency

ReplaceAll, UpdateState and SetAllStates hold the meeting's write lock from before the
first statement until their events are published, so events follow commit
order. Summary and List take no lock.
*/
package attendance
