// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package meeting manages meetings, their questions and role assignments.

Meetings carry a quorum threshold in percent (0-100). Deleting a meeting
removes everything attached to it.

A meeting's question set is replaced as a whole. After the first vote the set
is frozen.

Role assignments are idempotent: assigning a role a user already holds is a
no-op, not an error.
*/
package meeting
