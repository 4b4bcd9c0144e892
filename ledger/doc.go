// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records votes and tallies them.

# Casting

CastVote re-evaluates quorum inside the same transaction that appends the
vote, while holding the meeting's write lock. Rejections:

  - ErrInvalidInput: malformed ids, missing voter, negative shares
  - ErrNotFound: the option is not part of the question and meeting
  - ErrQuorumNotMet: quorum is below threshold, or nobody holds shares

Votes are never updated or deleted. A vote-registered event is published
after commit.

# Tally

Results sums vote shares per option. Percentages use the active shares at the
time of the call, so they move with attendance.

	results, err := l.Results(ctx, meetingID)
	for _, q := range results.Questions {
		for _, o := range q.Options {
			fmt.Printf("%s: %d (%.2f%%)\n", o.Text, o.Shares, o.Percentage)
		}
	}
*/
package ledger
