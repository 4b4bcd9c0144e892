// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package event provides the live notification bus for attendance and voting.

# Topics

Subscribers pick a meeting id as their topic and only receive that meeting's
events. AllMeetings receives everything:

	id, ch := bus.Subscribe(meetingID)
	defer bus.Unsubscribe(meetingID, id)

	for evt := range ch {
		// evt.Type is StateChanged or VoteRegistered
	}

# Delivery

Publish never blocks the caller. Events go onto bounded queues served by a
small worker pool. Every meeting maps to one queue, so a subscriber sees a
meeting's events in the order they were published; events of different
meetings may interleave. Each subscriber gets a non-blocking send onto its
own buffered channel. A slow subscriber misses events; there is no replay and no
acknowledgement.

# Metrics

With a Prometheus registerer the bus reports delivered and dropped events
and the current subscriber count.
*/
package event
