// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/quorumvote/event"
	"github.com/danielhkuo/quorumvote/meeting"
	"github.com/danielhkuo/quorumvote/middleware"
)

// keepAliveInterval is how often an idle stream gets a comment line
const keepAliveInterval = 15 * time.Second

type EventHandler struct {
	bus      *event.Bus
	registry *meeting.Registry
}

func NewEventHandler(bus *event.Bus, registry *meeting.Registry) *EventHandler {
	return &EventHandler{bus: bus, registry: registry}
}

// Stream handles GET /meetings/{id}/events as a Server-Sent Events stream.
// A client that falls behind misses events rather than slowing writers.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if _, err := h.registry.Get(r.Context(), meetingID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	rc := http.NewResponseController(w)

	subID, events := h.bus.Subscribe(meetingID)
	defer h.bus.Unsubscribe(meetingID, subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Error("event stream cannot flush", "meeting_id", meetingID, "error", err)
		return
	}

	slog.Debug("event stream opened", "meeting_id", meetingID, "subscriber", subID)

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("event stream closed", "meeting_id", meetingID, "subscriber", subID)
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				// bus shut down
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.Error("failed to encode event", "type", evt.Type, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
