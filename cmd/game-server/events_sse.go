package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/broadcast"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/session"
)

var ssePingInterval = 15 * time.Second

// eventsHandler streams a session's events live. There is no replay:
// subscribers joining mid-game see a connected greeting with the current
// status and then everything from that point on.
func eventsHandler(mgr *session.Manager, bus *broadcast.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "game_id")
		snap, err := mgr.Get(sessionID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				writeHTTPError(w, http.StatusNotFound, "session_not_found")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		hello := broadcast.Event{
			Type:      "connected",
			Timestamp: time.Now(),
			Data: map[string]any{
				"session_id": sessionID,
				"status":     snap.Status,
				"phase":      snap.Phase,
			},
		}
		ch := bus.Subscribe(sessionID, hello)
		defer bus.Unsubscribe(sessionID, ch)

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := broadcast.Event{
					Type:      "ping",
					Timestamp: time.Now(),
					Data:      map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := writeSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev broadcast.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
