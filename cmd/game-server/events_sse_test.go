package main

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/session"
)

type parsedSSE struct {
	Event string
	Data  string
}

func readEventWithTimeout(t *testing.T, rd *bufio.Reader, timeout time.Duration) parsedSSE {
	t.Helper()
	ch := make(chan parsedSSE, 1)
	errCh := make(chan error, 1)
	go func() {
		ev, err := readEvent(rd)
		if err != nil {
			errCh <- err
			return
		}
		ch <- ev
	}()
	select {
	case ev := <-ch:
		return ev
	case err := <-errCh:
		t.Fatalf("read event: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for sse event")
	}
	return parsedSSE{}
}

func readEvent(rd *bufio.Reader) (parsedSSE, error) {
	ev := parsedSSE{}
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if ev.Event == "" && ev.Data == "" {
				continue
			}
			return ev, nil
		}
		if strings.HasPrefix(line, "event: ") {
			ev.Event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStreamDeliversGame(t *testing.T) {
	mgr, router := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	snap, err := mgr.Create(
		[]game.ModelSpec{{Provider: "openai", Model: "a"}, {Provider: "openai", Model: "b"}, {Provider: "openai", Model: "c"}},
		session.Options{Secret: "pizza"},
	)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/games/" + snap.ID + "/events")
	if err != nil {
		t.Fatalf("open sse: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	rd := bufio.NewReader(resp.Body)

	hello := readEventWithTimeout(t, rd, time.Second)
	if hello.Event != "connected" {
		t.Fatalf("first event = %q, want connected", hello.Event)
	}
	var helloData struct {
		Data struct {
			SessionID string `json:"session_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(hello.Data), &helloData); err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if helloData.Data.SessionID != snap.ID {
		t.Fatalf("hello session = %q, want %q", helloData.Data.SessionID, snap.ID)
	}

	// Subscribed before Run, so the full stream must arrive in order.
	if err := mgr.Run(snap.ID); err != nil {
		t.Fatalf("run: %v", err)
	}

	sawMessage := false
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev := readEventWithTimeout(t, rd, 5*time.Second)
		switch ev.Event {
		case "message":
			sawMessage = true
		case "game_complete":
			if !sawMessage {
				t.Fatal("game_complete before any message event")
			}
			return
		}
	}
	t.Fatal("never saw game_complete")
}

func TestEventsStreamUnknownSession(t *testing.T) {
	_, router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/games/no-such-id/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
