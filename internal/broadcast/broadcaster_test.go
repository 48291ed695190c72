package broadcast

import (
	"fmt"
	"testing"
	"time"
)

func hello() Event {
	return Event{Type: "connected", Timestamp: time.Now()}
}

func recv(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscriberGetsHelloFirst(t *testing.T) {
	b := New()
	ch := b.Subscribe("s1", hello())
	if ev := recv(t, ch); ev.Type != "connected" {
		t.Fatalf("first event = %s, want connected", ev.Type)
	}
}

func TestLateSubscriberSeesNoHistory(t *testing.T) {
	b := New()
	early := b.Subscribe("s1", hello())
	b.Publish("s1", "message", 1)
	b.Publish("s1", "message", 2)
	b.Publish("s1", "message", 3)

	late := b.Subscribe("s1", hello())
	b.Publish("s1", "message", 4)

	recv(t, late) // connected
	if ev := recv(t, late); ev.Data != 4 {
		t.Fatalf("late subscriber saw %v, want only event 4", ev.Data)
	}

	recv(t, early) // connected
	for want := 1; want <= 4; want++ {
		if ev := recv(t, early); ev.Data != want {
			t.Fatalf("early subscriber saw %v, want %d", ev.Data, want)
		}
	}
}

func TestUnsubscribeDoesNotInterruptOthers(t *testing.T) {
	b := New()
	a := b.Subscribe("s1", hello())
	c := b.Subscribe("s1", hello())
	recv(t, a)
	recv(t, c)

	b.Unsubscribe("s1", a)
	if _, ok := <-a; ok {
		t.Fatal("unsubscribed channel not closed")
	}

	b.Publish("s1", "message", "still here")
	if ev := recv(t, c); ev.Data != "still here" {
		t.Fatalf("remaining subscriber saw %v", ev.Data)
	}
}

func TestSlowSubscriberIsPruned(t *testing.T) {
	b := New()
	slow := b.Subscribe("s1", hello())
	ok := b.Subscribe("s1", hello())
	recv(t, ok)

	// Fill the slow subscriber's buffer without draining it; the hello
	// already occupies one slot.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish("s1", "message", i)
	}

	if got := b.SubscriberCount("s1"); got != 1 {
		t.Fatalf("subscriber count = %d, want 1 after pruning", got)
	}
	// The pruned channel ends closed after its buffered backlog.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-slow:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("pruned channel never closed")
		}
	}
}

func TestRegistryEntryDroppedWhenEmpty(t *testing.T) {
	b := New()
	ch := b.Subscribe("ephemeral", hello())
	b.Unsubscribe("ephemeral", ch)

	b.mu.RLock()
	_, exists := b.sessions["ephemeral"]
	b.mu.RUnlock()
	if exists {
		t.Fatal("empty session entry not dropped")
	}
}

func TestPublishToUnknownSessionIsNoop(t *testing.T) {
	b := New()
	b.Publish("nope", "message", nil)
}

func TestIndependentSessions(t *testing.T) {
	b := New()
	s1 := b.Subscribe("s1", hello())
	s2 := b.Subscribe("s2", hello())
	recv(t, s1)
	recv(t, s2)

	for i := 0; i < 3; i++ {
		b.Publish("s1", "message", fmt.Sprintf("s1-%d", i))
	}
	b.Publish("s2", "message", "s2-only")

	if ev := recv(t, s2); ev.Data != "s2-only" {
		t.Fatalf("s2 saw %v", ev.Data)
	}
	if ev := recv(t, s1); ev.Data != "s1-0" {
		t.Fatalf("s1 saw %v", ev.Data)
	}
}
