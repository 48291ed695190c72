// Package broadcast fans session events out to live subscribers. It knows
// nothing about game rules; producers publish by session id and consumers
// hold channels.
package broadcast

import (
	"sync"
	"time"
)

// Event is one record on a session's stream.
type Event struct {
	Type      string    `json:"event_type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

const subscriberBuffer = 32

// Broadcaster keeps a registry of subscriber channels keyed by session id.
// Delivery is best-effort and replay-free: a subscriber sees only events
// published after it joined, and one that stops draining its channel is
// dropped so publishers never block.
type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[string]*subscriberSet
}

// subscriberSet has its own lock so publishing to one busy session never
// serializes against unrelated sessions.
type subscriberSet struct {
	mu    sync.Mutex
	chans map[chan Event]struct{}
}

func New() *Broadcaster {
	return &Broadcaster{sessions: map[string]*subscriberSet{}}
}

// Subscribe registers a new subscriber for a session. The hello event is
// the first thing on the channel, carrying current state for the late
// joiner; no history is replayed.
func (b *Broadcaster) Subscribe(sessionID string, hello Event) chan Event {
	ch := make(chan Event, subscriberBuffer)
	ch <- hello

	b.mu.Lock()
	set, ok := b.sessions[sessionID]
	if !ok {
		set = &subscriberSet{chans: map[chan Event]struct{}{}}
		b.sessions[sessionID] = set
	}
	b.mu.Unlock()

	set.mu.Lock()
	set.chans[ch] = struct{}{}
	set.mu.Unlock()
	return ch
}

// Unsubscribe removes one subscriber and closes its channel. The session's
// registry entry is dropped once the last subscriber leaves.
func (b *Broadcaster) Unsubscribe(sessionID string, ch chan Event) {
	b.mu.RLock()
	set := b.sessions[sessionID]
	b.mu.RUnlock()
	if set == nil {
		return
	}

	set.mu.Lock()
	_, ok := set.chans[ch]
	if ok {
		delete(set.chans, ch)
		close(ch)
	}
	empty := len(set.chans) == 0
	set.mu.Unlock()

	if empty {
		b.dropIfEmpty(sessionID, set)
	}
}

// Publish delivers an event to every current subscriber of the session.
// A subscriber whose buffer is full is unregistered and closed; the rest
// still receive the event.
func (b *Broadcaster) Publish(sessionID, eventType string, data any) {
	b.mu.RLock()
	set := b.sessions[sessionID]
	b.mu.RUnlock()
	if set == nil {
		return
	}

	ev := Event{Type: eventType, Data: data, Timestamp: time.Now()}

	set.mu.Lock()
	for ch := range set.chans {
		select {
		case ch <- ev:
		default:
			delete(set.chans, ch)
			close(ch)
		}
	}
	empty := len(set.chans) == 0
	set.mu.Unlock()

	if empty {
		b.dropIfEmpty(sessionID, set)
	}
}

// SubscriberCount reports how many subscribers a session currently has.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	set := b.sessions[sessionID]
	b.mu.RUnlock()
	if set == nil {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.chans)
}

func (b *Broadcaster) dropIfEmpty(sessionID string, set *subscriberSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessions[sessionID] != set {
		return
	}
	set.mu.Lock()
	empty := len(set.chans) == 0
	set.mu.Unlock()
	if empty {
		delete(b.sessions, sessionID)
	}
}
