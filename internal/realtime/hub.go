// Package realtime pushes agent status changes to websocket clients.
package realtime

import (
	"sync"

	"github.com/neboloop/surfer/internal/lifecycle"
)

// Hub fans out change notifications to subscribers. A notification carries
// no payload; subscribers re-read the state they care about.
type Hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives a value after each Notify, with
// bursts coalesced, and a function that unsubscribes.
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Notify wakes every subscriber without blocking.
func (h *Hub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Attach notifies subscribers on every agent run event.
func (h *Hub) Attach(events *lifecycle.Manager) {
	events.OnAgentRun(func(lifecycle.Event, lifecycle.AgentRunEventData) {
		h.Notify()
	})
}
