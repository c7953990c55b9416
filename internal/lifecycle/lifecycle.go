// Package lifecycle provides event hooks for surfer startup, shutdown and
// agent runs.
package lifecycle

import (
	"sync"
	"time"

	"github.com/neboloop/surfer/internal/logging"
)

// Event types for lifecycle hooks
type Event string

const (
	// Server lifecycle events
	EventServerStarted    Event = "server_started"
	EventShutdownStarted  Event = "shutdown_started"
	EventShutdownComplete Event = "shutdown_complete"

	// Agent run events
	EventAgentRunStart     Event = "agent_run_start"
	EventAgentRunComplete  Event = "agent_run_complete"
	EventAgentRunError     Event = "agent_run_error"
	EventAgentRunCancelled Event = "agent_run_cancelled"
)

// Handler is a function that handles a lifecycle event
type Handler func(event Event, data any)

// Manager manages lifecycle event subscriptions and dispatching
type Manager struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{handlers: make(map[Event][]Handler)}
}

// On registers a handler for a lifecycle event
func (m *Manager) On(event Event, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], handler)
}

// Emit dispatches an event to all registered handlers
func (m *Manager) Emit(event Event, data any) {
	m.mu.RLock()
	handlers := m.handlers[event]
	m.mu.RUnlock()

	logging.Debugf("[lifecycle] Emitting event: %s", event)
	for _, h := range handlers {
		// Run handlers synchronously (they can spawn goroutines if needed)
		h(event, data)
	}
}

// AgentRunEventData contains data for agent run events
type AgentRunEventData struct {
	JobID      string
	Task       string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     string
	Error      error
}

// OnServerStarted registers a handler that receives the listen address.
func (m *Manager) OnServerStarted(handler func(addr string)) {
	m.On(EventServerStarted, func(e Event, data any) {
		addr, _ := data.(string)
		handler(addr)
	})
}

// OnShutdown registers a handler for both shutdown events.
func (m *Manager) OnShutdown(handler func(event Event)) {
	for _, ev := range []Event{EventShutdownStarted, EventShutdownComplete} {
		m.On(ev, func(e Event, data any) {
			handler(e)
		})
	}
}

// OnAgentRun registers one handler for every agent run event.
func (m *Manager) OnAgentRun(handler func(event Event, data AgentRunEventData)) {
	for _, ev := range []Event{EventAgentRunStart, EventAgentRunComplete, EventAgentRunError, EventAgentRunCancelled} {
		m.On(ev, func(e Event, data any) {
			if d, ok := data.(AgentRunEventData); ok {
				handler(e, d)
			}
		})
	}
}
