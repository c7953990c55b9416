package lifecycle

import (
	"errors"
	"sync"
	"time"

	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/loop"
)

// DefaultShutdownTimeout bounds how long cleanup may hold up exit.
const DefaultShutdownTimeout = 5 * time.Second

// ShutdownHook releases external resources on the background loop and then
// stops the loop. It runs at most once.
type ShutdownHook struct {
	loop    *loop.Loop
	cleanup loop.Task
	timeout time.Duration
	events  *Manager

	once sync.Once
	err  error
}

// NewShutdownHook creates a hook. A nil events manager gets a private one.
func NewShutdownHook(l *loop.Loop, cleanup loop.Task, timeout time.Duration, events *Manager) *ShutdownHook {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	if events == nil {
		events = NewManager()
	}
	return &ShutdownHook{
		loop:    l,
		cleanup: cleanup,
		timeout: timeout,
		events:  events,
	}
}

// Run schedules cleanup, waits up to the timeout, then stops the loop no
// matter what. The returned error is informational; shutdown has already
// completed when Run returns.
func (h *ShutdownHook) Run() error {
	h.once.Do(func() {
		h.events.Emit(EventShutdownStarted, nil)
		defer h.events.Emit(EventShutdownComplete, nil)
		defer h.loop.Stop()

		if h.cleanup == nil {
			return
		}
		start := time.Now()
		_, err := h.loop.Schedule(h.cleanup).Result(h.timeout)
		switch {
		case errors.Is(err, loop.ErrTimeout):
			logging.Warnf("[shutdown] cleanup did not finish within %s, continuing", h.timeout)
		case err != nil:
			logging.Errorf("[shutdown] cleanup failed: %v", err)
		default:
			logging.Infof("[shutdown] cleanup finished in %s", time.Since(start).Round(time.Millisecond))
		}
		h.err = err
	})
	return h.err
}
