// Package loop runs asynchronous work on a single background dispatcher so
// that synchronous callers (HTTP handlers, CLI commands) can submit tasks
// and poll their outcome without blocking.
package loop

import (
	"context"
	"sync"

	"github.com/neboloop/surfer/internal/logging"
)

// Task is a unit of asynchronous work. It must honour ctx for cancellation.
type Task func(ctx context.Context) (any, error)

// Loop owns a FIFO of scheduled tasks and the goroutine that dispatches them.
type Loop struct {
	name string

	mu      sync.Mutex
	queue   []*Handle
	started bool
	stopped bool

	wake   chan struct{}
	quit   chan struct{}
	exited chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithName sets the name used in log lines.
func WithName(name string) Option {
	return func(l *Loop) { l.name = name }
}

// New creates a loop. Call Start before scheduling work.
func New(opts ...Option) *Loop {
	l := &Loop{
		name:   "loop",
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the dispatcher goroutine. Calling it again is a no-op.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.mu.Lock()
		l.started = true
		l.mu.Unlock()
		go l.dispatch()
		logging.Debugf("[%s] dispatcher started", l.name)
	})
}

// Schedule enqueues task and returns immediately. It is safe to call from
// any goroutine.
func (l *Loop) Schedule(task Task) *Handle {
	l.mu.Lock()
	switch {
	case l.stopped:
		l.mu.Unlock()
		return failedHandle(ErrStopped)
	case !l.started:
		l.mu.Unlock()
		return failedHandle(ErrNotStarted)
	}
	h := newHandle(task)
	l.queue = append(l.queue, h)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return h
}

// Pending returns the number of tasks waiting to be dispatched.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stop halts the dispatcher. Running tasks are left alone; tasks still in
// the queue are resolved with ErrStopped. Stop waits for the dispatcher to
// exit and is idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		started := l.started
		queued := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, h := range queued {
			h.complete(nil, ErrStopped)
		}
		if started {
			close(l.quit)
			<-l.exited
		}
		logging.Debugf("[%s] dispatcher stopped (%d queued tasks dropped)", l.name, len(queued))
	})
}

func (l *Loop) dispatch() {
	defer close(l.exited)
	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if len(l.queue) == 0 || l.stopped {
				l.mu.Unlock()
				break
			}
			h := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			if h.IsDone() {
				// cancelled while queued
				continue
			}
			go h.run()
		}
	}
}
