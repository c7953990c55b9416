package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a scheduled task.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

var (
	// ErrTimeout is returned by Result when the task is not done in time.
	ErrTimeout = errors.New("loop: timed out waiting for result")
	// ErrCancelled is returned by Result for a cancelled task.
	ErrCancelled = errors.New("loop: task cancelled")
	// ErrNotStarted marks tasks scheduled before Start.
	ErrNotStarted = errors.New("loop: not started")
	// ErrStopped marks tasks scheduled after Stop or still queued when it ran.
	ErrStopped = errors.New("loop: stopped")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("loop: task panicked: %v", e.Value)
}

// Handle is the caller's view of a scheduled task and its eventual outcome.
// All methods are safe for concurrent use.
type Handle struct {
	id   string
	task Task

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	value any
	err   error
	done  chan struct{}
}

func newHandle(task Task) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		id:     uuid.NewString(),
		task:   task,
		ctx:    ctx,
		cancel: cancel,
		state:  StatePending,
		done:   make(chan struct{}),
	}
}

// failedHandle returns a handle that is already resolved with err.
func failedHandle(err error) *Handle {
	h := newHandle(nil)
	h.complete(nil, err)
	return h
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Done is closed once the handle leaves the pending state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// IsDone reports whether the task has completed, failed or been cancelled.
func (h *Handle) IsDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Result blocks for up to timeout and returns the task's value or error.
// A timeout <= 0 waits until the handle resolves.
func (h *Handle) Result(timeout time.Duration) (any, error) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-h.done:
		case <-timer.C:
			return nil, ErrTimeout
		}
	} else {
		<-h.done
	}
	return h.outcome()
}

// Await is Result bounded by a context instead of a duration.
func (h *Handle) Await(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.outcome()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests cooperative cancellation. It returns false when the task
// has already finished; otherwise the handle is cancelled immediately and
// the task's context is cancelled. Work that ignores its context keeps
// running and its outcome is dropped.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	if h.state != StatePending {
		h.mu.Unlock()
		return false
	}
	h.state = StateCancelled
	h.err = ErrCancelled
	close(h.done)
	h.mu.Unlock()

	h.cancel()
	return true
}

func (h *Handle) outcome() (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.err
}

// complete resolves a pending handle. Late results after Cancel are ignored.
func (h *Handle) complete(value any, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StatePending {
		return false
	}
	if err != nil {
		h.state = StateFailed
		h.err = err
	} else {
		h.state = StateSucceeded
		h.value = value
	}
	close(h.done)
	h.cancel()
	return true
}

// run executes the task, converting panics into *PanicError.
func (h *Handle) run() {
	var (
		value any
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r}
			}
		}()
		value, err = h.task(h.ctx)
	}()
	h.complete(value, err)
}
