// Package jobs holds the single web-agent job slot: it starts the job on the
// background loop, reports its status without blocking and cancels it.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/loop"
)

var (
	// ErrAlreadyRunning is returned by Start while a job is in flight.
	ErrAlreadyRunning = errors.New("an agent task is already running")
	// ErrNothingRunning is returned by Cancel when the slot is not running.
	ErrNothingRunning = errors.New("no agent was running")
)

// State is the state of the job slot.
type State string

const (
	StateEmpty     State = "empty"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Runner is one long-running unit of agent work.
type Runner interface {
	Run(ctx context.Context) (string, error)
}

// Factory builds a Runner for a task description.
type Factory func(task string) (Runner, error)

// Scheduler submits work to the background loop. *loop.Loop implements it.
type Scheduler interface {
	Schedule(task loop.Task) *loop.Handle
}

// Job is the accepted job occupying the slot.
type Job struct {
	ID        string
	Task      string
	StartedAt time.Time

	handle *loop.Handle
}

// Status is a snapshot of the slot.
type Status struct {
	State      State
	JobID      string
	Task       string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     any
	Err        error
}

// Running reports whether the slot holds an in-flight job.
func (s Status) Running() bool { return s.State == StateRunning }

// Terminal reports whether the slot holds a finished job's outcome.
func (s Status) Terminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// Registry enforces at most one in-flight job.
type Registry struct {
	sched   Scheduler
	factory Factory
	events  *lifecycle.Manager

	mu     sync.Mutex
	job    *Job
	status Status
}

// Option configures a Registry.
type Option func(*Registry)

// WithEvents sets the lifecycle manager that receives agent run events.
func WithEvents(m *lifecycle.Manager) Option {
	return func(r *Registry) { r.events = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(sched Scheduler, factory Factory, opts ...Option) *Registry {
	r := &Registry{
		sched:   sched,
		factory: factory,
		status:  Status{State: StateEmpty},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.events == nil {
		r.events = lifecycle.NewManager()
	}
	return r
}

// Start schedules a new job for task. It fails with ErrAlreadyRunning,
// leaving the current job untouched, while another job is in flight.
func (r *Registry) Start(task string) (*Job, error) {
	job, err := r.start(task)
	if err != nil {
		return nil, err
	}
	logging.Infof("[jobs] started %s: %q", job.ID, task)

	r.events.Emit(lifecycle.EventAgentRunStart, lifecycle.AgentRunEventData{
		JobID:     job.ID,
		Task:      task,
		StartedAt: job.StartedAt,
	})
	go r.watch(job)
	return job, nil
}

func (r *Registry) start(task string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	if r.status.State == StateRunning {
		return nil, ErrAlreadyRunning
	}

	runner, err := r.factory(task)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	job := &Job{
		ID:        uuid.NewString(),
		Task:      task,
		StartedAt: time.Now(),
	}
	job.handle = r.sched.Schedule(func(ctx context.Context) (any, error) {
		return runner.Run(ctx)
	})

	r.job = job
	r.status = Status{
		State:     StateRunning,
		JobID:     job.ID,
		Task:      task,
		StartedAt: job.StartedAt,
	}
	return job, nil
}

// Status polls the current job without blocking. Once a completion has been
// observed the terminal outcome is cached until the next Start.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	return r.status
}

// Cancel requests cancellation of the running job and empties the slot
// whether or not the underlying work honours it.
func (r *Registry) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshLocked()
	if r.status.State != StateRunning {
		return ErrNothingRunning
	}

	accepted := r.job.handle.Cancel()
	logging.Infof("[jobs] cancelled %s (accepted=%v)", r.job.ID, accepted)
	r.job = nil
	r.status = Status{State: StateEmpty}
	return nil
}

// refreshLocked moves a running slot to its terminal state once the handle
// has resolved.
func (r *Registry) refreshLocked() {
	if r.status.State != StateRunning || r.job == nil {
		return
	}
	h := r.job.handle
	if !h.IsDone() {
		return
	}
	value, err := h.Result(0)
	r.status.FinishedAt = time.Now()
	if err != nil {
		r.status.State = StateFailed
		r.status.Err = err
	} else {
		r.status.State = StateCompleted
		r.status.Result = value
	}
}

// watch emits the terminal lifecycle event for job once its handle resolves.
func (r *Registry) watch(job *Job) {
	<-job.handle.Done()
	value, err := job.handle.Result(0)

	data := lifecycle.AgentRunEventData{
		JobID:      job.ID,
		Task:       job.Task,
		StartedAt:  job.StartedAt,
		FinishedAt: time.Now(),
		Error:      err,
	}
	if s, ok := value.(string); ok {
		data.Result = s
	}

	switch {
	case errors.Is(err, loop.ErrCancelled):
		r.events.Emit(lifecycle.EventAgentRunCancelled, data)
	case err != nil:
		logging.Warnf("[jobs] %s failed: %v", job.ID, err)
		r.events.Emit(lifecycle.EventAgentRunError, data)
	default:
		logging.Infof("[jobs] %s completed in %s", job.ID, data.FinishedAt.Sub(job.StartedAt).Round(time.Millisecond))
		r.events.Emit(lifecycle.EventAgentRunComplete, data)
	}
}
