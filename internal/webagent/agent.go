// Package webagent runs a browsing task to completion: it shows the model
// the current page, executes the action the model picks and repeats until
// the model answers or the step budget runs out.
package webagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/neboloop/surfer/internal/ai"
	"github.com/neboloop/surfer/internal/browser"
	"github.com/neboloop/surfer/internal/logging"
)

// DefaultMaxSteps is the step budget when none is configured.
const DefaultMaxSteps = 25

// maxInvalidReplies is how many unusable model replies in a row end the run.
const maxInvalidReplies = 3

// maxExtractLength caps extracted page text kept in the step log.
const maxExtractLength = 2000

var (
	// ErrMaxSteps is returned when the model has not answered within the budget.
	ErrMaxSteps = errors.New("step budget exhausted")
	// ErrEmptyTask is returned by New for a blank task.
	ErrEmptyTask = errors.New("task is empty")
)

// Browser is the subset of *browser.Session the agent drives.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Snapshot(ctx context.Context) (*browser.PageState, error)
	ClickRef(ctx context.Context, ref int) error
	TypeRef(ctx context.Context, ref int, text string, submit bool) error
	Scroll(ctx context.Context, direction string) error
	Text(ctx context.Context) (string, error)
}

// Step is one executed action and what came of it.
type Step struct {
	Number  int
	Action  Action
	Outcome string
}

// Agent performs one task. It is not reusable across tasks.
type Agent struct {
	task        string
	provider    ai.Provider
	browser     Browser
	maxSteps    int
	temperature float64

	mu    sync.Mutex
	steps []Step
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps sets the step budget.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithTemperature sets the sampling temperature for action selection.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// New creates an agent for task.
func New(task string, provider ai.Provider, b Browser, opts ...Option) (*Agent, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, ErrEmptyTask
	}
	a := &Agent{
		task:     task,
		provider: provider,
		browser:  b,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Task returns the task description.
func (a *Agent) Task() string { return a.task }

// Steps returns the actions executed so far.
func (a *Agent) Steps() []Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Step(nil), a.steps...)
}

// Run drives the browser until the model answers. It returns the answer, or
// an error when the context ends, the model fails, or the budget runs out.
func (a *Agent) Run(ctx context.Context) (string, error) {
	logging.Infof("[webagent] task %q (max %d steps)", a.task, a.maxSteps)

	invalid := 0
	for n := 1; n <= a.maxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page, pageErr := a.browser.Snapshot(ctx)
		if pageErr != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logging.Warnf("[webagent] step %d snapshot: %v", n, pageErr)
		}

		reply, err := ai.Collect(ctx, a.provider, &ai.ChatRequest{
			System:      systemPrompt,
			Messages:    []ai.Message{{Role: ai.RoleUser, Content: buildPrompt(a.task, a.Steps(), page, pageErr)}},
			Temperature: a.temperature,
		})
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("step %d: %w", n, err)
		}

		action, err := parseAction(reply)
		if err != nil {
			invalid++
			logging.Warnf("[webagent] step %d unusable reply (%d/%d): %v", n, invalid, maxInvalidReplies, err)
			if invalid >= maxInvalidReplies {
				return "", fmt.Errorf("model gave %d unusable replies: %w", invalid, err)
			}
			a.record(Step{Number: n, Action: Action{Action: "invalid"}, Outcome: "rejected: " + err.Error()})
			continue
		}
		invalid = 0

		if action.Action == ActionDone {
			answer := strings.TrimSpace(action.Answer)
			if answer == "" {
				answer = "Task completed."
			}
			a.record(Step{Number: n, Action: action, Outcome: "finished"})
			logging.Infof("[webagent] done after %d steps", n)
			return answer, nil
		}

		outcome, err := a.execute(ctx, action)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			outcome = "failed: " + err.Error()
		}
		logging.Debugf("[webagent] step %d %s -> %s", n, action, outcome)
		a.record(Step{Number: n, Action: action, Outcome: outcome})
	}
	return "", fmt.Errorf("%w after %d steps", ErrMaxSteps, a.maxSteps)
}

func (a *Agent) execute(ctx context.Context, action Action) (string, error) {
	switch action.Action {
	case ActionNavigate:
		if err := a.browser.Navigate(ctx, action.URL); err != nil {
			return "", err
		}
		return "ok", nil
	case ActionClick:
		if err := a.browser.ClickRef(ctx, action.Ref); err != nil {
			return "", err
		}
		return "ok", nil
	case ActionType:
		if err := a.browser.TypeRef(ctx, action.Ref, action.Text, action.Submit); err != nil {
			return "", err
		}
		return "ok", nil
	case ActionScroll:
		if err := a.browser.Scroll(ctx, action.Direction); err != nil {
			return "", err
		}
		return "ok", nil
	case ActionExtract:
		text, err := a.browser.Text(ctx)
		if err != nil {
			return "", err
		}
		if len(text) > maxExtractLength {
			text = strings.ToValidUTF8(text[:maxExtractLength], "") + "..."
		}
		return fmt.Sprintf("page text: %q", text), nil
	default:
		return "", fmt.Errorf("unknown action %q", action.Action)
	}
}

func (a *Agent) record(s Step) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.steps = append(a.steps, s)
}
