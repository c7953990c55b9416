package svc

import (
	"context"
	"errors"
	"fmt"

	"github.com/neboloop/surfer/internal/ai"
	"github.com/neboloop/surfer/internal/browser"
	"github.com/neboloop/surfer/internal/chat"
	"github.com/neboloop/surfer/internal/config"
	"github.com/neboloop/surfer/internal/db"
	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/loop"
	"github.com/neboloop/surfer/internal/notify"
	"github.com/neboloop/surfer/internal/realtime"
	"github.com/neboloop/surfer/internal/webagent"
)

// ChatRunner answers one chat message. *chat.Chain implements it.
type ChatRunner interface {
	Run(ctx context.Context, message string) (string, error)
}

// ServiceContext holds the process-wide singletons every handler shares.
type ServiceContext struct {
	Config  config.Config
	Version string

	Loop     *loop.Loop
	Events   *lifecycle.Manager
	Jobs     *jobs.Registry
	Chat     ChatRunner
	Provider ai.Provider
	Browser  *browser.Session
	History  *db.Store // nil when the database could not be opened
	Hub      *realtime.Hub

	shutdown *lifecycle.ShutdownHook
}

// NewServiceContext builds the provider, browser session, background loop,
// job registry and run history from c. The browser is not launched until
// the first agent step.
func NewServiceContext(ctx context.Context, c config.Config, version string) (*ServiceContext, error) {
	provider, err := ai.NewProvider(ctx, c.LLM.Provider, c.APIKey(), c.LLM.Model, c.LLM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	events := lifecycle.NewManager()
	session := browser.NewSession(browser.ResolveConfig(c.BrowserConfig()))

	history, err := db.NewSQLite(c.Database.Path)
	if err != nil {
		logging.Warnf("Run history disabled: %v", err)
	} else {
		if n, err := history.MarkInterrupted(ctx); err == nil && n > 0 {
			logging.Infof("Marked %d unfinished runs as interrupted", n)
		}
		history.Subscribe(events)
	}

	sc := &ServiceContext{
		Config:   c,
		Version:  version,
		Loop:     loop.New(loop.WithName("agent")),
		Events:   events,
		Provider: provider,
		Browser:  session,
		History:  history,
		Hub:      realtime.NewHub(),
		Chat:     chat.New(provider, ChatOptions(c)...),
	}
	sc.Hub.Attach(events)
	events.OnServerStarted(func(addr string) {
		logging.Infof("Listening on http://%s", addr)
	})
	events.OnShutdown(func(e lifecycle.Event) {
		if e == lifecycle.EventShutdownStarted {
			logging.Info("Shutting down: stopping agent and closing browser")
			return
		}
		logging.Info("Shutdown complete")
	})
	if c.NotifyEnabled() {
		notify.Attach(events)
	}
	sc.Jobs = jobs.NewRegistry(sc.Loop, sc.newAgent, jobs.WithEvents(events))
	sc.shutdown = lifecycle.NewShutdownHook(sc.Loop, sc.cleanup, c.Agent.ShutdownTimeout, events)

	sc.Loop.Start()
	logging.Infof("Using %s model %s", provider.ID(), c.LLM.Model)
	return sc, nil
}

// ChatOptions maps the chat and llm config onto chain options.
func ChatOptions(c config.Config) []chat.Option {
	opts := []chat.Option{
		chat.WithTemperature(c.LLM.Temperature),
		chat.WithMaxHistory(c.Chat.MaxHistory),
	}
	if c.Chat.SystemPrompt != "" {
		opts = append(opts, chat.WithSystemPrompt(c.Chat.SystemPrompt))
	}
	return opts
}

// newAgent is the job factory: one web agent per task over the shared
// provider and browser session.
func (sc *ServiceContext) newAgent(task string) (jobs.Runner, error) {
	a, err := webagent.New(task, sc.Provider, sc.Browser,
		webagent.WithMaxSteps(sc.Config.Agent.MaxSteps),
		webagent.WithTemperature(sc.Config.LLM.Temperature),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// cleanup releases external resources. It runs on the background loop.
func (sc *ServiceContext) cleanup(ctx context.Context) (any, error) {
	var errs []error
	if err := sc.Browser.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if sc.History != nil {
		if err := sc.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	if err := ai.Close(sc.Provider); err != nil {
		errs = append(errs, fmt.Errorf("close provider: %w", err))
	}
	return nil, errors.Join(errs...)
}

// Close runs the shutdown hook once: cleanup bounded by the configured
// timeout, then the loop is stopped.
func (sc *ServiceContext) Close() error {
	if sc.shutdown == nil {
		if sc.Loop != nil {
			sc.Loop.Stop()
		}
		return nil
	}
	return sc.shutdown.Run()
}
