package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/neboloop/surfer/app"
	"github.com/neboloop/surfer/internal/config"
	"github.com/neboloop/surfer/internal/handler"
	"github.com/neboloop/surfer/internal/handler/agent"
	"github.com/neboloop/surfer/internal/handler/chat"
	"github.com/neboloop/surfer/internal/lifecycle"
	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/middleware"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/websocket"
)

// shutdownGrace bounds how long in-flight requests may finish on exit.
const shutdownGrace = 10 * time.Second

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context
	Quiet  bool                // Suppress the access log and startup banner
}

// Run starts the surfer server with the given configuration.
// It blocks until the context is cancelled or the listener fails.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	addr := c.Addr()
	if err := checkPortAvailable(addr); err != nil {
		return fmt.Errorf("%s is already in use: %w", addr, err)
	}

	// Use pre-initialized service context if provided, otherwise create one
	svcCtx := opts.SvcCtx
	if svcCtx == nil {
		var err error
		svcCtx, err = svc.NewServiceContext(ctx, c, "dev")
		if err != nil {
			return err
		}
		defer svcCtx.Close()
	}

	// Note: ReadTimeout/WriteTimeout are omitted because they set deadlines
	// on the hijacked websocket connection too.
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newRouter(svcCtx, !opts.Quiet),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !opts.Quiet {
		fmt.Printf("Server ready at http://%s\n", addr)
	}
	svcCtx.Events.Emit(lifecycle.EventServerStarted, addr)

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	logging.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warnf("HTTP shutdown: %v", err)
	}
	return nil
}

// NewRouter builds the HTTP surface over svcCtx.
func NewRouter(svcCtx *svc.ServiceContext) http.Handler {
	return newRouter(svcCtx, false)
}

func newRouter(svcCtx *svc.ServiceContext, accessLog bool) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	if accessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS())

	r.Get("/", app.IndexHandler())
	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	// Chat
	r.Post("/chat", chat.SendMessageHandler(svcCtx))

	// Web agent
	r.Post("/web-agent", agent.StartWebAgentHandler(svcCtx))
	r.Get("/agent-status", agent.GetAgentStatusHandler(svcCtx))
	r.Get("/agent-status/ws", websocket.StatusHandler(svcCtx))
	r.Post("/stop-agent", agent.StopAgentHandler(svcCtx))
	r.Get("/agent-history", agent.ListAgentRunsHandler(svcCtx))

	return r
}

// checkPortAvailable checks if addr is available for binding
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}
