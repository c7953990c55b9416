package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/svc"
)

// AgentCmd runs one web agent task in the foreground
func AgentCmd() *cobra.Command {
	var keepOpen bool

	cmd := &cobra.Command{
		Use:   "agent [task]",
		Short: "Run the web agent once and print its answer",
		Long: `Run a single web agent task through the same background loop the server
uses, then print the answer.

Examples:
  surfer agent "facebook ceo"
  surfer agent --keep-open "find the weather in Lisbon"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				task = ServerConfig.Agent.DefaultTask
			}
			return runAgent(cmd.Context(), task, keepOpen)
		},
	}

	cmd.Flags().BoolVar(&keepOpen, "keep-open", false, "wait for Enter before closing the browser")
	return cmd
}

func runAgent(parent context.Context, task string, keepOpen bool) error {
	ctx, stop := signalContext(parent)
	defer stop()

	svcCtx, err := svc.NewServiceContext(ctx, *ServerConfig, Version)
	if err != nil {
		return err
	}
	defer svcCtx.Close()

	notify, unsubscribe := svcCtx.Hub.Subscribe()
	defer unsubscribe()

	if _, err := svcCtx.Jobs.Start(task); err != nil {
		return err
	}
	fmt.Printf("\033[1mTask:\033[0m %s\n", task)

	st, err := waitForJob(ctx, svcCtx.Jobs, notify)
	if err != nil {
		return err
	}
	if st.State == jobs.StateFailed {
		return fmt.Errorf("agent failed: %w", st.Err)
	}
	fmt.Printf("\n%v\n", st.Result)

	if keepOpen {
		fmt.Print("\nPress Enter to close the browser...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	return nil
}

// waitForJob blocks until the slot reaches a terminal state. Interrupting
// cancels the job.
func waitForJob(ctx context.Context, reg *jobs.Registry, notify <-chan struct{}) (jobs.Status, error) {
	for {
		st := reg.Status()
		if st.Terminal() {
			return st, nil
		}
		if !st.Running() {
			return st, errors.New("agent stopped without a result")
		}
		select {
		case <-notify:
		case <-ctx.Done():
			reg.Cancel()
			return st, ctx.Err()
		}
	}
}
