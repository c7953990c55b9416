package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/neboloop/surfer/internal/config"
	"github.com/neboloop/surfer/internal/logging"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile string
	verbose bool
)

// ServerConfig holds the loaded configuration (set by main, replaced by --config)
var ServerConfig *config.Config

// Version is stamped by main.
var Version = "dev"

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	rootCmd := &cobra.Command{
		Use:   "surfer",
		Short: "Surfer - chat and web agent server",
		Long: `Surfer serves a small web UI with two modes: a conversational chat backed
by an LLM, and a web agent that drives a local Chromium browser to complete
a task in the background.

Just type 'surfer' to start the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logging.SetLevel(slog.LevelDebug)
			}
			if cfgFile == "" {
				return nil
			}
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load %s: %w", cfgFile, err)
			}
			ServerConfig = &loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: embedded etc/surfer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(AgentCmd())
	rootCmd.AddCommand(ChatCmd())

	return rootCmd
}
