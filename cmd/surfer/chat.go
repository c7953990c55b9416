package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/surfer/internal/ai"
	"github.com/neboloop/surfer/internal/chat"
	"github.com/neboloop/surfer/internal/svc"
)

// ChatCmd creates the chat command
func ChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the LLM from the terminal",
		Long: `Send a message and print the reply, or start an interactive session when
no message is given. The conversation is remembered for the session.

Examples:
  surfer chat "Hello, who are you?"
  surfer chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), args)
		},
	}
}

func runChat(parent context.Context, args []string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	c := ServerConfig
	provider, err := ai.NewProvider(ctx, c.LLM.Provider, c.APIKey(), c.LLM.Model, c.LLM.BaseURL)
	if err != nil {
		return err
	}
	defer ai.Close(provider)

	chain := chat.New(provider, svc.ChatOptions(*c)...)

	if len(args) > 0 {
		reply, err := chain.Run(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	}
	return runInteractive(ctx, chain, os.Stdin, os.Stdout)
}

// runInteractive reads one message per line until EOF, /exit or cancellation.
func runInteractive(ctx context.Context, chain *chat.Chain, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "\033[1mSurfer Chat\033[0m")
	fmt.Fprintln(out, "Type a message and press Enter. /reset forgets the conversation, /exit quits.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n\033[36myou>\033[0m ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			chain.Reset()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		reply, err := chain.Run(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "\033[31mError: %v\033[0m\n", err)
			continue
		}
		fmt.Fprintf(out, "\033[32msurfer>\033[0m %s\n", reply)
	}
}
