package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/surfer/internal/ai/aitest"
	"github.com/neboloop/surfer/internal/chat"
)

func TestRunInteractive(t *testing.T) {
	llm := aitest.New("hi there")
	llm.Push(aitest.Reply{Err: errors.New("quota exceeded")})
	llm.Push(aitest.Reply{Text: "fresh start"})
	chain := chat.New(llm)

	in := strings.NewReader("hello\n\nagain\n/reset\nnew\n/exit\nignored\n")
	var out bytes.Buffer
	require.NoError(t, runInteractive(context.Background(), chain, in, &out))

	assert.Contains(t, out.String(), "hi there")
	assert.Contains(t, out.String(), "Error: quota exceeded")
	assert.Contains(t, out.String(), "Conversation cleared.")
	assert.Contains(t, out.String(), "fresh start")

	reqs := llm.Requests()
	require.Len(t, reqs, 3)
	// after /reset only the new message is sent
	assert.Len(t, reqs[2].Messages, 1)
	assert.Len(t, chain.History(), 2)
}

func TestRunInteractiveStopsAtEOF(t *testing.T) {
	chain := chat.New(aitest.New())
	var out bytes.Buffer
	assert.NoError(t, runInteractive(context.Background(), chain, strings.NewReader(""), &out))
}
