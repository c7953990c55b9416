// Package chat implements the conversational chain behind POST /chat.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/neboloop/surfer/internal/ai"
)

// DefaultSystemPrompt frames the model as a conversational assistant.
const DefaultSystemPrompt = "The following is a friendly conversation between a human and an AI. " +
	"The AI is talkative and provides lots of specific details from its context. " +
	"If the AI does not know the answer to a question, it truthfully says it does not know."

// ErrEmptyMessage is returned for a blank message.
var ErrEmptyMessage = errors.New("message is empty")

// Chain keeps a buffered conversation and answers one message at a time.
type Chain struct {
	provider    ai.Provider
	system      string
	temperature float64
	maxHistory  int

	mu     sync.Mutex
	memory []ai.Message
}

// Option configures a Chain.
type Option func(*Chain)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(s string) Option {
	return func(c *Chain) { c.system = s }
}

// WithTemperature sets the sampling temperature. Zero keeps the provider default.
func WithTemperature(t float64) Option {
	return func(c *Chain) { c.temperature = t }
}

// WithMaxHistory caps the remembered messages. Zero keeps everything.
func WithMaxHistory(n int) Option {
	return func(c *Chain) { c.maxHistory = n }
}

// New creates a chain over provider.
func New(provider ai.Provider, opts ...Option) *Chain {
	c := &Chain{
		provider: provider,
		system:   DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run sends message with the remembered conversation and returns the reply.
// Calls are serialized; a failed call leaves memory unchanged.
func (c *Chain) Run(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := append(append([]ai.Message(nil), c.memory...), ai.Message{Role: ai.RoleUser, Content: message})
	reply, err := ai.Collect(ctx, c.provider, &ai.ChatRequest{
		Messages:    msgs,
		System:      c.system,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)

	c.memory = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: reply})
	if c.maxHistory > 0 && len(c.memory) > c.maxHistory {
		c.memory = c.memory[len(c.memory)-c.maxHistory:]
		// memory must open with a user turn
		for len(c.memory) > 0 && c.memory[0].Role != ai.RoleUser {
			c.memory = c.memory[1:]
		}
	}
	return reply, nil
}

// History returns a copy of the remembered conversation.
func (c *Chain) History() []ai.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ai.Message(nil), c.memory...)
}

// Reset forgets the conversation.
func (c *Chain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = nil
}
