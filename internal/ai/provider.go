// Package ai holds the LLM providers used by the chat chain and the web agent.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StreamEventType defines the type of streaming event
type StreamEventType string

const (
	EventTypeText  StreamEventType = "text"
	EventTypeError StreamEventType = "error"
	EventTypeDone  StreamEventType = "done"
)

// StreamEvent represents a streaming response event
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Error error           `json:"error,omitempty"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the AI provider
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Model       string    `json:"model,omitempty"` // overrides the provider default
}

// Provider interface for AI providers
type Provider interface {
	// ID returns the provider identifier (e.g., "gemini", "anthropic")
	ID() string

	// Stream sends a request and returns a channel of streaming events.
	// The channel is closed after a done or error event.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}

// ErrEmptyResponse is returned by Collect when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Collect drains a stream and returns the concatenated text.
func Collect(ctx context.Context, p Provider, req *ChatRequest) (string, error) {
	events, err := p.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return finish(sb.String())
			}
			switch ev.Type {
			case EventTypeText:
				sb.WriteString(ev.Text)
			case EventTypeError:
				if ev.Error == nil {
					return "", fmt.Errorf("%s: stream failed", p.ID())
				}
				return "", ev.Error
			case EventTypeDone:
				return finish(sb.String())
			}
		}
	}
}

func finish(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the provider's client if it holds one.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Provider identifiers accepted by NewProvider.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// DefaultModels maps a provider to the model used when none is configured.
var DefaultModels = map[string]string{
	ProviderGemini:    "gemini-2.0-flash",
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderOpenAI:    "gpt-4o",
	ProviderOllama:    "qwen3:4b",
}

var (
	// ErrMissingAPIKey is returned by NewProvider when no key is configured.
	ErrMissingAPIKey  = errors.New("missing API key")
	errInvalidBaseURL = errors.New("base URL must be absolute")
)

// NewProvider creates the provider named by kind. baseURL is only used by
// ollama, the one provider that needs no API key.
func NewProvider(ctx context.Context, kind, apiKey, model, baseURL string) (Provider, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = ProviderGemini
	}
	if model == "" {
		model = DefaultModels[kind]
	}
	if kind == ProviderOllama {
		p, err := NewOllamaProvider(baseURL, model)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingAPIKey)
	}

	switch kind {
	case ProviderGemini:
		p, err := NewGeminiProvider(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", kind)
	}
}
