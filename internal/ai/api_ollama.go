package ai

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/neboloop/surfer/internal/logging"
)

// DefaultOllamaURL is used when no base URL is configured.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements the Provider interface for Ollama (local models) using the official SDK
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider. No API key is needed.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &url.Error{Op: "parse", URL: baseURL, Err: errInvalidBaseURL}
	}

	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // Longer timeout for local inference
	}
	return &OllamaProvider{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
	}, nil
}

// ID returns the provider identifier
func (p *OllamaProvider) ID() string {
	return ProviderOllama
}

// Stream sends a request to Ollama and streams the response
func (p *OllamaProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	stream := true
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: ollamaMessages(req),
		Stream:   &stream,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		chatReq.Options = make(map[string]any)
		if req.Temperature > 0 {
			chatReq.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			chatReq.Options["num_predict"] = req.MaxTokens
		}
	}

	logging.Debugf("[Ollama] Sending request: model=%s messages=%d", model, len(chatReq.Messages))

	events := make(chan StreamEvent, 100)
	go func() {
		defer close(events)

		done := false
		err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				events <- StreamEvent{Type: EventTypeText, Text: resp.Message.Content}
			}
			if resp.Done {
				done = true
			}
			return nil
		})
		if err != nil {
			logging.Warnf("[Ollama] Stream error: %v", err)
			events <- StreamEvent{Type: EventTypeError, Error: err}
			return
		}
		if done {
			events <- StreamEvent{Type: EventTypeDone}
		}
	}()

	return events, nil
}

// ollamaMessages converts the request to Ollama format, system prompt first.
func ollamaMessages(req *ChatRequest) []api.Message {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		if msg.Content == "" {
			continue
		}
		role := RoleUser
		if msg.Role == RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, api.Message{Role: role, Content: msg.Content})
	}
	return messages
}
