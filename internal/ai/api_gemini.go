package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/neboloop/surfer/internal/logging"
)

// GeminiProvider implements the Google Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client. Close releases it.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() string {
	return ProviderGemini
}

// Close closes the underlying client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Stream sends a request and returns streaming events
func (p *GeminiProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	history, last, err := geminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	name := p.model
	if req.Model != "" {
		name = req.Model
	}
	model := p.client.GenerativeModel(name)
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	cs := model.StartChat()
	cs.History = history

	logging.Debugf("[Gemini] Sending request: model=%s history=%d", name, len(history))
	iter := cs.SendMessageStream(ctx, last...)

	events := make(chan StreamEvent, 100)
	go p.handleStream(iter, events)
	return events, nil
}

func (p *GeminiProvider) handleStream(iter *genai.GenerateContentResponseIterator, events chan<- StreamEvent) {
	defer close(events)

	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			logging.Warnf("[Gemini] Stream error: %v", err)
			events <- StreamEvent{Type: EventTypeError, Error: err}
			return
		}
		if text := responseText(resp); text != "" {
			events <- StreamEvent{Type: EventTypeText, Text: text}
		}
	}
	events <- StreamEvent{Type: EventTypeDone}
}

// geminiContents splits messages into chat history and the parts of the
// final user turn. Assistant turns use Gemini's "model" role.
func geminiContents(msgs []Message) ([]*genai.Content, []genai.Part, error) {
	var contents []*genai.Content
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return nil, nil, errors.New("gemini: request must end with a user message")
	}
	last := contents[len(contents)-1]
	return contents[:len(contents)-1], last.Parts, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var out string
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out += string(t)
			}
		}
	}
	return out
}
