// Package aitest provides a scripted ai.Provider for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/neboloop/surfer/internal/ai"
)

// ErrExhausted is returned once every scripted reply has been consumed.
var ErrExhausted = errors.New("aitest: no scripted replies left")

// Reply is one scripted response: either text or an error.
type Reply struct {
	Text string
	Err  error
}

// Provider replays Replies in order and records every request.
type Provider struct {
	mu       sync.Mutex
	replies  []Reply
	requests []ai.ChatRequest
}

// New creates a provider that answers with texts in order.
func New(texts ...string) *Provider {
	p := &Provider{}
	for _, t := range texts {
		p.replies = append(p.replies, Reply{Text: t})
	}
	return p
}

// Push appends a scripted reply.
func (p *Provider) Push(r Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, r)
}

// Requests returns copies of the requests seen so far.
func (p *Provider) Requests() []ai.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.ChatRequest(nil), p.requests...)
}

func (p *Provider) ID() string { return "aitest" }

func (p *Provider) Stream(ctx context.Context, req *ai.ChatRequest) (<-chan ai.StreamEvent, error) {
	p.mu.Lock()
	cp := *req
	cp.Messages = append([]ai.Message(nil), req.Messages...)
	p.requests = append(p.requests, cp)
	if len(p.replies) == 0 {
		p.mu.Unlock()
		return nil, ErrExhausted
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	p.mu.Unlock()

	events := make(chan ai.StreamEvent, 2)
	if r.Err != nil {
		events <- ai.StreamEvent{Type: ai.EventTypeError, Error: r.Err}
	} else {
		events <- ai.StreamEvent{Type: ai.EventTypeText, Text: r.Text}
		events <- ai.StreamEvent{Type: ai.EventTypeDone}
	}
	close(events)
	return events, nil
}
