package ai

import (
	"context"
	"sync"

	"github.com/taskpilot/taskpilot/pkg/domain/ai"
)

// MockProvider returns scripted responses in order. Used by the "mock"
// provider setting and by tests.
type MockProvider struct {
	Model     string
	Responses []string
	Err       error

	mu    sync.Mutex
	calls int
	Seen  []ai.CompletionRequest
}

func (p *MockProvider) ID() string {
	return "mock:" + p.Model
}

func (p *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Seen = append(p.Seen, req)

	if p.Err != nil {
		return nil, p.Err
	}

	text := `{"status": "ready", "summary": "mock summary"}`
	if len(p.Responses) > 0 {
		idx := p.calls
		if idx >= len(p.Responses) {
			idx = len(p.Responses) - 1
		}
		text = p.Responses[idx]
	}
	p.calls++

	return &ai.CompletionResponse{
		Text:  text,
		Model: p.Model,
		Usage: ai.TokenUsage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

// Calls reports how many completions have been served.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var _ ai.Provider = (*MockProvider)(nil)
