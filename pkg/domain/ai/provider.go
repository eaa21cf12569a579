package ai

import (
	"context"
)

// Message is a single turn in a conversation with the model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionRequest represents a prompt to the AI.
// Either Prompt (single turn) or Messages (full conversation history) is set;
// when both are present, Messages wins.
type CompletionRequest struct {
	Prompt      string
	Messages    []Message
	System      string
	Temperature float32
	MaxTokens   int
}

// CompletionResponse represents the AI's answer.
type CompletionResponse struct {
	Text  string
	Usage TokenUsage
	Model string
}

// TokenUsage tracks costs.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is the interface for all AI backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
