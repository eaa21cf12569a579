package ai

import (
	"fmt"
	"os"

	"github.com/taskpilot/taskpilot/pkg/domain/ai"
)

// NewProvider builds the provider named in the configuration.
// API keys are only ever read from the environment.
func NewProvider(providerName string, modelName string) (ai.Provider, error) {
	switch providerName {
	case "anthropic", "":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		return NewAnthropicProvider(modelName, apiKey), nil
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		return NewOpenAIProvider(modelName, apiKey), nil
	case "ollama":
		return NewOllamaProvider(modelName), nil
	case "mock":
		return &MockProvider{Model: modelName}, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

// NewResilientProviderFor wraps the named provider with retry/timeout
// handling. This is what callers outside tests should use.
func NewResilientProviderFor(providerName, modelName string) (ai.Provider, error) {
	inner, err := NewProvider(providerName, modelName)
	if err != nil {
		return nil, err
	}
	return NewResilientProvider(inner), nil
}
