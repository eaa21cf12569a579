package ai_test

import (
	"testing"

	infraai "github.com/taskpilot/taskpilot/pkg/ai"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantID   string
		wantErr  bool
	}{
		{"anthropic", "anthropic:m", false},
		{"", "anthropic:m", false},
		{"openai", "openai:m", false},
		{"ollama", "ollama:m", false},
		{"mock", "mock:m", false},
		{"gemini", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := infraai.NewProvider(tt.provider, "m")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.ID() != tt.wantID {
				t.Errorf("ID = %q, want %q", p.ID(), tt.wantID)
			}
		})
	}
}

func TestNewResilientProviderFor(t *testing.T) {
	p, err := infraai.NewResilientProviderFor("mock", "m")
	if err != nil {
		t.Fatalf("NewResilientProviderFor error: %v", err)
	}
	if p.ID() != "mock:m" {
		t.Errorf("ID = %q", p.ID())
	}

	if _, err := infraai.NewResilientProviderFor("nope", "m"); err == nil {
		t.Error("unknown provider should fail")
	}
}
