package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/pkg/application"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, application.ErrNotReady) {
		return NewCLIError(
			"the dialogue is not ready for plan generation",
			"Answer at least one clarifying question, or pass --skip-questions",
			err,
		)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key not provided"):
		return NewCLIError(
			msg,
			"Export the provider's API key, e.g. ANTHROPIC_API_KEY or OPENAI_API_KEY",
			err,
		)
	case strings.Contains(msg, "rejected the API key"):
		return NewCLIError(
			"the provider rejected the API key",
			"Check that the exported key is current and has access to the chosen model",
			err,
		)
	case strings.Contains(msg, "rate limited"):
		return NewCLIError(
			"the provider rate limited the request",
			"Wait a moment and retry, or switch providers with 'taskpilot config set provider <name>'",
			err,
		)
	case strings.Contains(msg, "connection refused"):
		return NewCLIError(
			msg,
			"Is the provider reachable? For ollama, make sure 'ollama serve' is running",
			err,
		)
	}

	return err
}
