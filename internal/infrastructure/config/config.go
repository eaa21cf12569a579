// Package config loads and persists taskpilot settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskpilot/taskpilot/pkg/storage"
)

const (
	DefaultProvider     = "anthropic"
	DefaultMaxTokens    = 4096
	DefaultMaxQuestions = 5

	MinQuestions = 1
	MaxQuestions = 10
)

// Config holds the user-tunable settings. File values can be overridden
// per-invocation with TASKPILOT_* environment variables.
type Config struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model,omitempty"`
	MaxTokens    int    `yaml:"max_tokens"`
	MaxQuestions int    `yaml:"max_questions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:     DefaultProvider,
		MaxTokens:    DefaultMaxTokens,
		MaxQuestions: DefaultMaxQuestions,
	}
}

// Load reads config.yaml from the repository, falling back to defaults
// when the file is absent, then applies environment overrides.
func Load(repo *storage.FilesystemRepository) (*Config, error) {
	cfg := Default()

	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path validated by ResolvePath
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration to config.yaml in the repository.
func Save(repo *storage.FilesystemRepository, cfg *Config) error {
	if err := repo.Initialize(); err != nil {
		return err
	}
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TASKPILOT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("TASKPILOT_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("TASKPILOT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("TASKPILOT_MAX_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxQuestions = n
		}
	}
}

func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxQuestions < MinQuestions {
		c.MaxQuestions = MinQuestions
	}
	if c.MaxQuestions > MaxQuestions {
		c.MaxQuestions = MaxQuestions
	}
}

// Set updates a single key by name. Both max_questions and max-questions
// spellings are accepted.
func (c *Config) Set(key, value string) error {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")
	switch key {
	case "provider":
		c.Provider = value
	case "model":
		c.Model = value
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_tokens must be a positive integer")
		}
		c.MaxTokens = n
	case "max_questions":
		n, err := strconv.Atoi(value)
		if err != nil || n < MinQuestions || n > MaxQuestions {
			return fmt.Errorf("max_questions must be between %d and %d", MinQuestions, MaxQuestions)
		}
		c.MaxQuestions = n
	default:
		return fmt.Errorf("unknown config key: %s (valid keys: provider, model, max_tokens, max_questions)", key)
	}
	c.normalize()
	return nil
}
