package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/taskpilot/taskpilot/pkg/domain"
)

// LoadUsage reads accumulated usage statistics. A missing file yields
// zeroed stats.
func (r *FilesystemRepository) LoadUsage() (*domain.UsageStats, error) {
	path, err := r.ResolvePath(UsageFile)
	if err != nil {
		return nil, err
	}

	loader := retry.New[*domain.UsageStats](r.retryConfig)
	stats, err := loader.Do(context.Background(), func(ctx context.Context) (*domain.UsageStats, error) {
		data, err := os.ReadFile(path) // #nosec G304 -- path validated by ResolvePath
		if err != nil {
			if os.IsNotExist(err) {
				return &domain.UsageStats{ProviderStats: map[string]int{}}, nil
			}
			return nil, fmt.Errorf("failed to read usage stats: %w", err)
		}
		var stats domain.UsageStats
		if err := json.Unmarshal(data, &stats); err != nil {
			return nil, fmt.Errorf("failed to parse usage stats: %w", err)
		}
		if stats.ProviderStats == nil {
			stats.ProviderStats = map[string]int{}
		}
		return &stats, nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RecordUsage adds a command invocation and its token count to the
// per-provider totals. Implements application.UsageRecorder.
func (r *FilesystemRepository) RecordUsage(providerID string, tokens int) error {
	stats, err := r.LoadUsage()
	if err != nil {
		return err
	}
	stats.TotalCommands++
	stats.LastCommandAt = time.Now().UTC()
	if providerID != "" {
		stats.ProviderStats[providerID] += tokens
	}
	return r.saveUsage(stats)
}

func (r *FilesystemRepository) saveUsage(stats *domain.UsageStats) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(UsageFile)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage stats: %w", err)
	}
	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write usage stats: %w", err)
	}
	return nil
}
