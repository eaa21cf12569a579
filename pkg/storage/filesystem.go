package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const TaskpilotDir = ".taskpilot"
const PlansDir = "plans"
const ConfigFile = "config.yaml"
const UsageFile = "usage.json"
const EventsFile = "events.jsonl"

// FilesystemRepository persists taskpilot data under <root>/.taskpilot.
// The root is normally the user's home directory.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// NewHomeRepository roots the repository at the user's home directory.
func NewHomeRepository() (*FilesystemRepository, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return NewFilesystemRepository(home), nil
}

// Root returns the repository root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// baseDir is the data directory, strictly root/.taskpilot.
func (r *FilesystemRepository) baseDir() string {
	return filepath.Join(r.root, TaskpilotDir)
}

// ResolvePath ensures the path is within the .taskpilot directory and
// prevents traversal. Only top-level files and files directly inside the
// plans/ subdirectory are allowed.
func (r *FilesystemRepository) ResolvePath(parts ...string) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("filename cannot be empty")
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("filename cannot be empty")
		}
	}

	baseDir := r.baseDir()
	fullPath := filepath.Join(append([]string{baseDir}, parts...)...)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) {
		return "", fmt.Errorf("invalid file path: %s", filepath.Join(parts...))
	}
	parent := filepath.Dir(cleanPath)
	if parent != baseDir && parent != filepath.Join(baseDir, PlansDir) {
		return "", fmt.Errorf("invalid file path: %s", filepath.Join(parts...))
	}

	return cleanPath, nil
}

// Initialize creates the data directories if needed.
func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Join(r.baseDir(), PlansDir), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", TaskpilotDir, err)
	}
	return nil
}

// IsInitialized reports whether the data directory exists.
func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.baseDir())
	return err == nil
}
