package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/taskpilot/taskpilot/pkg/domain"
)

// Log records an audit event, chaining its hash to the previous event.
// Implements domain.AuditLogger.
func (r *FilesystemRepository) Log(action, actor string, metadata map[string]interface{}) error {
	lastHash, err := r.lastEventHash()
	if err != nil {
		return err
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
		PrevHash:  lastHash,
	}
	event.Hash = event.CalculateHash()

	return r.appendEvent(event)
}

func (r *FilesystemRepository) appendEvent(event domain.Event) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(EventsFile)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// G302: audit log is user-private
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- path validated by ResolvePath
	if err != nil {
		return fmt.Errorf("failed to open events log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// LoadEvents reads the full audit trail, oldest first. Malformed lines
// are skipped.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	path, err := r.ResolvePath(EventsFile)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) // #nosec G304 -- path validated by ResolvePath
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open events log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []domain.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events log: %w", err)
	}
	return events, nil
}

// VerifyChain walks the audit trail and reports the first event whose
// hash chain does not check out, or -1 if the chain is intact.
func (r *FilesystemRepository) VerifyChain() (int, error) {
	events, err := r.LoadEvents()
	if err != nil {
		return -1, err
	}
	prevHash := ""
	for i, event := range events {
		if event.PrevHash != prevHash {
			return i, nil
		}
		if event.CalculateHash() != event.Hash {
			return i, nil
		}
		prevHash = event.Hash
	}
	return -1, nil
}

func (r *FilesystemRepository) lastEventHash() (string, error) {
	events, err := r.LoadEvents()
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}
	return events[len(events)-1].Hash, nil
}
