package planning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StepPriority ranks a step's urgency within a plan.
type StepPriority string

const (
	PriorityLow      StepPriority = "low"
	PriorityMedium   StepPriority = "medium"
	PriorityHigh     StepPriority = "high"
	PriorityCritical StepPriority = "critical"
)

// priorityOrder defines the ordering of priorities (higher order = higher priority)
var priorityOrder = map[StepPriority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// AllStepPriorities returns all valid step priorities.
func AllStepPriorities() []StepPriority {
	return []StepPriority{
		PriorityLow,
		PriorityMedium,
		PriorityHigh,
		PriorityCritical,
	}
}

// IsValid returns true if the priority is a valid step priority.
func (p StepPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority.
func (p StepPriority) String() string {
	return string(p)
}

// Order returns the numeric order of the priority (higher = more important).
func (p StepPriority) Order() int {
	if order, ok := priorityOrder[p]; ok {
		return order
	}
	return 0
}

// Compare compares this priority to another.
// Returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p StepPriority) Compare(other StepPriority) int {
	thisOrder := p.Order()
	otherOrder := other.Order()

	switch {
	case thisOrder < otherOrder:
		return -1
	case thisOrder > otherOrder:
		return 1
	default:
		return 0
	}
}

// IsHigherThan returns true if this priority is higher than the other.
func (p StepPriority) IsHigherThan(other StepPriority) bool {
	return p.Compare(other) > 0
}

// DisplayName returns a human-readable display name for the priority.
func (p StepPriority) DisplayName() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return string(p)
	}
}

// DefaultStepPriority returns the priority assumed when a step carries none.
func DefaultStepPriority() StepPriority {
	return PriorityMedium
}

// ParseStepPriority parses a string into a StepPriority.
func ParseStepPriority(s string) (StepPriority, error) {
	priority := StepPriority(s)
	if !priority.IsValid() {
		return "", fmt.Errorf("invalid step priority: %s", s)
	}
	return priority, nil
}

// NormalizePriority maps arbitrary model output onto a valid priority.
// Matching is case-insensitive; unknown values fall back to medium.
func NormalizePriority(s string) StepPriority {
	priority := StepPriority(strings.ToLower(strings.TrimSpace(s)))
	if !priority.IsValid() {
		return DefaultStepPriority()
	}
	return priority
}

// MarshalJSON implements json.Marshaler.
func (p StepPriority) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *StepPriority) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	// Model output is normalized rather than rejected; plans should not
	// fail to decode because the model capitalized "High".
	*p = NormalizePriority(str)
	return nil
}
