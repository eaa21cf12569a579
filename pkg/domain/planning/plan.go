package planning

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Step is one actionable unit of work within a plan.
type Step struct {
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Priority           StepPriority `json:"priority"`
	EstimatedHours     float64      `json:"estimated_hours,omitempty"`
	DependsOn          []string     `json:"depends_on,omitempty"` // Titles of steps this step depends on
	AcceptanceCriteria []string     `json:"acceptance_criteria,omitempty"`
}

// TaskPlan is the structured output of a planning session.
// It is produced once by the final model call and immutable thereafter.
type TaskPlan struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	OriginalRequest string    `json:"original_request"`
	Steps           []Step    `json:"steps"`
	Assumptions     []string  `json:"assumptions,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	TotalHours      float64   `json:"total_estimated_hours,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CalculateTotalHours sums the step estimates, ignoring steps without one.
// Returns 0 when no step carries an estimate.
func (p *TaskPlan) CalculateTotalHours() float64 {
	var total float64
	for _, s := range p.Steps {
		total += s.EstimatedHours
	}
	return total
}

// Hash returns a deterministic hash of the plan structure.
func (p *TaskPlan) Hash() string {
	h := sha256.New()
	h.Write([]byte(p.ID))
	h.Write([]byte(p.Title))
	for _, s := range p.Steps {
		h.Write([]byte(s.Title))
	}
	return hex.EncodeToString(h.Sum(nil))
}
