package format

import (
	"encoding/json"
	"fmt"

	"github.com/taskpilot/taskpilot/pkg/domain/planning"
)

// JSON renders the plan as indented JSON, suitable for piping into other
// tools and for loading back into a TaskPlan.
func JSON(plan *planning.TaskPlan) (string, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	return string(data), nil
}
