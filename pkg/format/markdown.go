// Package format renders task plans for humans and machines.
// The models know what the data is; this package knows how to display it.
package format

import (
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/pkg/domain/planning"
)

// Markdown renders the plan as a Markdown document: headers per section,
// numbered steps with priority badges, and acceptance criteria as
// checkboxes that can be ticked off in any editor.
func Markdown(plan *planning.TaskPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", plan.Title)

	fmt.Fprintf(&b, "**Created:** %s\n", plan.CreatedAt.Format("2006-01-02 15:04"))
	if plan.TotalHours > 0 {
		fmt.Fprintf(&b, "**Estimated Time:** %g hours\n", plan.TotalHours)
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n\n")
	b.WriteString(plan.Summary)
	b.WriteString("\n\n")

	b.WriteString("## Original Request\n\n")
	fmt.Fprintf(&b, "> %s\n\n", plan.OriginalRequest)

	b.WriteString("## Steps\n\n")
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "### %d. %s %s\n\n", i+1, step.Title, priorityBadge(step.Priority))
		b.WriteString(step.Description)
		b.WriteString("\n\n")

		if step.EstimatedHours > 0 {
			fmt.Fprintf(&b, "- **Estimated:** %g hours\n", step.EstimatedHours)
		}
		if len(step.DependsOn) > 0 {
			fmt.Fprintf(&b, "- **Dependencies:** %s\n", strings.Join(step.DependsOn, ", "))
		}

		if len(step.AcceptanceCriteria) > 0 {
			b.WriteString("\n**Acceptance Criteria:**\n")
			for _, criterion := range step.AcceptanceCriteria {
				fmt.Fprintf(&b, "- [ ] %s\n", criterion)
			}
		}
		b.WriteString("\n")
	}

	if len(plan.Assumptions) > 0 {
		b.WriteString("## Assumptions\n\n")
		for _, assumption := range plan.Assumptions {
			fmt.Fprintf(&b, "- %s\n", assumption)
		}
		b.WriteString("\n")
	}

	if plan.Notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(plan.Notes)
		b.WriteString("\n")
	}

	return b.String()
}

// priorityBadge renders a text badge for the priority. Text instead of
// emoji: it survives any terminal and stays greppable.
func priorityBadge(priority planning.StepPriority) string {
	switch priority {
	case planning.PriorityLow:
		return "[low]"
	case planning.PriorityMedium:
		return "[medium]"
	case planning.PriorityHigh:
		return "**[HIGH]**"
	case planning.PriorityCritical:
		return "**[CRITICAL]**"
	default:
		return ""
	}
}
