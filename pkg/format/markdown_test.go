package format_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/taskpilot/taskpilot/pkg/domain/planning"
	"github.com/taskpilot/taskpilot/pkg/format"
)

func samplePlan() *planning.TaskPlan {
	return &planning.TaskPlan{
		ID:              "plan-1",
		Title:           "Migrate billing to Postgres",
		Summary:         "Move the billing database with minimal downtime.",
		OriginalRequest: "migrate the billing db",
		Steps: []planning.Step{
			{
				Title:              "Snapshot current data",
				Description:        "Take a consistent snapshot of the MySQL instance.",
				Priority:           planning.PriorityHigh,
				EstimatedHours:     2,
				AcceptanceCriteria: []string{"Snapshot restores cleanly"},
			},
			{
				Title:       "Cut over traffic",
				Description: "Switch the application to the new database.",
				Priority:    planning.PriorityCritical,
				DependsOn:   []string{"Snapshot current data"},
			},
		},
		Assumptions: []string{"Maintenance window is approved"},
		Notes:       "Keep the old instance for a week.",
		TotalHours:  2,
		CreatedAt:   time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestMarkdown(t *testing.T) {
	out := format.Markdown(samplePlan())

	for _, want := range []string{
		"# Migrate billing to Postgres",
		"**Created:** 2026-03-01 09:30",
		"**Estimated Time:** 2 hours",
		"## Summary",
		"> migrate the billing db",
		"### 1. Snapshot current data **[HIGH]**",
		"### 2. Cut over traffic **[CRITICAL]**",
		"- **Dependencies:** Snapshot current data",
		"- [ ] Snapshot restores cleanly",
		"## Assumptions",
		"- Maintenance window is approved",
		"## Notes",
		"Keep the old instance for a week.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestMarkdown_OmitsEmptySections(t *testing.T) {
	plan := samplePlan()
	plan.Assumptions = nil
	plan.Notes = ""
	plan.TotalHours = 0

	out := format.Markdown(plan)
	for _, absent := range []string{"## Assumptions", "## Notes", "**Estimated Time:**"} {
		if strings.Contains(out, absent) {
			t.Errorf("markdown should omit %q when empty", absent)
		}
	}
}

func TestJSON_RoundTrips(t *testing.T) {
	out, err := format.JSON(samplePlan())
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	var decoded planning.TaskPlan
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Title != "Migrate billing to Postgres" {
		t.Errorf("Title = %q", decoded.Title)
	}
	if len(decoded.Steps) != 2 {
		t.Errorf("Steps = %d, want 2", len(decoded.Steps))
	}
	if decoded.Steps[1].Priority != planning.PriorityCritical {
		t.Errorf("Priority = %v", decoded.Steps[1].Priority)
	}
}
