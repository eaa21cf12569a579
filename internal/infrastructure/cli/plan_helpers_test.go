package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
	"github.com/taskpilot/taskpilot/pkg/domain/planning"
)

func testPlan() *planning.TaskPlan {
	return &planning.TaskPlan{
		ID:      "plan-1",
		Title:   "Ship it",
		Summary: "Ship the thing.",
		Steps: []planning.Step{
			{Title: "Build", Description: "Build the artifact", Priority: planning.PriorityHigh},
		},
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderPlan(t *testing.T) {
	md, err := renderPlan(testPlan(), "markdown")
	if err != nil {
		t.Fatalf("renderPlan markdown error: %v", err)
	}
	if !strings.Contains(md, "# Ship it") {
		t.Errorf("markdown output: %q", md)
	}

	jsonOut, err := renderPlan(testPlan(), "json")
	if err != nil {
		t.Fatalf("renderPlan json error: %v", err)
	}
	if !strings.Contains(jsonOut, `"title": "Ship it"`) {
		t.Errorf("json output: %q", jsonOut)
	}

	if _, err := renderPlan(testPlan(), "yaml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func promptCmd(input string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&bytes.Buffer{})
	return cmd
}

func TestResolveTaskDescription(t *testing.T) {
	planTaskFile = ""
	got, err := resolveTaskDescription(promptCmd(""), []string{"deploy", "the", "service"})
	if err != nil {
		t.Fatalf("resolveTaskDescription error: %v", err)
	}
	if got != "deploy the service" {
		t.Errorf("description = %q", got)
	}
}

func TestResolveTaskDescription_PromptsWhenOmitted(t *testing.T) {
	planTaskFile = ""
	got, err := resolveTaskDescription(promptCmd("fix the login flow\n"), nil)
	if err != nil {
		t.Fatalf("resolveTaskDescription error: %v", err)
	}
	if got != "fix the login flow" {
		t.Errorf("description = %q", got)
	}

	if _, err := resolveTaskDescription(promptCmd("\n"), nil); err == nil {
		t.Error("blank prompt answer should fail")
	}
	if _, err := resolveTaskDescription(promptCmd(""), nil); err == nil {
		t.Error("EOF without input should fail")
	}
}

func TestResolveTaskDescription_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.txt")
	if err := os.WriteFile(path, []byte("  migrate the database\n"), 0600); err != nil {
		t.Fatalf("write task file: %v", err)
	}

	planTaskFile = path
	defer func() { planTaskFile = "" }()

	got, err := resolveTaskDescription(promptCmd(""), nil)
	if err != nil {
		t.Fatalf("resolveTaskDescription error: %v", err)
	}
	if got != "migrate the database" {
		t.Errorf("description = %q", got)
	}

	planTaskFile = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := resolveTaskDescription(promptCmd(""), nil); err == nil {
		t.Error("missing file should fail")
	}
}

func TestRenderQuestion(t *testing.T) {
	out := renderQuestion(2, conversation.Question{
		Question:    "Which environment?",
		Context:     "Deployment target matters",
		Suggestions: []string{"staging", "production"},
	})
	for _, want := range []string{"Question 2", "Which environment?", "staging, production"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered question missing %q\n%s", want, out)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "(not set)"},
		{"abcd", "****"},
		{"sk-verysecretkey", "****tkey"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
