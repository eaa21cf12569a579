package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	infraai "github.com/taskpilot/taskpilot/pkg/ai"
	"github.com/taskpilot/taskpilot/pkg/application"
	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
	"github.com/taskpilot/taskpilot/pkg/domain/planning"
)

// memoryAudit collects audit events in memory.
type memoryAudit struct {
	actions []string
}

func (a *memoryAudit) Log(action, actor string, metadata map[string]interface{}) error {
	a.actions = append(a.actions, action)
	return nil
}

// memoryUsage counts recorded tokens per provider.
type memoryUsage struct {
	tokens map[string]int
}

func (u *memoryUsage) RecordUsage(providerID string, tokens int) error {
	if u.tokens == nil {
		u.tokens = map[string]int{}
	}
	u.tokens[providerID] += tokens
	return nil
}

const questioningResponse = `{
	"status": "questioning",
	"questions": [
		{"question": "Which environment?", "context": "Deployment target matters", "suggestions": ["staging", "production"]}
	],
	"understanding_so_far": "a deployment task"
}`

const readyResponse = `{"status": "ready", "summary": "deploy service X to production"}`

const planResponse = "```json\n" + `{
	"title": "Deploy service X",
	"summary": "Roll out service X safely",
	"steps": [
		{"title": "Build release", "description": "Tag and build the release artifact", "priority": "high", "estimated_hours": 1},
		{"title": "Deploy", "description": "Roll out to production", "priority": "critical", "estimated_hours": 2, "depends_on": ["Build release"]}
	],
	"assumptions": ["CI is green"]
}` + "\n```"

func mustTask(t *testing.T) conversation.Task {
	t.Helper()
	task, err := conversation.NewTask("deploy service X")
	if err != nil {
		t.Fatalf("NewTask error: %v", err)
	}
	return task
}

func TestInterviewService_FullDialogue(t *testing.T) {
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{questioningResponse, readyResponse, planResponse},
	}
	audit := &memoryAudit{}
	usage := &memoryUsage{}
	svc := application.NewInterviewService(provider, audit, usage, 5, 0)

	questions, err := svc.Start(context.Background(), mustTask(t))
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("Start returned %d questions, want 1", len(questions))
	}
	if questions[0].Question != "Which environment?" {
		t.Errorf("question = %q", questions[0].Question)
	}
	if svc.Session().State() != conversation.StateQuestioning {
		t.Errorf("state = %v, want questioning", svc.Session().State())
	}

	questions, err = svc.Answer(context.Background(), "production")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("Answer returned %d questions, want 0 after ready", len(questions))
	}
	if !svc.Session().State().IsReady() {
		t.Errorf("state = %v, want ready", svc.Session().State())
	}
	if svc.Session().Understanding != "deploy service X to production" {
		t.Errorf("Understanding = %q", svc.Session().Understanding)
	}
	if len(svc.Session().QAPairs) != 1 || svc.Session().QAPairs[0].Answer != "production" {
		t.Errorf("QAPairs = %+v", svc.Session().QAPairs)
	}

	plan, err := svc.GeneratePlan(context.Background())
	if err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
	if plan.Title != "Deploy service X" {
		t.Errorf("plan title = %q", plan.Title)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("plan has %d steps, want 2", len(plan.Steps))
	}
	if plan.TotalHours != 3 {
		t.Errorf("TotalHours = %v, want 3 (summed from steps)", plan.TotalHours)
	}
	if plan.OriginalRequest != "deploy service X" {
		t.Errorf("OriginalRequest = %q, want the task description fallback", plan.OriginalRequest)
	}
	if svc.Session().State() != conversation.StatePlanGenerated {
		t.Errorf("final state = %v", svc.Session().State())
	}

	// Every completion must leave an audit and usage trace.
	wantActions := map[string]bool{"interview.question_round": false, "plan.generation": false}
	for _, a := range audit.actions {
		wantActions[a] = true
	}
	for action, seen := range wantActions {
		if !seen {
			t.Errorf("audit log missing action %q (got %v)", action, audit.actions)
		}
	}
	if usage.tokens["mock:test"] == 0 {
		t.Error("usage tokens were not recorded")
	}
}

func TestInterviewService_ImmediatelyReady(t *testing.T) {
	provider := &infraai.MockProvider{Model: "test", Responses: []string{readyResponse}}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	questions, err := svc.Start(context.Background(), mustTask(t))
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions, want 0", len(questions))
	}
	if !svc.Session().State().IsReady() {
		t.Errorf("state = %v, want ready", svc.Session().State())
	}
}

func TestInterviewService_GracefulDegradationOnMalformedQuestions(t *testing.T) {
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{"I think you should just deploy carefully.", planResponse},
	}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	questions, err := svc.Start(context.Background(), mustTask(t))
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("malformed output should yield no questions, got %d", len(questions))
	}
	if !svc.Session().State().IsReady() {
		t.Errorf("state = %v, want ready", svc.Session().State())
	}
	if !strings.Contains(svc.Session().Understanding, "deploy carefully") {
		t.Errorf("raw text should become the understanding, got %q", svc.Session().Understanding)
	}

	if _, err := svc.GeneratePlan(context.Background()); err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
}

func TestInterviewService_QuestionCap(t *testing.T) {
	// Two questions per round against a budget of 2 closes the dialogue
	// after the first round.
	twoQuestions := `{
		"status": "questioning",
		"questions": [
			{"question": "First?"},
			{"question": "Second?"}
		],
		"understanding_so_far": "partial"
	}`
	provider := &infraai.MockProvider{Model: "test", Responses: []string{twoQuestions}}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 2, 0)

	questions, err := svc.Start(context.Background(), mustTask(t))
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if !svc.Session().State().IsReady() {
		t.Error("hitting the cap should mark the session ready")
	}
	if svc.Session().Understanding != "partial" {
		t.Errorf("Understanding = %q", svc.Session().Understanding)
	}

	// Answers after the cap still join the transcript without triggering
	// another model call.
	calls := provider.Calls()
	if _, err := svc.Answer(context.Background(), "yes"); err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if provider.Calls() != calls {
		t.Error("answering a ready session must not call the model")
	}
	if len(svc.Session().QAPairs) != 1 || svc.Session().QAPairs[0].Question != "First?" {
		t.Errorf("QAPairs = %+v", svc.Session().QAPairs)
	}
}

func TestInterviewService_ClampsQuestionBudget(t *testing.T) {
	provider := &infraai.MockProvider{Model: "test"}
	// Out-of-range budgets clamp to the 1..10 bounds, matching how the
	// configuration layer treats the same values.
	if got := application.NewInterviewService(provider, nil, nil, 0, 0).MaxQuestions(); got != application.MinQuestions {
		t.Errorf("budget 0 -> %d, want %d", got, application.MinQuestions)
	}
	if got := application.NewInterviewService(provider, nil, nil, 99, 0).MaxQuestions(); got != application.MaxQuestions {
		t.Errorf("budget 99 -> %d, want %d", got, application.MaxQuestions)
	}
	if got := application.NewInterviewService(provider, nil, nil, 3, 0).MaxQuestions(); got != 3 {
		t.Errorf("budget 3 -> %d", got)
	}
}

func TestInterviewService_MaxTokensReachTheProvider(t *testing.T) {
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{readyResponse, planResponse},
	}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 1234)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := svc.GeneratePlan(context.Background()); err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}

	for i, req := range provider.Seen {
		if req.MaxTokens != 1234 {
			t.Errorf("request %d sent MaxTokens = %d, want 1234", i, req.MaxTokens)
		}
	}

	if got := application.NewInterviewService(provider, nil, nil, 5, 0).MaxTokens(); got != application.DefaultMaxTokens {
		t.Errorf("token budget 0 -> %d, want default %d", got, application.DefaultMaxTokens)
	}
}

func TestInterviewService_PlanStepWithoutPriorityDefaultsToMedium(t *testing.T) {
	noPriority := `{
		"title": "Deploy service X",
		"summary": "Roll out service X safely",
		"steps": [
			{"title": "Build release", "description": "Tag and build the release artifact"}
		]
	}`
	provider := &infraai.MockProvider{Model: "test", Responses: []string{readyResponse, noPriority}}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	plan, err := svc.GeneratePlan(context.Background())
	if err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
	if got := plan.Steps[0].Priority; got != planning.PriorityMedium {
		t.Errorf("missing priority = %q, want %q", got, planning.PriorityMedium)
	}
}

func TestInterviewService_SkipQuestions(t *testing.T) {
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{questioningResponse, planResponse},
	}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := svc.SkipQuestions(); err != nil {
		t.Fatalf("SkipQuestions error: %v", err)
	}
	if !svc.Session().State().IsReady() {
		t.Errorf("state = %v, want ready", svc.Session().State())
	}

	if _, err := svc.GeneratePlan(context.Background()); err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
}

func TestInterviewService_StartReady(t *testing.T) {
	provider := &infraai.MockProvider{Model: "test", Responses: []string{planResponse}}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	if err := svc.StartReady(mustTask(t)); err != nil {
		t.Fatalf("StartReady error: %v", err)
	}
	if provider.Calls() != 0 {
		t.Error("StartReady must not call the model")
	}
	if !svc.Session().State().IsReady() {
		t.Errorf("state = %v, want ready", svc.Session().State())
	}

	plan, err := svc.GeneratePlan(context.Background())
	if err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
	if plan.Title != "Deploy service X" {
		t.Errorf("plan title = %q", plan.Title)
	}
}

func TestInterviewService_GeneratePlanRequiresContext(t *testing.T) {
	provider := &infraai.MockProvider{Model: "test"}
	svc := application.NewInterviewService(provider, nil, nil, 5, 0)

	if _, err := svc.GeneratePlan(context.Background()); !errors.Is(err, application.ErrNotReady) {
		t.Errorf("GeneratePlan before Start = %v, want ErrNotReady", err)
	}
}

func TestInterviewService_PlanRetryOnMalformedOutput(t *testing.T) {
	provider := &infraai.MockProvider{
		Model: "test",
		Responses: []string{
			readyResponse,
			"Sorry, here is your plan in prose instead of JSON.",
			planResponse,
		},
	}
	audit := &memoryAudit{}
	svc := application.NewInterviewService(provider, audit, &memoryUsage{}, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	plan, err := svc.GeneratePlan(context.Background())
	if err != nil {
		t.Fatalf("GeneratePlan error: %v", err)
	}
	if plan.Title != "Deploy service X" {
		t.Errorf("plan title = %q", plan.Title)
	}

	retried := false
	for _, a := range audit.actions {
		if a == "plan.generation_retry" {
			retried = true
		}
	}
	if !retried {
		t.Errorf("retry should be audited, got %v", audit.actions)
	}

	// The retry prompt must carry the corrective instruction.
	last := provider.Seen[len(provider.Seen)-1]
	if !strings.Contains(last.Prompt, "previous response was invalid") {
		t.Errorf("retry prompt = %q", last.Prompt)
	}
}

func TestInterviewService_PlanFailsAfterRetry(t *testing.T) {
	provider := &infraai.MockProvider{
		Model: "test",
		Responses: []string{
			readyResponse,
			"not json",
			"still not json",
		},
	}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := svc.GeneratePlan(context.Background()); err == nil {
		t.Error("GeneratePlan should fail when both attempts are malformed")
	}
	if svc.Session().State() == conversation.StatePlanGenerated {
		t.Error("a failed generation must not finalize the session")
	}
}

func TestInterviewService_PlanSchemaValidation(t *testing.T) {
	// Valid JSON that violates the schema (no steps) must be rejected on
	// both attempts.
	empty := `{"title": "t", "summary": "s", "steps": []}`
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{readyResponse, empty, empty},
	}
	svc := application.NewInterviewService(provider, &memoryAudit{}, &memoryUsage{}, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	_, err := svc.GeneratePlan(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid plan") {
		t.Errorf("error = %v, want schema rejection", err)
	}
}

func TestInterviewService_ProviderFailurePropagates(t *testing.T) {
	provider := &infraai.MockProvider{Model: "test", Err: errors.New("boom")}
	svc := application.NewInterviewService(provider, nil, nil, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err == nil {
		t.Error("Start should surface provider errors")
	}
}

func TestInterviewService_SendsConversationHistory(t *testing.T) {
	provider := &infraai.MockProvider{
		Model:     "test",
		Responses: []string{questioningResponse, readyResponse},
	}
	svc := application.NewInterviewService(provider, nil, nil, 5, 0)

	if _, err := svc.Start(context.Background(), mustTask(t)); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := svc.Answer(context.Background(), "production"); err != nil {
		t.Fatalf("Answer error: %v", err)
	}

	second := provider.Seen[1]
	if len(second.Messages) < 3 {
		t.Fatalf("second round sent %d messages, want the full history", len(second.Messages))
	}
	if second.System == "" {
		t.Error("question rounds must carry the system prompt")
	}
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "user" || last.Content != "production" {
		t.Errorf("last message = %+v", last)
	}
}
