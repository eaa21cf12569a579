package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/taskpilot/taskpilot/pkg/domain"
	"github.com/taskpilot/taskpilot/pkg/domain/ai"
	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
	"github.com/taskpilot/taskpilot/pkg/domain/planning"
)

// ErrNotReady is returned when plan generation is requested before the
// dialogue has produced any context.
var ErrNotReady = errors.New("session is not ready for plan generation: start the dialogue and answer questions first")

const (
	// DefaultMaxQuestions bounds the clarifying dialogue when no
	// configuration is supplied.
	DefaultMaxQuestions = 5
	// MinQuestions and MaxQuestions clamp configured budgets.
	MinQuestions = 1
	MaxQuestions = 10
	// DefaultMaxTokens bounds completion length when no configuration is
	// supplied.
	DefaultMaxTokens = 4096
)

const planSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "summary", "steps"],
  "properties": {
    "title": { "type": "string" },
    "summary": { "type": "string" },
    "original_request": { "type": "string" },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title", "description"],
        "properties": {
          "title": { "type": "string" },
          "description": { "type": "string" },
          "priority": { "type": "string" },
          "estimated_hours": { "type": ["number", "null"] },
          "depends_on": { "type": "array", "items": { "type": "string" } },
          "acceptance_criteria": { "type": "array", "items": { "type": "string" } }
        }
      }
    },
    "assumptions": { "type": "array", "items": { "type": "string" } },
    "notes": { "type": ["string", "null"] },
    "total_estimated_hours": { "type": ["number", "null"] }
  }
}`

var planSchemaLoader = gojsonschema.NewStringLoader(planSchemaJSON)

// UsageRecorder accumulates token consumption per provider.
type UsageRecorder interface {
	RecordUsage(providerID string, tokens int) error
}

// InterviewService drives the clarifying-question dialogue and the final
// plan generation. It owns exactly one session at a time.
type InterviewService struct {
	provider     ai.Provider
	audit        domain.AuditLogger
	usage        UsageRecorder
	maxQuestions int
	maxTokens    int

	session *conversation.Session
	pending []conversation.Question
}

func NewInterviewService(provider ai.Provider, audit domain.AuditLogger, usage UsageRecorder, maxQuestions, maxTokens int) *InterviewService {
	if maxQuestions < MinQuestions {
		maxQuestions = MinQuestions
	}
	if maxQuestions > MaxQuestions {
		maxQuestions = MaxQuestions
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &InterviewService{
		provider:     provider,
		audit:        audit,
		usage:        usage,
		maxQuestions: maxQuestions,
		maxTokens:    maxTokens,
	}
}

// Session exposes the active session. Nil before Start.
func (s *InterviewService) Session() *conversation.Session {
	return s.session
}

// MaxQuestions returns the effective question budget.
func (s *InterviewService) MaxQuestions() int {
	return s.maxQuestions
}

// MaxTokens returns the effective completion budget.
func (s *InterviewService) MaxTokens() int {
	return s.maxTokens
}

// Start opens a fresh session for the task and asks the model for the first
// batch of clarifying questions. An empty result means the model is ready
// to plan immediately.
func (s *InterviewService) Start(ctx context.Context, task conversation.Task) ([]conversation.Question, error) {
	session, err := conversation.NewSession(task)
	if err != nil {
		return nil, err
	}
	if err := session.Begin(); err != nil {
		return nil, err
	}
	s.session = session
	s.pending = nil

	return s.nextQuestions(ctx)
}

// StartReady opens a session and marks it ready immediately, skipping the
// question dialogue and its model calls.
func (s *InterviewService) StartReady(task conversation.Task) error {
	session, err := conversation.NewSession(task)
	if err != nil {
		return err
	}
	if err := session.Begin(); err != nil {
		return err
	}
	s.session = session
	s.pending = nil
	return session.MarkReady("")
}

// Answer records the user's answer to the oldest pending question and asks
// for follow-ups. Answering a ready session is a no-op.
func (s *InterviewService) Answer(ctx context.Context, answer string) ([]conversation.Question, error) {
	if s.session == nil {
		return nil, fmt.Errorf("no active session: call Start first")
	}
	if s.session.State().IsReady() {
		// The cap can close the dialogue while questions are still on
		// screen; late answers still join the transcript.
		if len(s.pending) > 0 {
			question := s.pending[0].Question
			s.pending = s.pending[1:]
			s.session.RecordAnswer(question, answer)
		}
		return nil, nil
	}

	question := ""
	if len(s.pending) > 0 {
		question = s.pending[0].Question
		s.pending = s.pending[1:]
	}
	s.session.RecordAnswer(question, answer)

	return s.nextQuestions(ctx)
}

// SkipQuestions forces the session ready without asking anything further.
func (s *InterviewService) SkipQuestions() error {
	if s.session == nil {
		return fmt.Errorf("no active session: call Start first")
	}
	s.pending = nil
	return s.session.MarkReady("")
}

// nextQuestions sends the accumulated conversation to the model and parses
// the structured response.
func (s *InterviewService) nextQuestions(ctx context.Context) ([]conversation.Question, error) {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Messages:    s.session.Messages,
		System:      questionSystemPrompt(s.maxQuestions),
		Temperature: 0.3,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("question round failed: %w", err)
	}
	s.recordCompletion("interview.question_round", resp, nil)

	s.session.AppendMessage("assistant", resp.Text)

	return s.parseQuestionResponse(resp.Text), nil
}

// questionResponse is the JSON contract for the dialogue phase.
type questionResponse struct {
	Status             string                  `json:"status"`
	Questions          []conversation.Question `json:"questions"`
	UnderstandingSoFar string                  `json:"understanding_so_far"`
	Summary            string                  `json:"summary"`
}

// parseQuestionResponse interprets the model's dialogue turn. Malformed
// output degrades gracefully: the session flips to ready and the raw text
// becomes the understanding summary, so a sloppy model never crashes a run.
func (s *InterviewService) parseQuestionResponse(text string) []conversation.Question {
	clean := extractJSONPayload(text)
	debugf("AI raw response: %s\nAI extracted JSON: %s\n", text, clean)

	var parsed questionResponse
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		_ = s.session.MarkReady(strings.TrimSpace(text))
		return nil
	}

	if parsed.Status == "ready" {
		_ = s.session.MarkReady(parsed.Summary)
		return nil
	}

	var questions []conversation.Question
	for _, q := range parsed.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		_ = s.session.MarkReady(parsed.UnderstandingSoFar)
		return nil
	}

	s.session.RecordQuestions(questions)
	if parsed.UnderstandingSoFar != "" {
		s.session.Understanding = parsed.UnderstandingSoFar
	}

	// The budget is a hard cap: asking the final allowed question also
	// closes the dialogue.
	if s.session.QuestionsAsked >= s.maxQuestions {
		_ = s.session.MarkReady(s.session.Understanding)
	}

	s.pending = questions
	return questions
}

// GeneratePlan issues the plan prompt as a fresh single-turn completion and
// parses the structured plan. One retry with a corrective prompt on
// malformed output.
func (s *InterviewService) GeneratePlan(ctx context.Context) (*planning.TaskPlan, error) {
	if s.session == nil {
		return nil, ErrNotReady
	}
	if !s.session.State().IsReady() && s.session.QuestionsAsked < 1 {
		return nil, ErrNotReady
	}
	if !s.session.State().IsReady() {
		if err := s.session.MarkReady(""); err != nil {
			return nil, err
		}
	}

	prompt := planPrompt(s.session.Summary(), s.session.Task.Description)

	resp, err := s.completePlan(ctx, prompt, 1)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan, parseErr := s.parsePlan(resp.Text)
	if parseErr != nil {
		_ = s.audit.Log("plan.generation_retry", "ai", map[string]interface{}{
			"reason":  parseErr.Error(),
			"attempt": 2,
		})
		retryPrompt := prompt + "\n\nIMPORTANT: Your previous response was invalid. Return ONLY a JSON object matching the required structure. Do not include any extra text."
		respRetry, retryErr := s.completePlan(ctx, retryPrompt, 2)
		if retryErr != nil {
			return nil, fmt.Errorf("plan generation failed after retry: %w", retryErr)
		}
		plan, parseErr = s.parsePlan(respRetry.Text)
		if parseErr != nil {
			return nil, fmt.Errorf("model returned an invalid plan after retry: %w", parseErr)
		}
	}

	if err := s.session.MarkPlanGenerated(); err != nil {
		return nil, err
	}

	return plan, nil
}

func (s *InterviewService) completePlan(ctx context.Context, prompt string, attempt int) (*ai.CompletionResponse, error) {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.2,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	s.recordCompletion("plan.generation", resp, map[string]interface{}{"attempt": attempt})

	return resp, nil
}

// recordCompletion writes the completion to the audit log and accumulates
// token usage. Telemetry failures never fail the dialogue.
func (s *InterviewService) recordCompletion(action string, resp *ai.CompletionResponse, extra map[string]interface{}) {
	if s.audit != nil {
		metadata := map[string]interface{}{
			"model":         resp.Model,
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		}
		for k, v := range extra {
			metadata[k] = v
		}
		if err := s.audit.Log(action, "ai", metadata); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to log audit event: %v\n", err)
		}
	}
	if s.usage != nil {
		tokens := resp.Usage.InputTokens + resp.Usage.OutputTokens
		if err := s.usage.RecordUsage(s.provider.ID(), tokens); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record usage: %v\n", err)
		}
	}
}

// planDocument mirrors the plan prompt's JSON contract.
type planDocument struct {
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	OriginalRequest string          `json:"original_request"`
	Steps           []planning.Step `json:"steps"`
	Assumptions     []string        `json:"assumptions"`
	Notes           string          `json:"notes"`
	TotalHours      float64         `json:"total_estimated_hours"`
}

// parsePlan validates the model output against the plan schema, then decodes
// it into an immutable TaskPlan.
func (s *InterviewService) parsePlan(text string) (*planning.TaskPlan, error) {
	clean := extractJSONPayload(text)
	debugf("AI plan response: %s\nAI extracted JSON: %s\n", text, clean)

	documentLoader := gojsonschema.NewStringLoader(clean)
	result, err := gojsonschema.Validate(planSchemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("plan failed schema validation: %s", strings.Join(issues, "; "))
	}

	var doc planDocument
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	// A step whose JSON carried no priority field decodes to the empty
	// string; it gets the same fallback as an unrecognized value.
	for i := range doc.Steps {
		if !doc.Steps[i].Priority.IsValid() {
			doc.Steps[i].Priority = planning.DefaultStepPriority()
		}
	}

	plan := &planning.TaskPlan{
		ID:              uuid.NewString(),
		Title:           doc.Title,
		Summary:         doc.Summary,
		OriginalRequest: doc.OriginalRequest,
		Steps:           doc.Steps,
		Assumptions:     doc.Assumptions,
		Notes:           doc.Notes,
		TotalHours:      doc.TotalHours,
		CreatedAt:       time.Now(),
	}
	if plan.OriginalRequest == "" {
		plan.OriginalRequest = s.session.Task.Description
	}
	if plan.TotalHours == 0 {
		plan.TotalHours = plan.CalculateTotalHours()
	}

	return plan, nil
}

// extractJSONPayload strips markdown code fences and surrounding prose from
// a model response, returning the first JSON object or array it contains.
func extractJSONPayload(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	if clean == "" {
		return clean
	}

	startArray := strings.Index(clean, "[")
	startObject := strings.Index(clean, "{")
	start := -1
	if startArray == -1 {
		start = startObject
	} else if startObject == -1 || startArray < startObject {
		start = startArray
	} else {
		start = startObject
	}
	if start == -1 {
		return clean
	}

	endArray := strings.LastIndex(clean, "]")
	endObject := strings.LastIndex(clean, "}")
	end := -1
	if endArray == -1 {
		end = endObject
	} else if endObject == -1 || endArray > endObject {
		end = endArray
	} else {
		end = endObject
	}
	if end == -1 || end <= start {
		return clean
	}

	return strings.TrimSpace(clean[start : end+1])
}

func debugf(format string, args ...interface{}) {
	if os.Getenv("TASKPILOT_AI_DEBUG") != "" {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
