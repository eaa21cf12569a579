package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/pkg/domain/ai"
)

// Task is the user's request as supplied at the start of a session.
// It never changes once the session has been created.
type Task struct {
	Description string    `json:"description"`
	Constraints []string  `json:"constraints,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTask builds an immutable task from a description and optional constraints.
func NewTask(description string, constraints ...string) (Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Task{}, fmt.Errorf("task description cannot be empty")
	}
	return Task{
		Description: description,
		Constraints: constraints,
		CreatedAt:   time.Now(),
	}, nil
}

// Question is a structured clarifying question from the model.
// Context explains why it is being asked; Suggestions are example answers.
type Question struct {
	Question    string   `json:"question"`
	Context     string   `json:"context,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// QAPair is a question from the model and the user's answer, in the order
// they occurred.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session holds the accumulated context of one planning dialogue.
type Session struct {
	ID             string
	Task           Task
	Messages       []ai.Message
	QAPairs        []QAPair
	QuestionsAsked int
	Understanding  string

	machine *StateMachine
}

// NewSession creates a session in the initial state.
func NewSession(task Task) (*Session, error) {
	id := uuid.NewString()
	machine, err := NewStateMachine(StateInitial, id)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:      id,
		Task:    task,
		machine: machine,
	}, nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return s.machine.Current()
}

// Begin marks the opening of the question dialogue and records the user's
// task as the first message.
func (s *Session) Begin() error {
	if err := s.machine.Transition("begin"); err != nil {
		return err
	}
	s.AppendMessage("user", fmt.Sprintf("I need help planning this task: %s", s.Task.Description))
	for _, c := range s.Task.Constraints {
		s.AppendMessage("user", fmt.Sprintf("Constraint: %s", c))
	}
	return nil
}

// MarkReady signals that enough context has been gathered.
// The understanding summary may be empty.
func (s *Session) MarkReady(understanding string) error {
	if s.State().IsReady() {
		return nil
	}
	if err := s.machine.Transition("ready"); err != nil {
		return err
	}
	if understanding != "" {
		s.Understanding = understanding
	}
	return nil
}

// MarkPlanGenerated moves the session to its terminal state.
func (s *Session) MarkPlanGenerated() error {
	return s.machine.Transition("generate")
}

// AppendMessage records a raw conversation turn.
func (s *Session) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, ai.Message{Role: role, Content: content})
}

// RecordQuestions counts a batch of questions against the session.
func (s *Session) RecordQuestions(questions []Question) {
	s.QuestionsAsked += len(questions)
}

// RecordAnswer pairs the user's answer with the question it addressed and
// appends it to the ordered context.
func (s *Session) RecordAnswer(question, answer string) {
	s.QAPairs = append(s.QAPairs, QAPair{Question: question, Answer: answer})
	s.AppendMessage("user", answer)
}

// Summary renders the conversation for inclusion in the plan prompt.
// Messages keep their original order; the understanding summary, when
// present, closes the transcript.
func (s *Session) Summary() string {
	var parts []string

	for _, msg := range s.Messages {
		prefix := "User"
		if msg.Role == "assistant" {
			prefix = "Assistant"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", prefix, msg.Content))
	}

	if s.Understanding != "" {
		parts = append(parts, fmt.Sprintf("Current Understanding: %s", s.Understanding))
	}

	return strings.Join(parts, "\n\n")
}
