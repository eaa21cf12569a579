// Package mcp exposes taskpilot's planning dialogue to MCP clients.
package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/taskpilot/taskpilot/internal/infrastructure/config"
	"github.com/taskpilot/taskpilot/pkg/ai"
	"github.com/taskpilot/taskpilot/pkg/application"
	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
	"github.com/taskpilot/taskpilot/pkg/format"
	"github.com/taskpilot/taskpilot/pkg/storage"
)

type Server struct {
	mcpServer *mcp.Server
	repo      *storage.FilesystemRepository
	cfg       *config.Config
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted — only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(repo *storage.FilesystemRepository) (*Server, error) {
	cfg, err := config.Load(repo)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	info := mcp.ServerInfo{
		Name:    "taskpilot",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Taskpilot MCP Server"),
			mcp.WithDescription("Taskpilot turns free-form task descriptions into structured, prioritized plans through a clarifying dialogue."),
			mcp.WithWebsiteURL("https://github.com/taskpilot/taskpilot"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use taskpilot_plan to generate a plan from a task description. Provide answers up front; unanswered questions are skipped."),
		),
		repo: repo,
		cfg:  cfg,
	}

	s.registerTools()
	return s, nil
}

type PlanArgs struct {
	Task         string   `json:"task" jsonschema:"description=The task to plan, in plain language"`
	Constraints  []string `json:"constraints,omitempty" jsonschema:"description=Constraints the plan must respect"`
	Answers      []string `json:"answers,omitempty" jsonschema:"description=Answers to clarifying questions, consumed in order"`
	MaxQuestions int      `json:"max_questions,omitempty" jsonschema:"description=Maximum clarifying questions (1-10)"`
	Save         bool     `json:"save,omitempty" jsonschema:"description=Persist the plan to the local plan store"`
}

type GetPlanArgs struct {
	Name string `json:"name" jsonschema:"description=The stored plan name, as returned by taskpilot_list_plans"`
}

type EmptyArgs struct{}

func (s *Server) registerTools() {
	// Tool: taskpilot_plan
	s.mcpServer.Tool("taskpilot_plan").
		Description("Generate a structured plan for a task, asking and consuming clarifying answers non-interactively").
		Handler(s.handlePlan)

	// Tool: taskpilot_list_plans
	s.mcpServer.Tool("taskpilot_list_plans").
		Description("List saved plans, newest first").
		Handler(s.handleListPlans)

	// Tool: taskpilot_get_plan
	s.mcpServer.Tool("taskpilot_get_plan").
		Description("Retrieve a saved plan as JSON").
		Handler(s.handleGetPlan)

	// Tool: taskpilot_get_usage
	s.mcpServer.Tool("taskpilot_get_usage").
		Description("Report command counts and per-provider token usage").
		Handler(s.handleGetUsage)
}

func (s *Server) handlePlan(ctx context.Context, args PlanArgs) (any, error) {
	task, err := conversation.NewTask(args.Task, args.Constraints...)
	if err != nil {
		return nil, mcpErr("A non-empty task description is required.")
	}

	provider, err := ai.NewResilientProviderFor(s.cfg.Provider, s.cfg.Model)
	if err != nil {
		return nil, mcpErr("The configured AI provider is unavailable. Check taskpilot configuration and API keys.")
	}

	maxQuestions := args.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = s.cfg.MaxQuestions
	}
	interview := application.NewInterviewService(provider, s.repo, s.repo, maxQuestions, s.cfg.MaxTokens)

	questions, err := interview.Start(ctx, task)
	if err != nil {
		return nil, mcpErr("Starting the planning dialogue failed. The AI provider may be unreachable.")
	}

	// Consume the supplied answers in order. When they run out, skip the
	// remaining questions rather than stalling.
	answers := args.Answers
	for len(questions) > 0 && len(answers) > 0 {
		questions, err = interview.Answer(ctx, answers[0])
		if err != nil {
			return nil, mcpErr("Answering a clarifying question failed. The AI provider may be unreachable.")
		}
		answers = answers[1:]
	}
	if len(questions) > 0 {
		if err := interview.SkipQuestions(); err != nil {
			return nil, mcpErr("Could not finalize the dialogue.")
		}
	}

	plan, err := interview.GeneratePlan(ctx)
	if err != nil {
		return nil, mcpErr("Plan generation failed. Try again, or simplify the task description.")
	}

	result := map[string]any{
		"plan":     plan,
		"markdown": format.Markdown(plan),
	}
	if args.Save {
		path, err := s.repo.SavePlan(plan)
		if err != nil {
			return nil, mcpErr("The plan was generated but could not be saved.")
		}
		result["saved_to"] = path
	}
	return result, nil
}

func (s *Server) handleListPlans(ctx context.Context, args EmptyArgs) (any, error) {
	summaries, err := s.repo.ListPlans()
	if err != nil {
		return nil, mcpErr("Could not list saved plans. Check that the data directory is readable.")
	}
	return map[string]any{"plans": summaries}, nil
}

func (s *Server) handleGetPlan(ctx context.Context, args GetPlanArgs) (any, error) {
	plan, err := s.repo.LoadPlan(args.Name)
	if err != nil {
		return nil, mcpErr("Could not load the plan. Check the name against taskpilot_list_plans.")
	}
	if plan == nil {
		return nil, mcpErr(fmt.Sprintf("No plan named %q. Use taskpilot_list_plans to see available plans.", args.Name))
	}
	return plan, nil
}

func (s *Server) handleGetUsage(ctx context.Context, args EmptyArgs) (any, error) {
	stats, err := s.repo.LoadUsage()
	if err != nil {
		return nil, mcpErr("Could not load usage statistics.")
	}

	providers := make([]string, 0, len(stats.ProviderStats))
	for k := range stats.ProviderStats {
		providers = append(providers, k)
	}
	sort.Strings(providers)

	total := 0
	for _, k := range providers {
		total += stats.ProviderStats[k]
	}

	return map[string]any{
		"total_commands":  stats.TotalCommands,
		"last_command_at": stats.LastCommandAt,
		"provider_stats":  stats.ProviderStats,
		"total_tokens":    total,
	}, nil
}

func (s *Server) Start() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}
