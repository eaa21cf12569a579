package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/application"
	"github.com/taskpilot/taskpilot/pkg/domain/conversation"
	"github.com/taskpilot/taskpilot/pkg/domain/planning"
	"github.com/taskpilot/taskpilot/pkg/format"
)

var (
	planTaskFile      string
	planOutputFile    string
	planFormat        string
	planMaxQuestions  int
	planSkipQuestions bool
	planSave          bool
	planProvider      string
	planModel         string
	planConstraints   []string
)

var planCmd = &cobra.Command{
	Use:   "plan [task description]",
	Short: "Plan a task through a clarifying dialogue",
	Long: `Plan starts a short dialogue about the task: the assistant asks
clarifying questions, you answer (or skip), and once it understands the
task it produces a prioritized step-by-step plan.

The task description is taken from the arguments, or from a file with
--file. An empty answer skips a single question; --skip-questions skips
the dialogue entirely.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		description, err := resolveTaskDescription(cmd, args)
		if err != nil {
			return err
		}

		services, err := loadServices()
		if err != nil {
			return err
		}
		if err := services.withProvider(planProvider, planModel); err != nil {
			return MapError(err)
		}

		task, err := conversation.NewTask(description, planConstraints...)
		if err != nil {
			return NewCLIError("invalid task", "Provide a non-empty task description", err)
		}

		interview := services.newInterview(planMaxQuestions)
		if planSkipQuestions {
			if err := interview.StartReady(task); err != nil {
				return MapError(err)
			}
		} else {
			questions, err := interview.Start(cmd.Context(), task)
			if err != nil {
				return MapError(err)
			}
			if err := runDialogue(cmd, interview, questions); err != nil {
				return err
			}
		}

		fmt.Fprintln(os.Stderr, "Generating plan...")
		plan, err := interview.GeneratePlan(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		output, err := renderPlan(plan, planFormat)
		if err != nil {
			return err
		}

		if planOutputFile != "" {
			// G306: Use 0600 for files
			if err := os.WriteFile(planOutputFile, []byte(output), 0600); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Printf("Plan written to %s\n", planOutputFile)
		} else if planFormat == "json" {
			fmt.Println(output)
		} else {
			fmt.Print(renderMarkdown(output))
		}

		if planSave {
			path, err := services.Repo.SavePlan(plan)
			if err != nil {
				return fmt.Errorf("failed to save plan: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Saved to %s\n", path)
		}
		return nil
	},
}

// runDialogue drives the question/answer loop until the assistant is
// ready or the question budget runs out.
func runDialogue(cmd *cobra.Command, interview *application.InterviewService, questions []conversation.Question) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for len(questions) > 0 {
		q := questions[0]
		fmt.Fprintln(out, renderQuestion(interview.Session().QuestionsAsked-len(questions)+1, q))
		fmt.Fprint(out, "> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF means the user is done answering
			fmt.Fprintln(out)
			return MapError(interview.SkipQuestions())
		}
		answer := strings.TrimSpace(line)

		next, err := interview.Answer(cmd.Context(), answer)
		if err != nil {
			return MapError(err)
		}
		questions = next
	}

	if understanding := interview.Session().Understanding; understanding != "" {
		fmt.Fprintln(out, understandingStyle.Render("Understanding: "+understanding))
	}
	return nil
}

func resolveTaskDescription(cmd *cobra.Command, args []string) (string, error) {
	if planTaskFile != "" {
		data, err := os.ReadFile(planTaskFile) // #nosec G304 -- user-supplied input file
		if err != nil {
			return "", fmt.Errorf("failed to read task file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	// No argument and no file: ask.
	fmt.Fprint(cmd.OutOrStdout(), "Describe the task: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", NewCLIError("no task given", "Pass a task description, or --file <path>", nil)
	}
	description := strings.TrimSpace(line)
	if description == "" {
		return "", NewCLIError("no task given", "Pass a task description, or --file <path>", nil)
	}
	return description, nil
}

func renderPlan(plan *planning.TaskPlan, outputFormat string) (string, error) {
	switch strings.ToLower(outputFormat) {
	case "json":
		return format.JSON(plan)
	case "markdown", "md", "":
		return format.Markdown(plan), nil
	default:
		return "", NewCLIError(
			fmt.Sprintf("unknown format: %s", outputFormat),
			"Use --format markdown or --format json",
			nil,
		)
	}
}

func init() {
	planCmd.Flags().StringVar(&planTaskFile, "file", "", "Read the task description from a file")
	planCmd.Flags().StringVarP(&planOutputFile, "output", "o", "", "Write the plan to a file instead of stdout")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "markdown", "Output format (markdown, json)")
	planCmd.Flags().IntVarP(&planMaxQuestions, "max-questions", "q", 0, "Maximum clarifying questions (1-10, 0 = configured default)")
	planCmd.Flags().BoolVarP(&planSkipQuestions, "skip-questions", "s", false, "Skip the clarifying dialogue and plan immediately")
	planCmd.Flags().BoolVar(&planSave, "save", false, "Save the plan under ~/.taskpilot/plans")
	planCmd.Flags().StringVar(&planProvider, "provider", "", "AI provider override (anthropic, openai, ollama, mock)")
	planCmd.Flags().StringVar(&planModel, "model", "", "AI model override")
	planCmd.Flags().StringArrayVar(&planConstraints, "constraint", nil, "Constraint to carry into the dialogue (repeatable)")
	RootCmd.AddCommand(planCmd)
}
