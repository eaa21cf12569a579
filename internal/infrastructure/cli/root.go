package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "taskpilot",
	Version: Version,
	Short:   "Turn a vague task into a structured plan",
	Long: `Taskpilot turns a free-form task description into a structured,
prioritized plan. It asks a few clarifying questions first, so the plan
reflects what you actually meant:
1. Describe the task in plain language.
2. Answer the clarifying questions (or skip them).
3. Get a step-by-step plan as Markdown or JSON.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// An interrupt cancels the command context, so in-flight model calls abort.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}
