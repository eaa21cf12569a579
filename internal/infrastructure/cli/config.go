package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/internal/infrastructure/config"
	"github.com/taskpilot/taskpilot/pkg/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		cfg, err := config.Load(repo)
		if err != nil {
			return MapError(err)
		}

		fmt.Printf("provider:      %s\n", cfg.Provider)
		model := cfg.Model
		if model == "" {
			model = "(provider default)"
		}
		fmt.Printf("model:         %s\n", model)
		fmt.Printf("max_tokens:    %d\n", cfg.MaxTokens)
		fmt.Printf("max_questions: %d\n", cfg.MaxQuestions)
		fmt.Printf("data dir:      %s\n", repo.Root()+string(os.PathSeparator)+storage.TaskpilotDir)

		for _, key := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY"} {
			fmt.Printf("%s: %s\n", key, maskSecret(os.Getenv(key)))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		cfg, err := config.Load(repo)
		if err != nil {
			return MapError(err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return NewCLIError(err.Error(), "Run 'taskpilot config' to see current values", err)
		}
		if err := config.Save(repo, cfg); err != nil {
			return MapError(err)
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

func init() {
	configCmd.AddCommand(configSetCmd)
	RootCmd.AddCommand(configCmd)
}
