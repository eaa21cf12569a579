package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/storage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show command and AI token statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		stats, err := repo.LoadUsage()
		if err != nil {
			return fmt.Errorf("failed to load usage stats: %w", err)
		}

		fmt.Println("Taskpilot Usage")
		fmt.Println("---------------")
		fmt.Printf("Total Commands: %d\n", stats.TotalCommands)
		if !stats.LastCommandAt.IsZero() {
			fmt.Printf("Last Activity:  %s\n", stats.LastCommandAt.Format("2006-01-02 15:04:05"))
		}

		if len(stats.ProviderStats) > 0 {
			fmt.Println("\nAI Token Consumption")

			// Sort keys for stable output
			keys := make([]string, 0, len(stats.ProviderStats))
			for k := range stats.ProviderStats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			total := 0
			for _, k := range keys {
				tokens := stats.ProviderStats[k]
				total += tokens
				fmt.Printf("- %-25s: %d\n", k, tokens)
			}
			fmt.Printf("\nTotal Tokens Used: %d\n", total)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(usageCmd)
}
