package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/storage"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		plan, err := repo.LoadPlan(args[0])
		if err != nil {
			return MapError(err)
		}
		if plan == nil {
			return NewCLIError(
				fmt.Sprintf("plan %q not found", args[0]),
				"Run 'taskpilot plans' to list saved plans",
				nil,
			)
		}

		output, err := renderPlan(plan, showFormat)
		if err != nil {
			return err
		}
		if showFormat == "json" {
			fmt.Println(output)
			return nil
		}
		fmt.Print(renderMarkdown(output))
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "markdown", "Output format (markdown, json)")
	RootCmd.AddCommand(showCmd)
}
