package cli

import (
	"os"

	"github.com/spf13/cobra"

	inframcp "github.com/taskpilot/taskpilot/internal/infrastructure/mcp"
	"github.com/taskpilot/taskpilot/pkg/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Taskpilot MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("TASKPILOT_SKIP_MCP_START") == "true" {
			return nil
		}
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		server, err := inframcp.NewServer(repo)
		if err != nil {
			return MapError(err)
		}
		return server.ServeStdio(cmd.Context())
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
