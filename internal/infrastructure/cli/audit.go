package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/pkg/storage"
)

var auditVerbose bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log and verify its hash chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := storage.NewHomeRepository()
		if err != nil {
			return err
		}
		events, err := repo.LoadEvents()
		if err != nil {
			return fmt.Errorf("failed to load audit log: %w", err)
		}

		fmt.Printf("Audit Log: %d events\n", len(events))
		if len(events) == 0 {
			return nil
		}

		if auditVerbose {
			for _, event := range events {
				fmt.Printf("- %s  %-25s %s\n", event.Timestamp.Format("2006-01-02 15:04:05"), event.Action, event.Actor)
			}
		}

		tampered, err := repo.VerifyChain()
		if err != nil {
			return fmt.Errorf("failed to verify audit log: %w", err)
		}
		if tampered >= 0 {
			return NewCLIError(
				fmt.Sprintf("audit log hash chain broken at event %d", tampered),
				"The events file was modified outside taskpilot; entries from that point on are untrustworthy",
				nil,
			)
		}
		fmt.Println("Hash chain: intact")
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVarP(&auditVerbose, "verbose", "v", false, "List every recorded event")
	RootCmd.AddCommand(auditCmd)
}
