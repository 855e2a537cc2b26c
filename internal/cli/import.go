package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <report.json>",
		Short: "Replace the document with an exported JSON report",
		Long: `Replace the document with an exported JSON report.

The current document is saved as a checkpoint first, so an import can be
undone with "reports checkpoint restore".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}

			ws, err := openSeeded(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			ckpt, err := ws.reports.Checkpoint(ctx, "before import")
			if err != nil {
				return err
			}
			if err := ws.reports.ImportJSON(ctx, data); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSuccess(w, "imported %s", args[0])
			printDetail(w, "previous document saved as checkpoint %s", ckpt.ID)
			return nil
		},
	}
}
