package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	mcpserver "reports/internal/mcp"
	"reports/internal/service"
)

func newServeCmd() *cobra.Command {
	var autoApprove, noAutosave bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run the MCP server on stdin/stdout.

Destructive tools wait for a decision recorded with "reports approvals".
Pass --yes to approve them automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			e, err := envFromContext(ctx)
			if err != nil {
				return err
			}
			ws, err := openSeeded(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			if e.cfg.Autosave.Enabled && !noAutosave {
				saver, err := service.NewAutosaver(ws.reports, e.cfg.Autosave.Schedule)
				if err != nil {
					return err
				}
				saver.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					saver.Stop(stopCtx)
					saver.Run(stopCtx)
				}()
			}

			deps := mcpserver.Deps{
				Reports:     ws.reports,
				Logger:      logger,
				PDF:         e.cfg.PDFOptions(),
				AutoApprove: autoApprove,
			}
			if ws.approvals != nil {
				deps.Approvals = ws.approvals
			}
			return mcpserver.New(ctx, deps).ServeStdio()
		},
	}

	cmd.Flags().BoolVarP(&autoApprove, "yes", "y", false, "Approve destructive tools without asking")
	cmd.Flags().BoolVar(&noAutosave, "no-autosave", false, "Disable periodic checkpoints")
	return cmd
}
