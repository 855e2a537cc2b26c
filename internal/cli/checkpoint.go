package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checkpoint",
		Aliases: []string{"checkpoints"},
		Short:   "Save, list and restore report snapshots",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List checkpoints, newest first",
			Args:  cobra.NoArgs,
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				list, err := ws.reports.ListCheckpoints(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(list) == 0 {
					printInfo(w, "no checkpoints")
					return nil
				}
				t := newTable("ID", "LABEL", "CREATED")
				for _, c := range list {
					t.Row(c.ID, c.Label, c.CreatedAt.Local().Format(time.DateTime))
				}
				fmt.Fprintln(w, t.Render())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "save [label]",
			Short: "Snapshot the current document",
			Args:  cobra.MaximumNArgs(1),
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				label := "manual"
				if len(args) == 1 {
					label = args[0]
				}
				c, err := ws.reports.Checkpoint(cmd.Context(), label)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "saved checkpoint %s", c.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "restore <id>",
			Short: "Replace the document with a checkpoint",
			Args:  cobra.ExactArgs(1),
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				if err := ws.reports.RestoreCheckpoint(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "restored %s", args[0])
				return nil
			}),
		},
	)
	return cmd
}
