package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var errNoApprovals = errors.New("approvals need the database (not available with --memory)")

func newApprovalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "approvals",
		Aliases: []string{"approval"},
		Short:   "Decide destructive actions requested by MCP clients",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List pending approvals",
			Args:  cobra.NoArgs,
			RunE: withApprovals(func(cmd *cobra.Command, ws *workspace, args []string) error {
				pending, err := ws.approvals.ListPending(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(pending) == 0 {
					printInfo(w, "nothing pending")
					return nil
				}
				t := newTable("ID", "TOOL", "DESCRIPTION", "REQUESTED")
				for _, a := range pending {
					t.Row(a.ID, a.Tool, a.Description, a.CreatedAt.Local().Format(time.TimeOnly))
				}
				fmt.Fprintln(w, t.Render())
				return nil
			}),
		},
		decideCmd("approve", "Let a pending action run", true),
		decideCmd("reject", "Refuse a pending action", false),
	)
	return cmd
}

func decideCmd(name, short string, approved bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApprovals(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.approvals.ResolveApproval(cmd.Context(), args[0], approved); err != nil {
				return err
			}
			if approved {
				printSuccess(cmd.OutOrStdout(), "approved %s", args[0])
			} else {
				printWarning(cmd.OutOrStdout(), "rejected %s", args[0])
			}
			return nil
		}),
	}
}

func withApprovals(fn func(cmd *cobra.Command, ws *workspace, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ws, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.close()
		if ws.approvals == nil {
			return errNoApprovals
		}
		return fn(cmd, ws, args)
	}
}
