package cli

import (
	"github.com/spf13/cobra"

	"reports/internal/domain"
)

func newSectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "section",
		Aliases: []string{"sections"},
		Short:   "List and manage report sections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List sections",
			Args:  cobra.NoArgs,
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				secs, err := ws.reports.ListSections(cmd.Context())
				if err != nil {
					return err
				}
				printSections(cmd.OutOrStdout(), secs)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add [title]",
			Short: "Append a section",
			Args:  cobra.MaximumNArgs(1),
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				title := ""
				if len(args) == 1 {
					title = args[0]
				}
				sec, err := ws.reports.CreateSection(cmd.Context(), title)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "added %q", sec.Title)
				printDetail(cmd.OutOrStdout(), "id %s", sec.ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a section and its blocks",
			Args:  cobra.ExactArgs(1),
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				if err := ws.reports.DeleteSection(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "deleted %s", args[0])
				return nil
			}),
		},
		lockCmd("lock", true),
		lockCmd("unlock", false),
		&cobra.Command{
			Use:   "title <id> <title>",
			Short: "Rename a section",
			Args:  cobra.ExactArgs(2),
			RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
				if err := ws.reports.SetSectionTitle(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "renamed %s", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func lockCmd(name string, locked bool) *cobra.Command {
	short := "Lock a section against structural edits"
	if !locked {
		short = "Unlock a section"
	}
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.reports.SetLocked(cmd.Context(), args[0], locked); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "%sed %s", name, args[0])
			return nil
		}),
	}
}

func newMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show report fields",
		Args:  cobra.NoArgs,
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			meta, err := ws.reports.Meta(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range domain.MetaFields {
				printKeyValue(cmd.OutOrStdout(), key, meta[key])
			}
			return nil
		}),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <field> <value>",
		Short: "Set a report field such as title or client",
		Args:  cobra.ExactArgs(2),
		RunE: withWorkspace(func(cmd *cobra.Command, ws *workspace, args []string) error {
			if err := ws.reports.SetMeta(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "set %s", args[0])
			return nil
		}),
	})
	return cmd
}

// withWorkspace opens a seeded workspace around fn.
func withWorkspace(fn func(cmd *cobra.Command, ws *workspace, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ws, err := openSeeded(cmd.Context())
		if err != nil {
			return err
		}
		defer ws.close()
		return fn(cmd, ws, args)
	}
}
