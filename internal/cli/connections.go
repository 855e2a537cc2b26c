package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reports/internal/dataset/sources"
)

func newConnectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "connections [name]",
		Aliases: []string{"conn"},
		Short:   "List configured databases, or describe the tables of one",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := envFromContext(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				names := e.cfg.ConnectionNames()
				if len(names) == 0 {
					printInfo(w, "no connections configured")
					return nil
				}
				t := newTable("NAME", "DRIVER", "DATABASE")
				for _, name := range names {
					c, _ := e.cfg.GetConnection(name)
					target := c.Database
					if c.Path != "" {
						target = c.Path
					} else if c.Host != "" {
						target = fmt.Sprintf("%s/%s", c.Host, c.Database)
					}
					t.Row(name, string(c.Driver), target)
				}
				fmt.Fprintln(w, t.Render())
				return nil
			}

			prog := newProgress(loggerFromContext(ctx))
			schema, err := sources.Describe(ctx, args[0])
			if err != nil {
				return err
			}
			prog.done("described " + args[0])
			for _, tbl := range schema.Tables {
				cols := make([]string, len(tbl.Columns))
				for i, c := range tbl.Columns {
					cols[i] = c.Name + " " + styleDim.Render(c.Type)
				}
				fmt.Fprintln(w, styleTitle.Render(tbl.Name))
				printDetail(w, "%s", strings.Join(cols, ", "))
			}
			return nil
		},
	}
}
