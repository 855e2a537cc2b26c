package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reports/internal/render"
)

func newTreeCmd() *cobra.Command {
	var (
		preview bool
		width   int
	)

	cmd := &cobra.Command{
		Use:   "tree [section-id]",
		Short: "Show the block tree of every section, or of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openSeeded(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			secs, err := ws.reports.ListSections(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, sec := range secs {
				if len(args) == 1 && sec.ID != args[0] {
					continue
				}
				t, err := ws.reports.Tree(ctx, sec.ID)
				if err != nil {
					return err
				}
				title := styleTitle.Render(sec.Title)
				if sec.Locked {
					title += " " + styleDim.Render("("+iconLock+")")
				}
				fmt.Fprintf(w, "%s %s\n", title, styleDim.Render(sec.ID))
				if preview {
					fmt.Fprintln(w, render.PreviewRegion(render.Print(t), width))
					continue
				}
				if t.Len() == 0 {
					printDetail(w, "empty")
					continue
				}
				printOutline(w, nil, t.Blocks(), 1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "Render blocks instead of listing paths")
	cmd.Flags().IntVar(&width, "width", 100, "Preview width in cells")
	return cmd
}
