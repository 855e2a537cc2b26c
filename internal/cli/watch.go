package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"reports/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var outputs []string

	cmd := &cobra.Command{
		Use:     "watch <report.json>",
		Short:   "Re-export a JSON report whenever it changes",
		Example: `  reports watch report.json -o report.pdf -o report.md`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := envFromContext(ctx)
			if err != nil {
				return err
			}
			if len(outputs) == 0 {
				return errors.New("watch needs at least one --output")
			}

			targets := make([]watcher.Target, 0, len(outputs))
			for _, o := range outputs {
				t, err := watcher.TargetFor(o)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}

			logger := loggerFromContext(ctx)
			w, err := watcher.New(args[0], targets, exportOptions(e.cfg, 100), logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w.OnBuild(func(err error) {
				if err != nil {
					printError(out, "%v", err)
					return
				}
				for _, t := range targets {
					printFile(out, t.Path)
				}
			})
			printInfo(out, "watching %s", args[0])
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringArrayVarP(&outputs, "output", "o", nil, "Output file, repeatable (format from extension)")
	return cmd
}
