package cli

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reports/internal/service"
	"reports/internal/watcher"
)

func newExportCmd() *cobra.Command {
	var (
		output string
		format string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report as markdown, PDF, JSON or a terminal preview",
		Example: `  reports export -o report.pdf
  reports export --format markdown
  reports export --format preview --width 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := envFromContext(ctx)
			if err != nil {
				return err
			}

			if format == "" {
				format = service.FormatPreview
				if output != "" {
					format = filepath.Ext(output)
				}
			}
			format, err = service.ParseFormat(format)
			if err != nil {
				return err
			}
			if format == service.FormatPDF && output == "" {
				return fmt.Errorf("pdf export needs --output")
			}

			ws, err := openSeeded(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			prog := newProgress(loggerFromContext(ctx))
			var buf bytes.Buffer
			if err := ws.reports.Export(ctx, &buf, format, exportOptions(e.cfg, width)); err != nil {
				return err
			}
			if output == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := watcher.WriteFile(output, buf.Bytes()); err != nil {
				return err
			}
			prog.done("exported " + format)
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (format from extension unless --format is set)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Format: markdown, pdf, json or preview")
	cmd.Flags().IntVar(&width, "width", 100, "Preview width in cells")
	return cmd
}
