// Package cli implements the reports command line: the MCP server, exports,
// the file watcher and section, checkpoint and approval management.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"reports/internal/config"
)

// Build information, set via SetVersion from main.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets build information from ldflags.
func SetVersion(v, c, d string) {
	version, commit, date = v, c, d
}

type rootFlags struct {
	verbose bool
	config  string
	memory  bool
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "reports",
		Short:         "Build block-structured reports",
		Long:          "reports edits sectioned reports of text, tables, image grids and column layouts, and exposes the editor to AI agents over MCP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader, err := newLoader(flags.config)
			if err != nil {
				return err
			}
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			wireConnections(cfg)

			level := parseLevel(cfg.LogLevel)
			if flags.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			ctx := withLogger(cmd.Context(), logger)
			ctx = withEnv(ctx, &env{cfg: cfg, loader: loader, memory: flags.memory})
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("reports %s (commit: %s, built: %s)\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flags.config, "config", "", "Config file (default ~/"+config.ConfigDirName+"/"+config.ConfigFileName+")")
	root.PersistentFlags().BoolVar(&flags.memory, "memory", false, "Use an in-memory document instead of the database")

	root.AddCommand(
		newServeCmd(),
		newExportCmd(),
		newTreeCmd(),
		newImportCmd(),
		newWatchCmd(),
		newSectionCmd(),
		newMetaCmd(),
		newCheckpointCmd(),
		newApprovalsCmd(),
		newConfigCmd(),
		newConnectionsCmd(),
	)
	return root
}

func newLoader(path string) (*config.Loader, error) {
	if path != "" {
		return config.NewLoaderWithPath(path), nil
	}
	return config.NewLoader()
}
