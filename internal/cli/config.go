package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reports/internal/secret"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write a default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := envFromContext(cmd.Context())
				if err != nil {
					return err
				}
				if err := e.loader.Init(); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "wrote default config")
				printFile(cmd.OutOrStdout(), e.loader.ConfigPath())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the configuration without expanding ${VAR} references",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := envFromContext(cmd.Context())
				if err != nil {
					return err
				}
				cfg, err := e.loader.LoadRaw()
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := envFromContext(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), e.loader.ConfigPath())
				return nil
			},
		},
		newPasswordCmd(),
	)
	return cmd
}

func newPasswordCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "password <connection>",
		Short: "Store a connection password in the keychain (read from stdin)",
		Long: `Store a connection password in the keychain.

The password is read from the first line of stdin. It is used whenever the
connection's password is empty in the config file.`,
		Example: `  printf '%s\n' "$PG_PASSWORD" | reports config password warehouse
  reports config password warehouse --delete`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := e.cfg.GetConnection(args[0]); err != nil {
				return err
			}
			store := secretStore()
			if store == nil {
				return errors.New("no keychain on this platform; set the password in the config file")
			}
			key := secret.ConnectionKey(args[0])
			if remove {
				if err := store.Delete(key); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "removed password for %s", args[0])
				return nil
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			pw := strings.TrimRight(line, "\r\n")
			if pw == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return errors.New("empty password")
			}
			if err := store.Set(key, []byte(pw)); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "stored password for %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "Remove the stored password")
	return cmd
}
