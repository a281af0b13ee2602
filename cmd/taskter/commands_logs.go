package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func buildLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Append to or read logs.log",
	}
	cmd.AddCommand(buildLogsAddCmd(), buildLogsListCmd())
	return cmd
}

func buildLogsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <message>",
		Short: "Append a timestamped line to logs.log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			msg := strings.Join(args, " ")
			if err := store.AppendLog(msg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged")
			return nil
		},
	}
}

func buildLogsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print logs.log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(store.Dir(), "logs.log"))
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return fmt.Errorf("taskter: read logs.log: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
