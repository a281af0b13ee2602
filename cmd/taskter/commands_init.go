package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/board"
)

func buildInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new board in the current (or --board-dir) project directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := board.Init(cfg.Board.Dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized taskter board in %s\n", store.Dir())
			return nil
		},
	}
}
