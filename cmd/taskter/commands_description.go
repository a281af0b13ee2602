package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func buildDescriptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "description [text]",
		Short: "Show or set the project's description.md",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				text, err := store.LoadDescription()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := store.SetDescription(strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "description updated")
			return nil
		},
	}
	return cmd
}
