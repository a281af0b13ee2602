package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func buildToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the built-in tool registry",
	}
	cmd.AddCommand(buildToolsListCmd())
	return cmd
}

func buildToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every built-in tool and its description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			registry := buildRegistry(cfg, store)
			for _, t := range registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Name(), t.Description())
			}
			return nil
		},
	}
}
