package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/pkg/models"
)

func buildOKRsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "okrs",
		Short: "Manage objectives and key results",
	}
	cmd.AddCommand(buildOKRsAddCmd(), buildOKRsListCmd())
	return cmd
}

func buildOKRsAddCmd() *cobra.Command {
	var keyResults []string
	cmd := &cobra.Command{
		Use:   "add <objective>",
		Short: "Add an objective with its key results",
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
			objective := strings.Join(args, " ")
			err = store.MutateOKRs(func(okrs *[]models.OKR) error {
				*okrs = append(*okrs, models.OKR{Objective: objective, KeyResults: keyResults})
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added objective: %s\n", objective)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&keyResults, "key-result", nil, "A key result (repeatable)")
	return cmd
}

func buildOKRsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List objectives and key results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			okrs, err := store.LoadOKRs()
			if err != nil {
				return err
			}
			for _, o := range okrs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", o.Objective)
				for _, kr := range o.KeyResults {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", kr)
				}
			}
			return nil
		},
	}
}
