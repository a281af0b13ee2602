package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/pkg/models"
)

// buildBoardCmd implements the single `board` verb: a full-board summary
// grouping tasks by status. The interactive TUI (out of scope here) is
// the richer presentation of the same data; this is the plain-text one.
func buildBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print a full board summary grouped by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			b, err := store.LoadTasks()
			if err != nil {
				return err
			}
			for _, status := range []models.TaskStatus{
				models.StatusToDo, models.StatusInProgress, models.StatusBlocked, models.StatusDone,
			} {
				fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n", status)
				for _, t := range b.Tasks {
					if t.Status != status {
						continue
					}
					agent := "-"
					if t.AgentID != nil {
						agent = strconv.Itoa(*t.AgentID)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s (agent=%s)\n", t.ID, t.Title, agent)
				}
			}
			return nil
		},
	}
}
