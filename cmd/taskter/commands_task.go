package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/internal/executor"
	"github.com/tomatyss/taskter/pkg/models"
)

func buildTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks on the board",
	}
	cmd.AddCommand(
		buildTaskAddCmd(),
		buildTaskListCmd(),
		buildTaskAssignCmd(),
		buildTaskUnassignCmd(),
		buildTaskExecuteCmd(),
		buildTaskCompleteCmd(),
		buildTaskCommentCmd(),
		buildTaskEditCmd(),
		buildTaskDeleteCmd(),
	)
	return cmd
}

func parseTaskID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("taskter: invalid task id %q", arg)
	}
	return id, nil
}

func buildTaskAddCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
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
			title := strings.Join(args, " ")
			var id int
			err = store.MutateTasks(func(b *models.Board) error {
				id, err = board.NextTaskID(b)
				if err != nil {
					return err
				}
				b.Tasks = append(b.Tasks, models.Task{
					ID:          id,
					Title:       title,
					Description: description,
					Status:      models.StatusToDo,
				})
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added task %d: %s\n", id, title)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	return cmd
}

func buildTaskListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
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
			for _, t := range b.Tasks {
				if status != "" && !strings.EqualFold(string(t.Status), status) {
					continue
				}
				agent := "-"
				if t.AgentID != nil {
					agent = strconv.Itoa(*t.AgentID)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\tagent=%s\n", t.ID, t.Status, t.Title, agent)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (ToDo, InProgress, Blocked, Done)")
	return cmd
}

func buildTaskAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <task-id> <agent-id>",
		Short: "Assign a task to an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			agentID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("taskter: invalid agent id %q", args[1])
			}

			agentBoard, err := store.LoadAgents()
			if err != nil {
				return err
			}
			if _, err := board.FindAgent(&agentBoard, agentID); err != nil {
				return err
			}

			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				t.AgentID = &agentID
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned task %d to agent %d\n", taskID, agentID)
			return nil
		},
	}
	return cmd
}

func buildTaskUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <task-id>",
		Short: "Remove a task's agent assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				t.AgentID = nil
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unassigned task %d\n", taskID)
			return nil
		},
	}
}

// buildTaskExecuteCmd dispatches a single task through the full agent
// loop. Per the CLI's documented exit-code quirk, an agent failure is
// reported via the printed comment and the task's updated state, never
// via a non-zero exit: RunE only returns an error for structural
// failures (bad id, store error), not for executor.Run's own error
// return.
func buildTaskExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <task-id>",
		Short: "Run the assigned agent against a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			var task models.Task
			if err := store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				t.Status = models.StatusInProgress
				task = *t
				return nil
			}); err != nil {
				return err
			}

			registry := buildRegistry(cfg, store)
			exec := executor.New(store, registry, cfg.Executor.MaxIterations, nil)

			runCtx := cmd.Context()
			if cfg.Executor.DefaultTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, cfg.Executor.DefaultTimeout)
				defer cancel()
			}
			final, runErr := exec.Run(runCtx, task)
			if runErr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "task %d failed: %v\n", final.ID, runErr)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d: %s\n%s\n", final.ID, final.Status, final.Comment)
			return nil
		},
	}
}

func buildTaskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id> [comment]",
		Short: "Manually mark a task Done",
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
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			comment := strings.Join(args[1:], " ")
			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				t.Status = models.StatusDone
				if comment != "" {
					t.Comment = comment
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d marked Done\n", taskID)
			return nil
		},
	}
}

func buildTaskCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-id> <text>",
		Short: "Set a task's comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			comment := strings.Join(args[1:], " ")
			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				t.Comment = comment
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated comment on task %d\n", taskID)
			return nil
		},
	}
}

func buildTaskEditCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task's title and/or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					t.Title = title
				}
				if cmd.Flags().Changed("description") {
					t.Description = description
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task %d\n", taskID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	return cmd
}

func buildTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			taskID, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			err = store.MutateTasks(func(b *models.Board) error {
				t, err := board.FindTask(b, taskID)
				if err != nil {
					return err
				}
				if t.Status == models.StatusInProgress {
					return fmt.Errorf("taskter: task %d is currently executing, cannot delete", taskID)
				}
				kept := b.Tasks[:0]
				for _, existing := range b.Tasks {
					if existing.ID != taskID {
						kept = append(kept, existing)
					}
				}
				b.Tasks = kept
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %d\n", taskID)
			return nil
		},
	}
}
