package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/pkg/models"
)

func buildAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
	}
	cmd.AddCommand(
		buildAgentAddCmd(),
		buildAgentListCmd(),
		buildAgentUpdateCmd(),
		buildAgentRemoveCmd(),
		buildAgentScheduleCmd(),
	)
	return cmd
}

func parseAgentID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("taskter: invalid agent id %q", arg)
	}
	return id, nil
}

func loadToolsFile(path string) ([]models.ToolDeclaration, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taskter: read tools file: %w", err)
	}
	var decls []models.ToolDeclaration
	if err := json.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("taskter: parse tools file: %w", err)
	}
	return decls, nil
}

func buildAgentAddCmd() *cobra.Command {
	var systemPrompt, model, provider, toolsFile string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			tools, err := loadToolsFile(toolsFile)
			if err != nil {
				return err
			}
			var id int
			err = store.MutateAgents(func(ab *models.AgentBoard) error {
				id, err = board.NextAgentID(ab)
				if err != nil {
					return err
				}
				ab.Agents = append(ab.Agents, models.Agent{
					ID:           id,
					SystemPrompt: systemPrompt,
					Model:        model,
					Provider:     provider,
					Tools:        tools,
				})
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added agent %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "Agent system prompt")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier (e.g. gemini-2.5-pro, gpt-4.1, ollama:llama3)")
	cmd.Flags().StringVar(&provider, "provider", "", "Explicit provider override (gemini, openai-chat, openai-responses, ollama)")
	cmd.Flags().StringVar(&toolsFile, "tools-file", "", "Path to a JSON array of tool declarations")
	return cmd
}

func buildAgentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			ab, err := store.LoadAgents()
			if err != nil {
				return err
			}
			for _, a := range ab.Agents {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d tools\n", a.ID, a.Model, len(a.Tools))
			}
			return nil
		},
	}
}

func buildAgentUpdateCmd() *cobra.Command {
	var systemPrompt, model, provider, toolsFile string
	cmd := &cobra.Command{
		Use:   "update <agent-id>",
		Short: "Replace an agent's prompt, model and tools",
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
			agentID, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			tools, err := loadToolsFile(toolsFile)
			if err != nil {
				return err
			}
			err = store.MutateAgents(func(ab *models.AgentBoard) error {
				a, err := board.FindAgent(ab, agentID)
				if err != nil {
					return err
				}
				a.SystemPrompt = systemPrompt
				a.Model = model
				a.Provider = provider
				a.Tools = tools
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated agent %d\n", agentID)
			return nil
		},
	}
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "Agent system prompt")
	cmd.Flags().StringVar(&model, "model", "", "Model identifier")
	cmd.Flags().StringVar(&provider, "provider", "", "Explicit provider override")
	cmd.Flags().StringVar(&toolsFile, "tools-file", "", "Path to a JSON array of tool declarations")
	return cmd
}

func buildAgentRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <agent-id>",
		Short: "Delete an agent",
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
			agentID, err := parseAgentID(args[0])
			if err != nil {
				return err
			}

			taskBoard, err := store.LoadTasks()
			if err != nil {
				return err
			}
			for _, t := range taskBoard.Tasks {
				if t.AgentID != nil && *t.AgentID == agentID {
					return fmt.Errorf("taskter: agent %d is assigned to task %d, unassign it first", agentID, t.ID)
				}
			}

			err = store.MutateAgents(func(ab *models.AgentBoard) error {
				if _, err := board.FindAgent(ab, agentID); err != nil {
					return err
				}
				kept := ab.Agents[:0]
				for _, a := range ab.Agents {
					if a.ID != agentID {
						kept = append(kept, a)
					}
				}
				ab.Agents = kept
				return nil
			})
			if err != nil {
				return err
			}
			if err := store.MutateSchedules(func(s models.Schedules) error {
				delete(s, strconv.Itoa(agentID))
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed agent %d\n", agentID)
			return nil
		},
	}
}

func buildAgentScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage an agent's cron schedule",
	}
	cmd.AddCommand(
		buildAgentScheduleSetCmd(),
		buildAgentScheduleListCmd(),
		buildAgentScheduleRemoveCmd(),
	)
	return cmd
}

func buildAgentScheduleSetCmd() *cobra.Command {
	var timezone string
	var once bool
	cmd := &cobra.Command{
		Use:   "set <agent-id> <cron-expression>",
		Short: "Set (or replace) an agent's cron schedule",
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
			agentID, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			cronExpr := args[1]
			if timezone == "" {
				timezone = cfg.Scheduler.DefaultTimezone
			}

			if err := store.MutateAgents(func(ab *models.AgentBoard) error {
				a, err := board.FindAgent(ab, agentID)
				if err != nil {
					return err
				}
				a.Schedule = &models.Schedule{Cron: cronExpr, Timezone: timezone, Once: once}
				return nil
			}); err != nil {
				return err
			}
			if err := store.MutateSchedules(func(s models.Schedules) error {
				s[strconv.Itoa(agentID)] = models.ScheduleEntry{Cron: cronExpr, Timezone: timezone, Once: once}
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scheduled agent %d: %s (%s)\n", agentID, cronExpr, timezone)
			return nil
		},
	}
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (default: scheduler.default_timezone)")
	cmd.Flags().BoolVar(&once, "once", false, "Remove the schedule after it fires once")
	return cmd
}

func buildAgentScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scheduled agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStoreFromConfig(cfg)
			if err != nil {
				return err
			}
			schedules, err := store.LoadSchedules()
			if err != nil {
				return err
			}
			for agentID, entry := range schedules {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tonce=%v\n", agentID, entry.Cron, entry.Timezone, entry.Once)
			}
			return nil
		},
	}
}

func buildAgentScheduleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <agent-id>",
		Short: "Remove an agent's cron schedule",
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
			agentID, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			if err := store.MutateAgents(func(ab *models.AgentBoard) error {
				a, err := board.FindAgent(ab, agentID)
				if err != nil {
					return err
				}
				a.Schedule = nil
				return nil
			}); err != nil {
				return err
			}
			if err := store.MutateSchedules(func(s models.Schedules) error {
				delete(s, strconv.Itoa(agentID))
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed schedule for agent %d\n", agentID)
			return nil
		},
	}
}
