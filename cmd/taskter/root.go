package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/config"
)

// version is populated by ldflags at build time.
var version = "dev"

// configPathFlag is the root-level --config override; empty means "use
// config.DefaultConfigPath()".
var configPathFlag string

// buildRootCmd assembles the full command tree. Apart from
// --config/--config-file, which resolveConfig reads itself, the
// persistent flags here are exactly the ones
// internal/config.FlagsFromSet knows how to read back out, so every
// subcommand gets the same four-layer resolution for free.
func buildRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskter",
		Short: "Taskter - a file-backed Kanban board driven by LLM agents",
		Long: `Taskter tracks tasks on a file-backed Kanban board and hands them to
LLM-driven agents that reason, call tools, and report back.

A cron scheduler can dispatch agents on a timetable; an MCP stdio server
exposes the same tools to external clients.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPathFlag, "config", "c", "", "Path to config.toml (default: "+config.DefaultConfigPath()+")")
	root.PersistentFlags().StringVar(&configPathFlag, "config-file", "", "Alias of --config")
	root.PersistentFlags().String("board-dir", "", "Project directory holding .taskter/ (default \".\")")
	root.PersistentFlags().Int("max-iterations", 0, "Override the agent loop's iteration bound")
	root.PersistentFlags().String("default-timezone", "", "Override the scheduler's fallback timezone")
	root.PersistentFlags().String("search-api-endpoint", "", "Override the web_search tool's backend endpoint")

	root.AddCommand(
		buildInitCmd(),
		buildDescriptionCmd(),
		buildTaskCmd(),
		buildAgentCmd(),
		buildOKRsCmd(),
		buildLogsCmd(),
		buildToolsCmd(),
		buildSchedulerCmd(logger),
		buildMCPCmd(logger),
		buildBoardCmd(),
	)

	return root
}

// resolveConfig runs the full four-layer resolution for cmd, then bridges
// the result into the process environment so internal/providers and
// internal/tools keep reading os.Getenv unmodified.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPathFlag
	if path == "" {
		path = config.DefaultConfigPath()
	}
	flags := config.FlagsFromSet(cmd.Flags())
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, fmt.Errorf("taskter: load configuration: %w", err)
	}
	cfg.PropagateToEnvironment()
	return cfg, nil
}
