// Command taskter is the CLI entry point for the Taskter Kanban board: a
// single-user, file-backed board whose tasks are executed by LLM-driven
// agents on demand or on a cron schedule.
//
// # Basic Usage
//
//	taskter init
//	taskter task add "write the launch announcement"
//	taskter agent add --model gemini-2.5-pro --system-prompt "you are a careful editor"
//	taskter task assign 1 1
//	taskter task execute 1
//
// Run the scheduler in the foreground, or expose the tool surface over
// MCP stdio:
//
//	taskter scheduler run
//	taskter mcp serve
//
// # Environment Variables
//
// Provider credentials and tool endpoints are read from the process
// environment, optionally set by a TOML config file loaded ahead of it:
//
//   - GEMINI_API_KEY, OPENAI_API_KEY, OPENAI_BASE_URL, OLLAMA_BASE_URL
//   - SEARCH_API_ENDPOINT
//   - TASKTER__SECTION__KEY (namespaced overrides, see internal/config)
//   - TASKTER_MCP_TRACE, TASKTER_MCP_TRACE_FILE, TASKTER_MCP_TRACE_STDERR
package main

import (
	"log/slog"
	"os"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd(logger)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
