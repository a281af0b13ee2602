package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/tomatyss/taskter/internal/board"
	"github.com/tomatyss/taskter/internal/config"
	"github.com/tomatyss/taskter/internal/tools"
)

// openStoreFromConfig opens the store backing cfg.Board.Dir. Commands
// that create the store (init) call board.Init directly instead.
func openStoreFromConfig(cfg *config.Config) (*board.Store, error) {
	store, err := board.Open(cfg.Board.Dir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// buildRegistry assembles the full built-in tool set against store and
// cfg, including the four CLI-reentrant tools that call back into this
// same binary's command tree.
func buildRegistry(cfg *config.Config, store *board.Store) *tools.Registry {
	reg := tools.NewRegistry()
	reg.Register(tools.NewShellTool(cfg.Board.Dir))
	reg.Register(tools.NewPythonTool(cfg.Board.Dir))
	reg.Register(tools.NewFilesTool(cfg.Board.Dir))
	reg.Register(tools.NewWebSearchTool(cfg.Tools.SearchAPIEndpoint))
	reg.Register(tools.NewEmailTool(filepath.Join(store.Dir(), "email_config.json")))
	reg.Register(tools.NewDescriptionTool(store))
	reg.Register(tools.NewCLITool("taskter_task", "Re-enter the `task` CLI verb in-process.", runCLI))
	reg.Register(tools.NewCLITool("taskter_agent", "Re-enter the `agent` CLI verb in-process.", runCLI))
	reg.Register(tools.NewCLITool("taskter_okrs", "Re-enter the `okrs` CLI verb in-process.", runCLI))
	reg.Register(tools.NewCLITool("taskter_tools", "Re-enter the `tools` CLI verb in-process.", runCLI))
	return reg
}

// runCLI implements tools.CLIRunner by building a fresh command tree and
// executing args against it, capturing combined stdout/stderr. This is
// how taskter_task/taskter_agent/taskter_okrs/taskter_tools let an agent
// drive the very same CLI a human would, without shelling out to a
// subprocess copy of the binary.
func runCLI(ctx context.Context, args []string) (string, error) {
	var buf bytes.Buffer
	cmd := buildRootCmd(slog.Default())
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return buf.String(), fmt.Errorf("taskter: %s: %w", args, err)
	}
	return buf.String(), nil
}
