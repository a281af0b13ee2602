package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/mcpserver"
)

func buildMCPCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool registry over the Model Context Protocol",
	}
	cmd.AddCommand(buildMCPServeCmd(logger))
	return cmd
}

func buildMCPServeCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tools/list and tools/call over stdio JSON-RPC",
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
			srv := mcpserver.New(registry, os.Stdin, os.Stdout, logger)
			return srv.Serve(cmd.Context())
		},
	}
}
