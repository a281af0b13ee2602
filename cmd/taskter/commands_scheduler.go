package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomatyss/taskter/internal/executor"
	"github.com/tomatyss/taskter/internal/scheduler"
)

func buildSchedulerCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the cron scheduler",
	}
	cmd.AddCommand(buildSchedulerRunCmd(logger))
	return cmd
}

func buildSchedulerRunCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground until interrupted",
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
			exec := executor.New(store, registry, cfg.Executor.MaxIterations, logger)
			sched := scheduler.New(store, exec, cfg.Executor.DefaultTimeout, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "scheduler running, press Ctrl+C to stop")
			return sched.Start(ctx)
		},
	}
}
