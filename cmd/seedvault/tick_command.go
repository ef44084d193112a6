package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seedvault/internal/tasks"
)

func newTickCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single processing pass and exit",
		Long:  "Discovers completed downloads and advances every actionable task through one stage attempt, then exits. Useful for cron-style scheduling and debugging.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			if err := reportPreflight(cfg, logger); err != nil {
				return err
			}

			store, err := tasks.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}
			defer store.Close()

			if reset, err := store.ResetStuck(cmd.Context()); err != nil {
				return fmt.Errorf("reset interrupted tasks: %w", err)
			} else if reset > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d interrupted task(s) for retry\n", reset)
			}

			manager, err := buildManager(cfg, store, logger)
			if err != nil {
				return err
			}

			if err := manager.Tick(cmd.Context()); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tick complete")
			return nil
		},
	}
}
