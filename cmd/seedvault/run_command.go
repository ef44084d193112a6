package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seedvault/internal/daemon"
	"seedvault/internal/tasks"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the archiving daemon",
		Long:  "Polls the download client on the configured interval and archives completed downloads until interrupted.",
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

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := tasks.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}

			manager, err := buildManager(cfg, store, logger)
			if err != nil {
				_ = store.Close()
				return err
			}

			d, err := daemon.New(cfg, store, logger, manager)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			logger.Info("shutdown requested, waiting for in-flight work")
			return nil
		},
	}
}
