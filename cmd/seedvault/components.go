package main

import (
	"fmt"
	"log/slog"
	"time"

	"seedvault/internal/config"
	"seedvault/internal/driver"
	"seedvault/internal/logging"
	"seedvault/internal/notifications"
	"seedvault/internal/preflight"
	"seedvault/internal/qbittorrent"
	"seedvault/internal/rclone"
	"seedvault/internal/tasks"
)

// reportPreflight logs every environment check and fails when a required one
// is unsatisfied.
func reportPreflight(cfg *config.Config, logger *slog.Logger) error {
	checks := preflight.Run(cfg)
	for _, check := range checks {
		if check.Satisfied {
			logger.Debug("preflight check passed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.Bool("required", check.Required),
			logging.String("detail", check.Detail),
		)
	}
	if failed := preflight.Failed(checks); len(failed) > 0 {
		return fmt.Errorf("preflight failed: %s (%s)", failed[0].Name, failed[0].Detail)
	}
	return nil
}

// buildManager wires the download client, transfer client, and notifier into
// a driver manager. Shared by the daemon and the one-shot tick command.
func buildManager(cfg *config.Config, store *tasks.Store, logger *slog.Logger) (*driver.Manager, error) {
	source, err := qbittorrent.New(
		cfg.Source.URL,
		cfg.Source.Username,
		cfg.Source.Password,
		time.Duration(cfg.Source.RequestTimeout)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("create qbittorrent client: %w", err)
	}

	transfer, err := rclone.New(
		cfg.Transfer.Binary,
		cfg.Transfer.ConfigPath,
		cfg.Transfer.Remote,
		time.Duration(cfg.Transfer.UploadTimeout)*time.Second,
		time.Duration(cfg.Transfer.VerifyTimeout)*time.Second,
		rclone.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create rclone client: %w", err)
	}

	notifier := notifications.NewService(cfg)
	return driver.New(cfg, store, source, transfer, notifier, logger), nil
}
