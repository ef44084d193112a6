package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"seedvault/internal/logging"
	"seedvault/internal/qbittorrent"
	"seedvault/internal/rules"
	"seedvault/internal/services"
	"seedvault/internal/tasks"
)

// Tick executes one discovery-and-dispatch pass. Callers other than the
// internal loop (the one-shot CLI command) are responsible for not running
// ticks concurrently.
func (m *Manager) Tick(ctx context.Context) error {
	ctx = services.WithTickID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, m.logger)

	torrents, err := m.source.ListCompleted(ctx)
	if err != nil {
		// Tick-level failure: nothing was mutated, the next tick retries
		// from scratch.
		return fmt.Errorf("list completed torrents: %w", err)
	}
	logger.Debug("completed torrents fetched", logging.Int("count", len(torrents)))

	m.discover(ctx, logger, torrents)

	batch, err := m.store.Actionable(
		ctx,
		m.cfg.Workflow.UploadRetryLimit,
		m.cfg.Workflow.VerificationRetryLimit,
		m.cfg.Workflow.MaxConcurrent,
	)
	if err != nil {
		return fmt.Errorf("select actionable tasks: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}
	logger.Info("dispatching tasks",
		logging.String(logging.FieldEventType, "dispatch"),
		logging.Int("count", len(batch)),
	)

	// Bounded fan-out. Group functions always return nil: a task's failure
	// is recorded on its own row and must never abort siblings.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.cfg.Workflow.MaxConcurrent)
	for _, task := range batch {
		task := task
		group.Go(func() error {
			m.processTask(groupCtx, task)
			return nil
		})
	}
	return group.Wait()
}

// discover inserts a pending task for every completed torrent not seen
// before. The destination path is resolved exactly once, here; rediscovery
// of a known hash leaves the existing row untouched. One torrent's insert
// failure never aborts the rest of the batch.
func (m *Manager) discover(ctx context.Context, logger *slog.Logger, torrents []qbittorrent.Torrent) {
	for _, torrent := range torrents {
		item := rules.Item{
			Name:     torrent.Name,
			Category: torrent.Category,
			Tags:     torrent.Tags,
		}
		task := &tasks.Task{
			Hash:        torrent.Hash,
			Name:        torrent.Name,
			LocalPath:   torrent.LocalPath(),
			RemotePath:  rules.Resolve(item, m.rules),
			Status:      tasks.StatusPendingUpload,
			UploadSize:  torrent.Size,
			AddedAt:     torrent.AddedAt(),
			CompletedAt: torrent.CompletedAt(),
		}

		created, err := m.store.InsertIfAbsent(ctx, task)
		if err != nil {
			logger.Warn("task insert failed",
				logging.String(logging.FieldTaskHash, torrent.Hash),
				logging.String(logging.FieldTaskName, torrent.Name),
				logging.Error(err),
			)
			continue
		}
		if created {
			logger.Info("task created",
				logging.String(logging.FieldEventType, "task_created"),
				logging.String(logging.FieldTaskHash, task.Hash),
				logging.String(logging.FieldTaskName, task.Name),
				logging.String("remote_path", task.RemotePath),
				logging.Int64("upload_size", task.UploadSize),
			)
		}
	}
}
