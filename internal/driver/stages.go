package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"seedvault/internal/fileutil"
	"seedvault/internal/logging"
	"seedvault/internal/services"
	"seedvault/internal/tasks"
)

const (
	stageUpload       = "upload"
	stageVerification = "verification"
	stageCleanup      = "cleanup"
)

// processTask advances one task a single step. Anything thrown inside —
// including panics — is converted to the failed variant of the stage the
// task was in and persisted; nothing escapes to siblings or the tick loop.
func (m *Manager) processTask(ctx context.Context, task *tasks.Task) {
	ctx = services.WithTaskHash(ctx, task.Hash)
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldTaskName, task.Name))

	defer func() {
		if r := recover(); r != nil {
			task.Status = tasks.FailureStatus(task.Status)
			task.ErrorMessage = fileutil.Truncate(fmt.Sprintf("panic: %v", r), 2048)
			logger.Error("task step panicked",
				logging.String(logging.FieldEventType, "task_panic"),
				logging.String("status", string(task.Status)),
				logging.Any("panic", r),
			)
			if err := m.store.Update(ctx, task); err != nil {
				logger.Error("failed to persist panic failure", logging.Error(err))
			}
		}
	}()

	switch task.Status {
	case tasks.StatusPendingUpload, tasks.StatusUploadFailed:
		m.runUpload(services.WithStage(ctx, stageUpload), logger, task)
	case tasks.StatusPendingVerification, tasks.StatusVerificationFailed:
		m.runVerification(services.WithStage(ctx, stageVerification), logger, task)
	case tasks.StatusUploadVerified:
		m.runCleanup(services.WithStage(ctx, stageCleanup), logger, task)
	default:
		logger.Warn("task dispatched in unexpected status", logging.String("status", string(task.Status)))
	}
}

// runUpload performs one upload attempt. The attempt counter advances before
// the outcome is known so a crash mid-upload still burns an attempt.
func (m *Manager) runUpload(ctx context.Context, logger *slog.Logger, task *tasks.Task) {
	task.UploadAttempts++
	task.Status = tasks.StatusUploading
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist upload transition", logging.Error(err))
		return
	}
	logger.Info("upload started",
		logging.String(logging.FieldEventType, "upload_start"),
		logging.Int("attempt", task.UploadAttempts),
		logging.String("local_path", task.LocalPath),
		logging.String("remote_path", task.RemotePath),
	)
	started := time.Now()

	result, err := m.transfer.Upload(ctx, task.LocalPath, task.RemotePath)
	if err != nil {
		m.recordStageFailure(ctx, logger, task, failureStatusFor(err, tasks.StatusUploadFailed), services.Message(err))
		return
	}
	if !result.Success {
		m.recordStageFailure(ctx, logger, task, tasks.StatusUploadFailed, result.Message)
		return
	}

	task.Status = tasks.StatusPendingVerification
	task.ErrorMessage = ""
	task.VerificationAttempts = 0
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist upload result", logging.Error(err))
		return
	}
	logger.Info("upload completed",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
}

// runVerification performs one verification attempt. A task that reaches
// verification without a resolved remote path is unrecoverable: the attempt
// counter is left alone and the task moves straight to error.
func (m *Manager) runVerification(ctx context.Context, logger *slog.Logger, task *tasks.Task) {
	if task.RemotePath == "" {
		m.recordStageFailure(ctx, logger, task, tasks.StatusError, "verification requested with no resolved remote path")
		return
	}

	task.VerificationAttempts++
	task.Status = tasks.StatusVerifying
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist verification transition", logging.Error(err))
		return
	}
	logger.Info("verification started",
		logging.String(logging.FieldEventType, "verification_start"),
		logging.Int("attempt", task.VerificationAttempts),
	)

	result, err := m.transfer.Verify(ctx, task.LocalPath, task.RemotePath)
	if err != nil {
		m.recordStageFailure(ctx, logger, task, failureStatusFor(err, tasks.StatusVerificationFailed), services.Message(err))
		return
	}
	if !result.Verified {
		m.recordStageFailure(ctx, logger, task, tasks.StatusVerificationFailed, result.Message)
		return
	}

	task.Status = tasks.StatusUploadVerified
	task.ErrorMessage = ""
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist verification result", logging.Error(err))
		return
	}
	logger.Info("verification completed", logging.String(logging.FieldEventType, "verification_complete"))

	m.runCleanup(ctx, logger, task)
}

// runCleanup runs the post-verification steps in order: local deletion,
// removal from the client, completion notification. A failed step leaves the
// task in upload_verified with the failure recorded so the remaining steps
// rerun on a later tick; every step tolerates earlier partial completion.
func (m *Manager) runCleanup(ctx context.Context, logger *slog.Logger, task *tasks.Task) {
	if m.cfg.Cleanup.DeleteLocal {
		if err := os.RemoveAll(task.LocalPath); err != nil {
			m.recordCleanupFailure(ctx, logger, task, fmt.Sprintf("delete local content: %v", err))
			return
		}
	}
	if m.cfg.Cleanup.RemoveFromClient {
		if err := m.source.Delete(ctx, task.Hash, false); err != nil {
			m.recordCleanupFailure(ctx, logger, task, fmt.Sprintf("remove torrent from client: %v", err))
			return
		}
	}

	task.Status = tasks.StatusCompleted
	task.ErrorMessage = ""
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist completion", logging.Error(err))
		return
	}
	logger.Info("task completed",
		logging.String(logging.FieldEventType, "task_complete"),
		logging.String("remote_path", task.RemotePath),
	)
	if err := m.notifier.NotifyArchived(ctx, task.Name, task.RemotePath); err != nil {
		logger.Debug("archive notification failed", logging.Error(err))
	}
}

// failureStatusFor picks the retryable failed variant for a stage error,
// except for errors retrying cannot fix, which are terminal.
func failureStatusFor(err error, retryable tasks.Status) tasks.Status {
	if services.Unrecoverable(err) {
		return tasks.StatusError
	}
	return retryable
}

func (m *Manager) recordStageFailure(ctx context.Context, logger *slog.Logger, task *tasks.Task, status tasks.Status, message string) {
	task.Status = status
	task.ErrorMessage = fileutil.Truncate(message, 2048)
	logger.Warn("task stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("status", string(status)),
		logging.String("error_message", task.ErrorMessage),
	)
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
		return
	}
	m.notifyIfExhausted(ctx, logger, task)
}

func (m *Manager) recordCleanupFailure(ctx context.Context, logger *slog.Logger, task *tasks.Task, message string) {
	// Status stays upload_verified; the actionable query picks it up again.
	task.ErrorMessage = fileutil.Truncate(message, 2048)
	logger.Warn("cleanup step failed",
		logging.String(logging.FieldEventType, "cleanup_failure"),
		logging.String("error_message", task.ErrorMessage),
	)
	if err := m.store.Update(ctx, task); err != nil {
		logger.Error("failed to persist cleanup failure", logging.Error(err))
	}
}

// notifyIfExhausted pushes a notification the moment a task burns its last
// allowed attempt for the stage it just failed.
func (m *Manager) notifyIfExhausted(ctx context.Context, logger *slog.Logger, task *tasks.Task) {
	exhausted := false
	stage := ""
	switch task.Status {
	case tasks.StatusUploadFailed:
		exhausted = task.UploadAttempts >= m.cfg.Workflow.UploadRetryLimit
		stage = stageUpload
	case tasks.StatusVerificationFailed:
		exhausted = task.VerificationAttempts >= m.cfg.Workflow.VerificationRetryLimit
		stage = stageVerification
	case tasks.StatusError:
		exhausted = true
		stage, _ = services.StageFromContext(ctx)
	}
	if !exhausted {
		return
	}
	if err := m.notifier.NotifyTaskFailed(ctx, task.Name, stage, task.ErrorMessage); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}
