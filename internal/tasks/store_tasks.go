package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertIfAbsent persists a newly discovered task unless a row for its hash
// already exists. It reports whether a row was created; rediscovery of a
// known hash is a no-op and leaves the existing row untouched.
func (s *Store) InsertIfAbsent(ctx context.Context, task *Task) (bool, error) {
	if task == nil {
		return false, errors.New("task is nil")
	}
	if task.Hash == "" {
		return false, errors.New("task hash required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	if task.Status == "" {
		task.Status = StatusPendingUpload
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tasks (
            hash, name, local_path, remote_path, status,
            upload_attempts, verification_attempts, error_message, upload_size,
            added_at, completed_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(hash) DO NOTHING`,
		task.Hash,
		task.Name,
		task.LocalPath,
		nullableString(task.RemotePath),
		task.Status,
		task.UploadAttempts,
		task.VerificationAttempts,
		nullableString(task.ErrorMessage),
		task.UploadSize,
		nullableTime(&task.AddedAt),
		nullableTime(task.CompletedAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("insert task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	task.CreatedAt = now
	task.UpdatedAt = now
	if id, err := res.LastInsertId(); err == nil {
		task.ID = id
	}
	return true, nil
}

// GetByHash fetches a task by its torrent hash. A missing row yields (nil, nil).
func (s *Store) GetByHash(ctx context.Context, hash string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE hash = ?`, hash)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update persists changes to an existing task row, keyed by hash.
// RemotePath is written as stored on the struct; callers must not rewrite it
// after creation.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	task.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET
            name = ?, local_path = ?, remote_path = ?, status = ?,
            upload_attempts = ?, verification_attempts = ?, error_message = ?,
            upload_size = ?, added_at = ?, completed_at = ?, updated_at = ?
        WHERE hash = ?`,
		task.Name,
		task.LocalPath,
		nullableString(task.RemotePath),
		task.Status,
		task.UploadAttempts,
		task.VerificationAttempts,
		nullableString(task.ErrorMessage),
		task.UploadSize,
		nullableTime(&task.AddedAt),
		nullableTime(task.CompletedAt),
		task.UpdatedAt.Format(time.RFC3339Nano),
		task.Hash,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update task: no row for hash %s", task.Hash)
	}
	return nil
}

// Actionable selects the tasks a tick should dispatch: fresh uploads, failed
// uploads and verifications still under their retry ceilings, tasks awaiting
// verification, and verified tasks whose cleanup has not finished. Results
// are ordered by stage then creation so progress is deterministic, and capped
// at limit (the driver's concurrency width).
func (s *Store) Actionable(ctx context.Context, uploadCeiling, verificationCeiling, limit int) ([]*Task, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM tasks
        WHERE status = ?
           OR (status = ? AND upload_attempts < ?)
           OR status = ?
           OR (status = ? AND verification_attempts < ?)
           OR status = ?
        ORDER BY CASE status
            WHEN ? THEN 0
            WHEN ? THEN 1
            WHEN ? THEN 2
            WHEN ? THEN 3
            WHEN ? THEN 4
            ELSE 5
        END, created_at, id
        LIMIT ?`,
		StatusPendingUpload,
		StatusUploadFailed, uploadCeiling,
		StatusPendingVerification,
		StatusVerificationFailed, verificationCeiling,
		StatusUploadVerified,
		StatusPendingUpload,
		StatusUploadFailed,
		StatusPendingVerification,
		StatusVerificationFailed,
		StatusUploadVerified,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query actionable tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// List returns tasks filtered by status, or every task when no statuses are given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// CountsByStatus aggregates task counts for status summaries.
func (s *Store) CountsByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

// ResetForRetry returns a failed or errored task to the start of its stage
// with fresh attempt counters. Used by the CLI, not the driver.
func (s *Store) ResetForRetry(ctx context.Context, hash string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET
            status = CASE status
                WHEN ? THEN ?
                WHEN ? THEN ?
                ELSE ?
            END,
            upload_attempts = CASE status WHEN ? THEN upload_attempts ELSE 0 END,
            verification_attempts = 0,
            error_message = NULL,
            updated_at = ?
        WHERE hash = ? AND status IN (?, ?, ?)`,
		StatusUploadFailed, StatusPendingUpload,
		StatusVerificationFailed, StatusPendingVerification,
		StatusPendingUpload,
		StatusVerificationFailed,
		time.Now().UTC().Format(time.RFC3339Nano),
		hash,
		StatusUploadFailed, StatusVerificationFailed, StatusError,
	)
	if err != nil {
		return fmt.Errorf("reset task for retry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no retryable task for hash %s", hash)
	}
	return nil
}

// MarkSkipped moves a non-terminal task to the terminal skipped status.
func (s *Store) MarkSkipped(ctx context.Context, hash string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET status = ?, error_message = NULL, updated_at = ?
        WHERE hash = ? AND status NOT IN (?, ?, ?)`,
		StatusSkipped,
		time.Now().UTC().Format(time.RFC3339Nano),
		hash,
		StatusCompleted, StatusSkipped, StatusError,
	)
	if err != nil {
		return fmt.Errorf("mark task skipped: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no skippable task for hash %s", hash)
	}
	return nil
}

// ResetStuck moves tasks left mid-attempt by a crash or restart to the
// retryable failed variant of their stage. Attempts were already incremented
// before the interrupted attempt began, so the retry accounting stays honest.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks
        SET status = CASE status
            WHEN ? THEN ?
            WHEN ? THEN ?
            ELSE status
        END,
            error_message = 'interrupted by restart',
            updated_at = ?
        WHERE status IN (?, ?)`,
		StatusUploading, StatusUploadFailed,
		StatusVerifying, StatusVerificationFailed,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusUploading,
		StatusVerifying,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck tasks: %w", err)
	}
	return res.RowsAffected()
}

func collectTasks(rows *sql.Rows) ([]*Task, error) {
	var out []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}
