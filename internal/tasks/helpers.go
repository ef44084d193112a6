package tasks

import (
	"database/sql"
	"errors"
	"time"
)

const taskColumns = "id, hash, name, local_path, remote_path, status, upload_attempts, verification_attempts, error_message, upload_size, added_at, completed_at, created_at, updated_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id             int64
		hash           string
		name           string
		localPath      string
		remotePath     sql.NullString
		statusStr      string
		uploadAttempts int64
		verifyAttempts int64
		errorMessage   sql.NullString
		uploadSize     sql.NullInt64
		addedRaw       sql.NullString
		completedRaw   sql.NullString
		createdRaw     string
		updatedRaw     string
	)

	if err := scanner.Scan(
		&id,
		&hash,
		&name,
		&localPath,
		&remotePath,
		&statusStr,
		&uploadAttempts,
		&verifyAttempts,
		&errorMessage,
		&uploadSize,
		&addedRaw,
		&completedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:                   id,
		Hash:                 hash,
		Name:                 name,
		LocalPath:            localPath,
		RemotePath:           remotePath.String,
		Status:               Status(statusStr),
		UploadAttempts:       int(uploadAttempts),
		VerificationAttempts: int(verifyAttempts),
		ErrorMessage:         errorMessage.String,
		UploadSize:           uploadSize.Int64,
	}

	if added, err := parseTimeString(addedRaw.String); err == nil {
		task.AddedAt = added
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
