package tasks

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an archive task.
type Status string

const (
	StatusPendingUpload       Status = "pending_upload"
	StatusUploading           Status = "uploading"
	StatusUploadFailed        Status = "upload_failed"
	StatusPendingVerification Status = "pending_verification"
	StatusVerifying           Status = "verifying"
	StatusVerificationFailed  Status = "verification_failed"
	StatusUploadVerified      Status = "upload_verified"
	StatusCompleted           Status = "completed"
	StatusSkipped             Status = "skipped"
	StatusError               Status = "error"
)

var allStatuses = []Status{
	StatusPendingUpload,
	StatusUploading,
	StatusUploadFailed,
	StatusPendingVerification,
	StatusVerifying,
	StatusVerificationFailed,
	StatusUploadVerified,
	StatusCompleted,
	StatusSkipped,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Task represents one torrent's archive state persisted in SQLite.
type Task struct {
	ID                   int64
	Hash                 string
	Name                 string
	LocalPath            string
	RemotePath           string // empty when no destination was resolved
	Status               Status
	UploadAttempts       int
	VerificationAttempts int
	ErrorMessage         string
	UploadSize           int64
	AddedAt              time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusError:
		return true
	default:
		return false
	}
}

// FailureStatus maps the status a task held when a step blew up to the
// retryable failed variant for that stage. Statuses outside the upload and
// verification stages fall through to the terminal error status.
func FailureStatus(current Status) Status {
	switch current {
	case StatusPendingUpload, StatusUploading, StatusUploadFailed:
		return StatusUploadFailed
	case StatusPendingVerification, StatusVerifying, StatusVerificationFailed:
		return StatusVerificationFailed
	default:
		return StatusError
	}
}

// StageLabel returns a human-readable stage name for notifications and the CLI.
func (s Status) StageLabel() string {
	parts := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
