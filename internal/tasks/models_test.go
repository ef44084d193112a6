package tasks_test

import (
	"testing"

	"seedvault/internal/tasks"
)

func TestParseStatus(t *testing.T) {
	if status, ok := tasks.ParseStatus(" Upload_Failed "); !ok || status != tasks.StatusUploadFailed {
		t.Fatalf("ParseStatus = %q, %v", status, ok)
	}
	if _, ok := tasks.ParseStatus("nonsense"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := tasks.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestFailureStatus(t *testing.T) {
	cases := map[tasks.Status]tasks.Status{
		tasks.StatusPendingUpload:       tasks.StatusUploadFailed,
		tasks.StatusUploading:           tasks.StatusUploadFailed,
		tasks.StatusPendingVerification: tasks.StatusVerificationFailed,
		tasks.StatusVerifying:           tasks.StatusVerificationFailed,
		tasks.StatusUploadVerified:      tasks.StatusError,
		tasks.StatusCompleted:           tasks.StatusError,
	}
	for current, want := range cases {
		if got := tasks.FailureStatus(current); got != want {
			t.Errorf("FailureStatus(%s) = %s, want %s", current, got, want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range tasks.AllStatuses() {
		terminal := status == tasks.StatusCompleted || status == tasks.StatusSkipped || status == tasks.StatusError
		if status.IsTerminal() != terminal {
			t.Errorf("%s.IsTerminal() = %v", status, status.IsTerminal())
		}
	}
}

func TestStageLabel(t *testing.T) {
	if got := tasks.StatusPendingVerification.StageLabel(); got != "Pending Verification" {
		t.Fatalf("StageLabel = %q", got)
	}
}
