package tasks_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"seedvault/internal/tasks"
	"seedvault/internal/testsupport"
)

func newTask(hash string) *tasks.Task {
	return &tasks.Task{
		Hash:       hash,
		Name:       "Task " + hash,
		LocalPath:  "/downloads/" + hash,
		RemotePath: "Archive/" + hash,
		Status:     tasks.StatusPendingUpload,
		UploadSize: 1024,
		AddedAt:    time.Now().UTC().Add(-time.Hour),
	}
}

func mustInsert(t *testing.T, store *tasks.Store, task *tasks.Task) {
	t.Helper()
	created, err := store.InsertIfAbsent(context.Background(), task)
	if err != nil {
		t.Fatalf("InsertIfAbsent failed: %v", err)
	}
	if !created {
		t.Fatalf("expected task %s to be created", task.Hash)
	}
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := newTask("abc123")
	mustInsert(t, store, task)
	if task.ID == 0 {
		t.Fatal("expected inserted task ID to be assigned")
	}

	// Move the task forward, then rediscover the same hash.
	task.Status = tasks.StatusUploading
	task.UploadAttempts = 2
	if err := store.Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	duplicate := newTask("abc123")
	created, err := store.InsertIfAbsent(ctx, duplicate)
	if err != nil {
		t.Fatalf("InsertIfAbsent duplicate failed: %v", err)
	}
	if created {
		t.Fatal("expected rediscovery to be a no-op")
	}

	fetched, err := store.GetByHash(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if fetched == nil || fetched.Status != tasks.StatusUploading || fetched.UploadAttempts != 2 {
		t.Fatalf("rediscovery disturbed the existing row: %#v", fetched)
	}
}

func TestGetByHashMissingRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	fetched, err := store.GetByHash(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if fetched != nil {
		t.Fatalf("expected nil for missing hash, got %#v", fetched)
	}
}

func TestUpdateMissingRowFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	task := newTask("ghost")
	if err := store.Update(context.Background(), task); err == nil {
		t.Fatal("expected error updating a missing row")
	}
}

func TestActionableRespectsRetryCeilings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		hash     string
		status   tasks.Status
		uploads  int
		verifies int
		want     bool
	}{
		{"fresh", tasks.StatusPendingUpload, 0, 0, true},
		{"retryable-upload", tasks.StatusUploadFailed, 2, 0, true},
		{"exhausted-upload", tasks.StatusUploadFailed, 3, 0, false},
		{"awaiting-verify", tasks.StatusPendingVerification, 1, 0, true},
		{"retryable-verify", tasks.StatusVerificationFailed, 1, 2, true},
		{"exhausted-verify", tasks.StatusVerificationFailed, 1, 3, false},
		{"verified", tasks.StatusUploadVerified, 1, 1, true},
		{"done", tasks.StatusCompleted, 1, 1, false},
		{"skipped", tasks.StatusSkipped, 0, 0, false},
		{"errored", tasks.StatusError, 1, 1, false},
	}

	for _, tc := range cases {
		task := newTask(tc.hash)
		mustInsert(t, store, task)
		task.Status = tc.status
		task.UploadAttempts = tc.uploads
		task.VerificationAttempts = tc.verifies
		if err := store.Update(ctx, task); err != nil {
			t.Fatalf("Update %s failed: %v", tc.hash, err)
		}
	}

	actionable, err := store.Actionable(ctx, 3, 3, 50)
	if err != nil {
		t.Fatalf("Actionable failed: %v", err)
	}

	got := make(map[string]bool, len(actionable))
	for _, task := range actionable {
		got[task.Hash] = true
	}
	for _, tc := range cases {
		if got[tc.hash] != tc.want {
			t.Errorf("hash %s: actionable = %v, want %v", tc.hash, got[tc.hash], tc.want)
		}
	}
}

func TestActionableOrdersByStageThenAge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	insert := func(hash string, status tasks.Status) {
		task := newTask(hash)
		mustInsert(t, store, task)
		if status != tasks.StatusPendingUpload {
			task.Status = status
			if err := store.Update(ctx, task); err != nil {
				t.Fatalf("Update %s failed: %v", hash, err)
			}
		}
	}

	insert("verified", tasks.StatusUploadVerified)
	insert("pending-b", tasks.StatusPendingUpload)
	insert("pending-a", tasks.StatusPendingUpload)
	insert("verify-wait", tasks.StatusPendingVerification)

	actionable, err := store.Actionable(ctx, 3, 3, 10)
	if err != nil {
		t.Fatalf("Actionable failed: %v", err)
	}

	want := []string{"pending-b", "pending-a", "verify-wait", "verified"}
	if len(actionable) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(actionable))
	}
	for i, hash := range want {
		if actionable[i].Hash != hash {
			t.Fatalf("position %d: got %s, want %s", i, actionable[i].Hash, hash)
		}
	}
}

func TestActionableHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustInsert(t, store, newTask(fmt.Sprintf("hash-%d", i)))
	}

	actionable, err := store.Actionable(ctx, 3, 3, 2)
	if err != nil {
		t.Fatalf("Actionable failed: %v", err)
	}
	if len(actionable) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(actionable))
	}

	none, err := store.Actionable(ctx, 3, 3, 0)
	if err != nil {
		t.Fatalf("Actionable with zero limit failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no tasks for zero limit, got %d", len(none))
	}
}

func TestResetStuckMovesInFlightToFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		hash   string
		status tasks.Status
		want   tasks.Status
	}{
		{"mid-upload", tasks.StatusUploading, tasks.StatusUploadFailed},
		{"mid-verify", tasks.StatusVerifying, tasks.StatusVerificationFailed},
		{"untouched", tasks.StatusPendingUpload, tasks.StatusPendingUpload},
	}

	for _, tc := range cases {
		task := newTask(tc.hash)
		mustInsert(t, store, task)
		task.Status = tc.status
		if err := store.Update(ctx, task); err != nil {
			t.Fatalf("Update %s failed: %v", tc.hash, err)
		}
	}

	reset, err := store.ResetStuck(ctx)
	if err != nil {
		t.Fatalf("ResetStuck failed: %v", err)
	}
	if reset != 2 {
		t.Fatalf("expected 2 rows reset, got %d", reset)
	}

	for _, tc := range cases {
		fetched, err := store.GetByHash(ctx, tc.hash)
		if err != nil {
			t.Fatalf("GetByHash %s failed: %v", tc.hash, err)
		}
		if fetched.Status != tc.want {
			t.Errorf("hash %s: status = %s, want %s", tc.hash, fetched.Status, tc.want)
		}
	}
}

func TestResetForRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cases := []struct {
		hash         string
		status       tasks.Status
		wantStatus   tasks.Status
		wantUploads  int
		wantVerifies int
	}{
		{"failed-upload", tasks.StatusUploadFailed, tasks.StatusPendingUpload, 0, 0},
		{"failed-verify", tasks.StatusVerificationFailed, tasks.StatusPendingVerification, 3, 0},
		{"hard-error", tasks.StatusError, tasks.StatusPendingUpload, 0, 0},
	}

	for _, tc := range cases {
		task := newTask(tc.hash)
		mustInsert(t, store, task)
		task.Status = tc.status
		task.UploadAttempts = 3
		task.VerificationAttempts = 3
		task.ErrorMessage = "boom"
		if err := store.Update(ctx, task); err != nil {
			t.Fatalf("Update %s failed: %v", tc.hash, err)
		}

		if err := store.ResetForRetry(ctx, tc.hash); err != nil {
			t.Fatalf("ResetForRetry %s failed: %v", tc.hash, err)
		}

		fetched, err := store.GetByHash(ctx, tc.hash)
		if err != nil {
			t.Fatalf("GetByHash %s failed: %v", tc.hash, err)
		}
		if fetched.Status != tc.wantStatus {
			t.Errorf("hash %s: status = %s, want %s", tc.hash, fetched.Status, tc.wantStatus)
		}
		if fetched.UploadAttempts != tc.wantUploads || fetched.VerificationAttempts != tc.wantVerifies {
			t.Errorf("hash %s: attempts = %d/%d, want %d/%d",
				tc.hash, fetched.UploadAttempts, fetched.VerificationAttempts, tc.wantUploads, tc.wantVerifies)
		}
		if fetched.ErrorMessage != "" {
			t.Errorf("hash %s: error message not cleared: %q", tc.hash, fetched.ErrorMessage)
		}
	}
}

func TestResetForRetryRejectsNonFailedStatuses(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := newTask("busy")
	mustInsert(t, store, task)

	if err := store.ResetForRetry(ctx, "busy"); err == nil {
		t.Fatal("expected error retrying a pending task")
	}
	if err := store.ResetForRetry(ctx, "missing"); err == nil {
		t.Fatal("expected error retrying an unknown hash")
	}
}

func TestMarkSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	task := newTask("skipme")
	mustInsert(t, store, task)

	if err := store.MarkSkipped(ctx, "skipme"); err != nil {
		t.Fatalf("MarkSkipped failed: %v", err)
	}
	fetched, err := store.GetByHash(ctx, "skipme")
	if err != nil {
		t.Fatalf("GetByHash failed: %v", err)
	}
	if fetched.Status != tasks.StatusSkipped {
		t.Fatalf("status = %s, want skipped", fetched.Status)
	}

	// Terminal tasks cannot be skipped again.
	if err := store.MarkSkipped(ctx, "skipme"); err == nil {
		t.Fatal("expected error skipping a terminal task")
	}
}

func TestListAndCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustInsert(t, store, newTask(fmt.Sprintf("pending-%d", i)))
	}
	done := newTask("done")
	mustInsert(t, store, done)
	done.Status = tasks.StatusCompleted
	now := time.Now().UTC()
	done.CompletedAt = &now
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(all))
	}

	completed, err := store.List(ctx, tasks.StatusCompleted)
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(completed) != 1 || completed[0].Hash != "done" {
		t.Fatalf("unexpected filtered result: %#v", completed)
	}
	if completed[0].CompletedAt == nil {
		t.Fatal("expected completed_at round-trip")
	}

	counts, err := store.CountsByStatus(ctx)
	if err != nil {
		t.Fatalf("CountsByStatus failed: %v", err)
	}
	if counts[tasks.StatusPendingUpload] != 3 || counts[tasks.StatusCompleted] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
