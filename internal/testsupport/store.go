package testsupport

import (
	"testing"

	"seedvault/internal/config"
	"seedvault/internal/tasks"
)

// MustOpenStore opens a tasks.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tasks.Store {
	t.Helper()

	store, err := tasks.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("tasks.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
