package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seedvault/internal/fileutil"
)

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := fileutil.ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("ExpandPath = %q", got)
	}

	got, err = fileutil.ExpandPath("~")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != home {
		t.Fatalf("ExpandPath(~) = %q", got)
	}
}

func TestExpandPathEmpty(t *testing.T) {
	got, err := fileutil.ExpandPath("")
	if err != nil || got != "" {
		t.Fatalf("ExpandPath(\"\") = %q, %v", got, err)
	}
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if ok, err := fileutil.IsDir(dir); err != nil || !ok {
		t.Fatalf("IsDir(dir) = %v, %v", ok, err)
	}
	if ok, err := fileutil.IsDir(file); err != nil || ok {
		t.Fatalf("IsDir(file) = %v, %v", ok, err)
	}
	if _, err := fileutil.IsDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestTruncate(t *testing.T) {
	if got := fileutil.Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate = %q", got)
	}
	long := strings.Repeat("a", 100)
	got := fileutil.Truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("a", 10)) || !strings.HasSuffix(got, "(truncated)") {
		t.Fatalf("Truncate = %q", got)
	}
	if got := fileutil.Truncate(long, 0); got != long {
		t.Fatalf("zero limit should be a no-op, got %q", got)
	}
}
