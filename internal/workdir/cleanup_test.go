package workdir_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tactile/internal/logging"
	"tactile/internal/testsupport"
	"tactile/internal/workdir"
)

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	base := t.TempDir()

	stale := filepath.Join(base, "run-old")
	testsupport.WriteFile(t, filepath.Join(stale, "audio.wav"), 64)
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(base, "run-fresh")
	testsupport.WriteFile(t, filepath.Join(fresh, "audio.wav"), 64)

	result := workdir.CleanStale(base, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale directory should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh directory should survive: %v", err)
	}
}

func TestCleanStaleMissingWorkDir(t *testing.T) {
	result := workdir.CleanStale(filepath.Join(t.TempDir(), "absent"), time.Hour, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestListDirectories(t *testing.T) {
	base := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(base, "run-a", "audio.wav"), 128)
	testsupport.WriteFile(t, filepath.Join(base, "loose-file"), 8)

	dirs, err := workdir.ListDirectories(base)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 directory, got %d", len(dirs))
	}
	if dirs[0].Name != "run-a" || dirs[0].Size != 128 {
		t.Fatalf("unexpected dir info: %+v", dirs[0])
	}
}
