package staging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sdsscan/internal/logging"
	"sdsscan/internal/staging"
)

func TestStageCopiesOnce(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in", "Lemon-Tart.PDF")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	stagingDir := filepath.Join(root, "staging")

	dst, copied, err := staging.Stage(stagingDir, "MB", "Lemon Tart", src)
	if err != nil || !copied {
		t.Fatalf("Stage: copied=%v err=%v", copied, err)
	}
	if want := filepath.Join(stagingDir, "MB", "lemon-tart.pdf"); dst != want {
		t.Fatalf("dst = %q, want %q", dst, want)
	}

	_, copied, err = staging.Stage(stagingDir, "MB", "Lemon Tart", src)
	if err != nil {
		t.Fatalf("second Stage: %v", err)
	}
	if copied {
		t.Fatal("expected existing staged file to be skipped")
	}
}

func TestCleanStaleRemovesOldFiles(t *testing.T) {
	stagingDir := t.TempDir()
	oldDir := filepath.Join(stagingDir, "FW")
	keepDir := filepath.Join(stagingDir, "MB")
	for _, dir := range []string{oldDir, keepDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	oldFile := filepath.Join(oldDir, "old.pdf")
	newFile := filepath.Join(keepDir, "new.pdf")
	for _, f := range []string{oldFile, newFile} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatal(err)
	}

	result := staging.CleanStale(context.Background(), stagingDir, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != oldFile {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatal("expected emptied vendor directory to be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}

func TestCleanStaleEmptyDirIsNoop(t *testing.T) {
	result := staging.CleanStale(context.Background(), "", time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestListDirectories(t *testing.T) {
	stagingDir := t.TempDir()
	for _, code := range []string{"VTA", "CAP"} {
		dir := filepath.Join(stagingDir, code)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("abcd"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	dirs, err := staging.ListDirectories(stagingDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 || dirs[0].Name != "CAP" || dirs[1].Name != "VTA" {
		t.Fatalf("unexpected dirs %+v", dirs)
	}
	if dirs[0].Files != 1 || dirs[0].Size != 4 {
		t.Fatalf("unexpected stats %+v", dirs[0])
	}
}
