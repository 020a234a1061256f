package deps_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sdsscan/internal/deps"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	present := writeStub(t, dir, "present", "#!/bin/sh\nexit 0\n")
	versioned := writeStub(t, dir, "pdftotext", "#!/bin/sh\necho '' >&2\necho 'pdftotext version 24.02.0' >&2\nexit 99\n")

	results := deps.CheckBinaries(context.Background(), []deps.Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Text extractor", Command: versioned, VersionArgs: []string{"-v"}},
	})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("unexpected status for present binary: %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail: %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if !results[2].Available || results[2].Detail != "pdftotext version 24.02.0" {
		t.Fatalf("unexpected version probe: %#v", results[2])
	}
}

func TestCheckBinariesUnconfigured(t *testing.T) {
	results := deps.CheckBinaries(context.Background(), []deps.Requirement{{Name: "Text extractor", Command: "  "}})
	if results[0].Available || results[0].Detail != "command not configured" {
		t.Fatalf("unexpected status %#v", results[0])
	}
}
