package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sdsscan/internal/testsupport"
)

func TestCLIStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStaging())
	seedCLIStore(t, env)
	testsupport.WriteDocuments(t, env.cfg.Paths.DocumentsDir, "CAP", map[string]string{
		"apple.txt": "Material name: Apple Pie Flavor\nCAS 57-48-7",
	})

	if _, _, err := runCLI(t, []string{"run", "--vendor", "CAP", "--no-overrides"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	staged := filepath.Join(env.cfg.Paths.StagingDir, "CAP", "apple-pie.txt")
	if _, err := os.Stat(staged); err != nil {
		t.Fatalf("expected staged copy: %v", err)
	}

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "CAP")
	requireContains(t, out, "Total: 1 directories")

	out, _, err = runCLI(t, []string{"staging", "clean", "--max-age", "24h"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "No staged documents to clean")

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(staged, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	out, _, err = runCLI(t, []string{"staging", "clean", "--max-age", "24h"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 staged paths")
	if _, err := os.Stat(filepath.Dir(staged)); !os.IsNotExist(err) {
		t.Fatalf("expected empty vendor directory removed, stat err = %v", err)
	}
}

func TestCLIStagingNotConfigured(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "Staging directory not configured")
}
