package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sdsscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Merging is non-interactive and log retention is disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DocumentsDir = filepath.Join(base, "documents")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StagingDir = ""
	cfgVal.Paths.OverridesPath = filepath.Join(base, "overrides.csv")
	cfgVal.Store.SQLitePath = filepath.Join(base, "db", "sds.db")
	cfgVal.Merge.Interactive = false
	cfgVal.Logging.RetentionDays = 0
	cfgVal.Extraction.BatchSize = 4

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStaging enables the staging tree under the test base directory.
func WithStaging() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.StagingDir = filepath.Join(b.baseDir, "staging")
	}
}

// WithMergeMode sets merge.mode.
func WithMergeMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Merge.Mode = mode
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, pdftotext is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"pdftotext"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DocumentsDir)
}
