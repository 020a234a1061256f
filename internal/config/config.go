package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains document, staging, and log locations.
type Paths struct {
	DocumentsDir  string `toml:"documents_dir"`
	StagingDir    string `toml:"staging_dir"`
	LogDir        string `toml:"log_dir"`
	OverridesPath string `toml:"overrides_path"`
}

// Store selects and configures the relational backend.
type Store struct {
	Driver           string `toml:"driver"`
	SQLitePath       string `toml:"sqlite_path"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     int    `toml:"postgres_port"`
	PostgresUser     string `toml:"postgres_user"`
	PostgresPassword string `toml:"postgres_password"`
	PostgresDatabase string `toml:"postgres_database"`
}

// Extraction controls how document text is produced and how many documents
// are processed concurrently.
type Extraction struct {
	Command        string   `toml:"command"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	BatchSize      int      `toml:"batch_size"`
	Extensions     []string `toml:"extensions"`
}

// Merge controls reconciliation of findings against the store.
type Merge struct {
	// Mode is "vendor" (merge after each vendor drains) or "run" (merge once
	// after every vendor has been scanned).
	Mode        string `toml:"mode"`
	Interactive bool   `toml:"interactive"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sdsscan.
//
// Configuration sections:
//   - Paths: document root, staging copies, logs, override file
//   - Store: sqlite or postgres connection settings
//   - Extraction: pdftotext command, per-document timeout, window size
//   - Merge: merge cadence and prompt behaviour
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Store      Store      `toml:"store"`
	Extraction Extraction `toml:"extraction"`
	Merge      Merge      `toml:"merge"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sdsscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory, the sqlite parent directory,
// and the staging directory when staging is enabled. The documents directory
// is never created; a missing one is reported by the batch runner.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Store.Driver == DriverSQLite {
		dirs = append(dirs, filepath.Dir(c.Store.SQLitePath))
	}
	if c.StagingEnabled() {
		dirs = append(dirs, c.Paths.StagingDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StagingEnabled reports whether extracted documents are copied into the staging tree.
func (c *Config) StagingEnabled() bool {
	return strings.TrimSpace(c.Paths.StagingDir) != ""
}

// ExtractionTimeout returns the per-document text extraction deadline.
func (c *Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.Extraction.TimeoutSeconds) * time.Second
}

// PostgresDSN builds a connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		urlEscape(c.Store.PostgresUser),
		urlEscape(c.Store.PostgresPassword),
		c.Store.PostgresHost,
		c.Store.PostgresPort,
		c.Store.PostgresDatabase,
	)
}

// LockPath returns the single-writer lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "sdsscan.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
