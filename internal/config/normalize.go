package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DocumentsDir) == "" {
		c.Paths.DocumentsDir = defaultDocumentsDir
	}
	if c.Paths.DocumentsDir, err = expandPath(c.Paths.DocumentsDir); err != nil {
		return fmt.Errorf("paths.documents_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(strings.TrimSpace(c.Paths.StagingDir)); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OverridesPath, err = expandPath(strings.TrimSpace(c.Paths.OverridesPath)); err != nil {
		return fmt.Errorf("paths.overrides_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", "sqlite3":
		c.Store.Driver = DriverSQLite
	case "pg", "postgresql":
		c.Store.Driver = DriverPostgres
	}
	var err error
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = defaultSQLitePath
	}
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	c.Store.PostgresHost = envFallback(c.Store.PostgresHost, "SDS_DB_HOSTNAME")
	c.Store.PostgresUser = envFallback(c.Store.PostgresUser, "SDS_DB_USERNAME")
	c.Store.PostgresPassword = envFallback(c.Store.PostgresPassword, "SDS_DB_PASSWORD")
	c.Store.PostgresDatabase = envFallback(c.Store.PostgresDatabase, "SDS_DB_DATABASE")
	if c.Store.PostgresPort <= 0 {
		c.Store.PostgresPort = defaultPostgresPort
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	c.Extraction.Command = strings.TrimSpace(c.Extraction.Command)
	if c.Extraction.Command == "" {
		c.Extraction.Command = defaultExtractCommand
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		c.Extraction.TimeoutSeconds = defaultExtractTimeout
	}
	if c.Extraction.BatchSize <= 0 {
		c.Extraction.BatchSize = defaultBatchSize
	}
	exts := make([]string, 0, len(c.Extraction.Extensions))
	seen := make(map[string]struct{}, len(c.Extraction.Extensions))
	for _, ext := range c.Extraction.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}
	c.Extraction.Extensions = exts
}

func (c *Config) normalizeMerge() {
	c.Merge.Mode = strings.ToLower(strings.TrimSpace(c.Merge.Mode))
	if c.Merge.Mode == "" {
		c.Merge.Mode = MergeModeVendor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("SDS_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}

func urlEscape(value string) string {
	return url.QueryEscape(value)
}
