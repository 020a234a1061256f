package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return errors.New("store.sqlite_path must be set when store.driver is sqlite")
		}
	case DriverPostgres:
		if c.Store.PostgresHost == "" {
			return errors.New("store.postgres_host is required for the postgres driver (or set SDS_DB_HOSTNAME)")
		}
		if c.Store.PostgresDatabase == "" {
			return errors.New("store.postgres_database is required for the postgres driver (or set SDS_DB_DATABASE)")
		}
	default:
		return fmt.Errorf("store.driver: unsupported value %q (want sqlite or postgres)", c.Store.Driver)
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.BatchSize <= 0 {
		return errors.New("extraction.batch_size must be positive")
	}
	if c.Extraction.TimeoutSeconds <= 0 {
		return errors.New("extraction.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMerge() error {
	switch c.Merge.Mode {
	case MergeModeVendor, MergeModeRun:
		return nil
	default:
		return fmt.Errorf("merge.mode: unsupported value %q (want vendor or run)", c.Merge.Mode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
