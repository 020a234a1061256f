package config

const (
	defaultConfigPath       = "~/.config/sdsscan/config.toml"
	defaultDocumentsDir     = "~/sds/data"
	defaultLogDir           = "~/.local/share/sdsscan/logs"
	defaultOverridesPath    = "~/.config/sdsscan/overrides.csv"
	defaultSQLitePath       = "~/.local/share/sdsscan/sds.db"
	defaultPostgresPort     = 5432
	defaultExtractCommand   = "pdftotext"
	defaultExtractTimeout   = 120
	defaultBatchSize        = 100
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Merge cadences.
const (
	MergeModeVendor = "vendor"
	MergeModeRun    = "run"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DocumentsDir:  defaultDocumentsDir,
			LogDir:        defaultLogDir,
			OverridesPath: defaultOverridesPath,
		},
		Store: Store{
			Driver:       DriverSQLite,
			SQLitePath:   defaultSQLitePath,
			PostgresPort: defaultPostgresPort,
		},
		Extraction: Extraction{
			Command:        defaultExtractCommand,
			TimeoutSeconds: defaultExtractTimeout,
			BatchSize:      defaultBatchSize,
			Extensions:     []string{".pdf", ".txt"},
		},
		Merge: Merge{
			Mode:        MergeModeVendor,
			Interactive: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
