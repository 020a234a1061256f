package runner

import (
	"context"
	"fmt"

	"sdsscan/internal/config"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/store"
	"sdsscan/internal/store/postgres"
	"sdsscan/internal/store/sqlite"
)

// Store is a store that can be both read by the pipeline and seeded.
type Store interface {
	store.Repository
	store.Seeder
}

// OpenStore opens the store selected by cfg.Store.Driver. When migrate is
// set, missing Postgres tables are created; SQLite always ensures its schema.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrPersistence, "store", "open sqlite", cfg.Store.SQLitePath, err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrPersistence, "store", "open postgres", cfg.Store.PostgresHost, err)
		}
		if migrate {
			if err := s.Migrate(ctx); err != nil {
				_ = s.Close()
				return nil, pipeline.Wrap(pipeline.ErrPersistence, "store", "migrate postgres", "", err)
			}
		}
		return s, nil
	default:
		return nil, pipeline.Wrap(pipeline.ErrConfiguration, "store", "open", fmt.Sprintf("driver %q", cfg.Store.Driver), nil)
	}
}
