package storage

import (
	"fmt"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

// OpenFixtureStore opens the fixture store selected by storage.driver.
func OpenFixtureStore(cfg *config.Config) (FixtureStore, error) {
	switch cfg.Storage.Driver {
	case "", "postgres":
		return NewPostgresFixtureStorage(&cfg.Postgres)
	case "sqlite":
		return NewSQLiteFixtureStorage(&cfg.SQLite)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
