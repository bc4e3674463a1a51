package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

// Ensure PostgresFixtureStorage implements FixtureStore
var _ FixtureStore = (*PostgresFixtureStorage)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS competitions (
	id BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	country VARCHAR(100),
	logo VARCHAR(500)
);

CREATE TABLE IF NOT EXISTS teams (
	id BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	logo VARCHAR(500),
	country VARCHAR(100)
);

CREATE TABLE IF NOT EXISTS fixtures (
	id BIGINT PRIMARY KEY,
	competition_id BIGINT,
	season INTEGER NOT NULL DEFAULT 0,
	round VARCHAR(100),
	date_utc TIMESTAMPTZ NOT NULL,
	status_short VARCHAR(10) NOT NULL DEFAULT 'NS',
	status_long VARCHAR(100),
	home_team_id BIGINT,
	away_team_id BIGINT,
	goals_home INTEGER,
	goals_away INTEGER,
	goals_home_ht INTEGER,
	goals_away_ht INTEGER,
	corners_home INTEGER,
	corners_away INTEGER,
	cards_home INTEGER,
	cards_away INTEGER
);

CREATE INDEX IF NOT EXISTS idx_fixtures_home_team ON fixtures(home_team_id, date_utc DESC);
CREATE INDEX IF NOT EXISTS idx_fixtures_away_team ON fixtures(away_team_id, date_utc DESC);
CREATE INDEX IF NOT EXISTS idx_fixtures_date_utc ON fixtures(date_utc);
`

// PostgresFixtureStorage stores fixtures, teams and competitions in PostgreSQL
type PostgresFixtureStorage struct {
	sqlFixtureStorage
}

// NewPostgresFixtureStorage creates a new PostgreSQL fixture storage
func NewPostgresFixtureStorage(cfg *config.PostgresConfig) (*PostgresFixtureStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &PostgresFixtureStorage{sqlFixtureStorage{
		db:      db,
		dialect: dialect{name: "postgres", numbered: true, schema: postgresSchema},
	}}

	// Initialize schema
	if err := storage.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL fixture storage initialized successfully")
	return storage, nil
}
