package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

var _ FixtureStore = (*SQLiteFixtureStorage)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS competitions (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	country TEXT,
	logo TEXT
);

CREATE TABLE IF NOT EXISTS teams (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	logo TEXT,
	country TEXT
);

CREATE TABLE IF NOT EXISTS fixtures (
	id INTEGER PRIMARY KEY,
	competition_id INTEGER,
	season INTEGER NOT NULL DEFAULT 0,
	round TEXT,
	date_utc DATETIME NOT NULL,
	status_short TEXT NOT NULL DEFAULT 'NS',
	status_long TEXT,
	home_team_id INTEGER,
	away_team_id INTEGER,
	goals_home INTEGER,
	goals_away INTEGER,
	goals_home_ht INTEGER,
	goals_away_ht INTEGER,
	corners_home INTEGER,
	corners_away INTEGER,
	cards_home INTEGER,
	cards_away INTEGER
);

CREATE INDEX IF NOT EXISTS idx_fixtures_home_team ON fixtures(home_team_id, date_utc);
CREATE INDEX IF NOT EXISTS idx_fixtures_away_team ON fixtures(away_team_id, date_utc);
CREATE INDEX IF NOT EXISTS idx_fixtures_date_utc ON fixtures(date_utc);
`

// SQLiteFixtureStorage is the single-file backend for local runs and tests.
type SQLiteFixtureStorage struct {
	sqlFixtureStorage
}

// NewSQLiteFixtureStorage opens (or creates) the database at cfg.Path.
// ":memory:" gives a throwaway database.
func NewSQLiteFixtureStorage(cfg *config.SQLiteConfig) (*SQLiteFixtureStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := cfg.Path
	if !strings.Contains(dsn, "?") {
		// Store timestamps as "2006-01-02 15:04:05.999999999-07:00" so they sort as text.
		dsn += "?_time_format=sqlite"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: SQLite serializes writers and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	storage := &SQLiteFixtureStorage{sqlFixtureStorage{
		db:      db,
		dialect: dialect{name: "sqlite", schema: sqliteSchema},
	}}
	if err := storage.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("SQLite fixture storage initialized successfully", "path", cfg.Path)
	return storage, nil
}
