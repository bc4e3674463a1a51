package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/models"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
)

// ErrNotFound is returned when an update targets a missing row.
var ErrNotFound = errors.New("not found")

// FixtureReader reads fixture history and reference data
type FixtureReader interface {
	// FinishedFixtures returns finished fixtures of a team, most recent first.
	// limit <= 0 returns all of them.
	FinishedFixtures(ctx context.Context, teamID int64, limit int) ([]models.FixtureRow, error)

	// TeamFixtures returns every fixture of a team whatever its status.
	TeamFixtures(ctx context.Context, teamID int64) ([]models.FixtureRow, error)

	// UpcomingFixtures returns not-yet-finished fixtures kicking off in [from, to).
	UpcomingFixtures(ctx context.Context, from, to time.Time) ([]models.FixtureRow, error)

	// FixturesSince returns fixtures kicking off at or after since.
	FixturesSince(ctx context.Context, since time.Time) ([]models.FixtureRow, error)

	// Teams returns the teams with the given ids, keyed by id.
	Teams(ctx context.Context, ids []int64) (map[int64]models.Team, error)

	// Competitions returns all competitions keyed by id.
	Competitions(ctx context.Context) (map[int64]models.Competition, error)

	Ping(ctx context.Context) error
}

// FixtureWriter persists fixtures and reference data
type FixtureWriter interface {
	UpsertCompetitions(ctx context.Context, comps []models.Competition) error
	UpsertTeams(ctx context.Context, teams []models.Team) error
	UpsertFixtures(ctx context.Context, rows []models.FixtureRow) error

	// UpdateFixtureResult overwrites status and scores of one fixture.
	UpdateFixtureResult(ctx context.Context, res models.FixtureResult) error
}

// FixtureStore is the full storage used by the service
type FixtureStore interface {
	FixtureReader
	FixtureWriter

	// Close closes the database connection
	Close() error
}

// StatsCache keeps computed team statistics for a short time
type StatsCache interface {
	Get(ctx context.Context, key string) (*stats.TeamStatistics, bool, error)
	Set(ctx context.Context, key string, value *stats.TeamStatistics) error
}

// AnalysisCache keeps AI analyses keyed by their input payload
type AnalysisCache interface {
	Get(key string) (string, bool)
	Add(key, value string)
	Len() int
}
