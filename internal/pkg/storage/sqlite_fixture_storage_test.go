package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/models"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
)

func newTestStore(t *testing.T) *SQLiteFixtureStorage {
	t.Helper()
	s, err := NewSQLiteFixtureStorage(&config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fixture(id int64, date time.Time, status string, home, away int64, gh, ga *int) models.FixtureRow {
	return models.FixtureRow{
		ID:            id,
		CompetitionID: models.Int64Ptr(61),
		Season:        2024,
		DateUTC:       date,
		StatusShort:   status,
		HomeTeamID:    models.Int64Ptr(home),
		AwayTeamID:    models.Int64Ptr(away),
		GoalsHome:     gh,
		GoalsAway:     ga,
	}
}

func seed(t *testing.T, s *SQLiteFixtureStorage) time.Time {
	t.Helper()
	ctx := context.Background()
	n := models.IntPtr
	day := time.Date(2024, 11, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertCompetitions(ctx, []models.Competition{{ID: 61, Name: "Ligue 1", Country: "France"}}))
	require.NoError(t, s.UpsertTeams(ctx, []models.Team{
		{ID: 1, Name: "Lyon"},
		{ID: 2, Name: "Nantes"},
		{ID: 3, Name: "Lens"},
	}))

	withHT := fixture(12, day.AddDate(0, 0, -7), models.StatusFullTime, 3, 1, n(1), n(1))
	withHT.GoalsHomeHT, withHT.GoalsAwayHT = n(0), n(1)

	require.NoError(t, s.UpsertFixtures(ctx, []models.FixtureRow{
		fixture(10, day.AddDate(0, 0, -21), models.StatusFullTime, 1, 2, n(2), n(0)),
		fixture(11, day.AddDate(0, 0, -14), models.StatusAfterExtra, 2, 1, n(3), n(3)),
		withHT,
		fixture(13, day.AddDate(0, 0, 1), models.StatusNotStarted, 1, 3, nil, nil),
		fixture(14, day.AddDate(0, 0, 3), models.StatusNotStarted, 2, 3, nil, nil),
	}))
	return day
}

func TestSQLiteFixtureStorage_FinishedFixtures(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	rows, err := s.FinishedFixtures(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{12, 11, 10}, []int64{rows[0].ID, rows[1].ID, rows[2].ID})

	latest := rows[0]
	assert.Equal(t, "Lens", latest.HomeTeamName)
	assert.Equal(t, "Lyon", latest.AwayTeamName)
	require.NotNil(t, latest.GoalsHomeHT)
	assert.Equal(t, 0, *latest.GoalsHomeHT)
	assert.Equal(t, 1, *latest.GoalsAwayHT)
	assert.Nil(t, latest.CornersHome)
	assert.Equal(t, time.UTC, latest.DateUTC.Location())
	assert.Equal(t, int64(61), *latest.CompetitionID)

	limited, err := s.FinishedFixtures(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	res := stats.Normalize(1, rows)
	assert.Len(t, res.Played(), 3)
}

func TestSQLiteFixtureStorage_FinishedFixturesSkipsUnscored(t *testing.T) {
	s := newTestStore(t)
	day := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpsertFixtures(ctx, []models.FixtureRow{
		fixture(15, day.AddDate(0, 0, -1), models.StatusFullTime, 1, 2, nil, nil),
	}))

	rows, err := s.FinishedFixtures(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []int64{12, 11}, []int64{rows[0].ID, rows[1].ID})
}

func TestSQLiteFixtureStorage_Upcoming(t *testing.T) {
	s := newTestStore(t)
	day := seed(t, s)
	ctx := context.Background()

	rows, err := s.UpcomingFixtures(ctx, day, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(13), rows[0].ID)
	assert.Nil(t, rows[0].GoalsHome)

	all, err := s.TeamFixtures(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	since, err := s.FixturesSince(ctx, day.AddDate(0, 0, -10))
	require.NoError(t, err)
	assert.Len(t, since, 3)
}

func TestSQLiteFixtureStorage_TeamsAndCompetitions(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	teams, err := s.Teams(ctx, []int64{1, 3, 99})
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Equal(t, "Lens", teams[3].Name)

	empty, err := s.Teams(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	comps, err := s.Competitions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ligue 1", comps[61].Name)

	require.NoError(t, s.UpsertTeams(ctx, []models.Team{{ID: 1, Name: "Olympique Lyonnais"}}))
	teams, err = s.Teams(ctx, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, "Olympique Lyonnais", teams[1].Name)
}

func TestSQLiteFixtureStorage_UpdateFixtureResult(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()
	n := models.IntPtr

	err := s.UpdateFixtureResult(ctx, models.FixtureResult{
		FixtureID:   13,
		StatusShort: models.StatusFullTime,
		StatusLong:  "Match Finished",
		GoalsHome:   n(2),
		GoalsAway:   n(2),
		GoalsHomeHT: n(1),
		GoalsAwayHT: n(0),
	})
	require.NoError(t, err)

	rows, err := s.FinishedFixtures(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(13), rows[0].ID)
	assert.Equal(t, "Match Finished", rows[0].StatusLong)
	assert.Equal(t, 2, *rows[0].GoalsAway)

	err = s.UpdateFixtureResult(ctx, models.FixtureResult{FixtureID: 404, StatusShort: models.StatusFullTime})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebind(t *testing.T) {
	pg := sqlFixtureStorage{dialect: dialect{numbered: true}}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)", pg.rebind("SELECT a FROM t WHERE x = ? AND y IN (?, ?)"))

	lite := sqlFixtureStorage{}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestStatsCacheKey(t *testing.T) {
	key := StatsCacheKey(42, stats.PeriodSecondHalf, stats.Range{Last: 10})
	assert.Equal(t, "stats:team:42:2H:last=10,season=0", key)
}

func TestOpenFixtureStore(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	cfg.SQLite.Path = ":memory:"

	st, err := OpenFixtureStore(cfg)
	require.NoError(t, err)
	defer st.Close()
	assert.NoError(t, st.Ping(context.Background()))

	cfg.Storage.Driver = "mysql"
	_, err = OpenFixtureStore(cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}
