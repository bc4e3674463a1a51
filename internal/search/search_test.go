package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/models"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// fakeReader serves fixtures from memory.
type fakeReader struct {
	upcoming []models.FixtureRow
	history  map[int64][]models.FixtureRow
	teams    map[int64]models.Team
	failing  map[int64]bool
	slow     map[int64]bool
}

var _ storage.FixtureReader = (*fakeReader)(nil)

func (f *fakeReader) FinishedFixtures(ctx context.Context, teamID int64, limit int) ([]models.FixtureRow, error) {
	if f.slow[teamID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.failing[teamID] {
		return nil, errors.New("connection reset")
	}
	rows := f.history[teamID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeReader) TeamFixtures(_ context.Context, teamID int64) ([]models.FixtureRow, error) {
	return f.history[teamID], nil
}

func (f *fakeReader) UpcomingFixtures(_ context.Context, from, to time.Time) ([]models.FixtureRow, error) {
	var out []models.FixtureRow
	for _, r := range f.upcoming {
		if !r.DateUTC.Before(from) && r.DateUTC.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReader) FixturesSince(context.Context, time.Time) ([]models.FixtureRow, error) {
	return nil, nil
}

func (f *fakeReader) Teams(_ context.Context, ids []int64) (map[int64]models.Team, error) {
	out := make(map[int64]models.Team)
	for _, id := range ids {
		if t, ok := f.teams[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeReader) Competitions(context.Context) (map[int64]models.Competition, error) {
	return map[int64]models.Competition{61: {ID: 61, Name: "Ligue 1"}}, nil
}

func (f *fakeReader) Ping(context.Context) error { return nil }

func played(id, team, opponent int64, daysAgo, goalsFor, goalsAgainst int) models.FixtureRow {
	return models.FixtureRow{
		ID:          id,
		Season:      2024,
		DateUTC:     now.AddDate(0, 0, -daysAgo),
		StatusShort: models.StatusFullTime,
		HomeTeamID:  models.Int64Ptr(team),
		AwayTeamID:  models.Int64Ptr(opponent),
		GoalsHome:   models.IntPtr(goalsFor),
		GoalsAway:   models.IntPtr(goalsAgainst),
	}
}

func upcoming(id, home, away int64, kickoff time.Time, comp int64) models.FixtureRow {
	return models.FixtureRow{
		ID:            id,
		CompetitionID: models.Int64Ptr(comp),
		DateUTC:       kickoff,
		StatusShort:   models.StatusNotStarted,
		HomeTeamID:    models.Int64Ptr(home),
		AwayTeamID:    models.Int64Ptr(away),
	}
}

// Team 1: 2-1, 3-1, 2-1, 0-1 (most recent first).
// Team 2: 0-0, 1-0, 1-1, 0-1.
func newTestSearcher() *Searcher {
	store := &fakeReader{
		upcoming: []models.FixtureRow{
			upcoming(100, 1, 2, now.Add(6*time.Hour), 61),
			upcoming(101, 3, 4, now.Add(32*time.Hour), 99),
		},
		history: map[int64][]models.FixtureRow{
			1: {
				played(11, 1, 20, 1, 2, 1),
				played(12, 1, 21, 8, 3, 1),
				played(13, 1, 22, 15, 2, 1),
				played(14, 1, 23, 22, 0, 1),
			},
			2: {
				played(21, 2, 30, 3, 0, 0),
				played(22, 2, 31, 10, 1, 0),
				played(23, 2, 32, 17, 1, 1),
				played(24, 2, 33, 24, 0, 1),
			},
		},
		teams: map[int64]models.Team{
			1: {ID: 1, Name: "Lyon", Logo: "lyon.png"},
			2: {ID: 2, Name: "Nantes"},
			3: {ID: 3, Name: "Lens"},
		},
		failing: map[int64]bool{4: true},
	}
	s := NewSearcher(store, stats.NewEngine(stats.Options{}), config.SearchConfig{}, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func ids(rs []Result) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func intp(v int) *int { return &v }

func TestSearch_Defaults(t *testing.T) {
	s := newTestSearcher()

	resp, err := s.Search(context.Background(), Filters{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SearchID)
	require.Equal(t, []int64{1, 2}, ids(resp.Results))

	lyon := resp.Results[0]
	assert.Equal(t, "Lyon", lyon.Name)
	assert.Equal(t, "lyon.png", lyon.Logo)
	assert.Equal(t, "Ligue 1", lyon.League)
	assert.Equal(t, "Nantes", lyon.Opponent)
	assert.Equal(t, stats.MarketOver25, lyon.Market)
	assert.Equal(t, 75, lyon.ProbGreen)
	assert.Equal(t, 75, lyon.ProbBlue)
	assert.Equal(t, 3, lyon.Streak)
	assert.True(t, lyon.AboveAverage)
	assert.Equal(t, now.Add(6*time.Hour), lyon.NextMatchDate)
	require.NotNil(t, lyon.LastMatchDate)
	assert.Equal(t, now.AddDate(0, 0, -1), *lyon.LastMatchDate)

	nantes := resp.Results[1]
	assert.Equal(t, "Lyon", nantes.Opponent)
	assert.Equal(t, 0, nantes.ProbGreen)
	assert.Equal(t, 0, nantes.ProbBlue, "inactive streak counts as 0")
	assert.False(t, nantes.AboveAverage)
}

func TestSearch_ProbabilityBands(t *testing.T) {
	s := newTestSearcher()
	ctx := context.Background()
	off := false

	tests := []struct {
		name string
		f    Filters
		want []int64
	}{
		{"green min", Filters{ProbGreenMin: intp(50)}, []int64{1}},
		{"green max", Filters{ProbGreenMax: intp(10)}, []int64{2}},
		{"blue min", Filters{ProbBlueMin: intp(1)}, []int64{1}},
		{"blue ignored", Filters{ProbBlueMin: intp(1), UseBlue: &off}, []int64{1, 2}},
		{"empty band", Filters{ProbGreenMin: intp(80), ProbGreenMax: intp(90)}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Search(ctx, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp.Results))
		})
	}
}

func TestSearch_MultipleMarkets(t *testing.T) {
	s := newTestSearcher()

	resp, err := s.Search(context.Background(), Filters{Markets: []string{"under_1.5", "DC_1X"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, stats.MarketUnder15, resp.Results[0].Market)
	assert.Equal(t, stats.MarketDC1X, resp.Results[1].Market)
	// Lyon: one match of four with 1 goal or less.
	assert.Equal(t, 25, resp.Results[0].ProbGreen)
	assert.Equal(t, 75, resp.Results[1].ProbGreen)
}

func TestSearch_WindowAndSkippedTeams(t *testing.T) {
	s := newTestSearcher()
	ctx := context.Background()

	resp, err := s.Search(ctx, Filters{NextMatch: WindowJ1, SortBy: SortLastMatch})
	require.NoError(t, err)
	// Team 3 has no history, team 4 fails to load.
	assert.Equal(t, []int64{2, 1}, ids(resp.Results))

	resp, err = s.Search(ctx, Filters{NextMatch: WindowJ1, SortBy: SortLastMatch, SortDesc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(resp.Results))
}

func TestSearch_SlowTeamDropsOut(t *testing.T) {
	s := newTestSearcher()
	s.store.(*fakeReader).slow = map[int64]bool{2: true}
	s.cfg.TeamTimeout = 20 * time.Millisecond

	start := time.Now()
	resp, err := s.Search(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(resp.Results))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSearch_FactFilters(t *testing.T) {
	s := newTestSearcher()
	ctx := context.Background()

	resp, err := s.Search(ctx, Filters{FactType: FactResult, ResultType: Result1, StreakMin: intp(2)})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids(resp.Results))
	require.NotNil(t, resp.Results[0].FactStreak)
	assert.Equal(t, 3, *resp.Results[0].FactStreak)

	resp, err = s.Search(ctx, Filters{FactType: FactCleanSheet, StreakMin: intp(2)})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(resp.Results))

	line := 1.5
	resp, err = s.Search(ctx, Filters{FactType: FactOverUnder, OverUnderDirection: "UNDER", OverUnderLine: &line})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(resp.Results))
}

func TestSearch_NextMatchBelow(t *testing.T) {
	s := newTestSearcher()
	ctx := context.Background()

	// Lyon last total 3 > 1.5; Nantes last total 0.
	resp, err := s.Search(ctx, Filters{NextMatchBelowEnabled: true})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids(resp.Results))
	below := resp.Results[0].NextBelow
	require.NotNil(t, below)
	assert.True(t, below.LastAbove)
	assert.Equal(t, 2, below.Triggers)
	assert.Equal(t, 0, below.Percent)

	resp, err = s.Search(ctx, Filters{NextMatchBelowEnabled: true, NextMatchBelowMinPercent: intp(50)})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_InvalidFilters(t *testing.T) {
	s := newTestSearcher()
	ctx := context.Background()
	neg := -1.0

	_, err := s.Search(ctx, Filters{Markets: []string{"OVER_9_5"}})
	assert.ErrorIs(t, err, stats.ErrUnknownMarket)

	_, err = s.Search(ctx, Filters{NextMatch: "j9"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.Search(ctx, Filters{Period: "3H"})
	assert.ErrorIs(t, err, stats.ErrUnknownPeriod)

	_, err = s.Search(ctx, Filters{FactType: FactResult, ResultType: "3"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.Search(ctx, Filters{NextMatchBelowEnabled: true, NextMatchBelowLine: &neg})
	assert.ErrorIs(t, err, stats.ErrInvalidThreshold)

	_, err = s.Search(ctx, Filters{SortBy: "name"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestWindowBounds(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC) // 00:30 on the 11th in Paris

	from, to, err := WindowJ1.Bounds(late, paris)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, paris), from)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, paris), to)

	from, to, err = Window("").Bounds(late, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestCollectCandidates_KeepsEarliestFixture(t *testing.T) {
	rows := []models.FixtureRow{
		upcoming(2, 1, 3, now.Add(48*time.Hour), 61),
		upcoming(1, 2, 1, now.Add(2*time.Hour), 61),
	}
	got := collectCandidates(rows)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].teamID)
	assert.Equal(t, int64(2), *got[0].opponentID)
	assert.Equal(t, now.Add(2*time.Hour), got[0].nextMatch)
}
