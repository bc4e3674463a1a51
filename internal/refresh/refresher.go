package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/apifootball"
	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/models"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
)

const (
	ModeRecent = "REFRESH_STATUS_RECENT"

	defaultLookback = 10 * 24 * time.Hour
)

// FixtureSource is the upstream the fixtures come from.
type FixtureSource interface {
	GetFixture(ctx context.Context, id int64) (*apifootball.Fixture, error)
	GetLeagueFixtures(ctx context.Context, leagueID int64, season int) ([]apifootball.Fixture, error)
}

type FixtureError struct {
	FixtureID int64  `json:"fixtureId,omitempty"`
	Error     string `json:"error"`
}

// Report summarizes one refresh run.
type Report struct {
	Mode       string         `json:"mode"`
	Checked    int            `json:"checked"`
	Updated    int            `json:"updated"`
	ErrorCount int            `json:"errorCount"`
	Errors     []FixtureError `json:"errors"`
}

func (r *Report) addError(id int64, err error) {
	r.Errors = append(r.Errors, FixtureError{FixtureID: id, Error: err.Error()})
	r.ErrorCount = len(r.Errors)
}

type store interface {
	storage.FixtureReader
	storage.FixtureWriter
}

// Refresher keeps recent fixtures in sync with API-Football.
type Refresher struct {
	store    store
	source   FixtureSource
	lookback time.Duration
	now      func() time.Time
}

func NewRefresher(st store, source FixtureSource, cfg config.RefreshConfig) *Refresher {
	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &Refresher{store: st, source: source, lookback: lookback, now: time.Now}
}

// Run re-fetches every fixture kicked off within the lookback and writes
// back status and scores when they changed. Failures of single fixtures
// are collected in the report.
func (r *Refresher) Run(ctx context.Context) (*Report, error) {
	since := r.now().Add(-r.lookback)
	rows, err := r.store.FixturesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures since %s: %w", since.Format(time.RFC3339), err)
	}

	report := &Report{Mode: ModeRecent, Errors: []FixtureError{}}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		f, err := r.source.GetFixture(ctx, row.ID)
		if err != nil {
			report.addError(row.ID, err)
			continue
		}
		res := f.Result()
		if !changed(row, res) {
			continue
		}
		if err := r.store.UpdateFixtureResult(ctx, res); err != nil {
			report.addError(row.ID, err)
			continue
		}
		report.Updated++
		slog.Debug("Fixture updated",
			"fixture_id", row.ID,
			"status", res.StatusShort)
	}

	slog.Info("Fixture refresh finished",
		"checked", report.Checked,
		"updated", report.Updated,
		"errors", report.ErrorCount)
	return report, nil
}

// Import loads a whole league season into the store.
func (r *Refresher) Import(ctx context.Context, leagueID int64, season int) (int, error) {
	fixtures, err := r.source.GetLeagueFixtures(ctx, leagueID, season)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch league %d season %d: %w", leagueID, season, err)
	}
	if len(fixtures) == 0 {
		return 0, nil
	}

	comps := make(map[int64]models.Competition)
	teams := make(map[int64]models.Team)
	rows := make([]models.FixtureRow, 0, len(fixtures))
	for _, f := range fixtures {
		c := f.CompetitionRow()
		comps[c.ID] = c
		for _, t := range f.TeamRows() {
			teams[t.ID] = t
		}
		rows = append(rows, f.Row())
	}

	if err := r.store.UpsertCompetitions(ctx, mapValues(comps)); err != nil {
		return 0, fmt.Errorf("failed to save competitions: %w", err)
	}
	if err := r.store.UpsertTeams(ctx, mapValues(teams)); err != nil {
		return 0, fmt.Errorf("failed to save teams: %w", err)
	}
	if err := r.store.UpsertFixtures(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to save fixtures: %w", err)
	}
	slog.Info("League imported",
		"league_id", leagueID,
		"season", season,
		"fixtures", len(rows),
		"teams", len(teams))
	return len(rows), nil
}

func mapValues[K comparable, V any](m map[K]V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// changed reports whether the upstream result differs from the stored row.
func changed(row models.FixtureRow, res models.FixtureResult) bool {
	return row.StatusShort != res.StatusShort ||
		!sameInt(row.GoalsHome, res.GoalsHome) ||
		!sameInt(row.GoalsAway, res.GoalsAway) ||
		!sameInt(row.GoalsHomeHT, res.GoalsHomeHT) ||
		!sameInt(row.GoalsAwayHT, res.GoalsAwayHT)
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
