package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/models"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
)

const (
	defaultHistoryLimit = 50
	defaultConcurrency  = 8
	defaultTeamTimeout  = 5 * time.Second

	unknownLeague   = "Inconnu"
	unknownOpponent = "–"
)

// Result is one team/market pair that passed every filter.
type Result struct {
	ID            int64                        `json:"id"`
	Name          string                       `json:"name"`
	Logo          string                       `json:"logo,omitempty"`
	League        string                       `json:"league"`
	NextMatchDate time.Time                    `json:"nextMatchDate"`
	LastMatchDate *time.Time                   `json:"lastMatchDate,omitempty"`
	Opponent      string                       `json:"opponent"`
	Market        stats.MarketType             `json:"market"`
	ProbGreen     int                          `json:"probGreen"`
	ProbBlue      int                          `json:"probBlue"`
	AboveAverage  bool                         `json:"aboveAverage"`
	Streak        int                          `json:"streak"`
	FactStreak    *int                         `json:"factStreak,omitempty"`
	NextBelow     *stats.NextMatchBelowSummary `json:"nextMatchBelow,omitempty"`
}

type Response struct {
	SearchID string   `json:"search_id"`
	Results  []Result `json:"results"`
}

// candidate is a team playing inside the window.
type candidate struct {
	teamID        int64
	opponentID    *int64
	competitionID *int64
	nextMatch     time.Time
}

// Searcher scans the teams playing soon and keeps those whose markets match
// the filters.
type Searcher struct {
	store  storage.FixtureReader
	engine *stats.Engine
	cfg    config.SearchConfig
	loc    *time.Location
	now    func() time.Time
}

func NewSearcher(store storage.FixtureReader, engine *stats.Engine, cfg config.SearchConfig, loc *time.Location) *Searcher {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.TeamTimeout <= 0 {
		cfg.TeamTimeout = defaultTeamTimeout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Searcher{store: store, engine: engine, cfg: cfg, loc: loc, now: time.Now}
}

// Search runs the filters against every team with a match in the window.
// Teams whose history cannot be loaded in time are skipped.
func (s *Searcher) Search(ctx context.Context, f Filters) (*Response, error) {
	q, err := f.normalize()
	if err != nil {
		return nil, err
	}
	searchID := uuid.NewString()
	log := slog.With("search_id", searchID)
	started := time.Now()

	from, to, err := q.window.Bounds(s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.store.UpcomingFixtures(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming fixtures: %w", err)
	}
	candidates := collectCandidates(upcoming)
	if len(candidates) == 0 {
		log.Info("Search finished", "window", q.window, "candidates", 0, "results", 0)
		return &Response{SearchID: searchID, Results: []Result{}}, nil
	}

	ids := make([]int64, 0, len(candidates)*2)
	for _, c := range candidates {
		ids = append(ids, c.teamID)
		if c.opponentID != nil {
			ids = append(ids, *c.opponentID)
		}
	}
	teams, err := s.store.Teams(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	comps, err := s.store.Competitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitions: %w", err)
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(candidates))
		skipped int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, c := range candidates {
		g.Go(func() error {
			rs, err := s.evaluate(gctx, c, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				skipped++
				log.Warn("Team skipped", "team_id", c.teamID, "error", err)
				return nil
			}
			for i := range rs {
				decorate(&rs[i], c, teams, comps)
			}
			results = append(results, rs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortResults(results, q)
	log.Info("Search finished",
		"window", q.window,
		"candidates", len(candidates),
		"skipped", skipped,
		"results", len(results),
		"duration", time.Since(started))
	return &Response{SearchID: searchID, Results: results}, nil
}

// evaluate loads one team's history and resolves every requested market.
func (s *Searcher) evaluate(ctx context.Context, c candidate, q query) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TeamTimeout)
	defer cancel()

	rows, err := s.store.FinishedFixtures(ctx, c.teamID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	played := stats.Normalize(c.teamID, rows).Played()
	if len(played) == 0 {
		return nil, nil
	}

	team := s.engine.Team(q.period, played)

	var factStreak *int
	if q.fact != "" {
		key, err := q.fact.Key()
		if err != nil {
			return nil, err
		}
		flag, _ := team.Streaks.Lookup(key)
		if flag.Length < q.streakMin {
			return nil, nil
		}
		n := flag.Length
		factStreak = &n
	}

	var below *stats.NextMatchBelowSummary
	if q.below {
		summary, err := stats.ComputeNextMatchBelow(played, q.belowLine, stats.TotalGoals(q.period))
		if err != nil {
			return nil, err
		}
		if !summary.LastAbove || summary.Percent < q.belowPercent {
			return nil, nil
		}
		below = &summary
	}

	var last *time.Time
	if d, ok := stats.LastMatchDate(played); ok {
		last = &d
	}

	out := make([]Result, 0, len(q.markets))
	for _, m := range q.markets {
		prob, err := stats.Resolve(m, team.Stats, &team.Streaks)
		if err != nil {
			slog.Debug("Market not resolvable", "team_id", c.teamID, "market", m, "error", err)
			continue
		}
		blue := 0
		if prob.Blue != nil {
			blue = *prob.Blue
		}
		if prob.Green < q.greenMin || prob.Green > q.greenMax {
			continue
		}
		if q.useBlue && (blue < q.blueMin || blue > q.blueMax) {
			continue
		}
		key, _ := m.Key()
		flag, _ := team.Streaks.Lookup(key)
		out = append(out, Result{
			ID:            c.teamID,
			NextMatchDate: c.nextMatch,
			LastMatchDate: last,
			Market:        m,
			ProbGreen:     prob.Green,
			ProbBlue:      blue,
			AboveAverage:  prob.Green >= 50,
			Streak:        flag.Length,
			FactStreak:    factStreak,
			NextBelow:     below,
		})
	}
	return out, nil
}

// collectCandidates keeps, for every team, its earliest fixture in the list.
func collectCandidates(rows []models.FixtureRow) []candidate {
	byTeam := make(map[int64]candidate)
	add := func(teamID, opponentID *int64, f models.FixtureRow) {
		if teamID == nil {
			return
		}
		if prev, ok := byTeam[*teamID]; ok && !f.DateUTC.Before(prev.nextMatch) {
			return
		}
		byTeam[*teamID] = candidate{
			teamID:        *teamID,
			opponentID:    opponentID,
			competitionID: f.CompetitionID,
			nextMatch:     f.DateUTC,
		}
	}
	for _, f := range rows {
		add(f.HomeTeamID, f.AwayTeamID, f)
		add(f.AwayTeamID, f.HomeTeamID, f)
	}

	out := make([]candidate, 0, len(byTeam))
	for _, c := range byTeam {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b candidate) int { return cmp.Compare(a.teamID, b.teamID) })
	return out
}

func decorate(r *Result, c candidate, teams map[int64]models.Team, comps map[int64]models.Competition) {
	r.Name = fmt.Sprintf("Team %d", c.teamID)
	if t, ok := teams[c.teamID]; ok {
		r.Name = t.Name
		r.Logo = t.Logo
	}
	r.League = unknownLeague
	if c.competitionID != nil {
		if comp, ok := comps[*c.competitionID]; ok && comp.Name != "" {
			r.League = comp.Name
		}
	}
	r.Opponent = unknownOpponent
	if c.opponentID != nil {
		if t, ok := teams[*c.opponentID]; ok && t.Name != "" {
			r.Opponent = t.Name
		}
	}
}

func marketOrder(q query, m stats.MarketType) int {
	return slices.Index(q.markets, m)
}

// sortResults orders by the requested date, then team id and market order.
func sortResults(rs []Result, q query) {
	slices.SortFunc(rs, func(a, b Result) int {
		var c int
		switch q.sortBy {
		case SortLastMatch:
			c = compareOptionalTime(a.LastMatchDate, b.LastMatchDate)
		default:
			c = a.NextMatchDate.Compare(b.NextMatchDate)
		}
		if q.sortDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(marketOrder(q, a.Market), marketOrder(q, b.Market))
	})
}

// compareOptionalTime puts missing dates first.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
