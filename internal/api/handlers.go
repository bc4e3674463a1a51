package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vodeneev/footstats/internal/analysis"
	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/pkg/stats"
	"github.com/Vodeneev/footstats/internal/pkg/storage"
	"github.com/Vodeneev/footstats/internal/refresh"
	"github.com/Vodeneev/footstats/internal/search"
)

const maxBodyBytes = 1 << 20

type Searcher interface {
	Search(ctx context.Context, f search.Filters) (*search.Response, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, payload json.RawMessage) (*analysis.Result, error)
}

type Refresher interface {
	Run(ctx context.Context) (*refresh.Report, error)
}

// Deps are the services behind the HTTP API. Cache, Analyzer and Refresher
// are optional.
type Deps struct {
	Store     storage.FixtureReader
	Cache     storage.StatsCache
	Engine    *stats.Engine
	Searcher  Searcher
	Analyzer  Analyzer
	Refresher Refresher
	Stats     config.StatsConfig
	Location  *time.Location
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Deps
	bands []stats.Band
}

func NewHandler(d Deps) *Handler {
	if d.Engine == nil {
		d.Engine = stats.NewEngine(stats.Options{StreakMinLength: d.Stats.StreakMinLength})
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	bands := make([]stats.Band, 0, len(d.Stats.HighlightBands))
	for _, b := range d.Stats.HighlightBands {
		bands = append(bands, stats.Band{Name: b.Name, Min: b.Min, Max: b.Max})
	}
	if len(bands) == 0 {
		bands = stats.DefaultBands
	}
	return &Handler{Deps: d, bands: bands}
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong\n"))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// teamQuery is the common part of the team endpoints.
type teamQuery struct {
	teamID int64
	period stats.Period
	rng    stats.Range
	side   stats.Side
}

func (h *Handler) parseTeamQuery(r *http.Request, idParam string) (teamQuery, error) {
	var q teamQuery
	id, err := strconv.ParseInt(chi.URLParam(r, idParam), 10, 64)
	if err != nil || id <= 0 {
		return q, fmt.Errorf("%w: invalid %s %q", errBadRequest, idParam, chi.URLParam(r, idParam))
	}
	q.teamID = id

	if q.period, err = stats.ParsePeriod(r.URL.Query().Get("period")); err != nil {
		return q, err
	}
	if q.rng, err = h.parseRange(r); err != nil {
		return q, err
	}

	switch side := stats.Side(strings.ToLower(r.URL.Query().Get("side"))); side {
	case "", stats.SideAll:
		q.side = stats.SideAll
	case stats.SideHome, stats.SideAway:
		q.side = side
	default:
		return q, fmt.Errorf("%w: invalid side %q", errBadRequest, string(side))
	}
	return q, nil
}

// parseRange reads range=N|season|all, season=YYYY and cutoff.
func (h *Handler) parseRange(r *http.Request) (stats.Range, error) {
	rng := stats.Range{Last: h.Stats.DefaultLast}
	switch v := strings.ToLower(r.URL.Query().Get("range")); v {
	case "":
	case "all":
		rng.Last = 0
	case "season":
		rng.Last = 0
		season, err := parseIntParam(r, "season", h.Stats.CurrentSeason)
		if err != nil {
			return rng, err
		}
		rng.Season = season
		if rng.Season <= 0 {
			return rng, fmt.Errorf("%w: no season to select", errBadRequest)
		}
	default:
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return rng, fmt.Errorf("%w: invalid range %q", errBadRequest, v)
		}
		rng.Last = n
	}

	if c := r.URL.Query().Get("cutoff"); c != "" {
		cutoff, err := parseCutoff(c, h.Location)
		if err != nil {
			return rng, err
		}
		rng.Cutoff = cutoff
	}
	return rng, nil
}

// parseCutoff accepts RFC3339 or a local date, which covers the whole day.
func parseCutoff(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid cutoff %q", errBadRequest, s)
	}
	return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// records loads a team's history narrowed to the query.
func (h *Handler) records(ctx context.Context, q teamQuery) ([]stats.MatchRecord, error) {
	rows, err := h.Store.TeamFixtures(ctx, q.teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	norm := stats.Normalize(q.teamID, rows)
	if norm.Dropped > 0 || norm.Unscored > 0 {
		slog.Debug("Fixtures excluded",
			"team_id", q.teamID,
			"dropped", norm.Dropped,
			"unscored", norm.Unscored)
	}
	return stats.FilterSide(stats.Select(norm.Records, q.rng), q.side), nil
}

// teamStatistics computes (or reads from cache) the statistics for q.
func (h *Handler) teamStatistics(ctx context.Context, q teamQuery) (*stats.TeamStatistics, bool, error) {
	cacheable := h.Cache != nil && q.side == stats.SideAll
	key := storage.StatsCacheKey(q.teamID, q.period, q.rng)
	if cacheable {
		ts, ok, err := h.Cache.Get(ctx, key)
		if err != nil {
			slog.Warn("Stats cache read failed", "key", key, "error", err)
		} else if ok {
			return ts, true, nil
		}
	}

	recs, err := h.records(ctx, q)
	if err != nil {
		return nil, false, err
	}
	ts := h.Engine.Team(q.period, recs)

	if cacheable {
		if err := h.Cache.Set(ctx, key, &ts); err != nil {
			slog.Warn("Stats cache write failed", "key", key, "error", err)
		}
	}
	return &ts, false, nil
}

type teamStatsResponse struct {
	TeamID int64       `json:"team_id"`
	Range  stats.Range `json:"range"`
	Side   stats.Side  `json:"side"`
	Cached bool        `json:"cached"`
	*stats.TeamStatistics
}

// GetTeamStats returns period stats and streaks of one team
// Query params: period, range, season, cutoff, side
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseTeamQuery(r, "teamID")
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}

	ts, cached, err := h.teamStatistics(r.Context(), q)
	if err != nil {
		respondFailure(w, "failed to compute statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, teamStatsResponse{
		TeamID:         q.teamID,
		Range:          q.rng,
		Side:           q.side,
		Cached:         cached,
		TeamStatistics: ts,
	})
}

func metricFor(name string, period stats.Period) (stats.Metric, error) {
	switch strings.ToLower(name) {
	case "", "total":
		return stats.TotalGoals(period), nil
	case "scored":
		return stats.GoalsScored(period), nil
	case "conceded":
		return stats.GoalsConceded(period), nil
	case "corners":
		return stats.TotalCorners(), nil
	case "cards":
		return stats.TotalCards(), nil
	}
	return nil, fmt.Errorf("%w: unknown metric %q", errBadRequest, name)
}

// GetNextMatchBelow answers how often a match above the threshold was followed by one below it
// Query params: threshold (required), metric, period, range, season, cutoff, side
func (h *Handler) GetNextMatchBelow(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseTeamQuery(r, "teamID")
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}
	raw := r.URL.Query().Get("threshold")
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondFailure(w, "invalid query", fmt.Errorf("%w: %q", stats.ErrInvalidThreshold, raw))
		return
	}
	metricName := strings.ToLower(r.URL.Query().Get("metric"))
	if metricName == "" {
		metricName = "total"
	}
	metric, err := metricFor(metricName, q.period)
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}

	recs, err := h.records(r.Context(), q)
	if err != nil {
		respondFailure(w, "failed to load fixtures", err)
		return
	}
	summary, err := stats.ComputeNextMatchBelow(recs, threshold, metric)
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"team_id":   q.teamID,
		"period":    q.period,
		"metric":    metricName,
		"threshold": threshold,
		"matches":   len(recs),
		"summary":   summary,
	})
}

type compareSide struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	*stats.TeamStatistics
}

// CompareTeams puts two teams side by side and highlights the markets both share a band in
func (h *Handler) CompareTeams(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseTeamQuery(r, "teamID")
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}
	oq, err := h.parseTeamQuery(r, "opponentID")
	if err != nil {
		respondFailure(w, "invalid query", err)
		return
	}
	ctx := r.Context()

	team, _, err := h.teamStatistics(ctx, q)
	if err != nil {
		respondFailure(w, "failed to compute statistics", err)
		return
	}
	opp, _, err := h.teamStatistics(ctx, oq)
	if err != nil {
		respondFailure(w, "failed to compute statistics", err)
		return
	}
	names, err := h.Store.Teams(ctx, []int64{q.teamID, oq.teamID})
	if err != nil {
		respondFailure(w, "failed to load teams", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"period":     q.period,
		"range":      q.rng,
		"team":       compareSide{ID: q.teamID, Name: names[q.teamID].Name, TeamStatistics: team},
		"opponent":   compareSide{ID: oq.teamID, Name: names[oq.teamID].Name, TeamStatistics: opp},
		"highlights": stats.HighlightKeys(team.Stats, opp.Stats, h.bands),
	})
}

// decodeBody decodes a JSON body into v; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
}

// SearchTeams lists the teams playing soon whose markets match the filters
func (h *Handler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	var f search.Filters
	if err := decodeBody(r, &f); err != nil {
		respondFailure(w, "invalid filters", err)
		return
	}

	resp, err := h.Searcher.Search(r.Context(), f)
	if err != nil {
		respondFailure(w, "search failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"search_id": resp.SearchID,
		"count":     len(resp.Results),
		"results":   resp.Results,
	})
}

// TeamAnalysis returns a short written analysis of a team statistics payload
func (h *Handler) TeamAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.Analyzer == nil {
		respondError(w, http.StatusServiceUnavailable, "analysis is disabled", nil)
		return
	}
	var body struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondFailure(w, "invalid payload", err)
		return
	}

	res, err := h.Analyzer.Analyze(r.Context(), body.Payload)
	if err != nil {
		var upstream *analysis.UpstreamError
		switch {
		case errors.As(err, &upstream):
			respondJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "completion request failed",
				Details: upstream.Body,
				Code:    http.StatusInternalServerError,
			})
		case errors.Is(err, analysis.ErrNoAPIKey):
			respondError(w, http.StatusInternalServerError, err.Error(), nil)
		default:
			respondFailure(w, "analysis failed", err)
		}
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=3600")
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"analysis": res.Analysis,
		"cached":   res.Cached,
	})
}

// UpdateFixtures re-syncs recent fixtures with API-Football
func (h *Handler) UpdateFixtures(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		respondError(w, http.StatusServiceUnavailable, "fixture refresh is not configured", nil)
		return
	}

	report, err := h.Refresher.Run(r.Context())
	if err != nil {
		respondFailure(w, "fixture refresh failed", err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*refresh.Report
	}{OK: true, Report: report})
}
