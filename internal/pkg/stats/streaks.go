package stats

import (
	"cmp"
	"slices"
)

// DefaultStreakMinLength is the run length from which a streak counts as active.
const DefaultStreakMinLength = 1

// Options tunes the Engine.
type Options struct {
	// StreakMinLength is the minimum current run for StreakFlag.Active.
	StreakMinLength int
}

// Engine computes team statistics with a fixed set of options.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	minLength int
}

func NewEngine(opts Options) *Engine {
	minLength := opts.StreakMinLength
	if minLength < 1 {
		minLength = DefaultStreakMinLength
	}
	return &Engine{minLength: minLength}
}

// StreakMinLength returns the configured minimum run length.
func (e *Engine) StreakMinLength() int { return e.minLength }

// PeriodStats is ComputePeriodStats.
func (e *Engine) PeriodStats(period Period, matches []MatchRecord) PeriodStats {
	return ComputePeriodStats(period, matches)
}

// Streaks walks matches from the most recent one and measures, per market,
// how many consecutive matches satisfy it. A match without data for the
// period ends the run. Percent is borrowed from base for active streaks.
func (e *Engine) Streaks(period Period, matches []MatchRecord, base PeriodStats) StreakStats {
	sorted := sortByDate(matches, true)
	out := StreakStats{
		Over:  make(map[string]StreakFlag, len(GoalLines)),
		Under: make(map[string]StreakFlag, len(GoalLines)),
	}
	for _, mk := range markets {
		n := 0
		for _, m := range sorted {
			s, ok := period.Score(m)
			if !ok || !mk.holds(s, m.IsHome) {
				break
			}
			n++
		}
		flag := StreakFlag{Length: n, Active: n >= e.minLength}
		if flag.Active {
			if c, ok := base.Lookup(mk.key); ok {
				flag.Percent = c.Percent
			}
		}
		out.set(mk, flag)
	}
	return out
}

// Team computes period stats and streaks for one team in one go.
func (e *Engine) Team(period Period, matches []MatchRecord) TeamStatistics {
	ps := e.PeriodStats(period, matches)
	return TeamStatistics{
		Period:  period,
		Stats:   ps,
		Streaks: e.Streaks(period, matches, ps),
	}
}

// ComputeStreaks returns the full-time streaks with the default minimum length.
func ComputeStreaks(matches []MatchRecord) StreakStats {
	e := NewEngine(Options{StreakMinLength: DefaultStreakMinLength})
	return e.Streaks(PeriodFullTime, matches, ComputePeriodStats(PeriodFullTime, matches))
}

// sortByDate returns a sorted copy. Ties are broken by fixture id so the
// order does not depend on the input order.
func sortByDate(matches []MatchRecord, desc bool) []MatchRecord {
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b MatchRecord) int {
		c := a.Date.Compare(b.Date)
		if c == 0 {
			c = cmp.Compare(a.FixtureID, b.FixtureID)
		}
		if desc {
			return -c
		}
		return c
	})
	return sorted
}
