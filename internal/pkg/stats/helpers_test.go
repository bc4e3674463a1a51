package stats

import "time"

var baseDate = time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)

// match builds a played record `daysAgo` days before baseDate.
func match(id int64, daysAgo int, home bool, goalsFor, goalsAgainst int) MatchRecord {
	return MatchRecord{
		FixtureID: id,
		Date:      baseDate.AddDate(0, 0, -daysAgo),
		Season:    2024,
		IsHome:    home,
		FullTime:  &Score{For: goalsFor, Against: goalsAgainst},
	}
}

func withHalfTime(m MatchRecord, goalsFor, goalsAgainst int) MatchRecord {
	m.HalfTime = &Score{For: goalsFor, Against: goalsAgainst}
	return m
}

// recentFirst builds records whose totals are given most recent first;
// each total is split as (total, 0).
func recentFirst(totals ...int) []MatchRecord {
	out := make([]MatchRecord, 0, len(totals))
	for i, t := range totals {
		out = append(out, match(int64(i+1), i*7, i%2 == 0, t, 0))
	}
	return out
}
