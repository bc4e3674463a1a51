package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownPeriod    = errors.New("unknown period")
	ErrUnknownLine      = errors.New("unknown line")
	ErrUnknownMarket    = errors.New("unknown market")
	ErrInvalidThreshold = errors.New("invalid threshold")
)

// Period selects which part of the match a statistic is computed over.
type Period string

const (
	PeriodFullTime   Period = "FT"
	PeriodFirstHalf  Period = "HT"
	PeriodSecondHalf Period = "2H"
)

// Periods lists every supported period.
var Periods = []Period{PeriodFullTime, PeriodFirstHalf, PeriodSecondHalf}

// ParsePeriod accepts FT, HT, 2H (case-insensitive). Empty means FT.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PeriodFullTime, nil
	case PeriodFullTime, PeriodFirstHalf, PeriodSecondHalf:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// Line is a betting line such as 2.5 goals.
type Line float64

var (
	// GoalLines are the fixed over/under goal thresholds.
	GoalLines = []Line{0.5, 1.5, 2.5, 3.5, 4.5, 5.5}
	// CornerLines are the over/under thresholds for total corners.
	CornerLines = []Line{8.5, 9.5, 10.5}
	// CardLines are the over/under thresholds for total cards.
	CardLines = []Line{2.5, 3.5, 4.5}
)

func (l Line) String() string {
	return strconv.FormatFloat(float64(l), 'f', 1, 64)
}

// ParseLine parses a goal line ("2.5" or "2_5") and checks it is one of GoalLines.
func ParseLine(s string) (Line, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), "_", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLine, s)
	}
	for _, l := range GoalLines {
		if float64(l) == v {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLine, s)
}

// Score is a pair of values seen from the subject team: its own and the opponent's.
type Score struct {
	For     int `json:"for"`
	Against int `json:"against"`
}

func (s Score) Total() int { return s.For + s.Against }

// MatchRecord is one match from the point of view of one team.
type MatchRecord struct {
	FixtureID    int64     `json:"fixture_id"`
	Date         time.Time `json:"date"`
	Season       int       `json:"season"`
	IsHome       bool      `json:"is_home"`
	OpponentID   int64     `json:"opponent_id"`
	OpponentName string    `json:"opponent_name,omitempty"`

	FullTime *Score `json:"full_time,omitempty"`
	HalfTime *Score `json:"half_time,omitempty"`
	Corners  *Score `json:"corners,omitempty"`
	Cards    *Score `json:"cards,omitempty"`
}

func (m MatchRecord) HasFullTime() bool { return m.FullTime != nil }

func (m MatchRecord) HasHalfTime() bool { return m.FullTime != nil && m.HalfTime != nil }

// Count is a number of matches and its share of the period total.
type Count struct {
	Count   int `json:"count"`
	Percent int `json:"percent"`
}

// EventAggregate summarizes a per-match counter such as corners or cards.
type EventAggregate struct {
	Total   int              `json:"total"`
	Average float64          `json:"average"`
	Over    map[string]Count `json:"over"`
	Under   map[string]Count `json:"under"`
}

// PeriodStats is the aggregate picture of a team over one period.
type PeriodStats struct {
	Period Period `json:"period"`
	Total  int    `json:"total"`

	Win  Count `json:"win"`
	Draw Count `json:"draw"`
	Lose Count `json:"lose"`

	Over  map[string]Count `json:"over"`
	Under map[string]Count `json:"under"`

	BTTS       Count `json:"btts"`
	CleanSheet Count `json:"clean_sheet"`
	CleanHome  Count `json:"clean_home"`
	CleanAway  Count `json:"clean_away"`

	DC1X Count `json:"dc_1x"`
	DCX2 Count `json:"dc_x2"`
	DC12 Count `json:"dc_12"`

	GoalsFor        int     `json:"goals_for"`
	GoalsAgainst    int     `json:"goals_against"`
	AvgGoalsFor     float64 `json:"avg_goals_for"`
	AvgGoalsAgainst float64 `json:"avg_goals_against"`

	Corners *EventAggregate `json:"corners,omitempty"`
	Cards   *EventAggregate `json:"cards,omitempty"`
}

// StreakFlag tells whether a market currently holds and for how many matches.
type StreakFlag struct {
	Active  bool `json:"active"`
	Length  int  `json:"length"`
	Percent int  `json:"percent"`
}

// StreakStats holds the current streak for every tracked market.
type StreakStats struct {
	Win        StreakFlag            `json:"win"`
	Draw       StreakFlag            `json:"draw"`
	Lose       StreakFlag            `json:"lose"`
	BTTS       StreakFlag            `json:"btts"`
	CleanSheet StreakFlag            `json:"clean_sheet"`
	CleanHome  StreakFlag            `json:"clean_home"`
	CleanAway  StreakFlag            `json:"clean_away"`
	DC1X       StreakFlag            `json:"dc_1x"`
	DCX2       StreakFlag            `json:"dc_x2"`
	DC12       StreakFlag            `json:"dc_12"`
	Over       map[string]StreakFlag `json:"over"`
	Under      map[string]StreakFlag `json:"under"`
}

// NextMatchBelowSummary answers "after a match above the line, how often was the next one below it".
type NextMatchBelowSummary struct {
	LastValue *float64 `json:"last_value"`
	LastAbove bool     `json:"last_above"`
	Triggers  int      `json:"triggers"`
	BelowNext int      `json:"below_next"`
	Percent   int      `json:"percent"`
}

// TeamStatistics bundles the period aggregates with the streaks derived from them.
type TeamStatistics struct {
	Period  Period      `json:"period"`
	Stats   PeriodStats `json:"stats"`
	Streaks StreakStats `json:"streaks"`
}

// percent is round(count/total*100), half-up, 0 when total is 0.
func percent(count, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*count + total) / (2 * total)
}
