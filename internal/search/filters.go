package search

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/stats"
)

// ErrInvalidFilter is returned for filter values that cannot be applied.
var ErrInvalidFilter = errors.New("invalid search filter")

// Window is the "next match" horizon of a search.
type Window string

const (
	WindowToday Window = "today"
	WindowJ1    Window = "j1"
	WindowJ2    Window = "j2"
	WindowJ3    Window = "j3"
)

func (w Window) offset() (int, error) {
	switch w {
	case "", WindowToday:
		return 0, nil
	case WindowJ1:
		return 1, nil
	case WindowJ2:
		return 2, nil
	case WindowJ3:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: nextMatch %q", ErrInvalidFilter, string(w))
}

// Bounds returns [start of today, start of the day after the window's last day)
// in loc. j2 therefore covers today, tomorrow and the day after.
func (w Window) Bounds(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	offset, err := w.offset()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, offset+1), nil
}

type FactType string

const (
	FactNone       FactType = "none"
	FactOverUnder  FactType = "OVER_UNDER"
	FactResult     FactType = "RESULT"
	FactCleanSheet FactType = "CLEAN_SHEET"
)

type ResultType string

const (
	Result1  ResultType = "1"
	ResultX  ResultType = "X"
	Result2  ResultType = "2"
	Result1X ResultType = "1X"
	ResultX2 ResultType = "X2"
	Result12 ResultType = "12"
)

var resultMarkets = map[ResultType]stats.MarketType{
	Result1:  stats.MarketWin,
	ResultX:  stats.MarketDraw,
	Result2:  stats.MarketLose,
	Result1X: stats.MarketDC1X,
	ResultX2: stats.MarketDCX2,
	Result12: stats.MarketDC12,
}

type SortKey string

const (
	SortNextMatch SortKey = "next_match"
	SortLastMatch SortKey = "last_match"
)

// Filters is the search request body. Pointer fields are optional and fall
// back to their defaults when absent.
type Filters struct {
	NextMatch Window   `json:"nextMatch"`
	Markets   []string `json:"markets"`

	ProbGreenMin *int  `json:"probGreenMin"`
	ProbGreenMax *int  `json:"probGreenMax"`
	ProbBlueMin  *int  `json:"probBlueMin"`
	ProbBlueMax  *int  `json:"probBlueMax"`
	UseBlue      *bool `json:"useBlue"`

	Period string `json:"period"`

	FactType           FactType   `json:"factType"`
	StreakMin          *int       `json:"streakMin"`
	OverUnderDirection string     `json:"overUnderDirection"`
	OverUnderLine      *float64   `json:"overUnderLine"`
	ResultType         ResultType `json:"resultType"`

	NextMatchBelowEnabled    bool     `json:"nextMatchBelowEnabled"`
	NextMatchBelowLine       *float64 `json:"nextMatchBelowLine"`
	NextMatchBelowMinPercent *int     `json:"nextMatchBelowMinPercent"`

	SortBy   SortKey `json:"sortBy"`
	SortDesc bool    `json:"sortDesc"`
}

// query is Filters with defaults applied and every value checked.
type query struct {
	window  Window
	markets []stats.MarketType
	period  stats.Period

	greenMin, greenMax int
	blueMin, blueMax   int
	useBlue            bool

	// fact is empty when no fact filter is set.
	fact      stats.MarketType
	streakMin int

	below        bool
	belowLine    float64
	belowPercent int

	sortBy   SortKey
	sortDesc bool
}

const defaultNextMatchBelowLine = 1.5

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (f Filters) normalize() (query, error) {
	q := query{
		window:    f.NextMatch,
		greenMin:  intOr(f.ProbGreenMin, 0),
		greenMax:  intOr(f.ProbGreenMax, 100),
		blueMin:   intOr(f.ProbBlueMin, 0),
		blueMax:   intOr(f.ProbBlueMax, 100),
		useBlue:   f.UseBlue == nil || *f.UseBlue,
		streakMin: intOr(f.StreakMin, 1),
		sortBy:    f.SortBy,
		sortDesc:  f.SortDesc,
	}
	if q.window == "" {
		q.window = WindowToday
	}
	if _, err := q.window.offset(); err != nil {
		return query{}, err
	}

	period, err := stats.ParsePeriod(f.Period)
	if err != nil {
		return query{}, err
	}
	q.period = period

	if len(f.Markets) == 0 {
		q.markets = []stats.MarketType{stats.MarketOver25}
	}
	for _, s := range f.Markets {
		m, err := stats.ParseMarketType(s)
		if err != nil {
			return query{}, err
		}
		q.markets = append(q.markets, m)
	}

	if q.fact, err = f.factMarket(); err != nil {
		return query{}, err
	}
	if q.streakMin < 1 {
		q.streakMin = 1
	}

	if f.NextMatchBelowEnabled {
		q.below = true
		q.belowLine = defaultNextMatchBelowLine
		if f.NextMatchBelowLine != nil {
			q.belowLine = *f.NextMatchBelowLine
		}
		if q.belowLine < 0 || math.IsNaN(q.belowLine) || math.IsInf(q.belowLine, 0) {
			return query{}, fmt.Errorf("%w: %v", stats.ErrInvalidThreshold, q.belowLine)
		}
		q.belowPercent = intOr(f.NextMatchBelowMinPercent, 0)
	}

	switch q.sortBy {
	case "":
		q.sortBy = SortNextMatch
	case SortNextMatch, SortLastMatch:
	default:
		return query{}, fmt.Errorf("%w: sortBy %q", ErrInvalidFilter, string(f.SortBy))
	}
	return q, nil
}

// factMarket maps the fact filter to the market whose streak must run.
func (f Filters) factMarket() (stats.MarketType, error) {
	switch f.FactType {
	case "", FactNone:
		return "", nil
	case FactCleanSheet:
		return stats.MarketCleanSheet, nil
	case FactResult:
		rt := f.ResultType
		if rt == "" {
			rt = Result1X
		}
		m, ok := resultMarkets[ResultType(strings.ToUpper(string(rt)))]
		if !ok {
			return "", fmt.Errorf("%w: resultType %q", ErrInvalidFilter, string(f.ResultType))
		}
		return m, nil
	case FactOverUnder:
		line := stats.Line(2.5)
		if f.OverUnderLine != nil {
			line = stats.Line(*f.OverUnderLine)
		}
		switch strings.ToUpper(f.OverUnderDirection) {
		case "", "OVER":
			return stats.MarketTypeFor(true, line)
		case "UNDER":
			return stats.MarketTypeFor(false, line)
		}
		return "", fmt.Errorf("%w: overUnderDirection %q", ErrInvalidFilter, f.OverUnderDirection)
	}
	return "", fmt.Errorf("%w: factType %q", ErrInvalidFilter, string(f.FactType))
}
