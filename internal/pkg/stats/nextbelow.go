package stats

import (
	"fmt"
	"math"
)

// Metric extracts the value a conditional summary is computed over.
// ok is false when the record has no value for it.
type Metric func(m MatchRecord) (value float64, ok bool)

// TotalGoals is the goals of both sides in period p.
func TotalGoals(p Period) Metric {
	return func(m MatchRecord) (float64, bool) {
		s, ok := p.Score(m)
		return float64(s.Total()), ok
	}
}

// GoalsScored is the subject team's goals in period p.
func GoalsScored(p Period) Metric {
	return func(m MatchRecord) (float64, bool) {
		s, ok := p.Score(m)
		return float64(s.For), ok
	}
}

// GoalsConceded is the opponent's goals in period p.
func GoalsConceded(p Period) Metric {
	return func(m MatchRecord) (float64, bool) {
		s, ok := p.Score(m)
		return float64(s.Against), ok
	}
}

// TotalCorners is the corner count of both sides.
func TotalCorners() Metric {
	return func(m MatchRecord) (float64, bool) {
		if m.Corners == nil {
			return 0, false
		}
		return float64(m.Corners.Total()), true
	}
}

// TotalCards is the card count of both sides.
func TotalCards() Metric {
	return func(m MatchRecord) (float64, bool) {
		if m.Cards == nil {
			return 0, false
		}
		return float64(m.Cards.Total()), true
	}
}

// ComputeNextMatchBelow orders matches chronologically and, for every match
// above threshold that has a successor, checks whether the successor went
// below it. Records the metric cannot evaluate are left out before pairing.
// A nil metric means full-time total goals.
func ComputeNextMatchBelow(matches []MatchRecord, threshold float64, metric Metric) (NextMatchBelowSummary, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return NextMatchBelowSummary{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	if metric == nil {
		metric = TotalGoals(PeriodFullTime)
	}

	sorted := sortByDate(matches, false)
	values := make([]float64, 0, len(sorted))
	for _, m := range sorted {
		if v, ok := metric(m); ok {
			values = append(values, v)
		}
	}

	var out NextMatchBelowSummary
	if len(values) < 2 {
		return out, nil
	}

	for i := 0; i+1 < len(values); i++ {
		if values[i] > threshold {
			out.Triggers++
			if values[i+1] < threshold {
				out.BelowNext++
			}
		}
	}
	last := values[len(values)-1]
	out.LastValue = &last
	out.LastAbove = last > threshold
	out.Percent = percent(out.BelowNext, out.Triggers)
	return out, nil
}
