package stats

import "math"

// SecondHalfGoals derives second-half goals for one side. A feed that reports
// more half-time than full-time goals yields 0 instead of a negative count.
func SecondHalfGoals(fullTime, halfTime int) int {
	return max(0, fullTime-halfTime)
}

// SecondHalfScore applies SecondHalfGoals to both sides.
func SecondHalfScore(fullTime, halfTime Score) Score {
	return Score{
		For:     SecondHalfGoals(fullTime.For, halfTime.For),
		Against: SecondHalfGoals(fullTime.Against, halfTime.Against),
	}
}

// Score returns the record's score for period p and whether the record has
// the data needed for it.
func (p Period) Score(m MatchRecord) (Score, bool) {
	switch p {
	case PeriodFirstHalf:
		if !m.HasHalfTime() {
			return Score{}, false
		}
		return *m.HalfTime, true
	case PeriodSecondHalf:
		if !m.HasHalfTime() {
			return Score{}, false
		}
		return SecondHalfScore(*m.FullTime, *m.HalfTime), true
	default:
		if !m.HasFullTime() {
			return Score{}, false
		}
		return *m.FullTime, true
	}
}

// ComputePeriodStats reduces matches into the aggregates of one period in a
// single pass. Records without data for the period do not count toward Total.
func ComputePeriodStats(period Period, matches []MatchRecord) PeriodStats {
	ps := PeriodStats{
		Period: period,
		Over:   make(map[string]Count, len(GoalLines)),
		Under:  make(map[string]Count, len(GoalLines)),
	}
	counts := make([]int, len(markets))

	for _, m := range matches {
		s, ok := period.Score(m)
		if !ok {
			continue
		}
		ps.Total++
		ps.GoalsFor += s.For
		ps.GoalsAgainst += s.Against
		for i, mk := range markets {
			if mk.holds(s, m.IsHome) {
				counts[i]++
			}
		}
	}

	for i, mk := range markets {
		// clean_home and clean_away share the overall total as denominator.
		ps.set(mk, Count{Count: counts[i], Percent: percent(counts[i], ps.Total)})
	}
	if ps.Total > 0 {
		ps.AvgGoalsFor = round2(float64(ps.GoalsFor) / float64(ps.Total))
		ps.AvgGoalsAgainst = round2(float64(ps.GoalsAgainst) / float64(ps.Total))
	}

	if period == PeriodFullTime {
		ps.Corners = aggregateEvents(matches, func(m MatchRecord) *Score { return m.Corners }, CornerLines)
		ps.Cards = aggregateEvents(matches, func(m MatchRecord) *Score { return m.Cards }, CardLines)
	}
	return ps
}

// ComputeTeamStatistics is ComputePeriodStats with the period as an option.
func ComputeTeamStatistics(matches []MatchRecord, period Period) PeriodStats {
	return ComputePeriodStats(period, matches)
}

// aggregateEvents builds the corner/card view over played matches that carry
// the counter. Returns nil when none do.
func aggregateEvents(matches []MatchRecord, pick func(MatchRecord) *Score, lines []Line) *EventAggregate {
	var values []int
	for _, m := range matches {
		if !m.HasFullTime() {
			continue
		}
		if s := pick(m); s != nil {
			values = append(values, s.Total())
		}
	}
	if len(values) == 0 {
		return nil
	}

	agg := &EventAggregate{
		Total: len(values),
		Over:  make(map[string]Count, len(lines)),
		Under: make(map[string]Count, len(lines)),
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	agg.Average = round2(float64(sum) / float64(len(values)))

	for _, l := range lines {
		over := 0
		for _, v := range values {
			if float64(v) > float64(l) {
				over++
			}
		}
		under := len(values) - over
		agg.Over[l.String()] = Count{Count: over, Percent: percent(over, len(values))}
		agg.Under[l.String()] = Count{Count: under, Percent: percent(under, len(values))}
	}
	return agg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
