package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightKeys(t *testing.T) {
	team := ComputePeriodStats(PeriodFullTime, []MatchRecord{
		match(1, 0, true, 3, 1),
		match(2, 7, true, 2, 2),
		match(3, 14, true, 4, 0),
	})
	opponent := ComputePeriodStats(PeriodFullTime, []MatchRecord{
		match(4, 0, false, 1, 3),
		match(5, 7, false, 2, 1),
		match(6, 14, true, 0, 3),
	})

	got := map[MarketKey]Highlight{}
	for _, h := range HighlightKeys(team, opponent, nil) {
		got[h.Key] = h
	}

	// Every match in both histories went over 2.5.
	assert.Equal(t, Highlight{Key: OverKey(2.5), Band: "high", TeamPercent: 100, OpponentPercent: 100}, got[OverKey(2.5)])
	assert.Equal(t, "low", got[UnderKey(1.5)].Band)
	assert.NotContains(t, got, KeyWin)
}

func TestHighlightKeys_EmptyStats(t *testing.T) {
	team := ComputePeriodStats(PeriodFullTime, []MatchRecord{match(1, 0, true, 1, 0)})
	assert.Nil(t, HighlightKeys(team, ComputePeriodStats(PeriodFullTime, nil), nil))
}

func TestHighlightKeys_CustomBands(t *testing.T) {
	team := ComputePeriodStats(PeriodFullTime, []MatchRecord{match(1, 0, true, 1, 0), match(2, 1, true, 0, 1)})
	hs := HighlightKeys(team, team, []Band{{Name: "even", Min: 50, Max: 50}})
	for _, h := range hs {
		assert.Equal(t, "even", h.Band)
		assert.Equal(t, 50, h.TeamPercent)
	}
	assert.NotEmpty(t, hs)
}
