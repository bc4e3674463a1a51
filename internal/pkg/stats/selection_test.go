package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelect(t *testing.T) {
	unscored := match(9, 1, true, 0, 0)
	unscored.FullTime = nil
	old := match(8, 400, true, 1, 0)
	old.Season = 2023

	records := []MatchRecord{
		match(3, 14, true, 1, 0),
		match(1, 0, false, 2, 2),
		unscored,
		old,
		match(2, 7, true, 0, 1),
	}

	tests := []struct {
		name string
		r    Range
		want []int64
	}{
		{"all", Range{}, []int64{1, 2, 3, 8}},
		{"last two", Range{Last: 2}, []int64{1, 2}},
		{"season", Range{Season: 2024}, []int64{1, 2, 3}},
		{"cutoff", Range{Cutoff: baseDate.AddDate(0, 0, -7)}, []int64{2, 3, 8}},
		{"cutoff and last", Range{Cutoff: baseDate.AddDate(0, 0, -7), Last: 1}, []int64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, m := range Select(records, tt.r) {
				got = append(got, m.FixtureID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterSide(t *testing.T) {
	records := []MatchRecord{
		match(1, 0, true, 3, 0),
		match(2, 7, false, 0, 0),
		match(3, 14, true, 1, 2),
	}
	assert.Len(t, FilterSide(records, SideHome), 2)
	assert.Len(t, FilterSide(records, SideAway), 1)
	assert.Len(t, FilterSide(records, SideAll), 3)

	home := ComputePeriodStats(PeriodFullTime, FilterSide(records, SideHome))
	assert.Equal(t, 2, home.Total)
	assert.Equal(t, Count{Count: 2, Percent: 100}, home.Over["2.5"])
}

func TestLastMatchDate(t *testing.T) {
	_, ok := LastMatchDate(nil)
	assert.False(t, ok)

	d, ok := LastMatchDate([]MatchRecord{match(1, 10, true, 0, 0), match(2, 3, true, 0, 0)})
	assert.True(t, ok)
	assert.Equal(t, baseDate.AddDate(0, 0, -3), d)
}
