package stats

import "github.com/Vodeneev/footstats/internal/pkg/models"

// NormalizeResult carries the records of one team plus data-quality counters.
type NormalizeResult struct {
	TeamID  int64
	Records []MatchRecord
	// Dropped counts rows without a home or away team id.
	Dropped int
	// Unscored counts kept records that lack a full-time score.
	Unscored int
}

// Normalize turns raw fixture rows into records seen from teamID.
// Rows the team did not play in are ignored.
func Normalize(teamID int64, rows []models.FixtureRow) NormalizeResult {
	res := NormalizeResult{TeamID: teamID, Records: make([]MatchRecord, 0, len(rows))}
	for _, row := range rows {
		if row.HomeTeamID == nil || row.AwayTeamID == nil {
			res.Dropped++
			continue
		}
		home := *row.HomeTeamID == teamID
		if !home && *row.AwayTeamID != teamID {
			continue
		}

		rec := MatchRecord{
			FixtureID: row.ID,
			Date:      row.DateUTC.UTC(),
			Season:    row.Season,
			IsHome:    home,
		}
		if home {
			rec.OpponentID = *row.AwayTeamID
			rec.OpponentName = row.AwayTeamName
		} else {
			rec.OpponentID = *row.HomeTeamID
			rec.OpponentName = row.HomeTeamName
		}
		rec.FullTime = sidedScore(home, row.GoalsHome, row.GoalsAway)
		rec.HalfTime = sidedScore(home, row.GoalsHomeHT, row.GoalsAwayHT)
		rec.Corners = sidedScore(home, row.CornersHome, row.CornersAway)
		rec.Cards = sidedScore(home, row.CardsHome, row.CardsAway)

		if rec.FullTime == nil {
			res.Unscored++
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// Played returns the records usable for aggregation, i.e. with a full-time score.
func (r NormalizeResult) Played() []MatchRecord {
	out := make([]MatchRecord, 0, len(r.Records)-r.Unscored)
	for _, rec := range r.Records {
		if rec.HasFullTime() {
			out = append(out, rec)
		}
	}
	return out
}

func sidedScore(home bool, homeValue, awayValue *int) *Score {
	if homeValue == nil || awayValue == nil {
		return nil
	}
	if home {
		return &Score{For: *homeValue, Against: *awayValue}
	}
	return &Score{For: *awayValue, Against: *homeValue}
}
