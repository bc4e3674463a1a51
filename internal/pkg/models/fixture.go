package models

import "time"

// Fixture status codes used by the upstream feed (status_short).
const (
	StatusNotStarted   = "NS"
	StatusFullTime     = "FT"
	StatusAfterExtra   = "AET"
	StatusPenalties    = "PEN"
	StatusPostponed    = "PST"
	StatusCancelled    = "CANC"
	StatusTimeToBeDone = "TBD"
)

// FinishedStatuses are the statuses that mark a fixture as played.
var FinishedStatuses = []string{StatusFullTime, StatusAfterExtra, StatusPenalties}

// FixtureRow is one persisted fixture as it comes out of storage.
// Nullable columns are pointers.
type FixtureRow struct {
	ID            int64     `json:"id"`
	CompetitionID *int64    `json:"competition_id,omitempty"`
	Season        int       `json:"season"`
	Round         string    `json:"round,omitempty"`
	DateUTC       time.Time `json:"date_utc"`
	StatusShort   string    `json:"status_short"`
	StatusLong    string    `json:"status_long,omitempty"`

	HomeTeamID   *int64 `json:"home_team_id"`
	AwayTeamID   *int64 `json:"away_team_id"`
	HomeTeamName string `json:"home_team_name,omitempty"`
	AwayTeamName string `json:"away_team_name,omitempty"`

	GoalsHome   *int `json:"goals_home"`
	GoalsAway   *int `json:"goals_away"`
	GoalsHomeHT *int `json:"goals_home_ht"`
	GoalsAwayHT *int `json:"goals_away_ht"`

	CornersHome *int `json:"corners_home,omitempty"`
	CornersAway *int `json:"corners_away,omitempty"`
	CardsHome   *int `json:"cards_home,omitempty"`
	CardsAway   *int `json:"cards_away,omitempty"`
}

// IsFinished reports whether the fixture has a final status.
func (f FixtureRow) IsFinished() bool {
	for _, s := range FinishedStatuses {
		if f.StatusShort == s {
			return true
		}
	}
	return false
}

// Involves reports whether teamID played in the fixture.
func (f FixtureRow) Involves(teamID int64) bool {
	return (f.HomeTeamID != nil && *f.HomeTeamID == teamID) ||
		(f.AwayTeamID != nil && *f.AwayTeamID == teamID)
}

// FixtureResult is the part of a fixture the refresher may overwrite.
type FixtureResult struct {
	FixtureID   int64
	StatusShort string
	StatusLong  string
	GoalsHome   *int
	GoalsAway   *int
	GoalsHomeHT *int
	GoalsAwayHT *int
}

// Team is a row of the teams table.
type Team struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Logo    string `json:"logo,omitempty"`
	Country string `json:"country,omitempty"`
}

// Competition is a row of the competitions table.
type Competition struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

// IntPtr returns a pointer to v. Handy for building rows in code and tests.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
