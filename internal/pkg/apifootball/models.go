package apifootball

import (
	"encoding/json"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/models"
)

// Envelope is the wrapper every API-Football endpoint returns.
type Envelope[T any] struct {
	Results  int             `json:"results"`
	Errors   json.RawMessage `json:"errors"`
	Response []T             `json:"response"`
}

type Fixture struct {
	Fixture struct {
		ID     int64     `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Long  string `json:"long"`
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Logo    string `json:"logo"`
		Season  int    `json:"season"`
		Round   string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home TeamRef `json:"home"`
		Away TeamRef `json:"away"`
	} `json:"teams"`
	Goals Pair `json:"goals"`
	Score struct {
		Halftime Pair `json:"halftime"`
		Fulltime Pair `json:"fulltime"`
	} `json:"score"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Pair is a home/away value, null while unknown.
type Pair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// Row converts the fixture to the persisted shape.
func (f Fixture) Row() models.FixtureRow {
	competitionID := f.League.ID
	homeID, awayID := f.Teams.Home.ID, f.Teams.Away.ID
	return models.FixtureRow{
		ID:            f.Fixture.ID,
		CompetitionID: &competitionID,
		Season:        f.League.Season,
		Round:         f.League.Round,
		DateUTC:       f.Fixture.Date.UTC(),
		StatusShort:   f.Fixture.Status.Short,
		StatusLong:    f.Fixture.Status.Long,
		HomeTeamID:    &homeID,
		AwayTeamID:    &awayID,
		HomeTeamName:  f.Teams.Home.Name,
		AwayTeamName:  f.Teams.Away.Name,
		GoalsHome:     f.Goals.Home,
		GoalsAway:     f.Goals.Away,
		GoalsHomeHT:   f.Score.Halftime.Home,
		GoalsAwayHT:   f.Score.Halftime.Away,
	}
}

// Result is the status/score part the refresher compares.
func (f Fixture) Result() models.FixtureResult {
	return models.FixtureResult{
		FixtureID:   f.Fixture.ID,
		StatusShort: f.Fixture.Status.Short,
		StatusLong:  f.Fixture.Status.Long,
		GoalsHome:   f.Goals.Home,
		GoalsAway:   f.Goals.Away,
		GoalsHomeHT: f.Score.Halftime.Home,
		GoalsAwayHT: f.Score.Halftime.Away,
	}
}

func (f Fixture) TeamRows() []models.Team {
	return []models.Team{
		{ID: f.Teams.Home.ID, Name: f.Teams.Home.Name, Logo: f.Teams.Home.Logo},
		{ID: f.Teams.Away.ID, Name: f.Teams.Away.Name, Logo: f.Teams.Away.Logo},
	}
}

func (f Fixture) CompetitionRow() models.Competition {
	return models.Competition{ID: f.League.ID, Name: f.League.Name, Country: f.League.Country, Logo: f.League.Logo}
}
