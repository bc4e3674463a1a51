package stats

import (
	"fmt"
	"time"
)

// Range narrows a team's history before aggregation.
type Range struct {
	// Last keeps the N most recent matches, 0 keeps all.
	Last int `json:"last,omitempty"`
	// Season keeps only one season, 0 keeps all.
	Season int `json:"season,omitempty"`
	// Cutoff drops matches kicked off after it when set.
	Cutoff time.Time `json:"cutoff,omitempty"`
}

func (r Range) String() string {
	s := fmt.Sprintf("last=%d,season=%d", r.Last, r.Season)
	if !r.Cutoff.IsZero() {
		s += ",cutoff=" + r.Cutoff.UTC().Format(time.RFC3339)
	}
	return s
}

// Select returns the played records inside r, most recent first.
func Select(records []MatchRecord, r Range) []MatchRecord {
	out := make([]MatchRecord, 0, len(records))
	for _, m := range records {
		if !m.HasFullTime() {
			continue
		}
		if r.Season != 0 && m.Season != r.Season {
			continue
		}
		if !r.Cutoff.IsZero() && m.Date.After(r.Cutoff) {
			continue
		}
		out = append(out, m)
	}
	out = sortByDate(out, true)
	if r.Last > 0 && len(out) > r.Last {
		out = out[:r.Last]
	}
	return out
}

// Side restricts records to one venue.
type Side string

const (
	SideAll  Side = "all"
	SideHome Side = "home"
	SideAway Side = "away"
)

// FilterSide keeps the records played on one side. SideAll returns a copy.
func FilterSide(records []MatchRecord, side Side) []MatchRecord {
	out := make([]MatchRecord, 0, len(records))
	for _, m := range records {
		switch side {
		case SideHome:
			if !m.IsHome {
				continue
			}
		case SideAway:
			if m.IsHome {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// LastMatchDate returns the kickoff of the most recent played record.
func LastMatchDate(records []MatchRecord) (time.Time, bool) {
	var last time.Time
	found := false
	for _, m := range records {
		if m.HasFullTime() && (!found || m.Date.After(last)) {
			last = m.Date
			found = true
		}
	}
	return last, found
}
