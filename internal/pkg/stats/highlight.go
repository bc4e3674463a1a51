package stats

// Band is an inclusive percent range worth pointing out.
type Band struct {
	Name string `json:"name" yaml:"name"`
	Min  int    `json:"min" yaml:"min"`
	Max  int    `json:"max" yaml:"max"`
}

// DefaultBands mark very likely and very unlikely markets.
var DefaultBands = []Band{
	{Name: "high", Min: 70, Max: 100},
	{Name: "low", Min: 0, Max: 30},
}

func (b Band) contains(p int) bool { return p >= b.Min && p <= b.Max }

// Highlight is a market where both teams sit in the same band.
type Highlight struct {
	Key             MarketKey `json:"key"`
	Band            string    `json:"band"`
	TeamPercent     int       `json:"team_percent"`
	OpponentPercent int       `json:"opponent_percent"`
}

// HighlightKeys compares two teams market by market and returns those where
// both percents fall into the same band. Empty stats never match.
func HighlightKeys(team, opponent PeriodStats, bands []Band) []Highlight {
	if team.Total == 0 || opponent.Total == 0 {
		return nil
	}
	if len(bands) == 0 {
		bands = DefaultBands
	}
	var out []Highlight
	for _, mk := range markets {
		a, okA := team.Lookup(mk.key)
		b, okB := opponent.Lookup(mk.key)
		if !okA || !okB {
			continue
		}
		for _, band := range bands {
			if band.contains(a.Percent) && band.contains(b.Percent) {
				out = append(out, Highlight{
					Key:             mk.key,
					Band:            band.Name,
					TeamPercent:     a.Percent,
					OpponentPercent: b.Percent,
				})
				break
			}
		}
	}
	return out
}
