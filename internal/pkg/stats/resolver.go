package stats

import (
	"fmt"
	"strings"
)

// MarketType is the market identifier used by search filters and the API.
type MarketType string

const (
	MarketOver05  MarketType = "OVER_0_5"
	MarketOver15  MarketType = "OVER_1_5"
	MarketOver25  MarketType = "OVER_2_5"
	MarketOver35  MarketType = "OVER_3_5"
	MarketOver45  MarketType = "OVER_4_5"
	MarketOver55  MarketType = "OVER_5_5"
	MarketUnder05 MarketType = "UNDER_0_5"
	MarketUnder15 MarketType = "UNDER_1_5"
	MarketUnder25 MarketType = "UNDER_2_5"
	MarketUnder35 MarketType = "UNDER_3_5"
	MarketUnder45 MarketType = "UNDER_4_5"
	MarketUnder55 MarketType = "UNDER_5_5"

	MarketDC1X MarketType = "DC_1X"
	MarketDCX2 MarketType = "DC_X2"
	MarketDC12 MarketType = "DC_12"

	MarketWin        MarketType = "WIN"
	MarketDraw       MarketType = "DRAW"
	MarketLose       MarketType = "LOSE"
	MarketBTTS       MarketType = "BTTS"
	MarketCleanSheet MarketType = "CLEAN_SHEET"
	MarketCleanHome  MarketType = "CLEAN_HOME"
	MarketCleanAway  MarketType = "CLEAN_AWAY"
)

// marketTable maps every MarketType to the field that answers it.
var marketTable = map[MarketType]MarketKey{
	MarketOver05:  OverKey(0.5),
	MarketOver15:  OverKey(1.5),
	MarketOver25:  OverKey(2.5),
	MarketOver35:  OverKey(3.5),
	MarketOver45:  OverKey(4.5),
	MarketOver55:  OverKey(5.5),
	MarketUnder05: UnderKey(0.5),
	MarketUnder15: UnderKey(1.5),
	MarketUnder25: UnderKey(2.5),
	MarketUnder35: UnderKey(3.5),
	MarketUnder45: UnderKey(4.5),
	MarketUnder55: UnderKey(5.5),

	MarketDC1X: KeyDC1X,
	MarketDCX2: KeyDCX2,
	MarketDC12: KeyDC12,

	MarketWin:        KeyWin,
	MarketDraw:       KeyDraw,
	MarketLose:       KeyLose,
	MarketBTTS:       KeyBTTS,
	MarketCleanSheet: KeyCleanSheet,
	MarketCleanHome:  KeyCleanHome,
	MarketCleanAway:  KeyCleanAway,
}

// Key returns the market key behind m.
func (m MarketType) Key() (MarketKey, error) {
	key, ok := marketTable[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMarket, string(m))
	}
	return key, nil
}

// ParseMarketType normalizes s (case, dots) and checks it is a known market.
func ParseMarketType(s string) (MarketType, error) {
	m := MarketType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), ".", "_")))
	if _, err := m.Key(); err != nil {
		return "", err
	}
	return m, nil
}

// MarketTypeFor builds the over/under market type for a goal line.
func MarketTypeFor(over bool, l Line) (MarketType, error) {
	prefix := "UNDER_"
	if over {
		prefix = "OVER_"
	}
	m := MarketType(prefix + strings.ReplaceAll(l.String(), ".", "_"))
	if _, err := m.Key(); err != nil {
		return "", err
	}
	return m, nil
}

// Probability is the pair shown for a market: the historical percent (green)
// and the live streak percent (blue), nil when no streak is running.
type Probability struct {
	Green int  `json:"green"`
	Blue  *int `json:"blue"`
}

// Resolve answers market m from a team's aggregates. streaks may be nil.
func Resolve(m MarketType, ps PeriodStats, streaks *StreakStats) (Probability, error) {
	key, err := m.Key()
	if err != nil {
		return Probability{}, err
	}
	c, ok := ps.Lookup(key)
	if !ok {
		return Probability{}, fmt.Errorf("%w: %q has no value for %s", ErrUnknownMarket, string(m), ps.Period)
	}
	p := Probability{Green: c.Percent}
	if streaks != nil {
		if f, ok := streaks.Lookup(key); ok && f.Active {
			blue := f.Percent
			p.Blue = &blue
		}
	}
	return p, nil
}
