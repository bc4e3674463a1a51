package stats

// MarketKey names one tracked market inside PeriodStats and StreakStats,
// e.g. "win", "dc_1x" or "over:2.5".
type MarketKey string

const (
	KeyWin        MarketKey = "win"
	KeyDraw       MarketKey = "draw"
	KeyLose       MarketKey = "lose"
	KeyBTTS       MarketKey = "btts"
	KeyCleanSheet MarketKey = "clean_sheet"
	KeyCleanHome  MarketKey = "clean_home"
	KeyCleanAway  MarketKey = "clean_away"
	KeyDC1X       MarketKey = "dc_1x"
	KeyDCX2       MarketKey = "dc_x2"
	KeyDC12       MarketKey = "dc_12"
)

const (
	overPrefix  = "over:"
	underPrefix = "under:"
)

func OverKey(l Line) MarketKey  { return MarketKey(overPrefix + l.String()) }
func UnderKey(l Line) MarketKey { return MarketKey(underPrefix + l.String()) }

type marketKind int

const (
	kindFixed marketKind = iota
	kindOver
	kindUnder
)

// predicate is evaluated on the period score seen from the subject team.
type predicate func(s Score, isHome bool) bool

type market struct {
	key   MarketKey
	kind  marketKind
	line  Line
	holds predicate
}

// markets is the single table of tracked markets. Both the period engine
// and the streak engine iterate it, so a market is defined exactly once.
var markets = buildMarkets()

func buildMarkets() []market {
	ms := []market{
		{key: KeyWin, holds: func(s Score, _ bool) bool { return s.For > s.Against }},
		{key: KeyDraw, holds: func(s Score, _ bool) bool { return s.For == s.Against }},
		{key: KeyLose, holds: func(s Score, _ bool) bool { return s.For < s.Against }},
		{key: KeyBTTS, holds: func(s Score, _ bool) bool { return s.For > 0 && s.Against > 0 }},
		{key: KeyCleanSheet, holds: func(s Score, _ bool) bool { return s.Against == 0 }},
		{key: KeyCleanHome, holds: func(s Score, home bool) bool { return home && s.Against == 0 }},
		{key: KeyCleanAway, holds: func(s Score, home bool) bool { return !home && s.Against == 0 }},
		{key: KeyDC1X, holds: func(s Score, _ bool) bool { return s.For >= s.Against }},
		{key: KeyDCX2, holds: func(s Score, _ bool) bool { return s.For <= s.Against }},
		{key: KeyDC12, holds: func(s Score, _ bool) bool { return s.For != s.Against }},
	}
	for _, l := range GoalLines {
		threshold := float64(l)
		ms = append(ms,
			market{key: OverKey(l), kind: kindOver, line: l, holds: func(s Score, _ bool) bool {
				return float64(s.Total()) > threshold
			}},
			market{key: UnderKey(l), kind: kindUnder, line: l, holds: func(s Score, _ bool) bool {
				return float64(s.Total()) <= threshold
			}},
		)
	}
	return ms
}

// MarketKeys returns every tracked key in table order.
func MarketKeys() []MarketKey {
	keys := make([]MarketKey, 0, len(markets))
	for _, m := range markets {
		keys = append(keys, m.key)
	}
	return keys
}

func lookupMarket(key MarketKey) (market, bool) {
	for _, m := range markets {
		if m.key == key {
			return m, true
		}
	}
	return market{}, false
}

// Lookup returns the aggregate stored under key.
func (p PeriodStats) Lookup(key MarketKey) (Count, bool) {
	m, ok := lookupMarket(key)
	if !ok {
		return Count{}, false
	}
	switch m.kind {
	case kindOver:
		c, ok := p.Over[m.line.String()]
		return c, ok
	case kindUnder:
		c, ok := p.Under[m.line.String()]
		return c, ok
	}
	if f := p.fixedField(key); f != nil {
		return *f, true
	}
	return Count{}, false
}

func (p *PeriodStats) set(m market, c Count) {
	switch m.kind {
	case kindOver:
		p.Over[m.line.String()] = c
	case kindUnder:
		p.Under[m.line.String()] = c
	default:
		if f := p.fixedField(m.key); f != nil {
			*f = c
		}
	}
}

func (p *PeriodStats) fixedField(key MarketKey) *Count {
	switch key {
	case KeyWin:
		return &p.Win
	case KeyDraw:
		return &p.Draw
	case KeyLose:
		return &p.Lose
	case KeyBTTS:
		return &p.BTTS
	case KeyCleanSheet:
		return &p.CleanSheet
	case KeyCleanHome:
		return &p.CleanHome
	case KeyCleanAway:
		return &p.CleanAway
	case KeyDC1X:
		return &p.DC1X
	case KeyDCX2:
		return &p.DCX2
	case KeyDC12:
		return &p.DC12
	}
	return nil
}

// Lookup returns the streak stored under key.
func (s StreakStats) Lookup(key MarketKey) (StreakFlag, bool) {
	m, ok := lookupMarket(key)
	if !ok {
		return StreakFlag{}, false
	}
	switch m.kind {
	case kindOver:
		f, ok := s.Over[m.line.String()]
		return f, ok
	case kindUnder:
		f, ok := s.Under[m.line.String()]
		return f, ok
	}
	if f := s.fixedField(key); f != nil {
		return *f, true
	}
	return StreakFlag{}, false
}

func (s *StreakStats) set(m market, f StreakFlag) {
	switch m.kind {
	case kindOver:
		s.Over[m.line.String()] = f
	case kindUnder:
		s.Under[m.line.String()] = f
	default:
		if p := s.fixedField(m.key); p != nil {
			*p = f
		}
	}
}

func (s *StreakStats) fixedField(key MarketKey) *StreakFlag {
	switch key {
	case KeyWin:
		return &s.Win
	case KeyDraw:
		return &s.Draw
	case KeyLose:
		return &s.Lose
	case KeyBTTS:
		return &s.BTTS
	case KeyCleanSheet:
		return &s.CleanSheet
	case KeyCleanHome:
		return &s.CleanHome
	case KeyCleanAway:
		return &s.CleanAway
	case KeyDC1X:
		return &s.DC1X
	case KeyDCX2:
		return &s.DCX2
	case KeyDC12:
		return &s.DC12
	}
	return nil
}
