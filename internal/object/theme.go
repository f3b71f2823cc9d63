package object

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/tomz197/nosecondbest/internal/loop/config"
)

// Theme selects the enemy roster and spawn quirks of a match.
type Theme uint8

const (
	ThemeAltcoins Theme = iota
	ThemeBugs
	ThemeZombies
	ThemeSpiders
	themeCount
)

type weightedKind struct {
	Kind   Kind
	Weight float64
}

type themeSpec struct {
	Name    string
	Roster  []weightedKind // Cumulative thresholds follow slice order
	Crowded bool           // Applies the denser spawn multiplier
	TopBias bool           // Prefers the top edge when spawning
}

var themes = [themeCount]themeSpec{
	ThemeAltcoins: {Name: "altcoins", Roster: []weightedKind{{KindAltcoin, 1}}},
	ThemeBugs:     {Name: "bugs", Roster: []weightedKind{{KindBeetle, 0.4}, {KindFly, 0.3}, {KindWasp, 0.3}}},
	ThemeZombies:  {Name: "zombies", Roster: []weightedKind{{KindWalker, 0.8}, {KindRunner, 0.2}}},
	ThemeSpiders:  {Name: "spiders", Roster: []weightedKind{{KindCrawler, 0.4}, {KindJumper, 0.6}}, Crowded: true, TopBias: true},
}

// Themes lists every theme in menu order.
func Themes() []Theme {
	out := make([]Theme, 0, themeCount)
	for t := Theme(0); t < themeCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t Theme) spec() themeSpec {
	if t >= themeCount {
		return themes[ThemeAltcoins]
	}
	return themes[t]
}

func (t Theme) String() string {
	return t.spec().Name
}

// ParseTheme resolves a theme by name.
func ParseTheme(name string) (Theme, error) {
	for i, s := range themes {
		if strings.EqualFold(s.Name, name) {
			return Theme(i), nil
		}
	}
	return ThemeAltcoins, fmt.Errorf("unknown theme %q", name)
}

// Next cycles to the following theme.
func (t Theme) Next() Theme {
	return (t + 1) % themeCount
}

// PickKind maps one uniform draw in [0,1) onto the theme's roster.
func (t Theme) PickKind(u float64) Kind {
	roster := t.spec().Roster
	acc := 0.0
	for _, wk := range roster {
		acc += wk.Weight
		if u < acc {
			return wk.Kind
		}
	}
	return roster[len(roster)-1].Kind
}

// IntervalMult scales the spawn interval for this theme.
func (t Theme) IntervalMult(tun *config.Tuning) float64 {
	if t.spec().Crowded {
		return tun.SpiderMult
	}
	return 1
}

// TopEdgeChance is the probability of spawning on the top edge instead of
// picking an edge uniformly. Zero means uniform.
func (t Theme) TopEdgeChance(tun *config.Tuning) float64 {
	if t.spec().TopBias {
		return tun.SpiderTopBias
	}
	return 0
}

// altcoin tickers and fallback colors for the altcoin roster.
var altcoins = []struct {
	Ticker string
	Color  color.RGBA
}{
	{"ETH", hex(0x627eea)}, {"USDT", hex(0x26a17b)}, {"USDC", hex(0x2775ca)}, {"BNB", hex(0xf3ba2f)},
	{"SOL", hex(0x9945ff)}, {"XRP", hex(0x23292f)}, {"TRX", hex(0xff060a)}, {"DOGE", hex(0xc2a633)},
	{"ADA", hex(0x0033ad)}, {"STETH", hex(0x00a3ff)}, {"LINK", hex(0x375bd2)}, {"SHIB", hex(0xffa409)},
	{"HBAR", hex(0x0e002a)}, {"DAI", hex(0xf4b731)}, {"AVAX", hex(0xe84142)}, {"UNI", hex(0xff007a)},
	{"AAVE", hex(0xb6509e)}, {"COMP", hex(0x00d395)}, {"ZEC", hex(0xf4b728)}, {"ETC", hex(0x328332)},
}

// Dress picks the label and color for a new enemy of kind k.
func Dress(k Kind, r Rand) (label string, c color.RGBA) {
	if k == KindAltcoin {
		a := altcoins[r.IntN(len(altcoins))]
		return a.Ticker, a.Color
	}
	return "", k.Profile().Color
}
