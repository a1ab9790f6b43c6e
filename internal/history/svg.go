package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

// Layout constants for the SVG timeline. The horizontal axis maps strikes
// linearly into [0, width]; the vertical axis advances by bandStep whenever
// the datetime changes and by rowStep for every label inside a band, so
// labels within one execution event do not overlap.
const (
	svgWidth = 1000
	bandStep = 30
	rowStep  = 12
	topY     = 20
)

// EmptyMessage replaces the diagram when the chain has no strikes to plot.
const EmptyMessage = "No transactions."

// RenderSVG lays out a chain's transactions on a strike × time grid and
// returns the vector markup: one scale tick per distinct strike along the
// top axis, and one description label per transaction at its (strike, time)
// position.
func RenderSVG(txns []model.ExpandedTransaction) string {
	sorted := make([]model.ExpandedTransaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DateTime.Equal(sorted[j].DateTime) {
			return sorted[i].DateTime.Before(sorted[j].DateTime)
		}
		return sorted[i].Instrument.Strike.LessThan(sorted[j].Instrument.Strike)
	})

	seen := make(map[string]decimal.Decimal)
	var strikes []decimal.Decimal
	for _, t := range sorted {
		if !t.Instrument.IsOption() {
			continue
		}
		key := t.Instrument.Strike.String()
		if _, ok := seen[key]; !ok {
			seen[key] = t.Instrument.Strike
			strikes = append(strikes, t.Instrument.Strike)
		}
	}
	if len(strikes) == 0 {
		return EmptyMessage
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].LessThan(strikes[j]) })

	minStrike := strikes[0]
	diffStrike := strikes[len(strikes)-1].Sub(minStrike)
	if diffStrike.IsZero() {
		// Degenerate single-strike chain: substitute a unit range.
		diffStrike = decimal.NewFromInt(1)
	}

	var svg strings.Builder
	pr := func(format string, args ...any) {
		fmt.Fprintf(&svg, format+"\n", args...)
	}

	pr(`<svg viewBox="-150 0 1300 1500" xmlns="http://www.w3.org/2000/svg">`)
	pr(`<style>`)
	pr(`  .small { font-size: 7px; }`)
	pr(`  .normal { font-size: 9px; }`)
	pr(`</style>`)

	pr(`<line x1="0" y1="4" x2="%d" y2="4" style="stroke:#cccccc;stroke-width:0.5" />`, svgWidth)
	for _, strike := range strikes {
		x := scaleX(strike, minStrike, diffStrike)
		pr(`<line x1="%d" y1="2" x2="%d" y2="6" style="stroke:#333333;stroke-width:0.5" />`, x, x)
		pr(`<text text-anchor="middle" x="%d" y="12" class="small">%s</text>`, x, strike.String())
	}

	y := topY
	first := true
	var prevTime string
	for _, t := range sorted {
		if !t.Instrument.IsOption() {
			continue
		}
		ts := t.DateTime.Format(timeLayout)
		if !first && prevTime != ts {
			y += bandStep
		}
		first = false
		prevTime = ts

		x := scaleX(t.Instrument.Strike, minStrike, diffStrike)
		pr(`<text text-anchor="middle" x="%d" y="%d" class="normal">%s</text>`, x, y, t.Description)
		y += rowStep
	}

	pr(`</svg>`)
	return svg.String()
}

// scaleX maps a strike linearly into the pixel width.
func scaleX(strike, minStrike, diffStrike decimal.Decimal) int {
	return int(strike.Sub(minStrike).
		Div(diffStrike).
		Mul(decimal.NewFromInt(svgWidth)).
		IntPart())
}
