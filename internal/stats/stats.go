// Package stats computes win/loss summary statistics over trade chains, and
// prepares the numeric series handed to the downstream histogram renderer.
//
// All monetary statistics use shopspring/decimal; the chart series are
// float64 because they leave the engine for distribution analysis.
package stats

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Summary is the fixed 9×4 statistics table plus the chart series.
// Table rows: header, total P/L, win count/ratio, avg initial credit,
// avg P/L per trade, avg P/L win, avg P/L loss, max win, max loss.
type Summary struct {
	Table [][4]string `json:"table"`

	// Chart series for the external histogram sink.
	PnL        []float64 `json:"pnl"`         // chain_pnl per chain
	PnLPctInit []float64 `json:"pnl_pct_init"` // filtered chain_pnl/init ratios, percent
	Init       []float64 `json:"init"`        // initial credit per chain
}

// Compute derives the summary statistics for the given chains.
//
// Per chain, pct_cr = chain_pnl / init with a zero-init guard (init == 0
// yields pct_cr = 0). Winners are chains with chain_pnl > 0; ties go to
// losers. Every mean, max
// and min is guarded against an empty partition and reports zero instead of
// faulting, so an empty chain table produces an all-zero table.
func Compute(chains []model.Chain) Summary {
	var pnl, pnlWin, pnlLos []decimal.Decimal
	var pctCr, pctCrWin, pctCrLos []decimal.Decimal
	var initCr []decimal.Decimal

	pnlF := make([]float64, 0, len(chains))
	initF := make([]float64, 0, len(chains))

	for _, c := range chains {
		pct := decimal.Zero
		if !c.Init.IsZero() {
			pct = c.ChainPnL.Div(c.Init)
		}

		pnl = append(pnl, c.ChainPnL)
		pctCr = append(pctCr, pct)
		initCr = append(initCr, c.Init)
		pnlF = append(pnlF, c.ChainPnL.InexactFloat64())
		initF = append(initF, c.Init.InexactFloat64())

		if c.ChainPnL.IsPositive() {
			pnlWin = append(pnlWin, c.ChainPnL)
			pctCrWin = append(pctCrWin, pct)
		} else {
			pnlLos = append(pnlLos, c.ChainPnL)
			pctCrLos = append(pctCrLos, pct)
		}
	}

	winRatio := "0.0%"
	if len(pnl) > 0 {
		r := decimal.NewFromInt(int64(len(pnlWin))).Div(decimal.NewFromInt(int64(len(pnl))))
		winRatio = percent(r)
	}

	table := [][4]string{
		{"Description", "Stat", "Stat%", "Description"},
		{"P/L", currency(sum(pnl)), "", ""},
		{"# of wins", fmt.Sprintf("%d/%d", len(pnlWin), len(pnl)), winRatio, "% of wins"},
		{"Avg init credits", currency(mean(initCr)), "", ""},
		{"Avg P/L per trade", currency(mean(pnl)), percent(mean(pctCr)), "Avg %cr per trade"},
		{"Avg P/L win", currency(mean(pnlWin)), percent(mean(pctCrWin)), "Avg %cr win"},
		{"Avg P/L loss", currency(mean(pnlLos)), percent(mean(pctCrLos)), "Avg %cr loss"},
		{"Max win", currency(max(pnlWin)), "", ""},
		{"Max loss", currency(min(pnlLos)), "", ""},
	}

	return Summary{
		Table:      table,
		PnL:        pnlF,
		PnLPctInit: FilterRatio(pnlF, initF, DefaultRatioThreshold),
		Init:       initF,
	}
}

// FilterByID restricts chains to the given chain IDs. A nil or empty id set
// means no filtering. Unknown IDs simply match nothing: a missing chain is an
// empty result, never a failure.
func FilterByID(chains []model.Chain, ids []string) []model.Chain {
	if len(ids) == 0 {
		return chains
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]model.Chain, 0, len(chains))
	for _, c := range chains {
		if want[c.ChainID] {
			out = append(out, c)
		}
	}
	return out
}

// --- reducers, all guarded against empty input ---

func sum(xs []decimal.Decimal) decimal.Decimal {
	s := decimal.Zero
	for _, x := range xs {
		s = s.Add(x)
	}
	return s
}

func mean(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	return sum(xs).Div(decimal.NewFromInt(int64(len(xs))))
}

func max(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x.GreaterThan(m) {
			m = x
		}
	}
	return m
}

func min(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x.LessThan(m) {
			m = x
		}
	}
	return m
}

// currency formats a dollar statistic: integer dollars, banker's rounding.
func currency(v decimal.Decimal) string {
	return "$" + v.RoundBank(0).StringFixed(0)
}

// percent formats a ratio statistic with one decimal place.
func percent(v decimal.Decimal) string {
	return v.Mul(hundred).RoundBank(1).StringFixed(1) + "%"
}
