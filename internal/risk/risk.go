// Package risk aggregates open positions into exposure buckets keyed by
// (underlying, expiration), and computes account-level leverage.
//
// All monetary values use shopspring/decimal — never float64 for money.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/instrument"
	"github.com/buff/report-engine/internal/model"
	"github.com/buff/report-engine/internal/notional"
)

// DefaultNetLiq is the fallback account net-liquidation value used when the
// caller has no live figure. Upstream does not yet supply one; the live value
// is an injected parameter, this is only its default.
var DefaultNetLiq = decimal.NewFromInt(1_000_000)

// Table is the output of one aggregation pass: one row per
// (underlying, expiration) plus a grand total over the ungrouped set.
type Table struct {
	Rows     []model.RiskRow `json:"rows"`
	Total    model.RiskRow   `json:"total"`
	Notional decimal.Decimal `json:"notional"` // |total notional|
	NetLiq   decimal.Decimal `json:"net_liq"`
	Leverage decimal.Decimal `json:"leverage"` // |notional| / netLiq
}

type bucketKey struct {
	underlying string
	expiration string
}

// Aggregate expands every position symbol, attaches its notional, and groups
// by (underlying, expiration): cost (nulls as zero), net_liq, pnl_open and
// notional are summed; the account of the first row seen wins. Group order is
// first-encounter order, so repeated calls over the same input yield
// identical output.
//
// A row that fails expansion or classification aborts the whole pass; the
// caller decides whether to propagate or skip.
func Aggregate(positions []model.Position, netLiq decimal.Decimal) (Table, error) {
	var keys []bucketKey
	buckets := make(map[bucketKey]*model.RiskRow)
	var total model.RiskRow

	for _, p := range positions {
		inst, err := instrument.Expand(p.Symbol)
		if err != nil {
			return Table{}, fmt.Errorf("risk: expand %s: %w", p.Symbol, err)
		}
		n, err := notional.Compute(inst, p.Quantity, p.Price)
		if err != nil {
			return Table{}, fmt.Errorf("risk: %s: %w", p.Symbol, err)
		}

		cost := decimal.Zero
		if p.Cost.Valid {
			cost = p.Cost.Decimal
		}

		key := bucketKey{inst.Underlying, inst.Expiration}
		row, ok := buckets[key]
		if !ok {
			row = &model.RiskRow{
				Underlying: inst.Underlying,
				Expiration: inst.Expiration,
				Account:    p.Account,
			}
			buckets[key] = row
			keys = append(keys, key)
		}
		row.Cost = row.Cost.Add(cost)
		row.NetLiq = row.NetLiq.Add(p.NetLiq)
		row.PnLOpen = row.PnLOpen.Add(p.PnLOpen)
		row.Notional = row.Notional.Add(n)

		if total.Account == "" {
			total.Account = p.Account
		}
		total.Cost = total.Cost.Add(cost)
		total.NetLiq = total.NetLiq.Add(p.NetLiq)
		total.PnLOpen = total.PnLOpen.Add(p.PnLOpen)
		total.Notional = total.Notional.Add(n)
	}

	rows := make([]model.RiskRow, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, *buckets[key])
	}

	absNotional := total.Notional.Abs()
	leverage := decimal.Zero
	if netLiq.IsPositive() {
		leverage = absNotional.Div(netLiq)
	}

	return Table{
		Rows:     rows,
		Total:    total,
		Notional: absNotional,
		NetLiq:   netLiq,
		Leverage: leverage,
	}, nil
}
