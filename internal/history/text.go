// Package history renders the life cycle of one trade chain, either as a
// monospaced textual timeline or as an SVG diagram laid out on a
// strike × time grid.
package history

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

// ExecutionGroup is one execution event: all legs filled under the same
// (datetime, order_id), with the chain's running cost accrual after the
// event.
type ExecutionGroup struct {
	DateTime string          `json:"datetime"`
	OrderID  string          `json:"order_id"`
	Static   string          `json:"static"` // non-option legs, semicolon-joined
	Puts     string          `json:"puts"`
	Calls    string          `json:"calls"`
	Cost     decimal.Decimal `json:"cost"` // summed cost of the event's legs
	Accr     decimal.Decimal `json:"accr"` // running total after this event
}

const timeLayout = "2006-01-02 15:04:05"

// GroupByExecution buckets a chain's transactions by (datetime, order_id) in
// chronological order and folds the cost accrual across the groups.
//
// The accrual is a strictly sequential left-fold: each group's accr is the
// previous group's accr plus this group's summed cost, so the final accr
// equals the chain's total cost.
func GroupByExecution(txns []model.ExpandedTransaction) []ExecutionGroup {
	sorted := make([]model.ExpandedTransaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DateTime.Equal(sorted[j].DateTime) {
			return sorted[i].DateTime.Before(sorted[j].DateTime)
		}
		return sorted[i].OrderID < sorted[j].OrderID
	})

	var groups []ExecutionGroup
	accr := decimal.Zero

	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) &&
			sorted[j].DateTime.Equal(sorted[i].DateTime) &&
			sorted[j].OrderID == sorted[i].OrderID {
			j++
		}
		legs := sorted[i:j]

		cost := decimal.Zero
		var static, puts, calls []string
		for _, t := range legs {
			cost = cost.Add(t.Cost)
			leg := formatLeg(t)
			switch {
			case t.Instrument.IsPut():
				puts = append(puts, leg)
			case t.Instrument.IsCall():
				calls = append(calls, leg)
			default:
				static = append(static, leg)
			}
		}
		accr = accr.Add(cost)

		groups = append(groups, ExecutionGroup{
			DateTime: legs[0].DateTime.Format(timeLayout),
			OrderID:  legs[0].OrderID,
			Static:   strings.Join(static, "; "),
			Puts:     strings.Join(puts, "; "),
			Calls:    strings.Join(calls, "; "),
			Cost:     cost,
			Accr:     accr,
		})
		i = j
	}
	return groups
}

func formatLeg(t model.ExpandedTransaction) string {
	return fmt.Sprintf("%s/%s %s %s @ %s",
		t.Instruction, t.Effect, t.Quantity.String(), t.Symbol, t.Price.String())
}

// RenderText renders the chain's execution groups as an aligned monospaced
// block, one row per execution event.
func RenderText(txns []model.ExpandedTransaction) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "datetime\torder_id\tstatic\tputs\tcalls\tcost\taccr")
	for _, g := range GroupByExecution(txns) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.DateTime, g.OrderID, g.Static, g.Puts, g.Calls,
			g.Cost.StringFixed(2), g.Accr.StringFixed(2))
	}
	w.Flush()
	return buf.String()
}
