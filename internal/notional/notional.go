// Package notional estimates the dollar exposure of a single position leg,
// used for risk sizing.
//
// All monetary values use shopspring/decimal — never float64 for money.
package notional

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

// ErrInvalidInstrumentType is returned when a row carries an instrument type
// outside {EquityOption, FutureOption, Equity, Future}. This is a
// data-integrity violation, fatal to the row's computation: the enclosing
// aggregation pass must abort rather than silently default.
var ErrInvalidInstrumentType = errors.New("notional: invalid instrument type")

// Scale is the number of decimal places for notional rounding.
const Scale int32 = 2

// Compute returns the estimated notional for one expanded leg, quantized to
// two places with banker's rounding to avoid systematic bias across many
// small legs.
//
// Classification is exhaustive, no fallthrough:
//   - put options: quantity × multiplier × strike
//   - call options: zero — calls are currently not counted toward notional.
//     Documented limitation, preserved deliberately; do not silently change.
//   - equities and futures: quantity × multiplier × price
func Compute(inst model.Instrument, quantity, price decimal.Decimal) (decimal.Decimal, error) {
	var n decimal.Decimal
	switch inst.InsType {
	case model.TypeEquityOption, model.TypeFutureOption:
		if inst.IsPut() {
			n = quantity.Mul(inst.Multiplier).Mul(inst.Strike)
		} else {
			n = decimal.Zero
		}
	case model.TypeEquity, model.TypeFuture:
		n = quantity.Mul(inst.Multiplier).Mul(price)
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidInstrumentType, inst.InsType)
	}
	return n.RoundBank(Scale), nil
}
