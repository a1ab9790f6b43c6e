// Package instrument expands compact instrument symbols into their structured
// fields: underlying, expiration, strike, put/call, multiplier and instrument
// type.
//
// Supported symbologies:
//
//	Equity         AAPL
//	Equity option  SPY_210618_P300        (underlying_YYMMDD_[PC]strike)
//	Future         /ESM21                 (/root + month code + 2-digit year)
//	Future option  /ZTH21_OZTH21_C110.5   (future_optcontract_[PC]strike)
//
// Expansion is performed once, at the snapshot construction boundary; the
// engine downstream only ever sees validated Instrument values.
package instrument

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

// ErrInvalidSymbol is returned when a symbol matches no known symbology.
var ErrInvalidSymbol = errors.New("instrument: invalid symbol")

var (
	// SPY_210618_P300
	equityOptionRegex = regexp.MustCompile(
		`^([A-Z][A-Z0-9.]*)_(\d{6})_([PC])(\d+(?:\.\d+)?)$`)

	// /ESM21 — month code is one of FGHJKMNQUVXZ.
	futureRegex = regexp.MustCompile(
		`^/([A-Z0-9]+?)([FGHJKMNQUVXZ]\d{2})$`)

	// /ZTH21_OZTH21_C110.5
	futureOptionRegex = regexp.MustCompile(
		`^/([A-Z0-9]+?)([FGHJKMNQUVXZ]\d{2})_([A-Z0-9]+)_([PC])(\d+(?:\.\d+)?)$`)

	// AAPL, BRK.B
	equityRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)
)

// futuresMultipliers maps futures contract roots to their notional
// multipliers. Unknown roots default to 1.
var futuresMultipliers = map[string]int64{
	"ES": 50, "NQ": 20, "RTY": 50, "YM": 5,
	"CL": 1000, "NG": 10000,
	"GC": 100, "SI": 5000, "HG": 25000,
	"ZC": 50, "ZS": 50, "ZW": 50,
	"ZB": 1000, "ZN": 1000, "ZF": 1000, "ZT": 2000,
	"6E": 125000, "6J": 12500000, "6B": 62500,
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Expand parses a symbol into its instrument fields.
func Expand(symbol string) (model.Instrument, error) {
	if m := futureOptionRegex.FindStringSubmatch(symbol); m != nil {
		strike, err := decimal.NewFromString(m[5])
		if err != nil {
			return model.Instrument{}, fmt.Errorf("%w: %s: bad strike %q", ErrInvalidSymbol, symbol, m[5])
		}
		return model.Instrument{
			Symbol:     symbol,
			Underlying: "/" + m[1],
			Expiration: m[2],
			PutCall:    m[4],
			Strike:     strike,
			Multiplier: rootMultiplier(m[1]),
			InsType:    model.TypeFutureOption,
		}, nil
	}

	if m := futureRegex.FindStringSubmatch(symbol); m != nil {
		return model.Instrument{
			Symbol:     symbol,
			Underlying: "/" + m[1],
			Expiration: m[2],
			Multiplier: rootMultiplier(m[1]),
			InsType:    model.TypeFuture,
		}, nil
	}

	if m := equityOptionRegex.FindStringSubmatch(symbol); m != nil {
		strike, err := decimal.NewFromString(m[4])
		if err != nil {
			return model.Instrument{}, fmt.Errorf("%w: %s: bad strike %q", ErrInvalidSymbol, symbol, m[4])
		}
		return model.Instrument{
			Symbol:     symbol,
			Underlying: m[1],
			Expiration: m[2],
			PutCall:    m[3],
			Strike:     strike,
			Multiplier: hundred,
			InsType:    model.TypeEquityOption,
		}, nil
	}

	if equityRegex.MatchString(symbol) {
		return model.Instrument{
			Symbol:     symbol,
			Underlying: symbol,
			Multiplier: one,
			InsType:    model.TypeEquity,
		}, nil
	}

	return model.Instrument{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
}

func rootMultiplier(root string) decimal.Decimal {
	if m, ok := futuresMultipliers[root]; ok {
		return decimal.NewFromInt(m)
	}
	return one
}
