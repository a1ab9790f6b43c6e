// Package model defines the core domain types shared across the report engine.
// All monetary values use shopspring/decimal — never float64 for money.
//
// The three tables (transactions, positions, chains) are produced upstream by
// the import/consolidation stage. They are read-only facts in this process:
// the engine never mutates a row, every transformation yields new values.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument types produced by symbol expansion. Every expanded row carries
// exactly one of these; anything else is a data-integrity violation.
const (
	TypeEquityOption = "EquityOption"
	TypeFutureOption = "FutureOption"
	TypeEquity       = "Equity"
	TypeFuture       = "Future"
)

// Transaction instruction and effect values.
const (
	InstructionBuy  = "BUY"
	InstructionSell = "SELL"

	EffectOpening = "OPENING"
	EffectClosing = "CLOSING"
)

// Transaction is an immutable record of one executed leg.
// Once imported, these are never modified or deleted.
type Transaction struct {
	DateTime    time.Time       `json:"datetime" db:"datetime"`
	OrderID     string          `json:"order_id" db:"order_id"`
	ChainID     string          `json:"chain_id" db:"chain_id"`
	Account     string          `json:"account" db:"account"`
	Symbol      string          `json:"symbol" db:"symbol"`
	Instruction string          `json:"instruction" db:"instruction"` // "BUY" or "SELL"
	Effect      string          `json:"effect" db:"effect"`           // "OPENING" or "CLOSING"
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`       // signed
	Price       decimal.Decimal `json:"price" db:"price"`
	Cost        decimal.Decimal `json:"cost" db:"cost"` // signed cash flow
	Description string          `json:"description" db:"description"`
}

// Position is a snapshot of one currently open instrument leg.
// Cost is nullable: some brokers do not report a cost basis for every leg.
type Position struct {
	Account  string              `json:"account" db:"account"`
	Symbol   string              `json:"symbol" db:"symbol"`
	Quantity decimal.Decimal     `json:"quantity" db:"quantity"`
	Price    decimal.Decimal     `json:"price" db:"price"` // mark price
	Cost     decimal.NullDecimal `json:"cost" db:"cost"`
	NetLiq   decimal.Decimal     `json:"net_liq" db:"net_liq"`
	PnLOpen  decimal.Decimal     `json:"pnl_open" db:"pnl_open"`
}

// Chain summarizes one group of related transactions: a conceptual trade
// opened and later closed, possibly across many orders.
type Chain struct {
	ChainID    string          `json:"chain_id" db:"chain_id"`
	Account    string          `json:"account" db:"account"`
	Underlying string          `json:"underlying" db:"underlying"`
	MinDate    time.Time       `json:"mindate" db:"mindate"`
	Days       int             `json:"days" db:"days"`
	Init       decimal.Decimal `json:"init" db:"init"`           // initial credit/debit
	ChainPnL   decimal.Decimal `json:"chain_pnl" db:"chain_pnl"` // realized + open P/L
	Accr       decimal.Decimal `json:"accr" db:"accr"`           // total accrued cost
}

// Instrument holds the structured fields derived from a compact symbol:
// underlying, expiration, strike, put/call, multiplier and instrument type.
type Instrument struct {
	Symbol     string          `json:"symbol"`
	Underlying string          `json:"underlying"`
	Expiration string          `json:"expiration"`
	PutCall    string          `json:"putcall"` // "P", "C", or "" for non-options
	Strike     decimal.Decimal `json:"strike"`
	Multiplier decimal.Decimal `json:"multiplier"`
	InsType    string          `json:"instype"`
}

// IsOption reports whether the instrument is an option leg.
func (i Instrument) IsOption() bool {
	return i.InsType == TypeEquityOption || i.InsType == TypeFutureOption
}

// IsPut reports whether the instrument is a put option.
func (i Instrument) IsPut() bool {
	return i.PutCall != "" && i.PutCall[0] == 'P'
}

// IsCall reports whether the instrument is a call option.
func (i Instrument) IsCall() bool {
	return i.PutCall != "" && i.PutCall[0] == 'C'
}

// ExpandedTransaction pairs a transaction with the instrument fields derived
// from its symbol.
type ExpandedTransaction struct {
	Transaction
	Instrument Instrument `json:"instrument"`
}

// RiskRow is a derived exposure aggregate keyed by (underlying, expiration).
type RiskRow struct {
	Underlying string          `json:"underlying"`
	Expiration string          `json:"expiration"`
	Account    string          `json:"account"` // first encountered in the group
	Cost       decimal.Decimal `json:"cost"`
	NetLiq     decimal.Decimal `json:"net_liq"`
	PnLOpen    decimal.Decimal `json:"pnl_open"`
	Notional   decimal.Decimal `json:"notional"`
}
