package risk

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func pos(account, symbol string, qty, price float64) model.Position {
	return model.Position{
		Account:  account,
		Symbol:   symbol,
		Quantity: d(qty),
		Price:    d(price),
		Cost:     decimal.NewNullDecimal(d(qty * price * -1)),
		NetLiq:   d(qty * price),
		PnLOpen:  d(10),
	}
}

func TestAggregate_EquityNotional(t *testing.T) {
	positions := []model.Position{pos("x1", "AAPL", 100, 50)}

	table, err := Aggregate(positions, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 risk row, got %d", len(table.Rows))
	}
	if !table.Rows[0].Notional.Equal(d(5000)) {
		t.Errorf("expected notional=5000, got %s", table.Rows[0].Notional)
	}
	if !table.Total.Notional.Equal(d(5000)) {
		t.Errorf("expected total notional=5000, got %s", table.Total.Notional)
	}
}

func TestAggregate_GroupsByUnderlyingExpiration(t *testing.T) {
	positions := []model.Position{
		pos("x1", "SPY_210618_P300", -1, 3.5),
		pos("x2", "SPY_210618_P290", -1, 2.8),
		pos("x1", "SPY_210917_P280", -1, 4.1),
		pos("x1", "AAPL", 100, 50),
	}

	table, err := Aggregate(positions, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (SPY, 210618), (SPY, 210917), (AAPL, "") — first-encounter order.
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 risk rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Underlying != "SPY" || table.Rows[0].Expiration != "210618" {
		t.Errorf("unexpected first bucket: %+v", table.Rows[0])
	}
	// Account of the first row encountered wins.
	if table.Rows[0].Account != "x1" {
		t.Errorf("expected account=x1, got %s", table.Rows[0].Account)
	}
	// Put notional: qty × 100 × strike, summed over both legs.
	want := d(-1).Mul(d(100)).Mul(d(300)).Add(d(-1).Mul(d(100)).Mul(d(290)))
	if !table.Rows[0].Notional.Equal(want) {
		t.Errorf("expected notional=%s, got %s", want, table.Rows[0].Notional)
	}
}

func TestAggregate_NullCostTreatedAsZero(t *testing.T) {
	p := pos("x1", "AAPL", 100, 50)
	p.Cost = decimal.NullDecimal{}

	table, err := Aggregate([]model.Position{p}, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !table.Rows[0].Cost.IsZero() {
		t.Errorf("null cost should sum as zero, got %s", table.Rows[0].Cost)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	positions := []model.Position{
		pos("x1", "SPY_210618_P300", -1, 3.5),
		pos("x1", "/ESM21", 1, 4200),
		pos("x1", "AAPL", 100, 50),
	}

	first, err := Aggregate(positions, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Aggregate(positions, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("aggregation is not stable across repeated calls")
	}
}

func TestAggregate_Leverage(t *testing.T) {
	positions := []model.Position{pos("x1", "AAPL", -100, 50)}

	table, err := Aggregate(positions, d(10000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// |−5000| / 10000 = 0.5
	if !table.Notional.Equal(d(5000)) {
		t.Errorf("expected abs notional=5000, got %s", table.Notional)
	}
	if !table.Leverage.Equal(d(0.5)) {
		t.Errorf("expected leverage=0.5, got %s", table.Leverage)
	}
}

func TestAggregate_NonPositiveNetLiqGuarded(t *testing.T) {
	table, err := Aggregate([]model.Position{pos("x1", "AAPL", 100, 50)}, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !table.Leverage.IsZero() {
		t.Errorf("zero net-liq must yield zero leverage, got %s", table.Leverage)
	}
}

func TestAggregate_BadSymbolAbortsPass(t *testing.T) {
	positions := []model.Position{
		pos("x1", "AAPL", 100, 50),
		pos("x1", "not a symbol", 1, 1),
	}
	if _, err := Aggregate(positions, DefaultNetLiq); err == nil {
		t.Fatal("expected the bad row to abort the aggregation")
	}
}

func TestAggregate_Empty(t *testing.T) {
	table, err := Aggregate(nil, DefaultNetLiq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(table.Rows))
	}
	if !table.Leverage.IsZero() {
		t.Errorf("expected zero leverage, got %s", table.Leverage)
	}
}
