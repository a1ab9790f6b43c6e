package history

import (
	"strings"
	"testing"
	"time"

	"github.com/buff/report-engine/internal/model"
)

func TestRenderSVG_EvenlySpacedTicks(t *testing.T) {
	dt := at(1, 10)
	txns := []model.ExpandedTransaction{
		txn(t, dt, "ord1", "SPY_210618_P100", "SELL", "OPENING", -1, 1.0, 100),
		txn(t, dt, "ord1", "SPY_210618_P105", "SELL", "OPENING", -1, 1.5, 150),
		txn(t, dt, "ord1", "SPY_210618_P110", "SELL", "OPENING", -1, 2.0, 200),
	}

	svg := RenderSVG(txns)
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(strings.TrimSpace(svg), "</svg>") {
		t.Fatalf("not an svg document:\n%s", svg)
	}

	// Strikes {100, 105, 110} map to x = 0, 500, 1000.
	for _, tick := range []string{
		`<line x1="0" y1="2" x2="0" y2="6"`,
		`<line x1="500" y1="2" x2="500" y2="6"`,
		`<line x1="1000" y1="2" x2="1000" y2="6"`,
	} {
		if !strings.Contains(svg, tick) {
			t.Errorf("missing scale tick %q", tick)
		}
	}
	for _, label := range []string{">100<", ">105<", ">110<"} {
		if !strings.Contains(svg, label) {
			t.Errorf("missing strike label %s", label)
		}
	}
}

func TestRenderSVG_SingleBandForEqualDatetimes(t *testing.T) {
	dt := at(1, 10)
	txns := []model.ExpandedTransaction{
		txn(t, dt, "ord1", "SPY_210618_P100", "SELL", "OPENING", -1, 1.0, 100),
		txn(t, dt, "ord1", "SPY_210618_P105", "SELL", "OPENING", -1, 1.5, 150),
		txn(t, dt, "ord1", "SPY_210618_P110", "SELL", "OPENING", -1, 2.0, 200),
	}

	svg := RenderSVG(txns)

	// No datetime change means no band step: labels sit at 20, 32, 44.
	for _, y := range []string{`y="20"`, `y="32"`, `y="44"`} {
		if !strings.Contains(svg, y) {
			t.Errorf("missing row label at %s", y)
		}
	}
	if strings.Contains(svg, `y="50"`) {
		t.Error("unexpected band step within a single execution event")
	}
}

func TestRenderSVG_NewBandOnDatetimeChange(t *testing.T) {
	txns := []model.ExpandedTransaction{
		txn(t, at(1, 10), "ord1", "SPY_210618_P100", "SELL", "OPENING", -1, 1.0, 100),
		txn(t, at(5, 10), "ord2", "SPY_210618_P100", "BUY", "CLOSING", 1, 0.5, -50),
	}

	svg := RenderSVG(txns)

	// First label at 20; the second starts a new band: 20 + 12 + 30 = 62.
	if !strings.Contains(svg, `y="20"`) {
		t.Error("missing first band label")
	}
	if !strings.Contains(svg, `y="62"`) {
		t.Error("missing second band label after datetime change")
	}
}

func TestRenderSVG_SingleStrikeUnitRange(t *testing.T) {
	dt := at(1, 10)
	txns := []model.ExpandedTransaction{
		txn(t, dt, "ord1", "SPY_210618_P100", "SELL", "OPENING", -1, 1.0, 100),
	}

	svg := RenderSVG(txns)
	// All strikes equal: the unit range pins everything to x = 0.
	if !strings.Contains(svg, `<line x1="0" y1="2" x2="0" y2="6"`) {
		t.Errorf("expected the single tick at x=0:\n%s", svg)
	}
}

func TestRenderSVG_NoStrikes(t *testing.T) {
	dt := time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)
	txns := []model.ExpandedTransaction{
		txn(t, dt, "ord1", "SPY", "BUY", "OPENING", 100, 420, -42000),
	}

	if got := RenderSVG(txns); got != EmptyMessage {
		t.Errorf("expected %q, got %q", EmptyMessage, got)
	}
	if got := RenderSVG(nil); got != EmptyMessage {
		t.Errorf("expected %q for empty input, got %q", EmptyMessage, got)
	}
}
