// Package report provides the HTTP handlers over the analytics engine:
// chain listings, trade history renderings, risk aggregation and win/loss
// statistics. The handlers are a thin pass-through — all computation lives in
// the engine packages (notional, risk, stats, history).
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/history"
	"github.com/buff/report-engine/internal/metrics"
	"github.com/buff/report-engine/internal/model"
	"github.com/buff/report-engine/internal/risk"
	"github.com/buff/report-engine/internal/stats"
	"github.com/buff/report-engine/internal/store"
)

// histPnLBound clips the raw P/L series fed to the histogram sink.
const histPnLBound = 10000.0

// Service answers the report endpoints from an immutable snapshot built
// exactly once. Warm is called during bootstrap, before the listener starts;
// ensure re-checks under sync.Once so the first request still succeeds if
// bootstrap skipped the warm-up.
type Service struct {
	store  store.Store
	netLiq decimal.Decimal

	once  sync.Once
	state *State
	err   error
}

// NewService creates a report service. netLiq is the account
// net-liquidation value used for leverage; pass risk.DefaultNetLiq when no
// live figure is available.
func NewService(st store.Store, netLiq decimal.Decimal) *Service {
	return &Service{store: st, netLiq: netLiq}
}

// Warm builds the snapshot ahead of serving.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.ensure(ctx)
	return err
}

func (s *Service) ensure(ctx context.Context) (*State, error) {
	s.once.Do(func() {
		s.state, s.err = buildState(ctx, s.store)
	})
	return s.state, s.err
}

// --- Response types ---

// ChainResponse is the JSON body for GET /chains/{chainID}.
type ChainResponse struct {
	Chain        model.Chain                 `json:"chain"`
	Transactions []model.ExpandedTransaction `json:"transactions"`
}

// RiskResponse is the JSON body for GET /risk.
type RiskResponse struct {
	Rows     []model.RiskRow `json:"rows"`
	Total    model.RiskRow   `json:"total"`
	Notional string          `json:"notional"`
	NetLiq   string          `json:"net_liq"`
	Leverage string          `json:"leverage"`
}

// StatsResponse is the JSON body for GET /stats.
type StatsResponse struct {
	Table  [][4]string       `json:"table"`
	Series map[string]string `json:"series"` // series name → URL
}

// ShareRow is one row of a shared summary: the chain table cut down to its
// shareable columns, plus a bottom-line total row.
type ShareRow struct {
	Underlying string `json:"underlying"`
	MinDate    string `json:"mindate,omitempty"`
	Days       int    `json:"days,omitempty"`
	Init       string `json:"init"`
	ChainPnL   string `json:"chain_pnl"`
}

// ShareResponse is the JSON body for POST /share and GET /share/{shareID}.
type ShareResponse struct {
	ID   string     `json:"id"`
	Rows []ShareRow `json:"rows"`
}

// --- HTTP Handlers ---

// ListChains handles GET /api/v1/chains
// Accepts ?chain_ids=a,b,c to restrict the listing.
func (s *Service) ListChains(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	chains := stats.FilterByID(state.Chains, chainIDsParam(r))
	if chains == nil {
		chains = []model.Chain{}
	}
	writeJSON(w, chains)
}

// GetChain handles GET /api/v1/chains/{chainID}
func (s *Service) GetChain(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chainID := chi.URLParam(r, "chainID")
	chain, ok := state.Chain(chainID)
	if !ok {
		writeError(w, "chain not found: "+chainID, http.StatusNotFound)
		return
	}

	txns := state.ChainTransactions(chainID)
	if txns == nil {
		txns = []model.ExpandedTransaction{}
	}
	writeJSON(w, ChainResponse{Chain: chain, Transactions: txns})
}

// ChainHistoryText handles GET /api/v1/chains/{chainID}/history
// Renders the chain's execution timeline as a monospaced text block.
// An unknown chain renders an empty timeline, not an error.
func (s *Service) ChainHistoryText(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chainID := chi.URLParam(r, "chainID")
	block := history.RenderText(state.ChainTransactions(chainID))
	metrics.RendersTotal.WithLabelValues("history_text").Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, block)
}

// ChainHistorySVG handles GET /api/v1/chains/{chainID}/history.svg
func (s *Service) ChainHistorySVG(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chainID := chi.URLParam(r, "chainID")
	markup := history.RenderSVG(state.ChainTransactions(chainID))
	metrics.RendersTotal.WithLabelValues("history_svg").Inc()

	if markup == history.EmptyMessage {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	fmt.Fprint(w, markup)
}

// ListTransactions handles GET /api/v1/transactions
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, state.Transactions)
}

// ListPositions handles GET /api/v1/positions
func (s *Service) ListPositions(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, state.Positions)
}

// Risk handles GET /api/v1/risk
// Aggregates notional exposure per (underlying, expiration) and computes
// leverage against the injected net-liq. A position with an unrecognized
// instrument type fails the whole aggregation.
func (s *Service) Risk(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	table, err := risk.Aggregate(state.Positions, s.netLiq)
	if err != nil {
		slog.Error("risk aggregation failed", "err", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.RendersTotal.WithLabelValues("risk").Inc()

	rows := table.Rows
	if rows == nil {
		rows = []model.RiskRow{}
	}
	writeJSON(w, RiskResponse{
		Rows:     rows,
		Total:    table.Total,
		Notional: groupThousands(table.Notional.RoundBank(0).StringFixed(0)),
		NetLiq:   groupThousands(table.NetLiq.RoundBank(0).StringFixed(0)),
		Leverage: table.Leverage.StringFixed(2),
	})
}

// Stats handles GET /api/v1/stats
// Accepts ?chain_ids=a,b,c to restrict the statistics to a chain subset.
func (s *Service) Stats(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chains := stats.FilterByID(state.Chains, chainIDsParam(r))
	summary := stats.Compute(chains)
	metrics.RendersTotal.WithLabelValues("stats").Inc()

	query := ""
	if ids := r.URL.Query().Get("chain_ids"); ids != "" {
		query = "?chain_ids=" + ids
	}
	writeJSON(w, StatsResponse{
		Table: summary.Table,
		Series: map[string]string{
			"pnl":        "/api/v1/stats/series/pnl" + query,
			"pnlpctinit": "/api/v1/stats/series/pnlpctinit" + query,
			"pnlinit":    "/api/v1/stats/series/pnlinit" + query,
		},
	})
}

// StatsSeries handles GET /api/v1/stats/series/{series}
// Feeds the external histogram renderer: a bare JSON array of floats.
func (s *Service) StatsSeries(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chains := stats.FilterByID(state.Chains, chainIDsParam(r))
	summary := stats.Compute(chains)

	var series []float64
	switch chi.URLParam(r, "series") {
	case "pnl":
		series = clip(summary.PnL, histPnLBound)
	case "pnlpctinit":
		series = summary.PnLPctInit
	case "pnlinit":
		series = summary.Init
	default:
		writeError(w, "unknown series", http.StatusNotFound)
		return
	}
	if series == nil {
		series = []float64{}
	}
	writeJSON(w, series)
}

// Share handles POST /api/v1/share
// Publishes the filtered chain summary (underlying, mindate, days, init,
// chain_pnl plus a __TOTAL__ row) under a fresh ID for later retrieval.
func (s *Service) Share(w http.ResponseWriter, r *http.Request) {
	state, err := s.ensure(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	chains := stats.FilterByID(state.Chains, chainIDsParam(r))

	rows := make([]ShareRow, 0, len(chains)+1)
	totalInit := decimal.Zero
	totalPnL := decimal.Zero
	for _, c := range chains {
		totalInit = totalInit.Add(c.Init)
		totalPnL = totalPnL.Add(c.ChainPnL)
		rows = append(rows, ShareRow{
			Underlying: c.Underlying,
			MinDate:    c.MinDate.Format("2006-01-02"),
			Days:       c.Days,
			Init:       c.Init.StringFixed(2),
			ChainPnL:   c.ChainPnL.StringFixed(2),
		})
	}
	rows = append(rows, ShareRow{
		Underlying: "__TOTAL__",
		Init:       totalInit.StringFixed(2),
		ChainPnL:   totalPnL.StringFixed(2),
	})

	resp := ShareResponse{ID: uuid.New().String(), Rows: rows}
	payload, err := json.Marshal(resp)
	if err != nil {
		writeError(w, "failed to encode summary", http.StatusInternalServerError)
		return
	}
	if err := s.store.PutSharedSummary(r.Context(), resp.ID, payload); err != nil {
		writeError(w, "failed to store summary", http.StatusInternalServerError)
		return
	}
	metrics.RendersTotal.WithLabelValues("share").Inc()

	slog.Info("summary shared", "id", resp.ID, "chains", len(chains))
	writeJSON(w, resp)
}

// GetShared handles GET /api/v1/share/{shareID}
func (s *Service) GetShared(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")

	payload, err := s.store.GetSharedSummary(r.Context(), shareID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "shared summary not found: "+shareID, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to load summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// --- helpers ---

// chainIDsParam parses the optional ?chain_ids=a,b,c filter.
func chainIDsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("chain_ids")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// clip drops values outside (-bound, bound).
func clip(xs []float64, bound float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > -bound && x < bound {
			out = append(out, x)
		}
	}
	return out
}

// groupThousands inserts comma separators into an integer numeral.
func groupThousands(numeral string) string {
	neg := strings.HasPrefix(numeral, "-")
	if neg {
		numeral = numeral[1:]
	}
	var b strings.Builder
	for i, r := range numeral {
		if i > 0 && (len(numeral)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
