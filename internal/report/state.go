package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buff/report-engine/internal/instrument"
	"github.com/buff/report-engine/internal/metrics"
	"github.com/buff/report-engine/internal/model"
	"github.com/buff/report-engine/internal/store"
)

// State is the immutable application snapshot: the three tables loaded and
// validated once, with transactions pre-expanded and indexed by chain. After
// construction it is only ever read, so handlers share it without
// synchronization.
type State struct {
	Transactions []model.ExpandedTransaction
	Positions    []model.Position
	Chains       []model.Chain

	byChain    map[string][]model.ExpandedTransaction
	chainIndex map[string]model.Chain
}

// buildState loads the tables and performs one-time validation: every
// transaction symbol must expand. A bad symbol is a data-integrity failure of
// the upstream import, fatal at construction.
func buildState(ctx context.Context, st store.Store) (*State, error) {
	txns, err := st.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: load transactions: %w", err)
	}
	positions, err := st.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: load positions: %w", err)
	}
	chains, err := st.Chains(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: load chains: %w", err)
	}

	state := &State{
		Positions:  positions,
		Chains:     chains,
		byChain:    make(map[string][]model.ExpandedTransaction),
		chainIndex: make(map[string]model.Chain, len(chains)),
	}

	state.Transactions = make([]model.ExpandedTransaction, 0, len(txns))
	for _, t := range txns {
		inst, err := instrument.Expand(t.Symbol)
		if err != nil {
			return nil, fmt.Errorf("report: transaction %s/%s: %w", t.OrderID, t.Symbol, err)
		}
		et := model.ExpandedTransaction{Transaction: t, Instrument: inst}
		state.Transactions = append(state.Transactions, et)
		state.byChain[t.ChainID] = append(state.byChain[t.ChainID], et)
	}

	for _, c := range chains {
		state.chainIndex[c.ChainID] = c
	}

	metrics.SnapshotRows.WithLabelValues("transactions").Set(float64(len(txns)))
	metrics.SnapshotRows.WithLabelValues("positions").Set(float64(len(positions)))
	metrics.SnapshotRows.WithLabelValues("chains").Set(float64(len(chains)))
	metrics.SnapshotLoads.Inc()

	slog.Info("snapshot loaded",
		"transactions", len(txns),
		"positions", len(positions),
		"chains", len(chains),
	)
	return state, nil
}

// ChainTransactions returns the expanded transactions of one chain, in input
// order. A missing chain yields an empty slice, never an error.
func (s *State) ChainTransactions(chainID string) []model.ExpandedTransaction {
	return s.byChain[chainID]
}

// Chain looks up one chain summary row.
func (s *State) Chain(chainID string) (model.Chain, bool) {
	c, ok := s.chainIndex[chainID]
	return c, ok
}
