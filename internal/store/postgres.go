package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Transactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT datetime, order_id, chain_id, account, symbol,
		        instruction, effect,
		        quantity::TEXT, price::TEXT, cost::TEXT, description
		 FROM transactions ORDER BY datetime, order_id`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var qty, price, cost string
		if err := rows.Scan(&t.DateTime, &t.OrderID, &t.ChainID, &t.Account,
			&t.Symbol, &t.Instruction, &t.Effect,
			&qty, &price, &cost, &t.Description); err != nil {
			return nil, err
		}
		t.Quantity, _ = decimal.NewFromString(qty)
		t.Price, _ = decimal.NewFromString(price)
		t.Cost, _ = decimal.NewFromString(cost)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *PostgresStore) Positions(ctx context.Context) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT account, symbol,
		        quantity::TEXT, price::TEXT, cost::TEXT,
		        net_liq::TEXT, pnl_open::TEXT
		 FROM positions ORDER BY account, symbol`)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var qty, price, netLiq, pnlOpen string
		var cost *string // NULL when the broker reports no cost basis
		if err := rows.Scan(&p.Account, &p.Symbol,
			&qty, &price, &cost, &netLiq, &pnlOpen); err != nil {
			return nil, err
		}
		p.Quantity, _ = decimal.NewFromString(qty)
		p.Price, _ = decimal.NewFromString(price)
		p.NetLiq, _ = decimal.NewFromString(netLiq)
		p.PnLOpen, _ = decimal.NewFromString(pnlOpen)
		if cost != nil {
			c, _ := decimal.NewFromString(*cost)
			p.Cost = decimal.NewNullDecimal(c)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) Chains(ctx context.Context) ([]model.Chain, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT chain_id, account, underlying, mindate, days,
		        init::TEXT, chain_pnl::TEXT, accr::TEXT
		 FROM chains ORDER BY mindate, chain_id`)
	if err != nil {
		return nil, fmt.Errorf("load chains: %w", err)
	}
	defer rows.Close()

	var chains []model.Chain
	for rows.Next() {
		var c model.Chain
		var init, pnl, accr string
		if err := rows.Scan(&c.ChainID, &c.Account, &c.Underlying,
			&c.MinDate, &c.Days, &init, &pnl, &accr); err != nil {
			return nil, err
		}
		c.Init, _ = decimal.NewFromString(init)
		c.ChainPnL, _ = decimal.NewFromString(pnl)
		c.Accr, _ = decimal.NewFromString(accr)
		chains = append(chains, c)
	}
	return chains, rows.Err()
}

func (s *PostgresStore) PutSharedSummary(ctx context.Context, id string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shared_summaries (id, payload, created_at)
		 VALUES ($1, $2, NOW())`,
		id, payload)
	return err
}

func (s *PostgresStore) GetSharedSummary(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM shared_summaries WHERE id = $1`, id).
		Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shared summary %s: %w", id, err)
	}
	return payload, nil
}
