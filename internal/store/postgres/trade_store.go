package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

// TradeStore implements domain.TradeStore. Trades are keyed by
// (wallet, exchange, id); timestamps are kept as epoch milliseconds.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `exchange, id, ts_ms, market, side, action, price,
	entry_price, exit_price, size_usd, collateral_usd, fee, pnl, tx_id`

func millis(t time.Time) any { return t.UnixMilli() }

func scanTradeRows(rows pgx.Rows) ([]domain.NormalizedTrade, error) {
	trades := []domain.NormalizedTrade{}
	for rows.Next() {
		var (
			t      domain.NormalizedTrade
			action []byte
		)
		if err := rows.Scan(
			&t.Exchange, &t.ID, &t.Timestamp, &t.Market, &t.Side, &action, &t.Price,
			&t.EntryPrice, &t.ExitPrice, &t.SizeUSD, &t.CollateralUSD, &t.Fee, &t.PnL, &t.TxID,
		); err != nil {
			return nil, err
		}
		a, err := domain.DecodeAction(action)
		if err != nil {
			return nil, err
		}
		t.Action = a
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// UpsertBatch inserts trades in one pgx batch. Trades already stored for the
// wallet are left untouched; the IDs of rows actually written are returned in
// input order.
func (s *TradeStore) UpsertBatch(ctx context.Context, wallet string, trades []domain.NormalizedTrade) ([]string, error) {
	if len(trades) == 0 {
		return nil, nil
	}

	const query = `
		INSERT INTO trades (
			wallet, exchange, id, ts_ms, market, side,
			action_type, action, price, entry_price, exit_price,
			size_usd, collateral_usd, fee, pnl, tx_id
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		) ON CONFLICT (wallet, exchange, id) DO NOTHING
		RETURNING id`

	batch := &pgx.Batch{}
	for i, t := range trades {
		action, err := json.Marshal(t.Action)
		if err != nil {
			return nil, fmt.Errorf("postgres: marshal action of trade %d: %w", i, err)
		}
		batch.Queue(query,
			wallet, string(t.Exchange), t.ID, t.Timestamp, t.Market, string(t.Side),
			string(t.Action.Type()), action, t.Price, t.EntryPrice, t.ExitPrice,
			t.SizeUSD, t.CollateralUSD, t.Fee, t.PnL, t.TxID,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted []string
	for i := range trades {
		var id string
		err := br.QueryRow().Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("postgres: upsert trade batch item %d: %w", i, err)
		}
		inserted = append(inserted, id)
	}
	return inserted, nil
}

// ListByWallet returns the wallet's trades newest first.
func (s *TradeStore) ListByWallet(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.NormalizedTrade, error) {
	query, args := listClause(
		`SELECT `+tradeSelectCols+` FROM trades WHERE wallet = $1`,
		[]any{wallet}, "ts_ms", opts, millis,
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades by wallet: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades by wallet: %w", err)
	}
	return trades, nil
}

// ListBefore returns the wallet's trades strictly older than before, oldest
// first.
func (s *TradeStore) ListBefore(ctx context.Context, wallet string, before time.Time) ([]domain.NormalizedTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM trades WHERE wallet = $1 AND ts_ms < $2 ORDER BY ts_ms ASC`,
		wallet, before.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades before: %w", err)
	}
	return trades, nil
}

// CountByWallet returns how many trades are stored for the wallet.
func (s *TradeStore) CountByWallet(ctx context.Context, wallet string) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE wallet = $1`, wallet).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count trades: %w", err)
	}
	return n, nil
}

// LatestTimestamp returns the time of the wallet's newest stored trade, or
// the zero time when none are stored.
func (s *TradeStore) LatestTimestamp(ctx context.Context, wallet string) (time.Time, error) {
	var ms *int64
	if err := s.pool.QueryRow(ctx, `SELECT MAX(ts_ms) FROM trades WHERE wallet = $1`, wallet).Scan(&ms); err != nil {
		return time.Time{}, fmt.Errorf("postgres: latest trade timestamp: %w", err)
	}
	if ms == nil {
		return time.Time{}, nil
	}
	return time.UnixMilli(*ms), nil
}

var _ domain.TradeStore = (*TradeStore)(nil)
