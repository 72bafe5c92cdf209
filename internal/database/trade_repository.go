package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eyupilis/trading-platform/internal/domain"
)

// tradeColumns must match the Scan order in scanTrade.
const tradeColumns = `t.id, t.signal_id, t.trader_id, t.entry_price, t.exit_price,
	t.quantity, t.pnl, t.status, t.created_at, t.updated_at, u.username, m.symbol`

const tradeJoin = `FROM trades t
	JOIN users u ON t.trader_id = u.id
	JOIN signals s ON t.signal_id = s.id
	JOIN markets m ON s.market_id = m.id`

// TradeRepo implements domain.TradeRepository backed by PostgreSQL.
type TradeRepo struct {
	pool *pgxpool.Pool
}

func NewTradeRepo(pool *pgxpool.Pool) *TradeRepo {
	return &TradeRepo{pool: pool}
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(
		&t.ID, &t.SignalID, &t.TraderID, &t.EntryPrice, &t.ExitPrice,
		&t.Quantity, &t.PnL, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		&t.TraderName, &t.Symbol,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TradeRepo) collectTrades(ctx context.Context, query string, args ...any) ([]domain.Trade, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *t)
	}
	return trades, rows.Err()
}

func (r *TradeRepo) Create(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO trades (signal_id, trader_id, entry_price, exit_price, quantity, pnl, status, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, 0, $5, NOW(), NOW())
		RETURNING id`,
		trade.SignalID, trade.TraderID, trade.EntryPrice, trade.Quantity, domain.TradeStatusOpen,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrSignalNotFound
		}
		return nil, fmt.Errorf("failed to insert trade: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TradeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	trade, err := scanTrade(r.pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` `+tradeJoin+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTradeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

func (r *TradeRepo) ListBySignal(ctx context.Context, signalID uuid.UUID) ([]domain.Trade, error) {
	return r.collectTrades(ctx,
		`SELECT `+tradeColumns+` `+tradeJoin+`
		 WHERE t.signal_id = $1
		 ORDER BY t.created_at DESC`, signalID)
}

func (r *TradeRepo) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]domain.Trade, error) {
	return r.collectTrades(ctx,
		`SELECT `+tradeColumns+` `+tradeJoin+`
		 WHERE t.trader_id = $1
		 ORDER BY t.created_at DESC`, traderID)
}

func (r *TradeRepo) Close(ctx context.Context, id, traderID uuid.UUID, close domain.TradeClose) (*domain.Trade, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE trades
		SET exit_price = $1, pnl = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND trader_id = $5`,
		close.ExitPrice, close.PnL, domain.TradeStatusClosed, id, traderID)
	if err != nil {
		return nil, fmt.Errorf("failed to close trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.ownershipError(ctx, id)
	}

	return r.GetByID(ctx, id)
}

func (r *TradeRepo) Delete(ctx context.Context, id, traderID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM trades WHERE id = $1 AND trader_id = $2`, id, traderID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.ownershipError(ctx, id)
	}
	return nil
}

// ownershipError disambiguates a zero-row mutation: the trade either does
// not exist or belongs to another trader.
func (r *TradeRepo) ownershipError(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trades WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check trade existence: %w", err)
	}
	if exists {
		return domain.ErrNotTradeOwner
	}
	return domain.ErrTradeNotFound
}
