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

const marketColumns = `id, symbol, name, type, base_asset, quote_asset, status, created_at`

// MarketRepo implements domain.MarketRepository backed by PostgreSQL.
type MarketRepo struct {
	pool *pgxpool.Pool
}

func NewMarketRepo(pool *pgxpool.Pool) *MarketRepo {
	return &MarketRepo{pool: pool}
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	err := row.Scan(&m.ID, &m.Symbol, &m.Name, &m.Type,
		&m.BaseAsset, &m.QuoteAsset, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MarketRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	market, err := scanMarket(r.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return market, nil
}

func (r *MarketRepo) GetBySymbol(ctx context.Context, symbol string) (*domain.Market, error) {
	market, err := scanMarket(r.pool.QueryRow(ctx,
		`SELECT `+marketColumns+` FROM markets WHERE symbol = $1`, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return market, nil
}

func (r *MarketRepo) List(ctx context.Context) ([]domain.Market, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+marketColumns+` FROM markets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, *m)
	}
	return markets, rows.Err()
}
