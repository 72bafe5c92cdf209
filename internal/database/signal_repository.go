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

// signalColumns must match the Scan order in scanSignal.
const signalColumns = `s.id, s.trader_id, s.market_id, s.direction, s.entry_price,
	s.take_profit, s.stop_loss, s.analysis, s.status, s.created_at, s.updated_at,
	m.symbol, m.name, u.username`

const signalJoin = `FROM signals s
	JOIN markets m ON s.market_id = m.id
	JOIN users u ON s.trader_id = u.id`

// SignalRepo implements domain.SignalRepository backed by PostgreSQL.
type SignalRepo struct {
	pool *pgxpool.Pool
}

func NewSignalRepo(pool *pgxpool.Pool) *SignalRepo {
	return &SignalRepo{pool: pool}
}

func scanSignal(row pgx.Row) (*domain.Signal, error) {
	var s domain.Signal
	err := row.Scan(
		&s.ID, &s.TraderID, &s.MarketID, &s.Direction, &s.EntryPrice,
		&s.TakeProfit, &s.StopLoss, &s.Analysis, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&s.Symbol, &s.MarketName, &s.TraderName,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SignalRepo) collectSignals(ctx context.Context, query string, args ...any) ([]domain.Signal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}
	return signals, rows.Err()
}

func (r *SignalRepo) Create(ctx context.Context, signal *domain.Signal) (*domain.Signal, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO signals (trader_id, market_id, direction, entry_price, take_profit, stop_loss, analysis, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		signal.TraderID, signal.MarketID, signal.Direction, signal.EntryPrice,
		signal.TakeProfit, signal.StopLoss, signal.Analysis, domain.SignalStatusActive,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("failed to insert signal: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *SignalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	signal, err := scanSignal(r.pool.QueryRow(ctx,
		`SELECT `+signalColumns+` `+signalJoin+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSignalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}
	return signal, nil
}

func (r *SignalRepo) ListActive(ctx context.Context) ([]domain.Signal, error) {
	return r.collectSignals(ctx,
		`SELECT `+signalColumns+` `+signalJoin+`
		 WHERE s.status = $1
		 ORDER BY s.created_at DESC`, domain.SignalStatusActive)
}

func (r *SignalRepo) ListByMarket(ctx context.Context, marketID uuid.UUID) ([]domain.Signal, error) {
	return r.collectSignals(ctx,
		`SELECT `+signalColumns+` `+signalJoin+`
		 WHERE s.market_id = $1
		 ORDER BY s.created_at DESC`, marketID)
}

func (r *SignalRepo) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]domain.Signal, error) {
	return r.collectSignals(ctx,
		`SELECT `+signalColumns+` `+signalJoin+`
		 WHERE s.trader_id = $1
		 ORDER BY s.created_at DESC`, traderID)
}

func (r *SignalRepo) Update(ctx context.Context, id, traderID uuid.UUID, update domain.SignalUpdate) (*domain.Signal, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE signals
		SET take_profit = $1, stop_loss = $2, analysis = $3, updated_at = NOW()
		WHERE id = $4 AND trader_id = $5`,
		update.TakeProfit, update.StopLoss, update.Analysis, id, traderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update signal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.ownershipError(ctx, id)
	}

	return r.GetByID(ctx, id)
}

func (r *SignalRepo) UpdateStatus(ctx context.Context, id, traderID uuid.UUID, status string) (*domain.Signal, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE signals
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND trader_id = $3`,
		status, id, traderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update signal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.ownershipError(ctx, id)
	}

	return r.GetByID(ctx, id)
}

func (r *SignalRepo) Delete(ctx context.Context, id, traderID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM signals WHERE id = $1 AND trader_id = $2`, id, traderID)
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.ownershipError(ctx, id)
	}
	return nil
}

// ownershipError disambiguates a zero-row mutation: the signal either does
// not exist or belongs to another trader.
func (r *SignalRepo) ownershipError(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check signal existence: %w", err)
	}
	if exists {
		return domain.ErrNotSignalOwner
	}
	return domain.ErrSignalNotFound
}

func (r *SignalRepo) TraderStats(ctx context.Context, traderID uuid.UUID) (*domain.TraderStats, error) {
	var stats domain.TraderStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT s.id),
			COUNT(t.id),
			COALESCE(AVG(t.pnl), 0),
			COUNT(t.id) FILTER (WHERE t.pnl > 0),
			COUNT(t.id) FILTER (WHERE t.pnl < 0)
		FROM signals s
		LEFT JOIN trades t ON t.signal_id = s.id
		WHERE s.trader_id = $1`,
		traderID,
	).Scan(&stats.TotalSignals, &stats.TotalTrades, &stats.AveragePnL,
		&stats.WinningTrades, &stats.LosingTrades)
	if err != nil {
		return nil, fmt.Errorf("failed to get trader stats: %w", err)
	}
	if stats.TotalSignals == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &stats, nil
}
