package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Signal statuses. A signal stays ACTIVE until the trader closes or cancels it.
const (
	SignalStatusActive    = "ACTIVE"
	SignalStatusClosed    = "CLOSED"
	SignalStatusCancelled = "CANCELLED"
)

// Signal directions.
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

type Signal struct {
	ID         uuid.UUID `json:"id"`
	TraderID   uuid.UUID `json:"trader_id"`
	MarketID   uuid.UUID `json:"market_id"`
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	Analysis   string    `json:"analysis,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined fields, populated by list/get queries.
	Symbol     string `json:"symbol,omitempty"`
	MarketName string `json:"market_name,omitempty"`
	TraderName string `json:"trader_name,omitempty"`
}

// SignalUpdate carries the trader-editable fields of an existing signal.
type SignalUpdate struct {
	TakeProfit float64
	StopLoss   float64
	Analysis   string
}

// TraderStats aggregates a trader's signal and trade performance.
type TraderStats struct {
	TotalSignals  int     `json:"total_signals"`
	TotalTrades   int     `json:"total_trades"`
	AveragePnL    float64 `json:"average_pnl"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
}

type SignalRepository interface {
	Create(ctx context.Context, signal *Signal) (*Signal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Signal, error)
	ListActive(ctx context.Context) ([]Signal, error)
	ListByMarket(ctx context.Context, marketID uuid.UUID) ([]Signal, error)
	ListByTrader(ctx context.Context, traderID uuid.UUID) ([]Signal, error)
	Update(ctx context.Context, id, traderID uuid.UUID, update SignalUpdate) (*Signal, error)
	UpdateStatus(ctx context.Context, id, traderID uuid.UUID, status string) (*Signal, error)
	Delete(ctx context.Context, id, traderID uuid.UUID) error
	TraderStats(ctx context.Context, traderID uuid.UUID) (*TraderStats, error)
}
