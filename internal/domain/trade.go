package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Trade statuses.
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

// Trade is an execution a trader opened against one of their signals.
type Trade struct {
	ID         uuid.UUID `json:"id"`
	SignalID   uuid.UUID `json:"signal_id"`
	TraderID   uuid.UUID `json:"trader_id"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price,omitempty"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined fields.
	TraderName string `json:"trader_name,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
}

// TradeClose carries the fields set when a trade is closed out.
type TradeClose struct {
	ExitPrice float64
	PnL       float64
}

type TradeRepository interface {
	Create(ctx context.Context, trade *Trade) (*Trade, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)
	ListBySignal(ctx context.Context, signalID uuid.UUID) ([]Trade, error)
	ListByTrader(ctx context.Context, traderID uuid.UUID) ([]Trade, error)
	Close(ctx context.Context, id, traderID uuid.UUID, close TradeClose) (*Trade, error)
	Delete(ctx context.Context, id, traderID uuid.UUID) error
}
