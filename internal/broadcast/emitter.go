package broadcast

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/eyupilis/trading-platform/internal/domain"
	"github.com/eyupilis/trading-platform/internal/metrics"
)

// broadcaster is the narrow surface the emitter needs from the hub.
type broadcaster interface {
	Broadcast(event string, data any) Delivery
}

// Emitter is the typed API over the hub. REST handlers call it after a
// database write commits; they never construct envelopes themselves.
// Emit failures are observability data, not errors - the originating HTTP
// response is decided by the write alone.
type Emitter struct {
	hub broadcaster
}

func NewEmitter(hub broadcaster) *Emitter {
	return &Emitter{hub: hub}
}

// EmitNewSignal announces a freshly created signal.
func (e *Emitter) EmitNewSignal(signal *domain.Signal) Delivery {
	return e.emit(domain.EventNewSignal, signal)
}

// EmitSignalUpdate announces a changed signal (fields or status).
func (e *Emitter) EmitSignalUpdate(signal *domain.Signal) Delivery {
	return e.emit(domain.EventSignalUpdate, signal)
}

// EmitSignalDelete announces a deleted signal. Payload carries the id only.
func (e *Emitter) EmitSignalDelete(signalID uuid.UUID) Delivery {
	return e.emit(domain.EventSignalDelete, domain.DeletePayload{ID: signalID.String()})
}

// EmitNewTrade announces a freshly opened trade.
func (e *Emitter) EmitNewTrade(trade *domain.Trade) Delivery {
	return e.emit(domain.EventNewTrade, trade)
}

// EmitTradeUpdate announces a changed trade.
func (e *Emitter) EmitTradeUpdate(trade *domain.Trade) Delivery {
	return e.emit(domain.EventTradeUpdate, trade)
}

// EmitTradeDelete announces a deleted trade. Payload carries the id only.
func (e *Emitter) EmitTradeDelete(tradeID uuid.UUID) Delivery {
	return e.emit(domain.EventTradeDelete, domain.DeletePayload{ID: tradeID.String()})
}

func (e *Emitter) emit(event string, data any) Delivery {
	delivery := e.hub.Broadcast(event, data)
	if delivery.Failed > 0 {
		metrics.EmitFailuresTotal.WithLabelValues(event).Add(float64(delivery.Failed))
		slog.Warn("Emit delivered partially",
			"event", event,
			"sent", delivery.Sent,
			"failed", delivery.Failed,
		)
	}
	return delivery
}
