package broadcast

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyupilis/trading-platform/internal/domain"
)

// recordingHub captures the envelopes the emitter would broadcast.
type recordingHub struct {
	events   []string
	payloads []any
	delivery Delivery
}

func (r *recordingHub) Broadcast(event string, data any) Delivery {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, data)
	return r.delivery
}

func (r *recordingHub) lastEnvelopeJSON(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.events)
	raw, err := json.Marshal(domain.Envelope{
		Event: r.events[len(r.events)-1],
		Data:  r.payloads[len(r.payloads)-1],
	})
	require.NoError(t, err)
	return string(raw)
}

func TestEmitter_SignalEvents(t *testing.T) {
	hub := &recordingHub{delivery: Delivery{Sent: 2}}
	emitter := NewEmitter(hub)

	signal := &domain.Signal{
		ID:        uuid.New(),
		Direction: domain.DirectionBuy,
		Status:    domain.SignalStatusActive,
	}

	emitter.EmitNewSignal(signal)
	emitter.EmitSignalUpdate(signal)

	assert.Equal(t, []string{"new_signal", "signal_update"}, hub.events)
	assert.Same(t, signal, hub.payloads[0])
	assert.Same(t, signal, hub.payloads[1])
}

func TestEmitter_TradeEvents(t *testing.T) {
	hub := &recordingHub{}
	emitter := NewEmitter(hub)

	trade := &domain.Trade{ID: uuid.New(), Status: domain.TradeStatusOpen}

	emitter.EmitNewTrade(trade)
	emitter.EmitTradeUpdate(trade)
	emitter.EmitTradeDelete(trade.ID)

	assert.Equal(t, []string{"new_trade", "trade_update", "trade_delete"}, hub.events)
}

func TestEmitter_DeleteEnvelopeShape(t *testing.T) {
	hub := &recordingHub{}
	emitter := NewEmitter(hub)

	id := uuid.MustParse("7f9c24e5-2f7a-4b5e-9d17-3d5c1a2b4c6d")
	emitter.EmitSignalDelete(id)

	// Exactly {event, data:{id}} - no extra fields.
	expected := fmt.Sprintf(`{"event":"signal_delete","data":{"id":"%s"}}`, id)
	assert.JSONEq(t, expected, hub.lastEnvelopeJSON(t))
	assert.Equal(t, expected, hub.lastEnvelopeJSON(t))
}

func TestEmitter_ReturnsDelivery(t *testing.T) {
	hub := &recordingHub{delivery: Delivery{Sent: 3, Failed: 1}}
	emitter := NewEmitter(hub)

	delivery := emitter.EmitNewSignal(&domain.Signal{ID: uuid.New()})
	assert.Equal(t, Delivery{Sent: 3, Failed: 1}, delivery)
}
