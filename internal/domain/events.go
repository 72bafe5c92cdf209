package domain

// Event names broadcast over the WebSocket feed. The set is closed: clients
// ignore anything they do not recognise, so adding a name here is a protocol
// extension, not a breaking change.
const (
	EventNewSignal    = "new_signal"
	EventSignalUpdate = "signal_update"
	EventSignalDelete = "signal_delete"
	EventNewTrade     = "new_trade"
	EventTradeUpdate  = "trade_update"
	EventTradeDelete  = "trade_delete"
)

// Envelope is the wire format for every broadcast message.
// Immutable once constructed; Data is passed through opaque.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// DeletePayload is the data shape for signal_delete and trade_delete events.
type DeletePayload struct {
	ID string `json:"id"`
}
