// Package subscriber provides the client side of the signal feed: one
// persistent WebSocket connection with named-event listeners and automatic
// reconnection.
//
// Listeners are registered independently of connection state and survive
// reconnects. Reconnection backs off exponentially and gives up after a
// bounded number of consecutive failures; Disconnect is terminal.
//
// Construct one Subscriber per application and pass it where needed - there
// is no package-level singleton.
package subscriber
