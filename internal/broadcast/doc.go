// Package broadcast implements the WebSocket fan-out hub using the actor pattern.
//
// The Hub owns the set of open connections and delivers {event, data} envelopes
// to every registered client. Uses single goroutine + command channel (no mutexes).
// Per-connection write goroutines absorb slow clients: a full send buffer means
// the message is dropped for that client only. Delivery is best effort - no
// acknowledgment, no retry, no replay.
package broadcast
