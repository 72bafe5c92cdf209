// Package server wires the HTTP surface: the REST API under /api/v1, the
// WebSocket feed at /ws, and the observability endpoints.
//
// Mutation handlers follow a strict order: validate, write to PostgreSQL,
// invalidate the signal cache, then emit the broadcast. The HTTP response
// reflects only the database outcome; a failed broadcast is logged and
// counted but never changes the status code.
package server
