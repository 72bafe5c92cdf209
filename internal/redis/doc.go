// Package redis wraps the go-redis client used by the platform.
//
// It provides the connection setup, a Prometheus hook that instruments
// every command, and a read-through cache for the active-signal list
// that sits in front of PostgreSQL.
package redis
