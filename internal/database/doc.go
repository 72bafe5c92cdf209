// Package database implements the domain repositories backed by PostgreSQL.
//
// One repository per aggregate (signals, trades, markets, users), all sharing
// a pgx connection pool. Repositories translate pgx.ErrNoRows into the
// domain's sentinel errors; callers never see driver errors for missing rows.
package database
