// Package entries persists the local cache of ledger entries.
//
// The SQLite implementation works over dbx.DBTX, so the same repository can
// run against the database handle or inside a transaction opened by the
// storage layer. Amounts are stored as decimal text, dates as YYYY-MM-DD and
// recorded_at as unix milliseconds.
package entries
